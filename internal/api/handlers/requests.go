package handlers

import (
	"PixelRelay/internal/relay"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

const (
	imageField  = "image"
	widthField  = "width"
	heightField = "height"

	// multipart parts above this size spill to disk
	formMemoryBytes = 8 << 20
)

var errBadRequest = errors.New("bad request")

// uploadForm is the parsed image part of a multipart request. Close releases
// the part and any temp files the form parser created.
type uploadForm struct {
	file   multipart.File
	header *multipart.FileHeader
	form   *multipart.Form
}

func (u *uploadForm) Close() error {
	u.file.Close()
	return u.form.RemoveAll()
}

func (u *uploadForm) contentType() string {
	return u.header.Header.Get("Content-Type")
}

func parseUploadForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(formMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to parse form data: %w", errBadRequest, err)
	}

	file, header, err := r.FormFile(imageField)
	if err != nil {
		r.MultipartForm.RemoveAll()
		return nil, fmt.Errorf("%w: missing %q file", errBadRequest, imageField)
	}
	return &uploadForm{file: file, header: header, form: r.MultipartForm}, nil
}

// parseResizeRequest validates the resize form. The returned form must be
// closed by the caller.
func parseResizeRequest(w http.ResponseWriter, r *http.Request, maxBytes int64, maxDimension int) (*relay.ResizeRequest, *uploadForm, error) {
	form, err := parseUploadForm(w, r, maxBytes)
	if err != nil {
		return nil, nil, err
	}

	width, err := parseDimension(r, widthField, maxDimension)
	if err != nil {
		form.Close()
		return nil, nil, err
	}
	height, err := parseDimension(r, heightField, maxDimension)
	if err != nil {
		form.Close()
		return nil, nil, err
	}

	return &relay.ResizeRequest{
		File:        form.file,
		Filename:    form.header.Filename,
		ContentType: form.contentType(),
		Width:       width,
		Height:      height,
	}, form, nil
}

// parseRestoreRequest validates the restore form. The returned form must be
// closed by the caller.
func parseRestoreRequest(w http.ResponseWriter, r *http.Request, maxBytes int64) (*relay.RestoreRequest, *uploadForm, error) {
	form, err := parseUploadForm(w, r, maxBytes)
	if err != nil {
		return nil, nil, err
	}
	return &relay.RestoreRequest{
		File:        form.file,
		Filename:    form.header.Filename,
		ContentType: form.contentType(),
	}, form, nil
}

func parseDimension(r *http.Request, field string, max int) (int, error) {
	values, ok := r.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return 0, fmt.Errorf("%w: missing %q field", errBadRequest, field)
	}
	raw := strings.TrimSpace(values[0])
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > max {
		return 0, fmt.Errorf("%w: %s must be an integer between 1 and %d, got %q", relay.ErrInvalidDimensions, field, max, raw)
	}
	return n, nil
}
