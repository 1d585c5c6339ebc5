package handlers

import (
	"PixelRelay/internal/relay"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// DownloadHandler streams destination-bucket objects back as attachments
type DownloadHandler struct {
	relay  *relay.Service
	logger *zap.Logger
}

func NewDownloadHandler(svc *relay.Service, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{relay: svc, logger: logger}
}

// Handle serves GET /download/{filename}
func (h *DownloadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	filename, err := filenameParam(r)
	if err != nil {
		h.logger.Warn("Invalid download path", zap.String("request_id", reqID), zap.Error(err))
		status, message := classify(err)
		http.Error(w, message, status)
		return
	}

	download, err := h.relay.Download(r.Context(), filename)
	if err != nil {
		h.logger.Error("Download failed",
			zap.String("request_id", reqID),
			zap.String("filename", filename),
			zap.Error(err),
		)
		status, message := classify(err)
		http.Error(w, message, status)
		return
	}
	defer download.Release()

	if ct := download.Info.ContentType; ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": download.Filename,
	}))

	// ServeContent fills in Content-Length, range support and a type sniffed
	// from the name when the store did not report one.
	http.ServeContent(w, r, download.Filename, time.Time{}, download.File)
}

// filenameParam returns the decoded {filename} segment. chi routes on
// RawPath when the client's escaping differs from Go's, leaving the param
// percent-encoded.
func filenameParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "filename")
	if r.URL.RawPath == "" {
		return raw, nil
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", relay.ErrInvalidFilename, err)
	}
	return name, nil
}
