// Package relay moves uploaded images between the HTTP layer and object
// storage. Resize uploads land in the source bucket under the source folder
// with their requested dimensions as object metadata; restore uploads land at
// the root of the destination bucket, which is also where downloads are read
// from.
package relay

import (
	"PixelRelay/internal/ledger"
	"PixelRelay/internal/staging"
	"PixelRelay/internal/storage"
	types "PixelRelay/pkg"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RestoreMessage = "Restore request sent"

// Recorder keeps an audit trail of relayed uploads. *ledger.Manager
// implements it.
type Recorder interface {
	Record(ctx context.Context, u *ledger.Upload) error
	MarkUploaded(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

type ResizeRequest struct {
	File        io.Reader
	Filename    string
	ContentType string
	Width       int
	Height      int
}

type ResizeResult struct {
	ID       uuid.UUID
	Filename string
	Bucket   string
	Key      string
}

type RestoreRequest struct {
	File        io.Reader
	Filename    string
	ContentType string
}

type RestoreResult struct {
	ID       uuid.UUID
	Filename string
	Bucket   string
	Key      string
	Message  string
}

// Download is a destination object staged on local disk. Release removes it.
type Download struct {
	*staging.File
	Filename string
	Info     *storage.ObjectInfo
}

type Service struct {
	storage  storage.Storage
	area     *staging.Area
	buckets  types.BucketsConfig
	recorder Recorder
	logger   *zap.Logger
	newID    func() uuid.UUID
}

// NewService wires the relay. recorder may be nil to disable the ledger.
func NewService(store storage.Storage, area *staging.Area, buckets types.BucketsConfig, recorder Recorder, logger *zap.Logger) *Service {
	return &Service{
		storage:  store,
		area:     area,
		buckets:  buckets,
		recorder: recorder,
		logger:   logger,
		newID:    uuid.New,
	}
}

// Resize stores the image in the source bucket as
// <source_folder><id>_<filename> with width and height metadata.
func (s *Service) Resize(ctx context.Context, req ResizeRequest) (*ResizeResult, error) {
	name, err := SanitizeResizeFilename(req.Filename)
	if err != nil {
		return nil, err
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, req.Width, req.Height)
	}

	id := s.newID()
	filename := GeneratedName(id, name)
	rec := &ledger.Upload{
		ID:           id,
		Kind:         ledger.KindResize,
		OriginalName: name,
		Bucket:       s.buckets.Source,
		Key:          SourceKey(s.buckets.SourceFolder, filename),
		Width:        strconv.Itoa(req.Width),
		Height:       strconv.Itoa(req.Height),
	}

	metadata := map[string]string{
		"width":  rec.Width,
		"height": rec.Height,
	}
	if err := s.relay(ctx, rec, req.File, req.ContentType, metadata); err != nil {
		return nil, err
	}

	return &ResizeResult{ID: id, Filename: filename, Bucket: rec.Bucket, Key: rec.Key}, nil
}

// Restore stores the image at the root of the destination bucket under its
// original filename. Same-name restores overwrite each other.
func (s *Service) Restore(ctx context.Context, req RestoreRequest) (*RestoreResult, error) {
	name, err := SanitizeFilename(req.Filename)
	if err != nil {
		return nil, err
	}

	rec := &ledger.Upload{
		ID:           s.newID(),
		Kind:         ledger.KindRestore,
		OriginalName: name,
		Bucket:       s.buckets.Destination,
		Key:          name,
	}
	if err := s.relay(ctx, rec, req.File, req.ContentType, nil); err != nil {
		return nil, err
	}

	return &RestoreResult{
		ID:       rec.ID,
		Filename: name,
		Bucket:   rec.Bucket,
		Key:      rec.Key,
		Message:  RestoreMessage,
	}, nil
}

// Download fetches filename from the destination bucket into a staged file
// rewound for reading. The caller must Release it.
func (s *Service) Download(ctx context.Context, filename string) (*Download, error) {
	name, err := SanitizeFilename(filename)
	if err != nil {
		return nil, err
	}

	f, err := s.area.Acquire(name)
	if err != nil {
		return nil, err
	}

	info, err := s.storage.Download(ctx, s.buckets.Destination, name, f)
	if err != nil {
		f.Release()
		s.logger.Error("Download failed",
			zap.String("bucket", s.buckets.Destination),
			zap.String("key", name),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to download %s: %w", name, err)
	}
	if err := f.Rewind(); err != nil {
		f.Release()
		return nil, err
	}

	s.logger.Info("Object downloaded",
		zap.String("bucket", s.buckets.Destination),
		zap.String("key", name),
		zap.Int64("size", info.Size),
	)
	return &Download{File: f, Filename: name, Info: info}, nil
}

// relay stages body, then uploads the staged file. The staged file is removed
// on every return path.
func (s *Service) relay(ctx context.Context, rec *ledger.Upload, body io.Reader, contentType string, metadata map[string]string) error {
	staged, err := s.area.Stage(ctx, rec.OriginalName, body)
	if err != nil {
		s.logger.Error("Failed to stage upload", zap.String("key", rec.Key), zap.Error(err))
		return err
	}
	defer staged.Release()

	size, err := staged.Size()
	if err != nil {
		return fmt.Errorf("failed to stat staged file: %w", err)
	}
	contentType, err = detectContentType(staged, contentType)
	if err != nil {
		return err
	}

	s.record(ctx, rec)

	err = s.storage.Upload(ctx, rec.Bucket, rec.Key, staged, storage.UploadOptions{
		ContentType: contentType,
		Size:        size,
		Metadata:    metadata,
	})
	if err != nil {
		s.logger.Error("Upload failed",
			zap.String("upload_id", rec.ID.String()),
			zap.String("bucket", rec.Bucket),
			zap.String("key", rec.Key),
			zap.Error(err),
		)
		s.markFailed(ctx, rec.ID, err)
		return fmt.Errorf("failed to upload %s: %w", rec.Key, err)
	}

	s.markUploaded(ctx, rec.ID)
	s.logger.Info("Upload relayed",
		zap.String("upload_id", rec.ID.String()),
		zap.String("kind", string(rec.Kind)),
		zap.String("bucket", rec.Bucket),
		zap.String("key", rec.Key),
		zap.Int64("size", size),
	)
	return nil
}

// Ledger writes never fail a relay; errors are logged by the recorder.
func (s *Service) record(ctx context.Context, rec *ledger.Upload) {
	if s.recorder == nil {
		return
	}
	_ = s.recorder.Record(ctx, rec)
}

func (s *Service) markUploaded(ctx context.Context, id uuid.UUID) {
	if s.recorder == nil {
		return
	}
	_ = s.recorder.MarkUploaded(context.WithoutCancel(ctx), id)
}

func (s *Service) markFailed(ctx context.Context, id uuid.UUID, cause error) {
	if s.recorder == nil {
		return
	}
	_ = s.recorder.MarkFailed(context.WithoutCancel(ctx), id, cause.Error())
}

// detectContentType keeps a specific client-supplied type and sniffs the
// staged bytes otherwise. The file is rewound afterwards.
func detectContentType(f *staging.File, declared string) (string, error) {
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to sniff content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind staged file: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}
