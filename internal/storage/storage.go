package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidKey     = errors.New("invalid object key")
)

// UploadOptions carries optional object attributes. Size is -1 or 0 when
// unknown.
type UploadOptions struct {
	ContentType string
	Size        int64
	Metadata    map[string]string
}

// ObjectInfo describes an object returned by Download.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ContentType string
	Metadata    map[string]string
}

type Storage interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, opts UploadOptions) error
	Download(ctx context.Context, bucket, key string, w io.Writer) (*ObjectInfo, error)
}

// IsNotFound reports whether err signals a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}
