package storage

import (
	types "PixelRelay/pkg"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const metaSuffix = ".meta.json"

// LocalStorage keeps objects on disk as <root>/<bucket>/<key>. Content type
// and metadata live in a JSON sidecar next to each object, named by a hash of
// the object's base name so any name that fits NAME_MAX keeps a valid sidecar.
type LocalStorage struct {
	rootPath string
}

type localMeta struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func NewLocalStorage(localCfg types.LocalConfig) (*LocalStorage, error) {
	if localCfg.BasePath == "" {
		return nil, fmt.Errorf("base_path required for local storage")
	}
	if err := os.MkdirAll(localCfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root path: %w", err)
	}
	return &LocalStorage{rootPath: localCfg.BasePath}, nil
}

func (l *LocalStorage) objectPath(bucket, key string) (string, error) {
	if bucket == "" || !filepath.IsLocal(bucket) {
		return "", fmt.Errorf("%w: bucket %q", ErrInvalidKey, bucket)
	}
	rel := filepath.FromSlash(key)
	if key == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(l.rootPath, bucket, rel), nil
}

// Upload writes through a temp file and renames it into place, so concurrent
// writers to one key leave exactly one complete object behind.
func (l *LocalStorage) Upload(ctx context.Context, bucket, key string, body io.Reader, opts UploadOptions) error {
	fullPath, err := l.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := writeAtomic(fullPath, func(w io.Writer) error {
		_, err := io.Copy(w, &ctxReader{ctx: ctx, r: body})
		return err
	}); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}

	meta, err := json.Marshal(localMeta{ContentType: opts.ContentType, Metadata: opts.Metadata})
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := writeAtomic(metaPath(fullPath), func(w io.Writer) error {
		_, err := w.Write(meta)
		return err
	}); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func (l *LocalStorage) Download(ctx context.Context, bucket, key string, w io.Writer) (*ObjectInfo, error) {
	fullPath, err := l.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(w, &ctxReader{ctx: ctx, r: f})
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	info := &ObjectInfo{Bucket: bucket, Key: key, Size: n}
	if raw, err := os.ReadFile(metaPath(fullPath)); err == nil {
		var meta localMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
		info.ContentType = meta.ContentType
		info.Metadata = meta.Metadata
	}
	return info, nil
}

func metaPath(objectPath string) string {
	sum := sha256.Sum256([]byte(filepath.Base(objectPath)))
	return filepath.Join(filepath.Dir(objectPath), "."+hex.EncodeToString(sum[:])+metaSuffix)
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ctxReader stops a copy once ctx is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
