// Package staging buffers request and response bodies on local disk between
// the HTTP layer and object storage. Every staged file is uniquely named and
// removed when released.
package staging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type Area struct {
	dir string
}

// File is a staged file owned by a single request.
type File struct {
	*os.File
	once sync.Once
	err  error
}

func New(dir string) (*Area, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}
	return &Area{dir: dir}, nil
}

func (a *Area) Dir() string {
	return a.dir
}

// Acquire creates an empty staged file. name only shapes the on-disk pattern.
func (a *Area) Acquire(name string) (*File, error) {
	f, err := os.CreateTemp(a.dir, pattern(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}
	return &File{File: f}, nil
}

// Stage copies r into a freshly acquired file and rewinds it for reading.
// The file is released if anything fails.
func (a *Area) Stage(ctx context.Context, name string, r io.Reader) (*File, error) {
	f, err := a.Acquire(name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		f.Release()
		return nil, fmt.Errorf("failed to stage %s: %w", name, err)
	}
	if err := f.Rewind(); err != nil {
		f.Release()
		return nil, err
	}
	return f, nil
}

// Rewind flushes the file and seeks back to the start.
func (f *File) Rewind() error {
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync staged file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind staged file: %w", err)
	}
	return nil
}

// Size returns the current size of the staged file.
func (f *File) Size() (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Release closes and deletes the file. Safe to call more than once.
func (f *File) Release() error {
	f.once.Do(func() {
		f.File.Close()
		if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
			f.err = fmt.Errorf("failed to remove staged file: %w", err)
		}
	})
	return f.err
}

const maxExtLen = 16

// pattern keeps the extension of name so that staged files stay recognisable.
func pattern(name string) string {
	ext := filepath.Ext(filepath.Base(name))
	if ext == "" || len(ext) > maxExtLen || strings.ContainsAny(ext, `/\*`) {
		return "stage-*"
	}
	return "stage-*" + ext
}

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
