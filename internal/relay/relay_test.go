package relay

import (
	"PixelRelay/internal/ledger"
	"PixelRelay/internal/staging"
	"PixelRelay/internal/storage"
	types "PixelRelay/pkg"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testBuckets = types.BucketsConfig{
	Source:       "source",
	Destination:  "dest",
	SourceFolder: "source-folder/",
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, u *ledger.Upload) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockRecorder) MarkUploaded(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRecorder) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Upload(ctx context.Context, bucket, key string, body io.Reader, opts storage.UploadOptions) error {
	return m.Called(ctx, bucket, key, body, opts).Error(0)
}

func (m *mockStorage) Download(ctx context.Context, bucket, key string, w io.Writer) (*storage.ObjectInfo, error) {
	args := m.Called(ctx, bucket, key, w)
	info, _ := args.Get(0).(*storage.ObjectInfo)
	return info, args.Error(1)
}

type fixture struct {
	svc     *Service
	store   *storage.LocalStorage
	staging string
}

func newFixture(t *testing.T, recorder Recorder) *fixture {
	t.Helper()
	store, err := storage.NewLocalStorage(types.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)
	dir := t.TempDir()
	area, err := staging.New(dir)
	require.NoError(t, err)
	return &fixture{
		svc:     NewService(store, area, testBuckets, recorder, zap.NewNop()),
		store:   store,
		staging: dir,
	}
}

func assertStagingEmpty(t *testing.T, dir string) {
	t.Helper()
	list, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, list, "staged files must be removed")
}

func TestResizeUploadsToSourceFolderWithMetadata(t *testing.T) {
	f := newFixture(t, nil)
	id := uuid.MustParse("6f1c2a52-3b0e-4f0a-9c59-2d7f1f0c8e11")
	f.svc.newID = func() uuid.UUID { return id }

	res, err := f.svc.Resize(context.Background(), ResizeRequest{
		File:        strings.NewReader("\x89PNG\r\n\x1a\nrest"),
		Filename:    "cat.png",
		ContentType: "image/png",
		Width:       640,
		Height:      480,
	})
	require.NoError(t, err)

	assert.Equal(t, id.String()+"_cat.png", res.Filename)
	assert.Equal(t, "source-folder/"+res.Filename, res.Key)
	assert.Equal(t, "source", res.Bucket)

	var buf bytes.Buffer
	info, err := f.store.Download(context.Background(), "source", res.Key, &buf)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG\r\n\x1a\nrest", buf.String())
	assert.Equal(t, map[string]string{"width": "640", "height": "480"}, info.Metadata)
	assert.Equal(t, "image/png", info.ContentType)

	assertStagingEmpty(t, f.staging)
}

func TestResizeSniffsMissingContentType(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.Resize(context.Background(), ResizeRequest{
		File:     strings.NewReader("\x89PNG\r\n\x1a\n0000"),
		Filename: "cat.png",
		Width:    1,
		Height:   1,
	})
	require.NoError(t, err)

	info, err := f.store.Download(context.Background(), "source", res.Key, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)
}

func TestResizeGeneratesDistinctNames(t *testing.T) {
	f := newFixture(t, nil)

	a, err := f.svc.Resize(context.Background(), ResizeRequest{File: strings.NewReader("a"), Filename: "x.png", Width: 1, Height: 1})
	require.NoError(t, err)
	b, err := f.svc.Resize(context.Background(), ResizeRequest{File: strings.NewReader("b"), Filename: "x.png", Width: 1, Height: 1})
	require.NoError(t, err)

	assert.NotEqual(t, a.Key, b.Key)
	assert.True(t, strings.HasSuffix(a.Filename, "_x.png"))
}

func TestResizeRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Resize(context.Background(), ResizeRequest{File: strings.NewReader("a"), Filename: "x.png", Width: 0, Height: 10})
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	_, err = f.svc.Resize(context.Background(), ResizeRequest{File: strings.NewReader("a"), Filename: `a\b.png`, Width: 1, Height: 1})
	assert.ErrorIs(t, err, ErrInvalidFilename)

	assertStagingEmpty(t, f.staging)
}

func TestResizeLongestAcceptedFilename(t *testing.T) {
	f := newFixture(t, nil)
	name := strings.Repeat("n", 255-37-4) + ".png"

	res, err := f.svc.Resize(context.Background(), ResizeRequest{File: strings.NewReader("a"), Filename: name, Width: 1, Height: 1})
	require.NoError(t, err)
	assert.Len(t, res.Filename, 255)

	_, err = f.svc.Resize(context.Background(), ResizeRequest{File: strings.NewReader("a"), Filename: "n" + name, Width: 1, Height: 1})
	assert.ErrorIs(t, err, ErrInvalidFilename)

	assertStagingEmpty(t, f.staging)
}

func TestRestoreKeepsExactFilename(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.Restore(context.Background(), RestoreRequest{File: strings.NewReader("x"), Filename: "my photo (1).jpg"})
	require.NoError(t, err)
	assert.Equal(t, "my photo (1).jpg", res.Key)

	_, err = f.svc.Restore(context.Background(), RestoreRequest{File: strings.NewReader("x"), Filename: " a.png "})
	assert.ErrorIs(t, err, ErrInvalidFilename)
}

func TestRestoreUploadsToDestinationRoot(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.Restore(context.Background(), RestoreRequest{
		File:     strings.NewReader("restored"),
		Filename: "old-photo.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, "old-photo.jpg", res.Key)
	assert.Equal(t, "dest", res.Bucket)
	assert.Equal(t, RestoreMessage, res.Message)

	var buf bytes.Buffer
	_, err = f.store.Download(context.Background(), "dest", "old-photo.jpg", &buf)
	require.NoError(t, err)
	assert.Equal(t, "restored", buf.String())

	assertStagingEmpty(t, f.staging)
}

func TestRestoreRejectsPathSeparators(t *testing.T) {
	f := newFixture(t, nil)

	for _, name := range []string{"../escape.png", "dir/file.png", `..\escape.png`} {
		_, err := f.svc.Restore(context.Background(), RestoreRequest{File: strings.NewReader("x"), Filename: name})
		assert.ErrorIs(t, err, ErrInvalidFilename, name)
	}
	assertStagingEmpty(t, f.staging)
}

func TestConcurrentRestoresSameFilename(t *testing.T) {
	f := newFixture(t, nil)

	payloads := make([]string, 10)
	for i := range payloads {
		payloads[i] = strings.Repeat(fmt.Sprintf("%c", 'a'+i), 8192)
	}

	var wg sync.WaitGroup
	for _, p := range payloads {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			_, err := f.svc.Restore(context.Background(), RestoreRequest{File: strings.NewReader(p), Filename: "same.png"})
			assert.NoError(t, err)
		}(p)
	}
	wg.Wait()

	var buf bytes.Buffer
	_, err := f.store.Download(context.Background(), "dest", "same.png", &buf)
	require.NoError(t, err)
	assert.Contains(t, payloads, buf.String())
	assertStagingEmpty(t, f.staging)
}

func TestDownloadRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.store.Upload(context.Background(), "dest", "result.png", strings.NewReader("resized"), storage.UploadOptions{ContentType: "image/png"}))

	d, err := f.svc.Download(context.Background(), "result.png")
	require.NoError(t, err)

	data, err := io.ReadAll(d)
	require.NoError(t, err)
	assert.Equal(t, "resized", string(data))
	assert.Equal(t, "result.png", d.Filename)
	assert.Equal(t, "image/png", d.Info.ContentType)

	require.NoError(t, d.Release())
	assertStagingEmpty(t, f.staging)
}

func TestDownloadMissingObject(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Download(context.Background(), "missing.png")
	require.Error(t, err)
	assert.True(t, storage.IsNotFound(err))
	assertStagingEmpty(t, f.staging)
}

func TestRecorderTracksSuccess(t *testing.T) {
	rec := &mockRecorder{}
	f := newFixture(t, rec)
	id := uuid.New()
	f.svc.newID = func() uuid.UUID { return id }

	rec.On("Record", mock.Anything, mock.MatchedBy(func(u *ledger.Upload) bool {
		return u.ID == id && u.Kind == ledger.KindResize && u.Width == "10" && u.Height == "20"
	})).Return(nil)
	rec.On("MarkUploaded", mock.Anything, id).Return(nil)

	_, err := f.svc.Resize(context.Background(), ResizeRequest{File: strings.NewReader("x"), Filename: "a.png", Width: 10, Height: 20})
	require.NoError(t, err)
	rec.AssertExpectations(t)
}

func TestRecorderErrorsDoNotFailUpload(t *testing.T) {
	rec := &mockRecorder{}
	f := newFixture(t, rec)

	rec.On("Record", mock.Anything, mock.Anything).Return(errors.New("db down"))
	rec.On("MarkUploaded", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := f.svc.Restore(context.Background(), RestoreRequest{File: strings.NewReader("x"), Filename: "a.png"})
	require.NoError(t, err)
}

func TestUploadFailureIsRecordedAndCleanedUp(t *testing.T) {
	rec := &mockRecorder{}
	store := &mockStorage{}
	dir := t.TempDir()
	area, err := staging.New(dir)
	require.NoError(t, err)
	svc := NewService(store, area, testBuckets, rec, zap.NewNop())

	boom := errors.New("access denied")
	store.On("Upload", mock.Anything, "dest", "a.png", mock.Anything, mock.Anything).Return(boom)
	rec.On("Record", mock.Anything, mock.Anything).Return(nil)
	rec.On("MarkFailed", mock.Anything, mock.Anything, "access denied").Return(nil)

	_, err = svc.Restore(context.Background(), RestoreRequest{File: strings.NewReader("x"), Filename: "a.png"})
	require.ErrorIs(t, err, boom)

	rec.AssertExpectations(t)
	rec.AssertNotCalled(t, "MarkUploaded", mock.Anything, mock.Anything)
	assertStagingEmpty(t, dir)
}
