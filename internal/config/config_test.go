package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  type: local
  local:
    base_path: /tmp/pixelrelay
`)

	cfg, err := NewConfigLoader(zap.NewNop()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(32), cfg.Server.MaxUploadMB)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes())
	assert.Equal(t, "image-upload-source-bucket-n", cfg.Buckets.Source)
	assert.Equal(t, "image-resized-destination-bucket-n", cfg.Buckets.Destination)
	assert.Equal(t, "source-folder/", cfg.Buckets.SourceFolder)
	assert.Equal(t, "downloads/", cfg.Staging.Dir)
	assert.Equal(t, 10000, cfg.Resize.MaxDimension)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Database.DSN)
}

func TestLoadNormalisesSourceFolder(t *testing.T) {
	path := writeConfig(t, `
storage:
  type: LOCAL
  local:
    base_path: /tmp/pixelrelay
buckets:
  source_folder: originals
`)

	cfg, err := NewConfigLoader(zap.NewNop()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "originals/", cfg.Buckets.SourceFolder)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PIXELRELAY_STORAGE_TYPE", "minio")
	t.Setenv("PIXELRELAY_STORAGE_MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("PIXELRELAY_STORAGE_MINIO_ACCESS_KEY_ID", "minioadmin")
	t.Setenv("PIXELRELAY_STORAGE_MINIO_SECRET_ACCESS_KEY", "minioadmin")
	t.Setenv("PIXELRELAY_BUCKETS_DESTINATION", "restored")

	cfg, err := NewConfigLoader(zap.NewNop()).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "minio", cfg.Storage.Type)
	assert.Equal(t, "localhost:9000", cfg.Storage.Minio.Endpoint)
	assert.Equal(t, "restored", cfg.Buckets.Destination)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown backend",
			body: "storage:\n  type: ftp\n",
			want: "invalid storage backend: ftp",
		},
		{
			name: "s3 without region",
			body: "storage:\n  type: s3\n",
			want: "s3 region required",
		},
		{
			name: "s3 with half credentials",
			body: "storage:\n  type: s3\n  s3:\n    region: eu-west-1\n    access_key_id: AKIA\n",
			want: "must be set together",
		},
		{
			name: "local without base path",
			body: "storage:\n  type: local\n",
			want: "local base_path required",
		},
		{
			name: "bad log level",
			body: "storage:\n  type: local\n  local:\n    base_path: /tmp/x\nlogging:\n  level: trace\n",
			want: "invalid log level: trace",
		},
		{
			name: "file logging without path",
			body: "storage:\n  type: local\n  local:\n    base_path: /tmp/x\nlogging:\n  output: file\n",
			want: "file_path required",
		},
		{
			name: "non-positive upload limit",
			body: "server:\n  max_upload_mb: 0\nstorage:\n  type: local\n  local:\n    base_path: /tmp/x\n",
			want: "max_upload_mb must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigLoader(zap.NewNop()).Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
