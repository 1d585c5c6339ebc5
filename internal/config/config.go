package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "PIXELRELAY"

type ConfigLoader struct {
	logger *zap.Logger
	v      *viper.Viper
}

func NewConfigLoader(logger *zap.Logger) *ConfigLoader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return &ConfigLoader{
		logger: logger,
		v:      v,
	}
}

// setDefaults registers every key so that AutomaticEnv can override keys
// missing from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.read_timeout_sec", 300)
	v.SetDefault("server.write_timeout_sec", 300)
	v.SetDefault("server.idle_timeout_sec", 120)
	v.SetDefault("server.shutdown_timeout_sec", 30)

	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.local.base_path", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key_id", "")
	v.SetDefault("storage.minio.secret_access_key", "")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.minio.create_buckets", false)

	v.SetDefault("buckets.source", "image-upload-source-bucket-n")
	v.SetDefault("buckets.destination", "image-resized-destination-bucket-n")
	v.SetDefault("buckets.source_folder", "source-folder/")

	v.SetDefault("staging.dir", "downloads/")
	v.SetDefault("resize.max_dimension", 10000)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.migrate", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "console")
	v.SetDefault("logging.file_path", "")
}

// Load reads filePath if it exists, layers environment overrides on top and
// validates the result. A missing file is not an error: defaults and
// environment variables are used instead.
func (cl *ConfigLoader) Load(filePath string) (*Config, error) {
	if filePath != "" {
		cl.v.SetConfigFile(filePath)
		if err := cl.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				cl.logger.Error("Failed to read config file", zap.String("file", filePath), zap.Error(err))
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			cl.logger.Warn("Config file not found, using defaults and environment", zap.String("file", filePath))
		}
	}

	var cfg Config
	if err := cl.v.Unmarshal(&cfg); err != nil {
		cl.logger.Error("Failed to unmarshal config", zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cl.validate(&cfg); err != nil {
		cl.logger.Error("Config validation failed", zap.Error(err))
		return nil, err
	}

	cl.logger.Info("Config loaded successfully",
		zap.String("file", filePath),
		zap.String("storage", cfg.Storage.Type),
		zap.String("source_bucket", cfg.Buckets.Source),
		zap.String("destination_bucket", cfg.Buckets.Destination),
	)
	return &cfg, nil
}

func (cl *ConfigLoader) validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		cfg.Server.ShutdownTimeoutSec = 30
	}

	cfg.Storage.Type = strings.ToLower(cfg.Storage.Type)
	switch cfg.Storage.Type {
	case "s3":
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region required")
		}
		if (cfg.Storage.S3.AccessKeyID == "") != (cfg.Storage.S3.SecretAccessKey == "") {
			return fmt.Errorf("s3 access_key_id and secret_access_key must be set together")
		}
	case "minio":
		if cfg.Storage.Minio.Endpoint == "" {
			return fmt.Errorf("minio endpoint required")
		}
		if cfg.Storage.Minio.AccessKeyID == "" || cfg.Storage.Minio.SecretAccessKey == "" {
			return fmt.Errorf("minio access_key_id and secret_access_key required")
		}
	case "local":
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("local base_path required")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s", cfg.Storage.Type)
	}

	if cfg.Buckets.Source == "" || cfg.Buckets.Destination == "" {
		return fmt.Errorf("source and destination buckets required")
	}
	if cfg.Buckets.SourceFolder != "" && !strings.HasSuffix(cfg.Buckets.SourceFolder, "/") {
		cfg.Buckets.SourceFolder += "/"
	}

	if cfg.Staging.Dir == "" {
		cfg.Staging.Dir = "downloads/"
	}
	if cfg.Resize.MaxDimension <= 0 {
		return fmt.Errorf("resize.max_dimension must be positive")
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if !isValidLogLevel(cfg.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "console"
	}
	if cfg.Logging.Output != "console" && cfg.Logging.Output != "file" {
		return fmt.Errorf("invalid log output: %s", cfg.Logging.Output)
	}
	if cfg.Logging.Output == "file" && cfg.Logging.FilePath == "" {
		return fmt.Errorf("file_path required for file logging")
	}

	return nil
}

func isValidLogLevel(level string) bool {
	levels := []string{"debug", "info", "warn", "error"}
	for _, l := range levels {
		if strings.ToLower(level) == l {
			return true
		}
	}
	return false
}
