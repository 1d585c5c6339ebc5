package types

type ServerConfig struct {
	Addr               string `mapstructure:"addr" json:"addr"`
	MaxUploadMB        int64  `mapstructure:"max_upload_mb" json:"max_upload_mb"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec" json:"read_timeout_sec"`
	WriteTimeoutSec    int    `mapstructure:"write_timeout_sec" json:"write_timeout_sec"`
	IdleTimeoutSec     int    `mapstructure:"idle_timeout_sec" json:"idle_timeout_sec"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec" json:"shutdown_timeout_sec"`
}

type StorageConfig struct {
	Type  string      `mapstructure:"type" json:"type"`
	Local LocalConfig `mapstructure:"local" json:"local"`
	S3    S3Config    `mapstructure:"s3" json:"s3"`
	Minio MinioConfig `mapstructure:"minio" json:"minio"`
}

type LocalConfig struct {
	BasePath string `mapstructure:"base_path" json:"base_path"`
}

// S3Config falls back to the SDK default credential chain when the static
// keys are left empty.
type S3Config struct {
	Region          string `mapstructure:"region" json:"region"`
	Endpoint        string `mapstructure:"endpoint" json:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" json:"secret_access_key"`
}

type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint" json:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" json:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl" json:"use_ssl"`
	CreateBuckets   bool   `mapstructure:"create_buckets" json:"create_buckets"`
}

type BucketsConfig struct {
	Source       string `mapstructure:"source" json:"source"`
	Destination  string `mapstructure:"destination" json:"destination"`
	SourceFolder string `mapstructure:"source_folder" json:"source_folder"`
}

type StagingConfig struct {
	Dir string `mapstructure:"dir" json:"dir"`
}

type ResizeConfig struct {
	MaxDimension int `mapstructure:"max_dimension" json:"max_dimension"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level" json:"level"`
	Output   string `mapstructure:"output" json:"output"`
	FilePath string `mapstructure:"file_path" json:"file_path"`
}
