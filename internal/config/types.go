package config

import (
	types "PixelRelay/pkg"
)

type Config struct {
	Server   types.ServerConfig  `mapstructure:"server" json:"server"`
	Storage  types.StorageConfig `mapstructure:"storage" json:"storage"`
	Buckets  types.BucketsConfig `mapstructure:"buckets" json:"buckets"`
	Staging  types.StagingConfig `mapstructure:"staging" json:"staging"`
	Resize   types.ResizeConfig  `mapstructure:"resize" json:"resize"`
	Database DatabaseConfig      `mapstructure:"database" json:"database"`
	Logging  types.LoggingConfig `mapstructure:"logging" json:"logging"`
}

// DatabaseConfig configures the optional upload ledger. An empty DSN
// disables it.
type DatabaseConfig struct {
	DSN     string `mapstructure:"dsn" json:"dsn"`
	Migrate bool   `mapstructure:"migrate" json:"migrate"`
}

// MaxUploadBytes is the request body limit applied to upload routes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
