// Package config loads familycore settings from an optional config file and
// FAMILYCORE_* environment variables.
package config

import (
	"errors"
	"familycore/internal/blob"
	"familycore/internal/core"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FAMILYCORE_STORAGE_DRIVER.
const EnvPrefix = "FAMILYCORE"

// Config is the resolved runtime configuration.
type Config struct {
	Storage    core.StorageConfig
	Blob       blob.Config
	Debounce   time.Duration
	MaxRetries int
	LogMode    string
	PhotoTTL   time.Duration
}

// Defaults registers the default value of every key on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("storage.driver", string(core.StorageSQLite))
	v.SetDefault("storage.sqlite_path", "familycore.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.redis_addr", "127.0.0.1:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.redis_prefix", "familycore:")
	v.SetDefault("storage.blob_prefix", "state/")
	v.SetDefault("blob.driver", "")
	v.SetDefault("blob.fs_root", "./familycore-blobs")
	v.SetDefault("blob.s3_bucket", "")
	v.SetDefault("blob.s3_region", "us-east-1")
	v.SetDefault("blob.s3_endpoint", "")
	v.SetDefault("blob.s3_path_style", false)
	v.SetDefault("blob.photo_ttl", 15*time.Minute)
	v.SetDefault("store.debounce", core.DefaultDebounce)
	v.SetDefault("store.max_retries", core.DefaultMaxRetries)
	v.SetDefault("log.mode", "development")
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	Defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file (when non-empty) on top of defaults and environment and
// decodes the result.
func Load(file string) (Config, error) {
	v := New()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes a populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Storage: core.StorageConfig{
			Driver:        v.GetString("storage.driver"),
			SQLitePath:    v.GetString("storage.sqlite_path"),
			PostgresDSN:   v.GetString("storage.postgres_dsn"),
			RedisAddr:     v.GetString("storage.redis_addr"),
			RedisPassword: v.GetString("storage.redis_password"),
			RedisDB:       v.GetInt("storage.redis_db"),
			RedisPrefix:   v.GetString("storage.redis_prefix"),
			BlobPrefix:    v.GetString("storage.blob_prefix"),
		},
		Blob: blob.Config{
			Driver: v.GetString("blob.driver"),
			FSRoot: v.GetString("blob.fs_root"),
			S3: blob.S3Config{
				Bucket:          v.GetString("blob.s3_bucket"),
				Region:          v.GetString("blob.s3_region"),
				Endpoint:        v.GetString("blob.s3_endpoint"),
				PathStyle:       v.GetBool("blob.s3_path_style"),
				AccessKeyID:     v.GetString("blob.s3_access_key_id"),
				SecretAccessKey: v.GetString("blob.s3_secret_access_key"),
			},
		},
		Debounce:   v.GetDuration("store.debounce"),
		MaxRetries: v.GetInt("store.max_retries"),
		LogMode:    v.GetString("log.mode"),
		PhotoTTL:   v.GetDuration("blob.photo_ttl"),
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that would fail later at open time.
func (c Config) Validate() error {
	var errs []error
	switch core.StorageDriver(strings.ToLower(c.Storage.Driver)) {
	case core.StorageMemory, core.StorageSQLite, core.StorageRedis:
	case core.StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	case core.StorageBlob:
		if !c.Blob.Enabled() {
			errs = append(errs, errors.New("storage driver blob requires blob.driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Blob.Enabled() && strings.EqualFold(c.Blob.Driver, string(blob.DriverS3)) && c.Blob.S3.Bucket == "" {
		errs = append(errs, errors.New("blob.s3_bucket is required for the s3 driver"))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("store.debounce must not be negative, got %s", c.Debounce))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("store.max_retries must not be negative, got %d", c.MaxRetries))
	}
	return errors.Join(errs...)
}
