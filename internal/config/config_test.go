package config

import (
	"familycore/internal/core"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != string(core.StorageSQLite) || cfg.Storage.SQLitePath != "familycore.db" {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.Debounce != core.DefaultDebounce || cfg.MaxRetries != core.DefaultMaxRetries {
		t.Fatalf("unexpected queue defaults %s %d", cfg.Debounce, cfg.MaxRetries)
	}
	if cfg.Blob.Enabled() {
		t.Fatalf("blob storage must be off by default")
	}
	if cfg.PhotoTTL != 15*time.Minute || cfg.LogMode != "development" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FAMILYCORE_STORAGE_DRIVER", "redis")
	t.Setenv("FAMILYCORE_STORAGE_REDIS_ADDR", "cache:6380")
	t.Setenv("FAMILYCORE_STORE_DEBOUNCE", "1s")
	t.Setenv("FAMILYCORE_BLOB_DRIVER", "s3")
	t.Setenv("FAMILYCORE_BLOB_S3_BUCKET", "family-photos")
	t.Setenv("FAMILYCORE_BLOB_S3_PATH_STYLE", "true")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "redis" || cfg.Storage.RedisAddr != "cache:6380" {
		t.Fatalf("env not applied: %+v", cfg.Storage)
	}
	if cfg.Debounce != time.Second {
		t.Fatalf("expected 1s debounce, got %s", cfg.Debounce)
	}
	if cfg.Blob.Driver != "s3" || cfg.Blob.S3.Bucket != "family-photos" || !cfg.Blob.S3.PathStyle {
		t.Fatalf("blob env not applied: %+v", cfg.Blob)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "familycore.yaml")
	body := "storage:\n  driver: blob\n  blob_prefix: records/\nblob:\n  driver: fs\n  fs_root: /tmp/blobs\nstore:\n  max_retries: 7\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "blob" || cfg.Storage.BlobPrefix != "records/" || cfg.Blob.FSRoot != "/tmp/blobs" || cfg.MaxRetries != 7 {
		t.Fatalf("file not applied: %+v", cfg)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown driver", map[string]string{"FAMILYCORE_STORAGE_DRIVER": "mongo"}, "unknown storage.driver"},
		{"postgres without dsn", map[string]string{"FAMILYCORE_STORAGE_DRIVER": "postgres"}, "postgres_dsn"},
		{"blob backend without blob driver", map[string]string{"FAMILYCORE_STORAGE_DRIVER": "blob"}, "requires blob.driver"},
		{"s3 without bucket", map[string]string{"FAMILYCORE_BLOB_DRIVER": "s3"}, "s3_bucket"},
		{"negative retries", map[string]string{"FAMILYCORE_STORE_MAX_RETRIES": "-1"}, "max_retries"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
