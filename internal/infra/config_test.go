package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("STORAGE_ENDPOINT", "storage.example.com")
	t.Setenv("JOB_BATCH_SIZE", "")
	t.Setenv("MAX_RETRIES", "")
	t.Setenv("RETRY_BACKOFF_SECONDS", "")
	t.Setenv("SIGNED_URL_TTL_HOURS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.JobBatchSize != 5 {
		t.Fatalf("JobBatchSize = %d, want 5", cfg.JobBatchSize)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.BackoffBase != 2*time.Second {
		t.Fatalf("BackoffBase = %s, want 2s", cfg.BackoffBase)
	}
	if cfg.UploadDelay != 2*time.Second {
		t.Fatalf("UploadDelay = %s, want 2s", cfg.UploadDelay)
	}
	if cfg.SignedURLTTL != 24*time.Hour {
		t.Fatalf("SignedURLTTL = %s, want 24h", cfg.SignedURLTTL)
	}
	if cfg.StorageBucket != "marketing-media" {
		t.Fatalf("StorageBucket = %q, want marketing-media", cfg.StorageBucket)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORAGE_ENDPOINT", "storage.example.com")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigRequiresStorageEndpoint(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("STORAGE_ENDPOINT", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when STORAGE_ENDPOINT is missing")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("STORAGE_ENDPOINT", "storage.example.com")
	t.Setenv("JOB_BATCH_SIZE", "12")
	t.Setenv("RETRY_BACKOFF_SECONDS", "1")
	t.Setenv("STORAGE_USE_SSL", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.JobBatchSize != 12 {
		t.Fatalf("JobBatchSize = %d, want 12", cfg.JobBatchSize)
	}
	if cfg.BackoffBase != time.Second {
		t.Fatalf("BackoffBase = %s, want 1s", cfg.BackoffBase)
	}
	if cfg.StorageUseSSL {
		t.Fatal("StorageUseSSL should be false")
	}
}
