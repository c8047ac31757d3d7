package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"MYPATIENTS_API_URL", "MYPATIENTS_PROFILE", "LOG_LEVEL", "SESSION_STORE",
		"SESSION_FILE", "QUERY_RETRY", "QUERY_RETRY_DELAY", "QUERY_STALE_TIME",
		"QUERY_REFETCH_ON_FOCUS", "INVOICE_ARCHIVE_BUCKET",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.APIBaseURL != "http://localhost:5150/api" {
		t.Fatalf("expected default api url, got %s", cfg.APIBaseURL)
	}
	if cfg.Profile != "default" {
		t.Fatalf("expected default profile, got %s", cfg.Profile)
	}
	if cfg.SessionStore != SessionStoreFile {
		t.Fatalf("expected file session store, got %s", cfg.SessionStore)
	}
	if !strings.HasSuffix(cfg.SessionFile, "session.json") {
		t.Fatalf("unexpected session file %s", cfg.SessionFile)
	}
	if cfg.QueryRetry != 2 {
		t.Fatalf("expected 2 query retries, got %d", cfg.QueryRetry)
	}
	if cfg.QueryRetryDelay != time.Second {
		t.Fatalf("expected 1s retry delay, got %s", cfg.QueryRetryDelay)
	}
	if cfg.QueryStaleTime != 0 {
		t.Fatalf("expected no stale time, got %s", cfg.QueryStaleTime)
	}
	if cfg.QueryRefetchOnFocus {
		t.Fatalf("expected refetch on focus disabled by default")
	}
	if cfg.InvoiceArchiveBucket != "" {
		t.Fatalf("expected archive disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MYPATIENTS_API_URL", "https://mypatients.example/api/")
	t.Setenv("MYPATIENTS_PROFILE", "office-b")
	t.Setenv("SESSION_STORE", " Redis ")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("QUERY_RETRY", "0")
	t.Setenv("QUERY_STALE_TIME", "3m")
	t.Setenv("QUERY_REFETCH_ON_FOCUS", "true")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("INVOICE_ARCHIVE_BUCKET", "invoices")
	cfg := Load()
	if cfg.APIBaseURL != "https://mypatients.example/api" {
		t.Fatalf("expected trimmed api url, got %s", cfg.APIBaseURL)
	}
	if cfg.Profile != "office-b" {
		t.Fatalf("expected profile override, got %s", cfg.Profile)
	}
	if cfg.SessionStore != SessionStoreRedis {
		t.Fatalf("expected redis store, got %q", cfg.SessionStore)
	}
	if cfg.RedisAddr != "cache:6380" {
		t.Fatalf("expected redis addr override, got %s", cfg.RedisAddr)
	}
	if cfg.QueryRetry != 0 {
		t.Fatalf("expected retry override, got %d", cfg.QueryRetry)
	}
	if cfg.QueryStaleTime != 3*time.Minute {
		t.Fatalf("expected stale time override, got %s", cfg.QueryStaleTime)
	}
	if !cfg.QueryRefetchOnFocus {
		t.Fatalf("expected refetch on focus enabled")
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.HTTPTimeout)
	}
	if cfg.InvoiceArchiveBucket != "invoices" {
		t.Fatalf("expected bucket override, got %s", cfg.InvoiceArchiveBucket)
	}
}
