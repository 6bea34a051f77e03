package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var keys = []string{"PORT", "LOG_LEVEL", "LOG_FORMAT", "LOG_DEV", "MAX_UPLOAD_BYTES", "PARSE_WORKERS",
	"DECODE_TIMEOUT", "PENDING_UPLOAD_TTL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.Port != "8080" || c.ParseWorkers != 4 || c.MaxUploadBytes != 32<<20 {
		t.Errorf("defaults: got %+v", c)
	}
	if c.DecodeTimeout != 30*time.Second || c.PendingUploadTTL != 10*time.Minute {
		t.Errorf("durations: got %v %v", c.DecodeTimeout, c.PendingUploadTTL)
	}
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	os.Unsetenv("PARSE_WORKERS")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PORT=7000\nPARSE_WORKERS=8\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PARSE_WORKERS") })

	c := Load(path)
	if c.Port != "9000" {
		t.Errorf("PORT: got %q, want environment value 9000", c.Port)
	}
	if c.ParseWorkers != 8 {
		t.Errorf("PARSE_WORKERS: got %d, want 8 from .env", c.ParseWorkers)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "http")
	t.Setenv("PARSE_WORKERS", "many")
	t.Setenv("DECODE_TIMEOUT", "soon")
	t.Setenv("LOG_FORMAT", "xml")

	err := Load(filepath.Join(t.TempDir(), "missing.env")).Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"PORT", "PARSE_WORKERS", "DECODE_TIMEOUT", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
