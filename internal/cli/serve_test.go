package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/droverhq/droverd/internal/config"
)

func intp(v int) *int { return &v }

func TestResolveConfigDefaults(t *testing.T) {
	var cmd ServeCmd

	cfg, err := cmd.resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if *cfg != *config.Default() {
		t.Fatalf("got %+v, want defaults", cfg)
	}
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "droverd.toml")
	if err := os.WriteFile(path, []byte("port = 9000\nworkers = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := ServeCmd{
		Config:  path,
		Workers: intp(8),
	}

	cfg, err := cmd.resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("port is %d, want 9000 from the file", cfg.Port)
	}
	if cfg.Workers != 8 {
		t.Errorf("workers is %d, want 8 from the flag", cfg.Workers)
	}
	if cfg.Concurrency != config.DefaultConcurrency {
		t.Errorf("concurrency is %d, want the default", cfg.Concurrency)
	}
}

func TestResolveConfigInvalid(t *testing.T) {
	cmd := ServeCmd{Workers: intp(0)}

	if _, err := cmd.resolveConfig(); !errors.Is(err, config.ErrConfig) {
		t.Fatalf("error is %v, want ErrConfig", err)
	}
}
