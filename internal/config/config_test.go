package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want %q", cfg.Host, "0.0.0.0")
	}
	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.Concurrency != 16 {
		t.Errorf("Concurrency = %d, want 16", cfg.Concurrency)
	}
	if cfg.GraceTimeout != 30*time.Second {
		t.Errorf("GraceTimeout = %v, want 30s", cfg.GraceTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty host", func(c *Config) { c.Host = "" }},
		{"negative port", func(c *Config) { c.Port = -1 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"negative grace timeout", func(c *Config) { c.GraceTimeout = -time.Second }},
		{"negative read timeout", func(c *Config) { c.ReadTimeout = -time.Second }},
		{"zero max restarts", func(c *Config) { c.MaxRestarts = 0 }},
		{"zero restart window", func(c *Config) { c.RestartWindow = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, ErrConfig) {
				t.Errorf("Validate() = %v, want ErrConfig", err)
			}
		})
	}
}

func TestValidateZeroTimeouts(t *testing.T) {
	// Zero request timeouts mean "disabled" and must pass validation.
	cfg := Default()
	cfg.ReadTimeout = 0
	cfg.WriteTimeout = 0
	cfg.IdleTimeout = 0
	cfg.GraceTimeout = 0

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 8000, "0.0.0.0:8000"},
		{"127.0.0.1", 80, "127.0.0.1:80"},
		{"localhost", 0, "localhost:0"},
		{"::1", 8000, "[::1]:8000"},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Host = tt.host
		cfg.Port = tt.port

		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() = %q, want %q", got, tt.want)
		}
	}
}

func TestEnvironRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = 9000
	cfg.Workers = 2
	cfg.Concurrency = 8
	cfg.GraceTimeout = 5 * time.Second
	cfg.ReadTimeout = 0
	cfg.WriteTimeout = 90 * time.Second
	cfg.IdleTimeout = 2 * time.Minute
	cfg.MaxRestarts = 3
	cfg.RestartWindow = 10 * time.Second

	for _, entry := range cfg.Environ() {
		for i := 0; i < len(entry); i++ {
			if entry[i] == '=' {
				t.Setenv(entry[:i], entry[i+1:])
				break
			}
		}
	}

	got, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}
	if *got != *cfg {
		t.Errorf("FromEnv() = %+v, want %+v", got, cfg)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	// With no DROVERD_* variables set, FromEnv is equivalent to Default.
	for _, entry := range Default().Environ() {
		for i := 0; i < len(entry); i++ {
			if entry[i] == '=' {
				t.Setenv(entry[:i], "")
				break
			}
		}
	}

	got, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}
	if *got != *Default() {
		t.Errorf("FromEnv() = %+v, want defaults", got)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"DROVERD_PORT", "eighty"},
		{"DROVERD_WORKERS", "2.5"},
		{"DROVERD_GRACE_TIMEOUT", "30"},
		{"DROVERD_RESTART_WINDOW", "soon"},
		{"DROVERD_WORKERS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			if err == nil {
				t.Fatal("FromEnv() = nil, want error")
			}
			if !errors.Is(err, ErrConfig) {
				t.Errorf("FromEnv() = %v, want ErrConfig", err)
			}
		})
	}
}
