package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration with TOML-friendly text decoding ("30s", "2m").
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// Mirrors Config with pointer fields so the file overlay can tell an
// absent key from a zero value. Only keys present in the file override
// the configuration.
type fileConfig struct {
	Host        *string `toml:"host"`
	Port        *int    `toml:"port"`
	Workers     *int    `toml:"workers"`
	Concurrency *int    `toml:"concurrency"`

	GraceTimeout *duration `toml:"grace_timeout"`
	ReadTimeout  *duration `toml:"read_timeout"`
	WriteTimeout *duration `toml:"write_timeout"`
	IdleTimeout  *duration `toml:"idle_timeout"`

	MaxRestarts   *int      `toml:"max_restarts"`
	RestartWindow *duration `toml:"restart_window"`
}

// Overlays c with the settings from a TOML file.
//
// Keys missing from the file leave the corresponding fields untouched.
// Unknown keys are an error so that a typo does not silently fall back to
// a default.
func (c *Config) ApplyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	defer f.Close()

	var fc fileConfig
	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}

	if fc.Host != nil {
		c.Host = *fc.Host
	}
	if fc.Port != nil {
		c.Port = *fc.Port
	}
	if fc.Workers != nil {
		c.Workers = *fc.Workers
	}
	if fc.Concurrency != nil {
		c.Concurrency = *fc.Concurrency
	}
	if fc.GraceTimeout != nil {
		c.GraceTimeout = time.Duration(*fc.GraceTimeout)
	}
	if fc.ReadTimeout != nil {
		c.ReadTimeout = time.Duration(*fc.ReadTimeout)
	}
	if fc.WriteTimeout != nil {
		c.WriteTimeout = time.Duration(*fc.WriteTimeout)
	}
	if fc.IdleTimeout != nil {
		c.IdleTimeout = time.Duration(*fc.IdleTimeout)
	}
	if fc.MaxRestarts != nil {
		c.MaxRestarts = *fc.MaxRestarts
	}
	if fc.RestartWindow != nil {
		c.RestartWindow = time.Duration(*fc.RestartWindow)
	}
	return nil
}
