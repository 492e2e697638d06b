package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (

	// Default bind address. The daemon is meant to sit behind a reverse
	// proxy or inside a container, so it binds all interfaces.
	DefaultHost = "0.0.0.0"

	// Default bind port.
	DefaultPort = 8000

	// Default number of worker processes.
	DefaultWorkers = 4

	// Default number of concurrently served connections per worker.
	DefaultConcurrency = 16

	// Default time workers get to drain in-flight requests on shutdown.
	DefaultGraceTimeout = 30 * time.Second

	// Default per-request read and write deadlines.
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second

	// Default keep-alive idle deadline.
	DefaultIdleTimeout = 60 * time.Second

	// Default restart budget: exceeding this many worker restarts within
	// one restart window is treated as a systemic fault.
	DefaultMaxRestarts = 5

	// Default width of the sliding window the restart budget counts in.
	// A worker that stays up longer than this resets its backoff streak.
	DefaultRestartWindow = 30 * time.Second
)

// Holds the serving configuration.
//
// A Config is resolved once at startup (defaults, then an optional TOML
// file, then flags and environment) and never mutated afterwards. The
// master hands each worker a copy through the environment; see [Environ]
// and [FromEnv].
type Config struct {
	Host        string // Bind address.
	Port        int    // Bind port. 0 lets the OS assign one.
	Workers     int    // Number of worker processes.
	Concurrency int    // Concurrent connections served per worker.

	GraceTimeout time.Duration // Drain window for in-flight requests on shutdown.
	ReadTimeout  time.Duration // Per-request read deadline. 0 disables.
	WriteTimeout time.Duration // Per-request write deadline. 0 disables (streaming).
	IdleTimeout  time.Duration // Keep-alive idle deadline. 0 disables.

	MaxRestarts   int           // Worker restarts tolerated per restart window.
	RestartWindow time.Duration // Sliding window for the restart budget.
}

// Returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		Workers:       DefaultWorkers,
		Concurrency:   DefaultConcurrency,
		GraceTimeout:  DefaultGraceTimeout,
		ReadTimeout:   DefaultReadTimeout,
		WriteTimeout:  DefaultWriteTimeout,
		IdleTimeout:   DefaultIdleTimeout,
		MaxRestarts:   DefaultMaxRestarts,
		RestartWindow: DefaultRestartWindow,
	}
}

// Checks the configuration for values the daemon cannot run with.
//
// Startup aborts on a validation error before the socket is bound.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: bind host must not be empty", ErrConfig)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrConfig, c.Port)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: worker count %d, need at least 1", ErrConfig, c.Workers)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency %d, need at least 1", ErrConfig, c.Concurrency)
	}
	if c.GraceTimeout < 0 {
		return fmt.Errorf("%w: grace timeout must not be negative", ErrConfig)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("%w: request timeouts must not be negative", ErrConfig)
	}
	if c.MaxRestarts < 1 {
		return fmt.Errorf("%w: max restarts %d, need at least 1", ErrConfig, c.MaxRestarts)
	}
	if c.RestartWindow <= 0 {
		return fmt.Errorf("%w: restart window must be positive", ErrConfig)
	}
	return nil
}

// Returns the bind address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Returns the configuration as environment variable entries.
//
// The master appends these to each worker's environment. [FromEnv] on the
// worker side restores an identical Config, so the pair forms the handoff
// contract between the two process roles.
func (c *Config) Environ() []string {
	return []string{
		"DROVERD_HOST=" + c.Host,
		"DROVERD_PORT=" + strconv.Itoa(c.Port),
		"DROVERD_WORKERS=" + strconv.Itoa(c.Workers),
		"DROVERD_CONCURRENCY=" + strconv.Itoa(c.Concurrency),
		"DROVERD_GRACE_TIMEOUT=" + c.GraceTimeout.String(),
		"DROVERD_READ_TIMEOUT=" + c.ReadTimeout.String(),
		"DROVERD_WRITE_TIMEOUT=" + c.WriteTimeout.String(),
		"DROVERD_IDLE_TIMEOUT=" + c.IdleTimeout.String(),
		"DROVERD_MAX_RESTARTS=" + strconv.Itoa(c.MaxRestarts),
		"DROVERD_RESTART_WINDOW=" + c.RestartWindow.String(),
	}
}

// Builds a Config from DROVERD_* environment variables.
//
// Variables that are unset keep their defaults, so a worker spawned by the
// master (which sets all of them) and one started by hand both end up with
// a usable configuration. The result is validated.
func FromEnv() (*Config, error) {
	c := Default()

	var err error
	c.Host = envString("DROVERD_HOST", c.Host)
	if c.Port, err = envInt("DROVERD_PORT", c.Port); err != nil {
		return nil, err
	}
	if c.Workers, err = envInt("DROVERD_WORKERS", c.Workers); err != nil {
		return nil, err
	}
	if c.Concurrency, err = envInt("DROVERD_CONCURRENCY", c.Concurrency); err != nil {
		return nil, err
	}
	if c.GraceTimeout, err = envDuration("DROVERD_GRACE_TIMEOUT", c.GraceTimeout); err != nil {
		return nil, err
	}
	if c.ReadTimeout, err = envDuration("DROVERD_READ_TIMEOUT", c.ReadTimeout); err != nil {
		return nil, err
	}
	if c.WriteTimeout, err = envDuration("DROVERD_WRITE_TIMEOUT", c.WriteTimeout); err != nil {
		return nil, err
	}
	if c.IdleTimeout, err = envDuration("DROVERD_IDLE_TIMEOUT", c.IdleTimeout); err != nil {
		return nil, err
	}
	if c.MaxRestarts, err = envInt("DROVERD_MAX_RESTARTS", c.MaxRestarts); err != nil {
		return nil, err
	}
	if c.RestartWindow, err = envDuration("DROVERD_RESTART_WINDOW", c.RestartWindow); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Returns the named environment variable, or fallback when unset or empty.
func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Returns the named environment variable parsed as an integer, or fallback
// when unset or empty.
func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrConfig, key, v)
	}
	return n, nil
}

// Returns the named environment variable parsed as a duration, or fallback
// when unset or empty.
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a duration", ErrConfig, key, v)
	}
	return d, nil
}
