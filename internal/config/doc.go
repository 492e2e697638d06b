// Package config resolves the daemon's serving configuration.
//
// Settings are layered in increasing precedence: compiled-in defaults, an
// optional TOML file, then command line flags and DROVERD_* environment
// variables. The master process resolves a [Config] once, validates it,
// and passes it to workers through their environment:
//
//	cfg := config.Default()
//	if err := cfg.ApplyFile("/etc/droverd.toml"); err != nil { ... }
//	cmd.Env = append(os.Environ(), cfg.Environ()...)
//
// Workers reconstruct the same Config with [FromEnv].
package config
