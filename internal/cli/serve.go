package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/droverhq/droverd/internal"
	"github.com/droverhq/droverd/internal/config"
	"github.com/droverhq/droverd/internal/control"
	"github.com/droverhq/droverd/internal/supervisor"
)

// Represents the 'droverd serve' command.
type ServeCmd struct {
	Config string `short:"c" help:"Load settings from a TOML file." placeholder:"PATH" type:"existingfile"`

	Host        *string `help:"Address to bind." env:"DROVERD_HOST" placeholder:"ADDR"`
	Port        *int    `short:"p" help:"Port to bind." env:"DROVERD_PORT"`
	Workers     *int    `short:"w" help:"Number of worker processes." env:"DROVERD_WORKERS"`
	Concurrency *int    `help:"Concurrent connections per worker." env:"DROVERD_CONCURRENCY"`

	GraceTimeout *time.Duration `help:"Drain window for in-flight requests on shutdown." env:"DROVERD_GRACE_TIMEOUT"`
	ReadTimeout  *time.Duration `help:"Request read deadline, 0 disables." env:"DROVERD_READ_TIMEOUT"`
	WriteTimeout *time.Duration `help:"Response write deadline, 0 disables." env:"DROVERD_WRITE_TIMEOUT"`
	IdleTimeout  *time.Duration `help:"Keep-alive idle deadline, 0 disables." env:"DROVERD_IDLE_TIMEOUT"`

	MaxRestarts   *int           `help:"Worker restarts tolerated per restart window." env:"DROVERD_MAX_RESTARTS"`
	RestartWindow *time.Duration `help:"Width of the restart budget window." env:"DROVERD_RESTART_WINDOW"`
}

// Executes the serve command.
//
// Binds the port, starts the worker pool and the control socket, then
// blocks until a signal, a stop request, or a fatal fault ends the
// daemon. A second signal abandons the drain and kills the pool.
func (c *ServeCmd) Run(ctx context.Context) error {

	cfg, err := c.resolveConfig()
	if err != nil {
		return err
	}

	sup := supervisor.New(cfg)
	if err := sup.Start(); err != nil {
		return err
	}

	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()

	view := &daemonView{sup: sup, stop: stopServe}
	ctl := control.New(socketPath(), view)
	if err := ctl.Start(); err != nil {
		slog.Warn("control socket unavailable", "error", err)
		ctl = nil
	}

	slog.Info("droverd is running", "addr", sup.Addr(), "workers", cfg.Workers, "pid", os.Getpid())

	var fatal error
	select {
	case <-serveCtx.Done():
	case fatal = <-sup.Fatal():
		slog.Error("daemon is failing", "error", fatal)
	}

	// From here on a signal means the operator is done waiting.
	forced := make(chan os.Signal, 1)
	signal.Notify(forced, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(forced)
	go func() {
		<-forced
		slog.Warn("forcing shutdown")
		sup.Kill()
	}()

	if ctl != nil {
		ctl.Stop()
	}
	reason := view.reasonOr("signal received")
	if fatal != nil {
		reason = "fatal fault"
	}
	if err := sup.Stop(reason); err != nil {
		return err
	}
	return fatal
}

// Layers the configuration: defaults, then file, then flags.
func (c *ServeCmd) resolveConfig() (*config.Config, error) {
	cfg := config.Default()

	if c.Config != "" {
		if err := cfg.ApplyFile(c.Config); err != nil {
			return nil, err
		}
	}

	if c.Host != nil {
		cfg.Host = *c.Host
	}
	if c.Port != nil {
		cfg.Port = *c.Port
	}
	if c.Workers != nil {
		cfg.Workers = *c.Workers
	}
	if c.Concurrency != nil {
		cfg.Concurrency = *c.Concurrency
	}
	if c.GraceTimeout != nil {
		cfg.GraceTimeout = *c.GraceTimeout
	}
	if c.ReadTimeout != nil {
		cfg.ReadTimeout = *c.ReadTimeout
	}
	if c.WriteTimeout != nil {
		cfg.WriteTimeout = *c.WriteTimeout
	}
	if c.IdleTimeout != nil {
		cfg.IdleTimeout = *c.IdleTimeout
	}
	if c.MaxRestarts != nil {
		cfg.MaxRestarts = *c.MaxRestarts
	}
	if c.RestartWindow != nil {
		cfg.RestartWindow = *c.RestartWindow
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Adapts the supervisor for the control socket.
type daemonView struct {
	sup  *supervisor.Supervisor
	stop context.CancelFunc

	mu     sync.Mutex
	reason string
}

// Reports the daemon state for a status request.
func (d *daemonView) Status() control.StatusResult {
	st := d.sup.Status()

	result := control.StatusResult{
		Running:  true,
		Version:  internal.VersionString(),
		Pid:      os.Getpid(),
		Uptime:   time.Since(st.StartedAt).Truncate(time.Second).String(),
		Addr:     st.Addr,
		Spawns:   st.Spawns,
		Restarts: st.Restarts,
	}
	for _, w := range st.Workers {
		result.Workers = append(result.Workers, control.WorkerStatus{
			ID:       w.ID,
			Pid:      w.PID,
			Uptime:   time.Since(w.StartedAt).Truncate(time.Second).String(),
			Restarts: w.Restarts,
		})
	}
	return result
}

// Records the stop reason and unblocks the serve loop.
func (d *daemonView) Shutdown(reason string) {
	d.mu.Lock()
	d.reason = reason
	d.mu.Unlock()

	d.stop()
}

// Returns the recorded stop reason, or the fallback if none was set.
func (d *daemonView) reasonOr(fallback string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reason == "" {
		return fallback
	}
	return d.reason
}
