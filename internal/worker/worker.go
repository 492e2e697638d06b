package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/droverhq/droverd/internal/app"
	"github.com/droverhq/droverd/internal/config"
)

// File descriptor of the inherited serving socket. The master passes the
// listener as the first extra file, which lands on fd 3 in the child.
const listenerFD = 3

// Serves HTTP on the shared listener inside one worker process.
//
// Workers never bind. They take over the socket the master bound before
// they existed, cap their concurrency with a limited listener, and exit
// zero after a graceful drain. Everything above the transport is delegated
// to the application handler through [app.Adapter].
type Worker struct {
	id      int
	cfg     *config.Config
	handler app.Handler
}

// Creates a worker for the given slot.
func New(id int, cfg *config.Config, handler app.Handler) *Worker {
	return &Worker{id: id, cfg: cfg, handler: handler}
}

// Takes over the inherited listener and serves until ctx is cancelled.
//
// Cancellation starts a graceful drain: the server stops accepting, waits
// up to the grace timeout for in-flight requests, then closes whatever is
// left.
func (w *Worker) Run(ctx context.Context) error {
	ln, err := inheritedListener()
	if err != nil {
		return err
	}
	return w.serve(ctx, ln)
}

// Rebuilds the serving socket from the inherited file descriptor.
func inheritedListener() (net.Listener, error) {
	f := os.NewFile(listenerFD, "listener")
	if f == nil {
		return nil, fmt.Errorf("%w: fd %d was not inherited", ErrWorker, listenerFD)
	}
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("%w: rebuilding listener from fd %d: %w", ErrWorker, listenerFD, err)
	}
	return ln, nil
}

// Serves HTTP on ln until ctx is cancelled.
//
// The listener is capped at the configured concurrency. Connections
// beyond the cap are not rejected; they wait in the accept queue until a
// slot frees up, which is what pushes backpressure onto clients instead
// of shedding their requests.
func (w *Worker) serve(ctx context.Context, ln net.Listener) error {
	limited := netutil.LimitListener(ln, w.cfg.Concurrency)

	srv := &http.Server{
		Handler:      w.withAccessLog(app.NewAdapter(w.handler)),
		ReadTimeout:  w.cfg.ReadTimeout,
		WriteTimeout: w.cfg.WriteTimeout,
		IdleTimeout:  w.cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug),
	}

	slog.Info("worker serving",
		"worker", w.id, "pid", os.Getpid(), "concurrency", w.cfg.Concurrency)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(limited); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%w: %w", ErrWorker, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		slog.Info("worker draining", "worker", w.id, "grace", w.cfg.GraceTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.cfg.GraceTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("grace timeout expired, closing connections", "worker", w.id)
			srv.Close()
		}
		return nil
	})

	err := g.Wait()
	slog.Info("worker exiting", "worker", w.id)
	return err
}
