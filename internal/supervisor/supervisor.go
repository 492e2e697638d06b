package supervisor

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/droverhq/droverd/internal"
	"github.com/droverhq/droverd/internal/config"
	"github.com/droverhq/droverd/internal/paths"
)

// Result of one worker process run, posted by its wait goroutine.
type exitEvent struct {
	id     int
	pid    int
	code   int
	uptime time.Duration
}

// Runs and watches the worker pool.
//
// The supervisor binds the serving socket exactly once, spawns the
// configured number of worker processes with the listener file descriptor
// inherited, and replaces workers that die. Replacement is paced by an
// exponential per-slot backoff and bounded by a pool-wide restart budget;
// blowing the budget is fatal and surfaces on [Supervisor.Fatal].
type Supervisor struct {
	cfg *config.Config

	listener *net.TCPListener // Serving socket, bound once in Start.
	lnFile   *os.File         // Dup of the listener fd inherited by workers.
	addr     string           // Actual bound address.
	exe      string           // Path of our own binary, re-executed as workers.

	mu        sync.Mutex
	slots     map[int]*slot // Worker slots keyed by id.
	spawns    int           // Total processes started.
	restarts  int           // Total restarts across all slots.
	startedAt time.Time

	budget   *budget
	stopping atomic.Bool

	reaps     chan exitEvent // Worker exits, posted by wait goroutines.
	respawns  chan int       // Slot ids whose backoff delay has elapsed.
	fatals    chan error     // Unrecoverable faults, read by the serve loop.
	drained   chan struct{}  // Closed once stopping and no worker remains.
	drainOnce sync.Once
	cleanOnce sync.Once
	quit      chan struct{} // Closed after drain to stop monitor and timers.

	// Builds the command for one worker slot. Tests substitute this to run
	// stand-in processes instead of re-executing the daemon.
	workerCommand func(id int) *exec.Cmd
}

// Creates a supervisor for the given configuration.
//
// Nothing is bound or spawned until [Supervisor.Start] is called.
func New(cfg *config.Config) *Supervisor {
	s := &Supervisor{
		cfg:      cfg,
		slots:    make(map[int]*slot),
		budget:   newBudget(cfg.MaxRestarts, cfg.RestartWindow),
		reaps:    make(chan exitEvent),
		respawns: make(chan int),
		fatals:   make(chan error, 1),
		drained:  make(chan struct{}),
		quit:     make(chan struct{}),
	}
	s.workerCommand = s.defaultWorkerCommand
	return s
}

// Binds the serving socket and starts the worker pool.
//
// The socket is bound before any worker exists, so a bind failure aborts
// startup cleanly and no worker ever races the bind. Workers inherit the
// listener; the supervisor itself never accepts a connection.
func (s *Supervisor) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBind, s.cfg.Addr(), err)
	}

	tcpLn := ln.(*net.TCPListener)
	file, err := tcpLn.File()
	if err != nil {
		ln.Close()
		return fmt.Errorf("%w: exporting listener: %w", ErrBind, err)
	}

	s.listener = tcpLn
	s.lnFile = file
	s.addr = ln.Addr().String()
	s.startedAt = time.Now()

	if s.exe, err = os.Executable(); err != nil {
		s.exe = os.Args[0]
	}

	if err := writePID(); err != nil {
		slog.Warn("failed to write PID file", "error", err)
	}

	slog.Info("listening", "addr", s.addr, "workers", s.cfg.Workers)

	for id := 0; id < s.cfg.Workers; id++ {
		s.slots[id] = &slot{}
	}

	// The monitor must be receiving before the first worker exists, or an
	// instantly crashing worker would have nowhere to report its exit.
	go s.monitor()

	for id := 0; id < s.cfg.Workers; id++ {
		if err := s.spawn(id); err != nil {
			s.Stop("startup failed")
			return err
		}
	}

	return nil
}

// Returns the address the serving socket is bound to.
func (s *Supervisor) Addr() string {
	return s.addr
}

// Delivers unrecoverable supervisor faults, such as an exceeded restart
// budget. The daemon must shut down and exit non-zero when one arrives.
func (s *Supervisor) Fatal() <-chan error {
	return s.fatals
}

// Starts a worker process in the given slot.
func (s *Supervisor) spawn(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping.Load() {
		return nil
	}

	cmd := s.workerCommand(id)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: worker %d: %w", ErrSpawn, id, err)
	}

	h := &handle{
		id:        id,
		pid:       cmd.Process.Pid,
		cmd:       cmd,
		startedAt: time.Now(),
	}
	s.slots[id].h = h
	s.spawns++

	slog.Info("worker started", "worker", id, "pid", h.pid)

	go s.wait(h)
	return nil
}

// Builds the command for a real worker: the daemon binary re-executed in
// worker mode with the serving socket as its first inherited file.
func (s *Supervisor) defaultWorkerCommand(id int) *exec.Cmd {
	cmd := exec.Command(s.exe, "worker", "--id", strconv.Itoa(id))
	cmd.Env = mergeEnv(os.Environ(), append(s.cfg.Environ(), internal.ModeEnviron()...))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{s.lnFile}

	// Workers get their own process group so a Ctrl-C aimed at the
	// foreground group reaches only the master. The master decides when
	// workers are told to stop.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	return cmd
}

// Blocks until the worker process exits, then reports the exit to the
// monitor.
func (s *Supervisor) wait(h *handle) {
	err := h.cmd.Wait()

	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	} else if err != nil {
		code = -1
	}

	ev := exitEvent{
		id:     h.id,
		pid:    h.pid,
		code:   code,
		uptime: time.Since(h.startedAt),
	}

	select {
	case s.reaps <- ev:
	case <-s.quit:
	}
}

// Reacts to worker exits and elapsed respawn delays until the supervisor
// shuts down.
func (s *Supervisor) monitor() {
	for {
		select {
		case ev := <-s.reaps:
			s.onExit(ev)
		case id := <-s.respawns:
			s.onRespawn(id)
		case <-s.quit:
			return
		}
	}
}

// Handles one worker exit: during shutdown it only tracks the drain,
// otherwise it books the restart and schedules a replacement.
func (s *Supervisor) onExit(ev exitEvent) {
	s.mu.Lock()
	sl := s.slots[ev.id]
	sl.h = nil
	s.mu.Unlock()

	if s.stopping.Load() {
		slog.Debug("worker exited", "worker", ev.id, "pid", ev.pid, "code", ev.code)
		s.checkDrained()
		return
	}

	slog.Warn("worker exited unexpectedly",
		"worker", ev.id, "pid", ev.pid, "code", ev.code, "uptime", ev.uptime.Truncate(time.Millisecond))

	now := time.Now()

	s.mu.Lock()
	if ev.uptime >= s.cfg.RestartWindow {
		sl.streak = 0
	}
	sl.streak++
	sl.restarts++
	s.restarts++
	s.budget.note(now)
	exceeded := s.budget.exceeded(now)
	delay := backoff(sl.streak)
	s.mu.Unlock()

	if exceeded {
		s.fatal(fmt.Errorf("%w: more than %d restarts within %s",
			ErrRestartStorm, s.cfg.MaxRestarts, s.cfg.RestartWindow))
		return
	}

	slog.Info("restarting worker", "worker", ev.id, "delay", delay)

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			select {
			case s.respawns <- ev.id:
			case <-s.quit:
			}
		case <-s.quit:
		}
	}()
}

// Respawns a slot whose backoff delay has elapsed.
func (s *Supervisor) onRespawn(id int) {
	if s.stopping.Load() {
		return
	}
	if err := s.spawn(id); err != nil {
		s.fatal(err)
	}
}

// Posts an unrecoverable fault. Only the first one is kept; the daemon is
// going down either way.
func (s *Supervisor) fatal(err error) {
	select {
	case s.fatals <- err:
	default:
	}
}

// Closes the drained channel once shutdown has begun and no live worker
// remains.
func (s *Supervisor) checkDrained() {
	if !s.stopping.Load() {
		return
	}

	s.mu.Lock()
	live := 0
	for _, sl := range s.slots {
		if sl.h != nil {
			live++
		}
	}
	s.mu.Unlock()

	if live == 0 {
		s.drainOnce.Do(func() { close(s.drained) })
	}
}

// Stops the worker pool and releases the serving socket.
//
// Workers are asked to finish their in-flight requests first. Whoever is
// still alive when the grace timeout expires is killed. Stop returns once
// every worker has been reaped; when a [Supervisor.Kill] or an earlier
// Stop already began the shutdown, it waits for that drain and still runs
// the final cleanup.
func (s *Supervisor) Stop(reason string) error {
	if s.stopping.CompareAndSwap(false, true) {
		slog.Info("stopping", "reason", reason)

		s.mu.Lock()
		for _, sl := range s.slots {
			if sl.h != nil {
				sl.h.terminate()
			}
		}
		s.mu.Unlock()

		s.checkDrained()

		select {
		case <-s.drained:
		case <-time.After(s.cfg.GraceTimeout):
			slog.Warn("grace timeout expired, killing remaining workers")
			s.mu.Lock()
			for _, sl := range s.slots {
				if sl.h != nil {
					sl.h.kill()
				}
			}
			s.mu.Unlock()
			<-s.drained
		}
	} else {
		<-s.drained
	}

	s.cleanOnce.Do(s.cleanup)
	return nil
}

// Releases the serving socket and the runtime files once the pool has
// drained.
func (s *Supervisor) cleanup() {
	close(s.quit)

	if s.lnFile != nil {
		s.lnFile.Close()
	}
	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(paths.PIDFile())

	slog.Info("stopped")
}

// Kills all workers immediately.
//
// Used when a second stop signal arrives: the operator has decided that
// in-flight requests no longer matter. A Stop waiting on the drain, or
// arriving afterwards, completes as soon as the kills are reaped.
func (s *Supervisor) Kill() {
	slog.Warn("forcing immediate worker shutdown")

	s.stopping.Store(true)

	s.mu.Lock()
	for _, sl := range s.slots {
		if sl.h != nil {
			sl.h.kill()
		}
	}
	s.mu.Unlock()

	s.checkDrained()
}

// A point-in-time view of one live worker.
type WorkerInfo struct {
	ID        int
	PID       int
	StartedAt time.Time
	Restarts  int
}

// A point-in-time view of the pool.
type Status struct {
	StartedAt time.Time
	Addr      string
	Workers   []WorkerInfo
	Spawns    int
	Restarts  int
}

// Returns a snapshot of the pool. Slots waiting out a respawn backoff
// have no live worker and are absent from the list.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		StartedAt: s.startedAt,
		Addr:      s.addr,
		Spawns:    s.spawns,
		Restarts:  s.restarts,
	}

	for id, sl := range s.slots {
		if sl.h == nil {
			continue
		}
		st.Workers = append(st.Workers, WorkerInfo{
			ID:        id,
			PID:       sl.h.pid,
			StartedAt: sl.h.startedAt,
			Restarts:  sl.restarts,
		})
	}
	sort.Slice(st.Workers, func(i, j int) bool { return st.Workers[i].ID < st.Workers[j].ID })

	return st
}

// Writes the master PID to the PID file so the CLI can detect whether the
// daemon is already running.
func writePID() error {
	if err := os.MkdirAll(paths.Runtime(), paths.DefaultDirMode); err != nil {
		return err
	}
	return os.WriteFile(paths.PIDFile(), []byte(strconv.Itoa(os.Getpid())), paths.DefaultFileMode)
}

// Merges override env vars on top of a base env slice.
func mergeEnv(base, overrides []string) []string {
	merged := make(map[string]string, len(base)+len(overrides))
	for _, entry := range base {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}
	for _, entry := range overrides {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}

	result := make([]string, 0, len(merged))
	for k, v := range merged {
		result = append(result, k+"="+v)
	}
	return result
}
