package supervisor

import (
	"os/exec"
	"syscall"
	"time"
)

// A live worker process.
type handle struct {
	id        int       // Slot the worker occupies.
	pid       int       // OS process ID.
	cmd       *exec.Cmd // Started command, owned by the wait goroutine.
	startedAt time.Time // Timestamp when the process started.
}

// Asks the worker to shut down gracefully.
//
// Signal errors are ignored; they mean the process is already gone and the
// reaper will pick it up.
func (h *handle) terminate() {
	h.cmd.Process.Signal(syscall.SIGTERM)
}

// Kills the worker outright.
func (h *handle) kill() {
	h.cmd.Process.Kill()
}

// One worker position in the pool. The slot survives its processes: when a
// worker dies the handle is cleared and a replacement is spawned into the
// same slot, carrying the slot's restart history with it.
type slot struct {
	h        *handle // Current process, nil while the slot awaits a respawn.
	restarts int     // Total restarts this slot has consumed.
	streak   int     // Consecutive short-lived runs, drives the respawn backoff.
}
