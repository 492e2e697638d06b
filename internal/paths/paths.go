package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/droverhq/droverd/internal"
)

const (

	// Default permission mode for directories created by the daemon.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files created by the daemon.
	DefaultFileMode os.FileMode = 0644
)

// Path to the directory for runtime files (control socket, PID file).
//
//	Linux:   $XDG_RUNTIME_DIR/droverd or /run/user/<uid>/droverd
//	macOS:   ~/Library/Caches/droverd/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, internal.Name)
	}
	return filepath.Join(xdg.CacheHome, internal.Name, "run")
}

// Default path to the Unix domain socket used by the status and stop
// commands to reach a running master.
//
//	Linux:   $XDG_RUNTIME_DIR/droverd/droverd.sock
//	macOS:   ~/Library/Caches/droverd/run/droverd.sock
func Socket() string {
	return filepath.Join(Runtime(), internal.Name+".sock")
}

// Default path to the master PID file.
//
//	Linux:   $XDG_RUNTIME_DIR/droverd/droverd.pid
//	macOS:   ~/Library/Caches/droverd/run/droverd.pid
func PIDFile() string {
	return filepath.Join(Runtime(), internal.Name+".pid")
}
