package internal

import (
	"strconv"
	"sync/atomic"
)

var (
	quietMode   atomic.Bool // Indicates whether quiet mode is enabled.
	debugMode   atomic.Bool // Indicates whether debug logging is enabled.
	verboseMode atomic.Bool // Indicates whether verbose logging is enabled.
)

// Seeds the mode flags from build-time linker variables.
//
// rawQuiet, rawDebug, and rawVerbose may be set via ldflags; unset values
// default to "false". CLI flags can override the modes after parsing.
func init() {
	if v, err := strconv.ParseBool(rawQuiet); err == nil {
		quietMode.Store(v)
	}
	if v, err := strconv.ParseBool(rawDebug); err == nil {
		debugMode.Store(v)
	}
	if v, err := strconv.ParseBool(rawVerbose); err == nil {
		verboseMode.Store(v)
	}
}

// Enables or disables quiet mode.
func SetQuiet(enabled bool) {
	quietMode.Store(enabled)
}

// Returns true if quiet mode is enabled.
func IsQuiet() bool {
	return quietMode.Load()
}

// Enables or disables debug mode.
func SetDebug(enabled bool) {
	debugMode.Store(enabled)
}

// Returns true if debug mode is enabled.
func IsDebug() bool {
	return debugMode.Load()
}

// Enables or disables verbose logging.
func SetVerbose(enabled bool) {
	verboseMode.Store(enabled)
}

// Returns true if verbose logging is enabled.
func IsVerbose() bool {
	return verboseMode.Load()
}

// Returns the mode flags as environment variable entries.
//
// The supervisor passes these to worker processes so that workers log at
// the same level as the master without needing CLI flags of their own.
func ModeEnviron() []string {
	return []string{
		"DROVERD_QUIET=" + strconv.FormatBool(IsQuiet()),
		"DROVERD_DEBUG=" + strconv.FormatBool(IsDebug()),
		"DROVERD_VERBOSE=" + strconv.FormatBool(IsVerbose()),
	}
}
