package internal

import (
	"fmt"
	"runtime"
	"strings"
)

// Name of the daemon, used for the binary, log output, and path components.
const Name = "droverd"

const (

	// Placeholder for variables the build pipeline did not set.
	defaultUndefined = "(undefined)"

	// Version string reported by builds made outside the pipeline.
	defaultDevBuild = "(dev)"

	// Release branch whose name is omitted from version strings.
	releaseBranch = "main"
)

var (
	version   = "" // Release version (e.g., "0.4.1")
	branch    = "" // Git branch the binary was built from
	gitCommit = "" // Git commit hash

	rawQuiet   = "false" // Whether quiet mode is on by default
	rawDebug   = "false" // Whether debug mode is on by default
	rawVerbose = "false" // Whether verbose logging is on by default
)

// Returns the release version with any "v" prefix stripped, or "(undefined)"
// when the build pipeline did not set one.
func Version() string {
	v := strings.TrimSpace(version)
	if v == "" {
		return defaultUndefined
	}

	v = strings.ToLower(v)
	v = strings.TrimPrefix(v, "v")

	return v
}

// Returns the git branch the binary was built from, or "(undefined)".
func Branch() string {
	b := strings.TrimSpace(branch)
	if b == "" {
		return defaultUndefined
	}
	return strings.ToLower(b)
}

// Returns the git commit hash, or "(undefined)".
func GitCommit() string {
	c := strings.TrimSpace(gitCommit)
	if c == "" {
		return defaultUndefined
	}
	return c
}

// Returns the build architecture.
func Arch() string {
	return runtime.GOARCH
}

// Reports whether this is a dev (non-pipeline) build.
//
// Pipeline builds set the version, branch, and commit variables via linker
// flags; a build missing any of them is considered dev.
func IsDev() bool {
	return strings.TrimSpace(version) == "" ||
		strings.TrimSpace(branch) == "" ||
		strings.TrimSpace(gitCommit) == ""
}

// Returns a detailed version string.
//
// Dev builds report "(dev)". Pipeline builds report
// "<version>+<branch> <commit> [<arch>]", with the branch omitted for
// release builds from main.
func VersionString() string {
	if IsDev() {
		return defaultDevBuild
	}

	b := Branch()
	if b == releaseBranch {
		b = ""
	} else {
		b = "+" + b
	}

	return fmt.Sprintf("%s%s %s [%s]", Version(), b, GitCommit(), Arch())
}
