// Parses flags and dispatches the droverd subcommands.
//
// Every command accepts the following flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Annotate log lines with source locations.
//	-d, --debug     Enable debug output.
//	-s, --socket    Override the default control socket path.
//
// Flags override matching environment variables. After parsing, the global
// logger is reconfigured to reflect the final level before the selected
// command runs. The serve command additionally layers its configuration
// from defaults, an optional TOML file, and its own flags, in that order.
package cli
