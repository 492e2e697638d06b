// Package worker implements the serving side of the prefork model.
//
// A [Worker] runs in a child process spawned by the supervisor. It
// reconstructs the serving socket from the inherited file descriptor,
// wraps it in a concurrency-limited listener, and serves HTTP through the
// application adapter. All workers share one socket; the kernel picks
// which of them accepts each connection.
//
// Connections beyond a worker's concurrency cap queue in the kernel's
// accept backlog rather than being rejected. Overload therefore slows
// clients down instead of bouncing their requests.
//
// On context cancellation, normally triggered by the master's SIGTERM,
// the worker drains in-flight requests within the grace timeout and exits
// cleanly. Requests still running after the grace timeout lose their
// connection.
package worker
