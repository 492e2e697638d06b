package worker

import "errors"

// Reported when the worker cannot take over the serving socket or the
// HTTP server fails.
var ErrWorker = errors.New("worker error")
