package control

import "errors"

// Reported for control socket and protocol failures.
var ErrControl = errors.New("control error")
