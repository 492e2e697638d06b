package config

import "errors"

// Reported for configuration that cannot be parsed or fails validation.
var ErrConfig = errors.New("invalid configuration")
