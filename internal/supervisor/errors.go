package supervisor

import "errors"

var (
	ErrBind         = errors.New("bind failed")
	ErrSpawn        = errors.New("spawn failed")
	ErrRestartStorm = errors.New("workers restarting too fast")
)
