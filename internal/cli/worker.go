package cli

import (
	"context"

	"github.com/droverhq/droverd/internal/app"
	"github.com/droverhq/droverd/internal/config"
	"github.com/droverhq/droverd/internal/worker"
)

// Represents the hidden 'droverd worker' command.
//
// The master spawns one of these per pool slot. It inherits the shared
// listening socket and reads its configuration from the environment the
// master prepared, so it takes no flags beyond its slot id.
type WorkerCmd struct {
	ID int `required:"" env:"DROVERD_WORKER_ID" help:"Pool slot index assigned by the master."`
}

// Executes the worker command.
func (c *WorkerCmd) Run(ctx context.Context, handler app.Handler) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	return worker.New(c.ID, cfg, handler).Run(ctx)
}
