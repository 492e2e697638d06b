package cli

import (
	"context"
	"fmt"

	"github.com/droverhq/droverd/internal/control"
)

// Represents the 'droverd status' command.
type StatusCmd struct{}

// Executes the status command.
func (c *StatusCmd) Run(ctx context.Context) error {

	status, err := control.NewClient(socketPath()).Status()
	if err != nil {
		return err
	}

	fmt.Printf("droverd %s\n", status.Version)
	fmt.Printf("  pid:      %d\n", status.Pid)
	fmt.Printf("  uptime:   %s\n", status.Uptime)
	fmt.Printf("  address:  %s\n", status.Addr)
	fmt.Printf("  spawns:   %d\n", status.Spawns)
	fmt.Printf("  restarts: %d\n", status.Restarts)
	fmt.Printf("  workers:  %d\n", len(status.Workers))

	for _, w := range status.Workers {
		fmt.Printf("    [%d] pid %d, up %s, %d restarts\n", w.ID, w.Pid, w.Uptime, w.Restarts)
	}
	return nil
}
