package cli

import (
	"context"
	"fmt"

	"github.com/droverhq/droverd/internal/control"
)

// Represents the 'droverd stop' command.
type StopCmd struct {
	Reason string `help:"Reason recorded in the daemon log." placeholder:"TEXT"`
}

// Executes the stop command.
func (c *StopCmd) Run(ctx context.Context) error {

	result, err := control.NewClient(socketPath()).Stop(c.Reason)
	if err != nil {
		return err
	}

	if result.Stopping {
		fmt.Println("droverd is stopping")
	}
	return nil
}
