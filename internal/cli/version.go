package cli

import (
	"fmt"

	"github.com/droverhq/droverd/internal"
)

// Represents the 'droverd version' command.
type VersionCmd struct{}

// Executes the version command.
func (c *VersionCmd) Run() error {
	fmt.Println(internal.Name, internal.VersionString())
	return nil
}
