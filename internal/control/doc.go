// Package control implements the daemon's control plane.
//
// The master process listens on a Unix domain socket and answers
// newline-delimited JSON commands: ping, status, and stop. One envelope
// travels in each direction per connection. The [Server] side runs inside
// the daemon against a [Daemon] view of the supervisor; the [Client] side
// backs the status and stop CLI commands:
//
//	client := control.NewClient(paths.Socket())
//	status, err := client.Status()
//	if err != nil {
//	    return err
//	}
//	fmt.Println(status.Uptime)
//
// The control socket carries no application traffic. HTTP requests go to
// the shared TCP listener owned by the workers.
package control
