package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"github.com/droverhq/droverd/internal/paths"
)

// File mode applied to the Unix socket. Owner and group get read-write
// (required for connect); others get no access.
const socketMode = 0660

// The view of the running daemon the control server exposes. Implemented
// by the serve command, which glues the supervisor to the socket without
// either package importing the other.
type Daemon interface {

	// Returns a point-in-time snapshot of the master and its workers.
	Status() StatusResult

	// Begins a graceful shutdown. Called on its own goroutine so the
	// control handler can confirm receipt before the daemon winds down.
	Shutdown(reason string)
}

// Listens on a Unix domain socket and dispatches control commands.
type Server struct {
	socketPath string       // Path to the Unix socket file.
	daemon     Daemon       // Daemon the commands act on.
	listener   net.Listener // Listener for incoming connections.
	done       chan struct{}
}

// Creates a new control server.
//
// The socket is not opened until [Server.Start] is called.
func New(socketPath string, daemon Daemon) *Server {
	return &Server{
		socketPath: socketPath,
		daemon:     daemon,
		done:       make(chan struct{}),
	}
}

// Opens the Unix socket and begins accepting connections.
func (s *Server) Start() error {
	listener, err := listen(s.socketPath)
	if err != nil {
		return err
	}
	s.listener = listener

	slog.Info("control socket listening", "path", s.socketPath)

	go s.accept()
	return nil
}

// Creates the Unix socket listener, removes any stale socket from a
// previous run, and applies permissions.
func listen(socketPath string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrControl, err)
	}

	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to listen on %s: %w", ErrControl, socketPath, err)
	}

	if err := os.Chmod(socketPath, socketMode); err != nil {
		listener.Close()
		return nil, fmt.Errorf("%w: failed to chmod socket %s: %w", ErrControl, socketPath, err)
	}

	return listener, nil
}

// Closes the socket and stops accepting connections.
func (s *Server) Stop() error {
	close(s.done)

	if s.listener != nil {
		s.listener.Close()
	}

	os.Remove(s.socketPath)
	return nil
}

// Accepts connections in a loop until the server shuts down.
func (s *Server) accept() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				slog.Error("accept error", "error", err)
				continue
			}
		}

		go s.handle(conn)
	}
}

// Processes a single connection.
//
// Reads one newline-delimited JSON message, dispatches the command, and
// writes the response. The connection is closed after one exchange.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadBytes(byte(10))
	if err != nil {
		slog.Error("read error", "error", err)
		return
	}

	env, payload, err := Decode(line)
	if err != nil {
		s.respond(conn, CmdError, &ErrorResult{Message: err.Error()})
		return
	}

	slog.Debug("control command received", "command", env.Command)

	s.dispatch(conn, env.Command, payload)
}

// Routes a command to the appropriate handler.
func (s *Server) dispatch(conn net.Conn, cmd Command, payload json.RawMessage) {
	switch cmd {
	case CmdPing:
		s.handlePing(conn)
	case CmdStatus:
		s.handleStatus(conn)
	case CmdStop:
		s.handleStop(conn, payload)
	default:
		s.respond(conn, CmdError, &ErrorResult{
			Message: fmt.Sprintf("unknown command: %s", cmd),
		})
	}
}

// Writes a JSON envelope response to the connection.
func (s *Server) respond(conn net.Conn, cmd Command, payload any) {
	data, err := Encode(cmd, payload)
	if err != nil {
		slog.Error("encode response failed", "error", err)
		return
	}
	data = append(data, byte(10))
	conn.Write(data)
}
