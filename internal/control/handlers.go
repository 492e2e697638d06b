package control

import (
	"encoding/json"
	"log/slog"
	"net"
)

// Handles a ping command.
func (s *Server) handlePing(conn net.Conn) {
	s.respond(conn, CmdOK, nil)
}

// Handles a status command.
func (s *Server) handleStatus(conn net.Conn) {
	result := s.daemon.Status()
	s.respond(conn, CmdOK, &result)
}

// Handles a stop command.
//
// The confirmation is written before the shutdown starts so the client is
// not left reading from a dying socket.
func (s *Server) handleStop(conn net.Conn, payload json.RawMessage) {
	req, err := DecodePayload[StopRequest](payload)
	if err != nil {
		s.respond(conn, CmdError, &ErrorResult{Message: err.Error()})
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "stop requested"
	}

	s.respond(conn, CmdOK, &StopResult{Stopping: true})
	slog.Info("shutdown requested over control socket", "reason", reason)

	go s.daemon.Shutdown(reason)
}
