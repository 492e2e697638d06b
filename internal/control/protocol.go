package control

import (
	"encoding/json"
	"fmt"
)

// A command or response discriminator carried in an [Envelope].
type Command string

const (
	CmdPing   Command = "ping"   // Liveness probe. Answered with [CmdOK] and no payload.
	CmdStatus Command = "status" // Requests a [StatusResult] snapshot.
	CmdStop   Command = "stop"   // Requests a graceful shutdown. Payload is a [StopRequest].

	CmdOK    Command = "ok"    // Success response. Payload depends on the command.
	CmdError Command = "error" // Failure response. Payload is an [ErrorResult].
)

// The unit of exchange on the control socket: one newline-delimited JSON
// envelope per direction, one exchange per connection.
type Envelope struct {
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Carried by [CmdError] responses.
type ErrorResult struct {
	Message string `json:"message"`
}

// Payload of a [CmdStop] command.
type StopRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Response payload of a [CmdStop] command. The daemon confirms before it
// begins shutting down, so the socket may vanish right after this arrives.
type StopResult struct {
	Stopping bool `json:"stopping"`
}

// One worker's slice of a [StatusResult].
type WorkerStatus struct {
	ID       int    `json:"id"`
	Pid      int    `json:"pid"`
	Uptime   string `json:"uptime"`
	Restarts int    `json:"restarts"`
}

// Response payload of a [CmdStatus] command.
type StatusResult struct {
	Running  bool           `json:"running"`
	Version  string         `json:"version"`
	Pid      int            `json:"pid"`
	Uptime   string         `json:"uptime"`
	Addr     string         `json:"addr"`
	Workers  []WorkerStatus `json:"workers"`
	Spawns   int            `json:"spawns"`
	Restarts int            `json:"restarts"`
}

// Serializes a command and payload into an envelope.
//
// The returned bytes carry no trailing newline; the transport appends the
// delimiter when writing.
func Encode(cmd Command, payload any) ([]byte, error) {
	env := Envelope{Command: cmd}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding %s payload: %w", ErrControl, cmd, err)
		}
		env.Payload = data
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %s envelope: %w", ErrControl, cmd, err)
	}
	return data, nil
}

// Parses one envelope line and returns it with its raw payload.
func Decode(line []byte) (*Envelope, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding envelope: %w", ErrControl, err)
	}
	if env.Command == "" {
		return nil, nil, fmt.Errorf("%w: envelope has no command", ErrControl)
	}
	return &env, env.Payload, nil
}

// Unmarshals a raw payload into the requested type. A missing payload
// yields the zero value, which suits commands with optional payloads.
func DecodePayload[T any](payload json.RawMessage) (*T, error) {
	var v T
	if len(payload) == 0 {
		return &v, nil
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %w", ErrControl, err)
	}
	return &v, nil
}
