package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Deadline covering one full control exchange, dial included. Commands
// answer immediately, so a slow exchange means a wedged daemon.
const exchangeTimeout = 5 * time.Second

// Talks to a running daemon over its control socket.
//
// Each command dials a fresh connection, performs one exchange, and
// disconnects.
type Client struct {
	socketPath string
}

// Creates a client for the daemon listening at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Probes whether the daemon is up and answering.
func (c *Client) Ping() error {
	_, err := c.roundTrip(CmdPing, nil)
	return err
}

// Fetches a status snapshot from the daemon.
func (c *Client) Status() (*StatusResult, error) {
	payload, err := c.roundTrip(CmdStatus, nil)
	if err != nil {
		return nil, err
	}
	return DecodePayload[StatusResult](payload)
}

// Asks the daemon to shut down gracefully.
func (c *Client) Stop(reason string) (*StopResult, error) {
	payload, err := c.roundTrip(CmdStop, &StopRequest{Reason: reason})
	if err != nil {
		return nil, err
	}
	return DecodePayload[StopResult](payload)
}

// Performs one command exchange with the daemon.
func (c *Client) roundTrip(cmd Command, payload any) (json.RawMessage, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, exchangeTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: daemon not reachable at %s: %w", ErrControl, c.socketPath, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(exchangeTimeout))

	data, err := Encode(cmd, payload)
	if err != nil {
		return nil, err
	}
	data = append(data, byte(10))

	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("%w: writing %s command: %w", ErrControl, cmd, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes(byte(10))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %w", ErrControl, cmd, err)
	}

	env, respPayload, err := Decode(line)
	if err != nil {
		return nil, err
	}

	if env.Command == CmdError {
		result, err := DecodePayload[ErrorResult](respPayload)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrControl, result.Message)
	}

	return respPayload, nil
}
