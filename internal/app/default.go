package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/droverhq/droverd/internal"
)

const (

	// Number of chunks the demo stream endpoint produces.
	streamChunks = 5

	// Pause between demo stream chunks, long enough to make progressive
	// delivery visible from curl.
	streamInterval = 50 * time.Millisecond
)

// Returns the built-in application.
//
// droverd is a serving runtime, not an application, but shipping one gives
// the daemon something to serve out of the box and a target for smoke
// tests. The PID in the health payload makes the prefork model visible:
// consecutive requests answered by different workers report different
// PIDs.
func Default() Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		switch req.Path {
		case "/":
			return index()
		case "/healthz":
			return health()
		case "/stream":
			return stream()
		case "/echo":
			return echo(req)
		default:
			return notFound(req)
		}
	})
}

func index() (*Response, error) {
	banner := fmt.Sprintf("%s %s\n", internal.Name, internal.VersionString())
	return text(http.StatusOK, banner), nil
}

func health() (*Response, error) {
	payload, err := json.Marshal(struct {
		Status string `json:"status"`
		PID    int    `json:"pid"`
	}{
		Status: "ok",
		PID:    os.Getpid(),
	})
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return &Response{
		Status: http.StatusOK,
		Header: header,
		Body:   strings.NewReader(string(payload) + "\n"),
	}, nil
}

func stream() (*Response, error) {
	n := 0
	body := ChunkReader(func() ([]byte, error) {
		if n >= streamChunks {
			return nil, nil
		}
		if n > 0 {
			time.Sleep(streamInterval)
		}
		n++
		return []byte(fmt.Sprintf("chunk %d/%d\n", n, streamChunks)), nil
	})

	header := http.Header{}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	return &Response{Status: http.StatusOK, Header: header, Body: body}, nil
}

// Streams the request body straight back. The response body is the request
// body reader, so the echo never buffers the payload.
func echo(req *Request) (*Response, error) {
	header := http.Header{}
	contentType := req.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	header.Set("X-Echo-Method", req.Method)
	header.Set("X-Echo-Path", req.Path)

	return &Response{Status: http.StatusOK, Header: header, Body: req.Body}, nil
}

func notFound(req *Request) (*Response, error) {
	return text(http.StatusNotFound, fmt.Sprintf("not found: %s\n", req.Path)), nil
}

func text(status int, body string) *Response {
	header := http.Header{}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	return &Response{Status: status, Header: header, Body: strings.NewReader(body)}
}
