package app

import (
	"io"
	"log/slog"
	"net/http"
)

// Buffer size for streaming response bodies to the client.
const copyBufferSize = 32 * 1024

// Bridges an application [Handler] into the worker's HTTP server.
//
// The adapter normalizes each inbound request, runs the handler, and
// relays the response. Handler errors and panics are contained: the worker
// logs them and answers with a generic 500 instead of crashing, so one bad
// request never takes the process down. Failures after the status line has
// been sent abort the connection instead, which is the only honest signal
// left once headers are on the wire.
type Adapter struct {
	handler Handler
}

// Creates an adapter around the given handler.
func NewAdapter(handler Handler) *Adapter {
	return &Adapter{handler: handler}
}

// Serves one request through the application handler.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	written := false

	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if v == http.ErrAbortHandler {
			panic(v)
		}

		slog.Error("application panic", "method", r.Method, "path", r.URL.Path, "panic", v)
		if written {
			panic(http.ErrAbortHandler)
		}
		fail(w)
	}()

	req := &Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Query:      r.URL.RawQuery,
		Proto:      r.Proto,
		Header:     r.Header,
		Body:       r.Body,
		Host:       r.Host,
		RemoteAddr: r.RemoteAddr,
	}

	resp, err := a.handler.Handle(r.Context(), req)
	if err != nil {
		slog.Error("application error", "method", r.Method, "path", r.URL.Path, "error", err)
		fail(w)
		return
	}
	if resp == nil {
		slog.Error("application returned no response", "method", r.Method, "path", r.URL.Path)
		fail(w)
		return
	}

	header := w.Header()
	for k, vs := range resp.Header {
		header[k] = vs
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	written = true

	if resp.Body == nil {
		return
	}
	defer closeBody(resp.Body)

	if err := copyBody(w, resp.Body); err != nil {
		slog.Error("response body failed mid-stream", "method", r.Method, "path", r.URL.Path, "error", err)
		panic(http.ErrAbortHandler)
	}
}

// Copies the response body to the client, flushing after every chunk so
// data reaches the client as the application produces it.
func copyBody(w http.ResponseWriter, body io.Reader) error {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, copyBufferSize)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Writes the generic failure response. The body deliberately carries no
// detail about what went wrong inside the application.
func fail(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// Closes the response body when the application handed over a closer.
func closeBody(body io.Reader) {
	if closer, ok := body.(io.Closer); ok {
		closer.Close()
	}
}
