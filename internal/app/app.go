package app

import (
	"context"
	"io"
	"net/http"
)

// Serves a single HTTP request.
//
// Handlers receive a normalized [Request] and describe their answer as a
// [Response]. The serving runtime owns the transport on both sides; a
// handler never touches sockets or wire framing. Returning an error means
// the handler could not produce a response at all. The error is contained
// by the runtime: the client receives a generic 500 and the worker keeps
// serving.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// Adapts a plain function to the [Handler] interface.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// Calls the function.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// A normalized inbound request.
//
// Fields are populated by the runtime before the handler runs. Body is the
// raw request body; it is never pre-read or buffered, so large uploads
// stream through the handler.
type Request struct {
	Method     string      // Request method, e.g. "GET".
	Path       string      // URL path component, e.g. "/healthz".
	Query      string      // Raw query string without the leading "?".
	Proto      string      // Protocol version, e.g. "HTTP/1.1".
	Header     http.Header // Request headers.
	Body       io.Reader   // Request body. Never nil; empty for bodiless requests.
	Host       string      // Host header or authority.
	RemoteAddr string      // Client address in host:port form.
}

// A handler's answer to a request.
//
// A nil Body produces an empty response body. A non-nil Body is streamed
// to the client chunk by chunk as it is read, without buffering, and is
// closed afterwards when it implements [io.Closer].
type Response struct {
	Status int         // HTTP status code. 0 means 200.
	Header http.Header // Response headers. May be nil.
	Body   io.Reader   // Response body. May be nil.
}
