package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestAdapterNormalizesRequest(t *testing.T) {
	var got *Request
	var body string

	adapter := NewAdapter(HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		got = req
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = string(b)
		return &Response{Status: http.StatusNoContent}, nil
	}))

	r := httptest.NewRequest("POST", "http://api.example.com/things?limit=5&q=x", strings.NewReader("payload"))
	r.Header.Set("X-Token", "abc")
	w := httptest.NewRecorder()

	adapter.ServeHTTP(w, r)

	if got == nil {
		t.Fatal("handler was not called")
	}
	if got.Method != "POST" {
		t.Errorf("Method = %q, want %q", got.Method, "POST")
	}
	if got.Path != "/things" {
		t.Errorf("Path = %q, want %q", got.Path, "/things")
	}
	if got.Query != "limit=5&q=x" {
		t.Errorf("Query = %q, want %q", got.Query, "limit=5&q=x")
	}
	if got.Proto != "HTTP/1.1" {
		t.Errorf("Proto = %q, want %q", got.Proto, "HTTP/1.1")
	}
	if got.Host != "api.example.com" {
		t.Errorf("Host = %q, want %q", got.Host, "api.example.com")
	}
	if got.Header.Get("X-Token") != "abc" {
		t.Errorf("Header[X-Token] = %q, want %q", got.Header.Get("X-Token"), "abc")
	}
	if got.RemoteAddr == "" {
		t.Error("RemoteAddr is empty")
	}
	if body != "payload" {
		t.Errorf("body = %q, want %q", body, "payload")
	}
}

func TestAdapterRelaysResponse(t *testing.T) {
	adapter := NewAdapter(HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		header := http.Header{}
		header.Set("Content-Type", "text/plain")
		header.Set("X-Custom", "yes")
		return &Response{
			Status: http.StatusCreated,
			Header: header,
			Body:   strings.NewReader("made"),
		}, nil
	}))

	w := httptest.NewRecorder()
	adapter.ServeHTTP(w, httptest.NewRequest("POST", "/things", nil))

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("X-Custom"); got != "yes" {
		t.Errorf("X-Custom = %q, want %q", got, "yes")
	}
	if w.Body.String() != "made" {
		t.Errorf("body = %q, want %q", w.Body.String(), "made")
	}
}

func TestAdapterDefaultStatus(t *testing.T) {
	// A zero Status and nil Header and Body mean a bare 200.
	adapter := NewAdapter(HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{}, nil
	}))

	w := httptest.NewRecorder()
	adapter.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
}

func TestAdapterContainsError(t *testing.T) {
	adapter := NewAdapter(HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		return nil, errors.New("database exploded at 10.0.0.7")
	}))

	w := httptest.NewRecorder()
	adapter.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "exploded") {
		t.Errorf("body leaked the application error: %q", w.Body.String())
	}
}

func TestAdapterContainsNilResponse(t *testing.T) {
	adapter := NewAdapter(HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		return nil, nil
	}))

	w := httptest.NewRecorder()
	adapter.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestAdapterContainsPanic(t *testing.T) {
	adapter := NewAdapter(HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		panic("handler bug")
	}))

	w := httptest.NewRecorder()
	adapter.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "handler bug") {
		t.Errorf("body leaked the panic value: %q", w.Body.String())
	}
}

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

func TestAdapterClosesBody(t *testing.T) {
	body := &trackedBody{Reader: strings.NewReader("data")}
	adapter := NewAdapter(HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{Body: body}, nil
	}))

	w := httptest.NewRecorder()
	adapter.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if !body.closed {
		t.Error("response body was not closed")
	}
}

func TestAdapterFlushesChunks(t *testing.T) {
	chunks := []string{"first ", "second ", "third"}
	i := 0
	adapter := NewAdapter(HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{Body: ChunkReader(func() ([]byte, error) {
			if i >= len(chunks) {
				return nil, nil
			}
			chunk := chunks[i]
			i++
			return []byte(chunk), nil
		})}, nil
	}))

	w := httptest.NewRecorder()
	adapter.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Body.String() != "first second third" {
		t.Errorf("body = %q, want %q", w.Body.String(), "first second third")
	}
	if !w.Flushed {
		t.Error("response was not flushed between chunks")
	}
}

// A body whose reader fails partway through.
type faultyBody struct {
	served bool
}

func (b *faultyBody) Read(p []byte) (int, error) {
	if b.served {
		return 0, errors.New("backend went away")
	}
	b.served = true
	return copy(p, []byte("partial ")), nil
}

func TestAdapterAbortsMidStream(t *testing.T) {
	// Once the status line is on the wire a late body failure cannot be
	// turned into a 500. The connection must die so the client can tell
	// the response is truncated, and only that connection. The server
	// stays up for the next request.
	var requests atomic.Int32
	adapter := NewAdapter(HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		if requests.Add(1) == 1 {
			return &Response{Body: &faultyBody{}}, nil
		}
		return &Response{Body: strings.NewReader("recovered")}, nil
	}))

	srv := httptest.NewServer(adapter)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed before headers: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	data, err := io.ReadAll(resp.Body)
	if err == nil {
		t.Fatalf("reading truncated body succeeded, got %q", data)
	}
	if !strings.HasPrefix(string(data), "partial ") {
		t.Errorf("flushed prefix = %q, want %q", data, "partial ")
	}

	again, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET after abort: %v", err)
	}
	defer again.Body.Close()

	if again.StatusCode != http.StatusOK {
		t.Errorf("status after abort = %d, want %d", again.StatusCode, http.StatusOK)
	}
	if data, err := io.ReadAll(again.Body); err != nil || string(data) != "recovered" {
		t.Errorf("body after abort = %q (%v), want %q", data, err, "recovered")
	}
}

func TestAdapterAbortsOnPanicAfterWrite(t *testing.T) {
	// The first chunk is flushed so the status line is guaranteed to be on
	// the wire before the body panics.
	var requests atomic.Int32
	adapter := NewAdapter(HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		if requests.Add(1) > 1 {
			return &Response{Body: strings.NewReader("intact")}, nil
		}
		served := false
		return &Response{Body: ChunkReader(func() ([]byte, error) {
			if !served {
				served = true
				return []byte("early "), nil
			}
			panic("body bug")
		})}, nil
	}))

	srv := httptest.NewServer(adapter)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed before headers: %v", err)
	}
	defer resp.Body.Close()

	if _, err := io.ReadAll(resp.Body); err == nil {
		t.Fatal("reading aborted body succeeded")
	}

	again, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET after panic: %v", err)
	}
	defer again.Body.Close()

	if again.StatusCode != http.StatusOK {
		t.Errorf("status after panic = %d, want %d", again.StatusCode, http.StatusOK)
	}
	if data, err := io.ReadAll(again.Body); err != nil || string(data) != "intact" {
		t.Errorf("body after panic = %q (%v), want %q", data, err, "intact")
	}
}
