// Package app defines the application contract of the serving runtime.
//
// An application implements [Handler]: it receives a normalized [Request]
// and answers with a [Response]. The runtime treats the handler as opaque.
// It owns everything on both sides of the call: socket handling, HTTP
// parsing, concurrency limits, and error containment. A handler that
// returns an error or panics costs the client a generic 500, never the
// worker process.
//
// [Adapter] plugs a Handler into net/http. Response bodies are relayed
// chunk by chunk as the application produces them, so long or slow bodies
// stream to the client instead of accumulating in memory. [ChunkReader]
// helps applications produce such bodies from a generator function:
//
//	lines := []string{"alpha", "beta", "gamma"}
//	body := app.ChunkReader(func() ([]byte, error) {
//	    if len(lines) == 0 {
//	        return nil, nil
//	    }
//	    line := lines[0]
//	    lines = lines[1:]
//	    return []byte(line + "\n"), nil
//	})
//	return &app.Response{Body: body}, nil
//
// [Default] is the built-in application served when droverd runs without
// an embedding program.
package app
