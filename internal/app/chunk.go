package app

import "io"

// Adapts a chunk-producing function to an [io.Reader].
//
// Pulls the next chunk whenever buffered data runs out, so chunks reach
// the client as they are produced. Producing an empty chunk with a nil
// error ends the stream cleanly; a non-nil error ends it after any data
// returned alongside has been drained.
type chunkReader struct {
	next func() ([]byte, error)
	buf  []byte
	err  error
}

// Returns an [io.Reader] that yields the chunks produced by next.
func ChunkReader(next func() ([]byte, error)) io.Reader {
	return &chunkReader{next: next}
}

func (c *chunkReader) Read(p []byte) (int, error) {
	for len(c.buf) == 0 {
		if c.err != nil {
			return 0, c.err
		}

		chunk, err := c.next()
		c.buf = chunk
		if err != nil {
			c.err = err
		} else if len(chunk) == 0 {
			c.err = io.EOF
		}
	}

	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, nil
}
