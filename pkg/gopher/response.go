package gopher

import (
	"errors"
	"io"
)

// ChunkSize is the size of the reads used to copy streamed responses.
const ChunkSize = 8192

// Response is what a handler produces: either a complete payload or a
// finite, single-pass stream the writer closes after use.
type Response struct {
	text   []byte
	stream io.ReadCloser
}

// Text returns a response carrying b verbatim.
func Text(b []byte) Response {
	return Response{text: b}
}

// TextString returns a response carrying s verbatim.
func TextString(s string) Response {
	return Response{text: []byte(s)}
}

// Stream returns a response that copies rc to the client.
func Stream(rc io.ReadCloser) Response {
	return Response{stream: rc}
}

// IsStream reports whether the response is a stream.
func (r Response) IsStream() bool {
	return r.stream != nil
}

// Kind is "stream" or "text". Used as a metrics label.
func (r Response) Kind() string {
	if r.IsStream() {
		return "stream"
	}
	return "text"
}

// Bytes returns the payload of a text response, nil for streams.
func (r Response) Bytes() []byte {
	return r.text
}

// WriteTo writes the response to w. Streams are copied in ChunkSize reads
// and closed, whether or not the copy succeeds.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	if !r.IsStream() {
		n, err := w.Write(r.text)
		return int64(n), err
	}

	n, err := copyChunks(w, r.stream)
	if cerr := r.stream.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// Close releases a stream that will not be written. It is a no-op for text.
func (r Response) Close() error {
	if r.stream == nil {
		return nil
	}
	return r.stream.Close()
}

func copyChunks(w io.Writer, rd io.Reader) (int64, error) {
	buf := make([]byte, ChunkSize)
	var written int64
	for {
		n, err := rd.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
			if m != n {
				return written, io.ErrShortWrite
			}
		}
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}
