package launcher

import (
	"bytes"
	"io"
	"sync"
)

// Stream identifies which child stream a line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// LineObserver receives every complete output line of the child.
type LineObserver interface {
	ObserveLine(stream Stream, line string)
}

// maxLineBytes bounds a buffered line. Longer output without a newline,
// such as a carriage-return progress bar, is delivered in pieces.
const maxLineBytes = 64 << 10

// lineWriter splits a byte stream into lines for a LineObserver. A trailing
// partial line is delivered by Flush.
type lineWriter struct {
	mu       sync.Mutex
	stream   Stream
	observer LineObserver
	buf      bytes.Buffer
	limit    int
}

func newLineWriter(stream Stream, observer LineObserver) *lineWriter {
	return &lineWriter{stream: stream, observer: observer, limit: maxLineBytes}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimSuffix(w.buf.Next(i+1)[:i], []byte("\r")))
		w.observer.ObserveLine(w.stream, line)
	}
	for w.buf.Len() >= w.limit {
		w.observer.ObserveLine(w.stream, string(w.buf.Next(w.limit)))
	}
	return len(p), nil
}

// Flush delivers any buffered partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() == 0 {
		return
	}
	w.observer.ObserveLine(w.stream, w.buf.String())
	w.buf.Reset()
}

// syncWriter serializes writes from the stdout and stderr copy goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
