package logger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
)

const writerQueue = 256

// sink is one buffered output. A sink that fails once is disabled so a full
// log file never blocks stdout.
type sink struct {
	buf *bufio.Writer
	err error
}

// asyncWriter fans lines out to its sinks from a single goroutine.
type asyncWriter struct {
	lines  chan []byte
	flushq chan chan error
	done   chan struct{}
	once   sync.Once

	mu    sync.Mutex
	sinks []*sink
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		lines:  make(chan []byte, writerQueue),
		flushq: make(chan chan error),
		done:   make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, &sink{buf: bufio.NewWriterSize(out, bufSize)})
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.flush()
				return
			}
			w.write(line)
		case ack := <-w.flushq:
			w.drain()
			ack <- w.flush()
		}
	}
}

// drain writes the lines queued before a flush request.
func (w *asyncWriter) drain() {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return
			}
			w.write(line)
		default:
			return
		}
	}
}

// Write queues a copy of p. It blocks when the queue is full rather than
// dropping lines, and fails only once every sink is broken.
func (w *asyncWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if err := w.broken(); err != nil {
		return err
	}
	w.lines <- append([]byte(nil), p...)
	return nil
}

// Flush waits until every queued line reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushq <- ack:
		return <-ack
	case <-w.done:
		return w.errs()
	}
}

// Close drains the queue and returns the sink errors seen so far.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.lines) })
	<-w.done
	return w.errs()
}

func (w *asyncWriter) write(line []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sinks {
		if s.err != nil {
			continue
		}
		if _, err := s.buf.Write(line); err != nil {
			s.err = err
			continue
		}
		s.err = s.buf.Flush()
	}
}

func (w *asyncWriter) flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sinks {
		if s.err == nil {
			s.err = s.buf.Flush()
		}
	}
	return w.errsLocked()
}

func (w *asyncWriter) errs() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errsLocked()
}

func (w *asyncWriter) errsLocked() error {
	var errs []error
	for i, s := range w.sinks {
		if s.err != nil {
			errs = append(errs, fmt.Errorf("log sink %d: %w", i, s.err))
		}
	}
	return errors.Join(errs...)
}

// broken returns an error only when no sink can accept output.
func (w *asyncWriter) broken() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.sinks) == 0 {
		return nil
	}
	for _, s := range w.sinks {
		if s.err == nil {
			return nil
		}
	}
	return w.errsLocked()
}
