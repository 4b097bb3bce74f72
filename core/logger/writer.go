package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

const writerQueueSize = 256

// asyncWriter fans log lines out to buffered sinks from a single goroutine.
// Sinks are flushed whenever the queue drains, so bursts are written in batches.
type asyncWriter struct {
	queue   chan []byte
	flushes chan chan error
	done    chan struct{}
	close   sync.Once

	sinks []*bufio.Writer

	errMu sync.Mutex
	err   error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		queue:   make(chan []byte, writerQueueSize),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				w.fail(w.flush())
				return
			}
			w.fail(w.write(line))
			if len(w.queue) == 0 {
				w.fail(w.flush())
			}
		case ack := <-w.flushes:
			// Drain what was queued before the request so Flush observes it.
			for n := len(w.queue); n > 0; n-- {
				w.fail(w.write(<-w.queue))
			}
			ack <- w.flush()
		}
	}
}

// Write copies p and queues it. A full queue blocks the caller instead of dropping lines.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.queue <- append([]byte(nil), p...)
	return nil
}

// Flush blocks until everything queued so far reached the sinks.
func (w *asyncWriter) Flush() error {
	if err := w.firstErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	select {
	case w.flushes <- ack:
		return <-ack
	case <-w.done:
		return w.firstErr()
	}
}

// Close drains the queue and reports the first write error, if any.
func (w *asyncWriter) Close() error {
	w.close.Do(func() { close(w.queue) })
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) write(line []byte) error {
	for _, sink := range w.sinks {
		if _, err := sink.Write(line); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flush() error {
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) fail(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *asyncWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}
