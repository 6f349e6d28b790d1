package log

import (
	"io"
	"sync"
)

// MultiWriter fans log output out to every appender. A failing appender
// does not stop the others.
type MultiWriter struct {
	mu      sync.Mutex
	writers []io.Writer
}

func (m *MultiWriter) Write(p []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.writers {
		if _, e := w.Write(p); e != nil {
			err = e
		}
	}
	return len(p), err
}

func (m *MultiWriter) Add(writer io.Writer) *MultiWriter {
	m.mu.Lock()
	m.writers = append(m.writers, writer)
	m.mu.Unlock()
	return m
}

// Close closes the appenders that own a resource, such as rotating files.
func (m *MultiWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var err error
	for _, w := range m.writers {
		if c, ok := w.(io.Closer); ok {
			if e := c.Close(); e != nil {
				err = e
			}
		}
	}
	return err
}

func NewMultiWriter() *MultiWriter {
	return &MultiWriter{}
}
