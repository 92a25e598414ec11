/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package logsink

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a Sink writing to standard error, matching the proxy's
// default logging destination. Call Open to switch it to a file; an
// empty path means standard error for the lifetime of the process.
func New() *Sink {
	return &Sink{out: os.Stderr}
}

// Open points the sink at path, creating or appending to it. An empty
// path leaves the sink on standard error.
func (s *Sink) Open(path string) error {
	if path == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.path = ""
		if s.file != nil {
			_ = s.file.Close()
			s.file = nil
		}
		s.out = os.Stderr
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logsink: open %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prior := s.file
	s.path = path
	s.file = f
	s.out = f
	if prior != nil {
		_ = prior.Close()
	}
	return nil
}

// Reopen closes and reopens the current file in place, picking up a
// rename performed by external log rotation. It is what a SIGHUP
// handler calls. A no-op when the sink is on standard error.
func (s *Sink) Reopen() error {
	s.mu.RLock()
	path := s.path
	s.mu.RUnlock()
	if path == "" {
		return nil
	}
	return s.Open(path)
}

// Write implements io.Writer under the sink's lock, so a concurrent
// Reopen can never interleave with a partial write.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.out.Write(p)
}

// Close releases the underlying file, if any.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Formatter wraps inner (typically a *logrus.TextFormatter or
// *logrus.JSONFormatter with its own timestamp disabled) with an
// ISO-8601 prefix, following the DisableTimestamp convention used
// throughout the teacher's logger package.
func Formatter(inner logrus.Formatter) logrus.Formatter {
	return &timestampFormatter{inner: inner}
}

func (f *timestampFormatter) Format(e *logrus.Entry) ([]byte, error) {
	body, err := f.inner.Format(e)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(e.Time.Format(timestampLayout))
	buf.WriteByte(' ')
	buf.Write(body)
	return buf.Bytes(), nil
}

// NewLogger builds a *logrus.Logger writing through sink with a text
// formatter whose lines carry the timestampLayout prefix.
func NewLogger(sink *Sink) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(sink)
	l.SetFormatter(Formatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableSorting:   true,
		DisableColors:    true,
	}))
	return l
}
