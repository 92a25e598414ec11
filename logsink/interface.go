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
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// timestampLayout extends the original stream buffer's
// strftime("%Y-%m-%dT%H:%M:%S%z") prefix with microsecond resolution,
// useful for ordering the high connection-rate log lines this proxy
// produces under load.
const timestampLayout = "2006-01-02T15:04:05.000000-0700"

// Sink owns the process's single log file and lets it be swapped out
// from under logrus without losing in-flight writers. Standard error is
// used when no path is configured.
type Sink struct {
	mu   sync.RWMutex
	path string
	file *os.File
	out  io.Writer // stderr fallback, or file once Open succeeds
}

// timestampFormatter prepends an ISO-8601 timestamp and delegates the
// rest of the line to a wrapped logrus.Formatter with its own
// timestamp disabled, so the two never fight over the clock.
type timestampFormatter struct {
	inner logrus.Formatter
}

var _ logrus.Formatter = (*timestampFormatter)(nil)
var _ io.Writer = (*Sink)(nil)
