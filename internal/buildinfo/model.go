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

package buildinfo

import (
	"fmt"
	"runtime"
	"time"
)

// Info is the build-time metadata the CLI hands to New from its own
// link-time variables (main.release, main.commit, main.date, set via
// -ldflags "-X main.release=..."). The fallbacks for empty values are
// applied by New; a zero Info carries empty fields.
type Info struct {
	Package     string
	Description string
	Release     string
	Commit      string
	Date        time.Time
	Author      string
}

// New fills in fallbacks for values left empty by the linker, matching
// a local `go build` with no -ldflags: "dev" for release, "unknown" for
// commit, and the current time for a missing or non-RFC3339 date.
// Package, description and author are used as given.
func New(pkg, description, release, commit, date, author string) Info {
	if release == "" {
		release = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}

	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		t = time.Now()
	}

	return Info{
		Package:     pkg,
		Description: description,
		Release:     release,
		Commit:      commit,
		Date:        t,
		Author:      author,
	}
}

// AppID is a single-line identity string suitable for a log line or a
// User-Agent-style header.
func (i Info) AppID() string {
	return fmt.Sprintf("%s/%s (%s/%s; build %s)", i.Package, i.Release, runtime.GOOS, runtime.GOARCH, i.Commit)
}

// Header is the multi-line startup banner printed once unless
// suppressed.
func (i Info) Header() string {
	return fmt.Sprintf("%s -- %s\nRelease: %s\nBuild:   %s\nDate:    %s\nAuthor:  %s",
		i.Package, i.Description, i.Release, i.Commit, i.Date.Format(time.RFC3339), i.Author)
}

// String satisfies fmt.Stringer so Info can be passed directly to a
// cobra Command's Version field.
func (i Info) String() string {
	return i.Release
}
