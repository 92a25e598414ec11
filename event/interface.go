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

package event

// Readiness is the mask a Watcher waits on.
type Readiness uint32

const (
	Readable Readiness = 1 << iota
	Writable
)

// Callback is invoked when a Watcher's descriptor becomes ready. ev
// carries which of Readable/Writable fired.
type Callback func(ev Readiness)

// Watcher is a single (descriptor, readiness mask, callback)
// registration. It can be started and stopped independently of other
// watchers on the same or different descriptors, per spec §4.4.
type Watcher struct {
	loop *Loop
	fd   int
	want Readiness
	cb   Callback
	live bool
}

// Stop disarms w. It is safe to call Stop on an already-stopped or
// zero-value Watcher.
func (w *Watcher) Stop() {
	if w == nil || !w.live {
		return
	}
	w.loop.stop(w)
}

// Start (re)arms w with its original descriptor/mask/callback.
func (w *Watcher) Start() {
	if w == nil || w.live {
		return
	}
	w.loop.start(w)
}

// Active reports whether w is currently armed.
func (w *Watcher) Active() bool { return w != nil && w.live }
