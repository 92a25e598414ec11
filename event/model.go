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

import (
	"fmt"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// Loop is a single-threaded epoll reactor. All methods except
// RegisterSignal/Break are meant to be called from the goroutine
// running Run; RegisterSignal/Break are the two surfaces safe to call
// from elsewhere (a signal is inherently asynchronous).
type Loop struct {
	epfd int

	// self-pipe: os/signal delivery happens on its own goroutine, so
	// signal watchers are dispatched into the loop by writing a byte
	// here, which epoll reports as read-ready like any other fd.
	pipeR int
	pipeW int

	// watchers groups every live Watcher by descriptor: a connection's
	// client_sock carries both a read watcher (c2s) and a write watcher
	// (s2c) at once, so a single fd can have up to one Watcher per
	// Readiness bit registered simultaneously (spec §3: "for each
	// direction X->Y, at most one of {read-watcher on X, write-watcher
	// on Y} is active" constrains directions, not the fd's combined mask).
	watchers map[int][]*Watcher
	pending  []pendingEvent // synthetic ready events injected this tick
	sigSubs  map[os.Signal][]func()
	sigQueue []os.Signal

	mu      sync.Mutex
	breakCh chan struct{}
	broken  bool
}

type pendingEvent struct {
	w  *Watcher
	ev Readiness
}

// NewLoop creates an epoll instance and its signal self-pipe.
func NewLoop() (*Loop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("event: epoll_create1: %w", err)
	}

	fds := [2]int{}
	if err = unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("event: pipe2: %w", err)
	}

	l := &Loop{
		epfd:     epfd,
		pipeR:    fds[0],
		pipeW:    fds[1],
		watchers: make(map[int][]*Watcher),
		sigSubs:  make(map[os.Signal][]func()),
		breakCh:  make(chan struct{}, 1),
	}

	if err = unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, l.pipeR, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(l.pipeR)}); err != nil {
		_ = unix.Close(epfd)
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		return nil, fmt.Errorf("event: epoll_ctl(pipe): %w", err)
	}

	return l, nil
}

// Close releases the loop's own descriptors (epoll instance, self-pipe).
// It does not touch watched descriptors -- those are owned by callers.
func (l *Loop) Close() error {
	_ = unix.Close(l.pipeR)
	_ = unix.Close(l.pipeW)
	return unix.Close(l.epfd)
}

func epollEvents(r Readiness) uint32 {
	var m uint32
	if r&Readable != 0 {
		m |= unix.EPOLLIN
	}
	if r&Writable != 0 {
		m |= unix.EPOLLOUT
	}
	return m
}

// Register creates a new, initially-stopped Watcher for fd/mask/cb.
// The watcher must be Start'ed to begin receiving events.
func (l *Loop) Register(fd int, mask Readiness, cb Callback) *Watcher {
	return &Watcher{loop: l, fd: fd, want: mask, cb: cb}
}

// combinedMask ORs the want-mask of every live watcher registered on fd.
func (l *Loop) combinedMask(fd int) Readiness {
	var m Readiness
	for _, w := range l.watchers[fd] {
		if w.live {
			m |= w.want
		}
	}
	return m
}

func (l *Loop) syncEpoll(fd int, hadWatchers bool) {
	mask := l.combinedMask(fd)

	switch {
	case mask == 0 && hadWatchers:
		_ = unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	case mask == 0:
		// nothing was ever armed for this fd; nothing to remove
	case !hadWatchers:
		_ = unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Events: epollEvents(mask), Fd: int32(fd)})
	default:
		_ = unix.EpollCtl(l.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{Events: epollEvents(mask), Fd: int32(fd)})
	}
}

func (l *Loop) start(w *Watcher) {
	wasArmed := l.combinedMask(w.fd) != 0

	list := l.watchers[w.fd]
	found := false
	for _, other := range list {
		if other == w {
			found = true
			break
		}
	}
	if !found {
		l.watchers[w.fd] = append(list, w)
	}
	w.live = true

	l.syncEpoll(w.fd, wasArmed)
}

func (l *Loop) stop(w *Watcher) {
	wasArmed := l.combinedMask(w.fd) != 0
	w.live = false
	l.syncEpoll(w.fd, wasArmed)

	list := l.watchers[w.fd]
	anyLeft := false
	for _, other := range list {
		if other.live {
			anyLeft = true
			break
		}
	}
	if !anyLeft {
		delete(l.watchers, w.fd)
	}
}

// Inject queues a synthetic ready event for w, delivered on the next
// Run iteration through the same dispatch path as a real epoll
// readiness notification (spec §4.5.1 step 10, §4.5.2).
func (l *Loop) Inject(w *Watcher, ev Readiness) {
	l.pending = append(l.pending, pendingEvent{w: w, ev: ev})
}

// RegisterSignal arms fn to run on the loop goroutine whenever sig is
// delivered to the process. Safe to call before Run starts.
func (l *Loop) RegisterSignal(sig os.Signal, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sigSubs[sig] = append(l.sigSubs[sig], fn)
}

// Break stops Run at the next opportunity. Safe to call from any
// goroutine, including from within a callback.
func (l *Loop) Break() {
	l.mu.Lock()
	if !l.broken {
		l.broken = true
		select {
		case l.breakCh <- struct{}{}:
		default:
		}
		// wake a blocked epoll_wait(-1) immediately rather than waiting
		// for the next unrelated readiness event.
		_, _ = unix.Write(l.pipeW, []byte{0})
	}
	l.mu.Unlock()
}

// Run starts forwarding OS signals into the self-pipe and blocks
// dispatching readiness events until Break is called.
func (l *Loop) Run() error {
	l.mu.Lock()
	sigs := make([]os.Signal, 0, len(l.sigSubs))
	for s := range l.sigSubs {
		sigs = append(sigs, s)
	}
	l.mu.Unlock()

	sigCh := make(chan os.Signal, 8)
	if len(sigs) > 0 {
		signal.Notify(sigCh, sigs...)
		defer signal.Stop(sigCh)
	}

	stopForward := make(chan struct{})
	go func() {
		for {
			select {
			case s := <-sigCh:
				l.mu.Lock()
				l.sigQueue = append(l.sigQueue, s)
				l.mu.Unlock()
				_, _ = unix.Write(l.pipeW, []byte{0})
			case <-stopForward:
				return
			}
		}
	}()
	defer close(stopForward)

	events := make([]unix.EpollEvent, 64)

	for {
		select {
		case <-l.breakCh:
			return nil
		default:
		}

		l.dispatchPending()

		n, err := unix.EpollWait(l.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("event: epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)

			if fd == l.pipeR {
				l.drainSignalPipe()
				continue
			}

			list, ok := l.watchers[fd]
			if !ok {
				continue
			}
			// copy: a callback may Stop() another watcher on the same fd
			// (e.g. the write callback flips its sibling read watcher),
			// which would otherwise mutate list while we range over it.
			snapshot := append([]*Watcher(nil), list...)

			if events[i].Events&unix.EPOLLIN != 0 {
				for _, w := range snapshot {
					if w.live && w.want&Readable != 0 {
						w.cb(Readable)
					}
				}
			}
			if events[i].Events&unix.EPOLLOUT != 0 {
				for _, w := range snapshot {
					if w.live && w.want&Writable != 0 {
						w.cb(Writable)
					}
				}
			}
		}

		select {
		case <-l.breakCh:
			return nil
		default:
		}
	}
}

func (l *Loop) dispatchPending() {
	if len(l.pending) == 0 {
		return
	}
	batch := l.pending
	l.pending = nil
	for _, p := range batch {
		if p.w.Active() {
			p.w.cb(p.ev)
		}
	}
}

func (l *Loop) drainSignalPipe() {
	buf := make([]byte, 64)
	for {
		_, err := unix.Read(l.pipeR, buf)
		if err != nil {
			break
		}
	}

	l.mu.Lock()
	pending := l.sigQueue
	l.sigQueue = nil
	l.mu.Unlock()

	for _, s := range pending {
		for _, fn := range l.sigSubs[s] {
			fn()
		}
	}
}
