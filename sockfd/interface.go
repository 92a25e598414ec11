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

package sockfd

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/nabbar/tcp-intercept/address"
)

// OSError is the *System Error* of spec §7: a syscall failure carrying
// the raw errno and a human label, the Go analog of the original
// Socket/Errno.hxx pairing of errno with strerror(3).
type OSError struct {
	Op   string
	Errno syscall.Errno
}

func (e *OSError) Error() string {
	return fmt.Sprintf("sockfd: %s: %s", e.Op, e.Errno.Error())
}

func (e *OSError) Unwrap() error { return e.Errno }

func osErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errno, ok := err.(syscall.Errno); ok {
		return &OSError{Op: op, Errno: errno}
	}
	return fmt.Errorf("sockfd: %s: %w", op, err)
}

// ConnectResult is the explicit three-way outcome of a non-blocking
// connect, replacing the exception-for-EINPROGRESS pattern flagged in
// spec §9.
type ConnectResult uint8

const (
	// ConnectDone means the connection completed synchronously.
	ConnectDone ConnectResult = iota
	// ConnectInProgress means the kernel accepted the attempt and the
	// caller must wait for write-readiness, then call GetSOError.
	ConnectInProgress
	// ConnectFailed means the connect attempt failed immediately.
	ConnectFailed
)

// ShutdownHow selects which half of a connection Shutdown closes.
type ShutdownHow int

const (
	ShutdownRead  ShutdownHow = unix.SHUT_RD
	ShutdownWrite ShutdownHow = unix.SHUT_WR
	ShutdownBoth  ShutdownHow = unix.SHUT_RDWR
)

// sentinel is the "no descriptor" value a Handle holds after Close,
// Release, or before a successful factory call.
const sentinel = -1

// Handle owns exactly one OS descriptor, or the sentinel. Copying a
// Handle by value is intentionally cheap-but-wrong: callers must treat
// it as move-only and never use a Handle after passing it to Release or
// Close. There is no runtime enforcement of this in Go; the discipline
// is structural: engine.Connection's clientSock/serverSock are the
// copies that get closed, and the copies its per-direction halves hold
// are used only while the connection is live.
type Handle struct {
	fd int
}

// Invalid returns a Handle holding the sentinel, matching the original
// Socket()'s default constructor.
func Invalid() Handle { return Handle{fd: sentinel} }

// Valid reports whether h owns a real descriptor.
func (h Handle) Valid() bool { return h.fd != sentinel }

// FD returns the raw descriptor without transferring ownership. Callers
// must not close it.
func (h Handle) FD() int { return h.fd }

// Release transfers ownership out of h: the raw descriptor is returned
// and h is left holding the sentinel, matching the original Socket::release().
func (h *Handle) Release() int {
	fd := h.fd
	h.fd = sentinel
	return fd
}

// Close closes the owned descriptor, if any, and leaves h holding the
// sentinel. Close is idempotent.
func (h *Handle) Close() error {
	if h.fd == sentinel {
		return nil
	}
	fd := h.fd
	h.fd = sentinel
	return osErr("close", unix.Close(fd))
}

func toSockaddr(a address.Address) (unix.Sockaddr, error) {
	switch a.Family() {
	case address.FamilyV4:
		ip := a.NetIP().As4()
		return &unix.SockaddrInet4{Port: int(a.Port()), Addr: ip}, nil
	case address.FamilyV6:
		ip := a.NetIP().As16()
		return &unix.SockaddrInet6{Port: int(a.Port()), Addr: ip, ZoneId: a.ScopeID()}, nil
	default:
		return nil, fmt.Errorf("sockfd: unsupported address family %v", a.Family())
	}
}

func fromSockaddr(sa unix.Sockaddr) (address.Address, error) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return address.FromV4(v.Addr, uint16(v.Port)), nil
	case *unix.SockaddrInet6:
		return address.FromV6(v.Addr, uint16(v.Port), 0, v.ZoneId), nil
	default:
		return address.Address{}, fmt.Errorf("%w: unsupported sockaddr type %T", address.ErrInvalidAddress, sa)
	}
}

// Domain maps an address.Family to the unix.AF_* socket domain.
func Domain(f address.Family) int {
	if f == address.FamilyV6 {
		return unix.AF_INET6
	}
	return unix.AF_INET
}
