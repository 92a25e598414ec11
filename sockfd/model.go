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
	"golang.org/x/sys/unix"

	"github.com/nabbar/tcp-intercept/address"
)

// Socket creates a new stream socket for the given family, the factory
// method of spec §4.2. The returned Handle always starts in blocking
// mode; callers flip it with SetNonBlocking before using it in the
// event loop.
func Socket(family address.Family) (Handle, error) {
	fd, err := unix.Socket(Domain(family), unix.SOCK_STREAM, 0)
	if err != nil {
		return Invalid(), osErr("socket", err)
	}
	return Handle{fd: fd}, nil
}

// Bind binds h to addr.
func (h Handle) Bind(addr address.Address) error {
	sa, err := toSockaddr(addr)
	if err != nil {
		return err
	}
	return osErr("bind", unix.Bind(h.fd, sa))
}

// Listen marks h as a passive listening socket with the given backlog.
func (h Handle) Listen(backlog int) error {
	return osErr("listen", unix.Listen(h.fd, backlog))
}

// Connect attempts a connect(2) to addr. On a non-blocking socket this
// returns ConnectInProgress instead of an EINPROGRESS error -- the
// explicit three-way result spec §9 calls for in place of
// exception-for-control-flow.
func (h Handle) Connect(addr address.Address) (ConnectResult, error) {
	sa, err := toSockaddr(addr)
	if err != nil {
		return ConnectFailed, err
	}

	err = unix.Connect(h.fd, sa)
	switch {
	case err == nil:
		return ConnectDone, nil
	case err == unix.EINPROGRESS:
		return ConnectInProgress, nil
	default:
		return ConnectFailed, osErr("connect", err)
	}
}

// Accept accepts the next pending connection on a listening h. It
// returns the new Handle and the peer address, honoring h's
// non-blocking flag (spec §4.2): on a non-blocking listener with no
// pending connection, the returned error wraps EAGAIN/EWOULDBLOCK.
func (h Handle) Accept() (Handle, address.Address, error) {
	nfd, sa, err := unix.Accept(h.fd)
	if err != nil {
		return Invalid(), address.Address{}, osErr("accept", err)
	}

	addr, err := fromSockaddr(sa)
	if err != nil {
		_ = unix.Close(nfd)
		return Invalid(), address.Address{}, err
	}

	return Handle{fd: nfd}, addr, nil
}

// GetSockName returns the local address h is bound to. For a freshly
// accepted, transparently-redirected connection this is the *original
// destination* the client addressed (spec §4.5.1 step 2).
func (h Handle) GetSockName() (address.Address, error) {
	sa, err := unix.Getsockname(h.fd)
	if err != nil {
		return address.Address{}, osErr("getsockname", err)
	}
	return fromSockaddr(sa)
}

// GetPeerName returns the remote address h is connected to.
func (h Handle) GetPeerName() (address.Address, error) {
	sa, err := unix.Getpeername(h.fd)
	if err != nil {
		return address.Address{}, osErr("getpeername", err)
	}
	return fromSockaddr(sa)
}

// Recv reads up to maxLen bytes. A zero-length, nil-error result is
// EOF, per spec §4.2/§4.5.4. maxLen defaults to 4096 when zero.
func (h Handle) Recv(maxLen int) ([]byte, error) {
	if maxLen <= 0 {
		maxLen = 4096
	}
	buf := make([]byte, maxLen)
	n, err := unix.Read(h.fd, buf)
	if err != nil {
		return nil, osErr("recv", err)
	}
	return buf[:n], nil
}

// Send writes data and returns the count actually written, which may be
// less than len(data) on a non-blocking socket; callers retry the
// remainder (spec §4.2).
func (h Handle) Send(data []byte) (int, error) {
	n, err := unix.Write(h.fd, data)
	if err != nil {
		return n, osErr("send", err)
	}
	return n, nil
}

// Shutdown shuts down the given half (or both) of the connection.
func (h Handle) Shutdown(how ShutdownHow) error {
	return osErr("shutdown", unix.Shutdown(h.fd, int(how)))
}

// SetReuseAddr sets SO_REUSEADDR, required on the listening socket per spec §6.
func (h Handle) SetReuseAddr() error {
	return osErr("setsockopt(SO_REUSEADDR)", unix.SetsockoptInt(h.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1))
}

// SetIPTransparent sets IP_TRANSPARENT (IPv4) and, for v6, its IPv6
// analog. It must be called before Bind, per spec §9's resolved open
// question. Its absence (older kernels, missing CAP_NET_ADMIN) is not
// fatal here -- callers decide per spec §4.5.6 whether to log-and-continue
// or treat it as fatal at bind time.
func (h Handle) SetIPTransparent(family address.Family) error {
	if family == address.FamilyV6 {
		return osErr("setsockopt(IPV6_TRANSPARENT)", unix.SetsockoptInt(h.fd, unix.SOL_IPV6, unix.IPV6_TRANSPARENT, 1))
	}
	return osErr("setsockopt(IP_TRANSPARENT)", unix.SetsockoptInt(h.fd, unix.SOL_IP, unix.IP_TRANSPARENT, 1))
}

// GetSOError reads and clears the socket's pending SO_ERROR, the
// mechanism used to observe the outcome of a non-blocking connect once
// the socket becomes writable (spec §4.5.2).
func (h Handle) GetSOError() (int, error) {
	v, err := unix.GetsockoptInt(h.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return 0, osErr("getsockopt(SO_ERROR)", err)
	}
	return v, nil
}

// IsNonBlocking returns the current O_NONBLOCK state of h.
func (h Handle) IsNonBlocking() (bool, error) {
	flags, err := unix.FcntlInt(uintptr(h.fd), unix.F_GETFL, 0)
	if err != nil {
		return false, osErr("fcntl(F_GETFL)", err)
	}
	return flags&unix.O_NONBLOCK != 0, nil
}

// SetNonBlocking sets or clears O_NONBLOCK and returns the *prior*
// state, so callers can restore it, per spec §4.2.
func (h Handle) SetNonBlocking(state bool) (prior bool, err error) {
	flags, err := unix.FcntlInt(uintptr(h.fd), unix.F_GETFL, 0)
	if err != nil {
		return false, osErr("fcntl(F_GETFL)", err)
	}
	prior = flags&unix.O_NONBLOCK != 0

	if state {
		flags |= unix.O_NONBLOCK
	} else {
		flags &^= unix.O_NONBLOCK
	}

	if _, err = unix.FcntlInt(uintptr(h.fd), unix.F_SETFL, flags); err != nil {
		return prior, osErr("fcntl(F_SETFL)", err)
	}
	return prior, nil
}
