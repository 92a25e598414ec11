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

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/tcp-intercept/address"
	"github.com/nabbar/tcp-intercept/event"
	"github.com/nabbar/tcp-intercept/network/protocol"
	"github.com/nabbar/tcp-intercept/sockfd"
)

// resolveTimeout bounds the DNS lookup parseHostPort falls back to for
// a non-literal listen address, so a stalled resolver can't hang
// startup indefinitely.
const resolveTimeout = 5 * time.Second

// New builds the listening socket for listenAddr (a "host:port"
// string; a literal IP is used as-is, anything else goes through the
// system resolver) and wires its accept watcher into loop. family
// pins the listener to tcp4 or tcp6; NetworkTCP (or NetworkEmpty)
// accepts whichever family listenAddr resolves to. The listener is
// not yet armed; call Start.
func New(loop *event.Loop, log *logrus.Logger, listenAddr string, policy BindPolicy, family protocol.NetworkProtocol) (*Engine, error) {
	addr, err := parseHostPort(listenAddr, family)
	if err != nil {
		return nil, fmt.Errorf("%w: listen address %q: %v", ErrInvalidAddress, listenAddr, err)
	}

	l, err := sockfd.Socket(addr.Family())
	if err != nil {
		return nil, fmt.Errorf("engine: create listener: %w", err)
	}

	if err = l.SetReuseAddr(); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("engine: set reuseaddr: %w", err)
	}

	if err = l.SetIPTransparent(addr.Family()); err != nil {
		log.WithError(err).Warn("transparent-intercept option unavailable on listener; continuing without it")
	}

	if err = l.Bind(addr); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("engine: bind listener to %s: %w", addr, err)
	}

	if err = l.Listen(128); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("engine: listen on %s: %w", addr, err)
	}

	if _, err = l.SetNonBlocking(true); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("engine: set listener non-blocking: %w", err)
	}

	e := &Engine{
		loop:     loop,
		log:      log,
		policy:   policy,
		listener: l,
		registry: make(map[*Connection]struct{}),
	}
	e.accept = loop.Register(l.FD(), event.Readable, e.onAcceptReady)
	return e, nil
}

// parseHostPort resolves a "host:port" listen address via
// address.ResolveHostPort, bounded by resolveTimeout so a stalled
// resolver can't hang startup indefinitely, then enforces family: when
// pinned to tcp4 or tcp6, a listen address of the other family is
// rejected rather than silently accepted.
func parseHostPort(hostport string, family protocol.NetworkProtocol) (address.Address, error) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	addr, err := address.ResolveHostPort(ctx, hostport, address.ResolveOptions{Family: resolveFamilyFor(family)})
	if err != nil {
		return address.Address{}, err
	}
	if err = checkFamily(addr, family); err != nil {
		return address.Address{}, err
	}
	return addr, nil
}

// resolveFamilyFor translates a pinned NetworkProtocol into the
// resolver hint address.Resolve expects.
func resolveFamilyFor(family protocol.NetworkProtocol) address.ResolveFamily {
	switch family {
	case protocol.NetworkTCP4:
		return address.ResolveV4Only
	case protocol.NetworkTCP6:
		return address.ResolveV6Only
	default:
		return address.ResolveAny
	}
}

// checkFamily rejects a listen address whose family disagrees with a
// pinned family setting. NetworkTCP and NetworkEmpty mean dual-stack,
// accepting either family. Mainly a backstop for the literal path,
// since the resolver path already filters by family.
func checkFamily(addr address.Address, family protocol.NetworkProtocol) error {
	switch family {
	case protocol.NetworkTCP4:
		if addr.Family() != address.FamilyV4 {
			return fmt.Errorf("%w: listen address %s is not IPv4 but network_family pins tcp4", ErrInvalidAddress, addr)
		}
	case protocol.NetworkTCP6:
		if addr.Family() != address.FamilyV6 {
			return fmt.Errorf("%w: listen address %s is not IPv6 but network_family pins tcp6", ErrInvalidAddress, addr)
		}
	}
	return nil
}

// Start arms the listening socket's accept watcher.
func (e *Engine) Start() {
	e.accept.Start()
}

// Close stops accepting new connections and releases the listening
// socket. Live connections are left as-is, matching the core's
// no-graceful-drain contract; a caller wanting to drain must do so
// itself before calling Close.
func (e *Engine) Close() error {
	e.accept.Stop()
	return e.listener.Close()
}

// onAcceptReady implements the accept callback, spec section 4.5.1.
func (e *Engine) onAcceptReady(event.Readiness) {
	clientSock, peer, err := e.listener.Accept()
	if err != nil {
		e.log.WithError(err).Warn("accept failed")
		return
	}

	origDest, err := clientSock.GetSockName()
	if err != nil {
		e.log.WithError(err).Warn("getsockname on accepted socket failed")
		_ = clientSock.Close()
		return
	}

	id := fmt.Sprintf("%s-->-%s", peer, origDest)

	if _, err = clientSock.SetNonBlocking(true); err != nil {
		e.log.WithError(err).WithField("conn", id).Warn("set client socket non-blocking failed")
		_ = clientSock.Close()
		return
	}

	serverSock, err := sockfd.Socket(origDest.Family())
	if err != nil {
		e.log.WithError(err).WithField("conn", id).Warn("create outbound socket failed")
		_ = clientSock.Close()
		return
	}

	if err = e.bindOutbound(serverSock, peer); err != nil {
		e.log.WithError(err).WithField("conn", id).Warn("bind outbound socket failed")
		_ = clientSock.Close()
		_ = serverSock.Close()
		return
	}

	if _, err = serverSock.SetNonBlocking(true); err != nil {
		e.log.WithError(err).WithField("conn", id).Warn("set outbound socket non-blocking failed")
		_ = clientSock.Close()
		_ = serverSock.Close()
		return
	}

	c := e.newConnection(clientSock, serverSock, id)

	res, err := serverSock.Connect(origDest)
	if err != nil {
		e.log.WithError(err).WithField("conn", id).Warn("outbound connect failed")
		_ = clientSock.Close()
		_ = serverSock.Close()
		return
	}

	e.registry[c] = struct{}{}
	e.log.WithField("conn", id).Info("connection intercepted")

	switch res {
	case sockfd.ConnectDone:
		c.wConnect.Start()
		e.loop.Inject(c.wConnect, event.Writable)
	case sockfd.ConnectInProgress:
		c.wConnect.Start()
	}
}

// newConnection allocates a Connection and wires its five watchers
// into the loop without starting any of them or admitting it to the
// registry -- the caller decides that once it knows whether the
// outbound connect even started.
func (e *Engine) newConnection(clientSock, serverSock sockfd.Handle, id string) *Connection {
	c := &Connection{
		id:         id,
		clientSock: clientSock,
		serverSock: serverSock,
	}
	c.c2s = &half{label: "c2s", src: clientSock, dst: serverSock, open: true}
	c.s2c = &half{label: "s2c", src: serverSock, dst: clientSock, open: true}

	c.wConnect = e.loop.Register(serverSock.FD(), event.Writable, func(ev event.Readiness) { e.onConnectComplete(c) })
	c.c2s.srcRead = e.loop.Register(clientSock.FD(), event.Readable, func(ev event.Readiness) { e.onReadReady(c, c.c2s) })
	c.c2s.dstWrite = e.loop.Register(serverSock.FD(), event.Writable, func(ev event.Readiness) { e.onWriteReady(c, c.c2s) })
	c.s2c.srcRead = e.loop.Register(serverSock.FD(), event.Readable, func(ev event.Readiness) { e.onReadReady(c, c.s2c) })
	c.s2c.dstWrite = e.loop.Register(clientSock.FD(), event.Writable, func(ev event.Readiness) { e.onWriteReady(c, c.s2c) })
	return c
}

// bindOutbound applies the configured outbound-bind policy. A failed
// SetIPTransparent is logged but not fatal -- the spec treats the
// option's absence as degraded-but-functional, not an error -- while
// a failed Bind is always fatal to the attempt.
func (e *Engine) bindOutbound(s sockfd.Handle, clientAddr address.Address) error {
	switch e.policy.Mode {
	case BindClientSpoof:
		if err := s.SetIPTransparent(clientAddr.Family()); err != nil {
			e.log.WithError(err).Warn("transparent-intercept option unavailable on outbound socket; connection will use the process's own route")
		}
		return s.Bind(clientAddr)
	default:
		return s.Bind(e.policy.Fixed)
	}
}
