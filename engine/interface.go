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
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/tcp-intercept/address"
	"github.com/nabbar/tcp-intercept/event"
	"github.com/nabbar/tcp-intercept/sockfd"
)

// Error taxonomy surfaced by the engine, independent of the lower
// address/sockfd packages' own sentinels so callers can distinguish
// "this proxy rejected the configuration" from "this proxy hit a
// runtime socket error".
var (
	ErrInvalidAddress = errors.New("engine: invalid address")
	ErrConnectFailure = errors.New("engine: connect failure")
)

const recvBufferSize = 4096

// BindMode selects how the outbound socket's source address is
// chosen.
type BindMode uint8

const (
	// BindClientSpoof binds the outbound socket to the client's own
	// address, requiring the transparent-intercept option on the
	// outbound socket too.
	BindClientSpoof BindMode = iota
	// BindFixed binds the outbound socket to a single configured
	// address for every connection.
	BindFixed
)

// BindPolicy is the resolved outbound-bind configuration used for
// every accepted connection.
type BindPolicy struct {
	Mode  BindMode
	Fixed address.Address
}

// half is one direction of a connection's full-duplex pipe: bytes
// flow src -> buf -> dst. srcRead is armed while buf is empty;
// dstWrite is armed while buf is non-empty -- never both, per the
// engine's core invariant.
type half struct {
	label    string
	src      sockfd.Handle
	dst      sockfd.Handle
	srcRead  *event.Watcher
	dstWrite *event.Watcher
	buf      []byte
	open     bool
}

// Connection is the engine's per-accepted-connection record. id is
// assigned once at accept time and never changes; it is what every
// log line about this connection carries.
type Connection struct {
	id         string
	clientSock sockfd.Handle
	serverSock sockfd.Handle
	wConnect   *event.Watcher
	c2s        *half
	s2c        *half
}

// ID returns the connection's stable log identity.
func (c *Connection) ID() string { return c.id }

// Engine owns the listening socket, the outbound bind policy, and the
// registry of live connections. It has no exported mutable state
// beyond what's needed to drive it from cmd/tcp-intercept: Start wires
// the accept watcher, Close tears down the listener.
type Engine struct {
	loop     *event.Loop
	log      *logrus.Logger
	policy   BindPolicy
	listener sockfd.Handle
	accept   *event.Watcher
	registry map[*Connection]struct{}
}

// Len reports the number of live connections, exposed for tests and
// operational introspection.
func (e *Engine) Len() int { return len(e.registry) }
