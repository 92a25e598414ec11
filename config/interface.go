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

package config

import (
	"github.com/nabbar/tcp-intercept/network/protocol"
)

// bindClient is the literal value of Bind that selects client-spoofing
// mode instead of a fixed outbound source address.
const bindClient = "client"

// Config is the full set of settings the proxy needs to start.
// Listen and Bind are required; the rest default to headless
// foreground operation logging to stderr.
type Config struct {
	// Listen is the host:port the intercepting listener binds to.
	Listen string `mapstructure:"listen" validate:"required,hostname_port"`

	// Bind is either "client" (spoof the client's source address on
	// the outbound connection, requiring the transparent-intercept
	// socket option) or a fixed host:port to bind outbound sockets to.
	Bind string `mapstructure:"bind" validate:"required"`

	// LogFile is the append-only destination for diagnostic output.
	// Empty means standard error.
	LogFile string `mapstructure:"log_file"`

	// Daemonize is decoded from configuration but outside the core
	// engine's scope; cmd/tcp-intercept does not act on it, so the
	// process stays in the foreground.
	Daemonize bool `mapstructure:"daemonize"`

	// PIDFile, when set, receives the process's PID at startup and is
	// removed when the process exits normally.
	PIDFile string `mapstructure:"pid_file"`

	// Family restricts the listener to one member of the TCP family
	// (tcp4 or tcp6) instead of the dual-stack default. Decoded by
	// protocol.ViperDecoderHook, so both "tcp4" and its numeric stored
	// code unmarshal to the same value.
	Family protocol.NetworkProtocol `mapstructure:"network_family"`
}
