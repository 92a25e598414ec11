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

package address

import (
	"errors"
	"net/netip"
)

// Family identifies the address family carried by an Address.
type Family uint8

const (
	// FamilyV4 marks an Address holding an IPv4 payload.
	FamilyV4 Family = iota + 1
	// FamilyV6 marks an Address holding an IPv6 payload.
	FamilyV6
)

// String returns a short, lower-case label for the family ("v4"/"v6").
func (f Family) String() string {
	switch f {
	case FamilyV4:
		return "v4"
	case FamilyV6:
		return "v6"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidAddress is returned when a raw sockaddr or textual host
	// cannot be classified as IPv4 or IPv6, per spec §4.1/§7.
	ErrInvalidAddress = errors.New("address: invalid address")
	// ErrResolutionFailure wraps the underlying resolver error, per spec §7.
	ErrResolutionFailure = errors.New("address: resolution failure")
	// ErrAmbiguousResolution is returned by call sites that require exactly
	// one answer (listen/bind) and the resolver produced more than one,
	// per spec §9's noted-but-preserved restriction.
	ErrAmbiguousResolution = errors.New("address: ambiguous resolution (multiple answers)")
)

// Address is the tagged V4/V6 socket address described in spec §3. The
// family tag and the stored payload always agree; equality compares
// address bytes and port only, never FlowInfo/ScopeID.
type Address struct {
	family   Family
	addr     netip.Addr
	port     uint16
	flowInfo uint32
	scopeID  uint32
}

// Family returns the address family of a.
func (a Address) Family() Family { return a.family }

// Port returns the port number of a.
func (a Address) Port() uint16 { return a.port }

// FlowInfo returns the IPv6 flow label carried by a (zero for V4).
func (a Address) FlowInfo() uint32 { return a.flowInfo }

// ScopeID returns the IPv6 zone/scope id carried by a (zero for V4).
func (a Address) ScopeID() uint32 { return a.scopeID }

// IsAny reports whether a is the unspecified "any" address (0.0.0.0 or ::).
func (a Address) IsAny() bool { return a.addr.IsUnspecified() }

// IsLoopback reports whether a is the canonical loopback address
// (127.0.0.0/8 or ::1).
func (a Address) IsLoopback() bool { return a.addr.IsLoopback() }

// Equal compares family, address bytes and port only, per spec §3.
func (a Address) Equal(b Address) bool {
	return a.family == b.family && a.port == b.port && a.addr == b.addr
}

// String renders a as "[<addr>]:<port>", per spec §4.1.
func (a Address) String() string {
	return "[" + a.addr.String() + "]:" + portString(a.port)
}

// AddrPort returns the netip.AddrPort view of a, for callers that need
// to hand the address to the standard library (net.Dial, net.Listen, ...).
func (a Address) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(a.addr, a.port)
}

// NetIP returns the bare netip.Addr payload, stripped of port/flow/scope.
func (a Address) NetIP() netip.Addr { return a.addr }
