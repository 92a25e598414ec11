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
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ResolveFamily is the address-family selector for Resolve, the analog
// of getaddrinfo(3)'s ai_family hint. Resolve takes no socktype or
// protocol selector: services are always looked up as TCP.
type ResolveFamily uint8

const (
	ResolveAny ResolveFamily = iota
	ResolveV4Only
	ResolveV6Only
)

// ResolveOptions carries the optional hints accepted by Resolve. Only
// Family filters the results; V4Mapped is carried but Resolve does not
// read it, so IPv4 answers are never returned in IPv4-mapped IPv6 form.
type ResolveOptions struct {
	Family   ResolveFamily
	V4Mapped bool
}

// bracketed reports whether token is wrapped in "[...]", and returns the
// token with the brackets stripped. A bracketed host or service bypasses
// name/service lookup for that component, per spec §4.1.
func bracketed(token string) (inner string, isBracketed bool) {
	if len(token) >= 2 && strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]") {
		return token[1 : len(token)-1], true
	}
	return token, false
}

// Resolve returns the ordered sequence of addresses the OS resolver
// produces for (host, service), filtered per opts. Bracketed tokens
// around host or service suppress lookup for that field (host is then
// parsed as a literal via Translate-style rules; service is parsed as a
// bare port number). On failure, the error wraps ErrResolutionFailure
// with the underlying reason, per spec §4.1/§7.
func Resolve(ctx context.Context, host, service string, opts ResolveOptions) ([]Address, error) {
	h, hostLiteral := bracketed(host)
	s, svcLiteral := bracketed(service)

	var port uint16
	if svcLiteral || s == "" {
		if s != "" {
			p, err := strconv.ParseUint(s, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid literal service %q: %v", ErrResolutionFailure, s, err)
			}
			port = uint16(p)
		}
	} else {
		p, err := net.DefaultResolver.LookupPort(ctx, "tcp", s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrResolutionFailure, err)
		}
		port = uint16(p)
	}

	if hostLiteral {
		a, err := Translate(h, port)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrResolutionFailure, err)
		}
		return []Address{a}, nil
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailure, err)
	}

	out := make([]Address, 0, len(ips))
	for _, ip := range ips {
		v4 := ip.IP.To4()
		switch {
		case v4 != nil && opts.Family == ResolveV6Only:
			continue
		case v4 == nil && opts.Family == ResolveV4Only:
			continue
		}

		if v4 != nil {
			var b [4]byte
			copy(b[:], v4)
			out = append(out, FromV4(b, port))
			continue
		}

		v6 := ip.IP.To16()
		if v6 == nil {
			continue
		}
		var b [16]byte
		copy(b[:], v6)
		out = append(out, FromV6(b, port, 0, 0))
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no usable addresses for %q", ErrResolutionFailure, host)
	}

	return out, nil
}

// ResolveOne resolves host/service exactly as Resolve, but requires a
// single unambiguous answer -- the rule this spec preserves for listen
// and outbound-bind addresses (spec §9: multi-answer resolution for
// those call sites is rejected, not load-balanced).
func ResolveOne(ctx context.Context, host, service string, opts ResolveOptions) (Address, error) {
	addrs, err := Resolve(ctx, host, service, opts)
	if err != nil {
		return Address{}, err
	}
	if len(addrs) > 1 {
		return Address{}, fmt.Errorf("%w: %d answers for %q", ErrAmbiguousResolution, len(addrs), host)
	}
	return addrs[0], nil
}

// ResolveHostPort splits a "host:port" string and resolves it to a
// single Address: a literal IP is translated directly with no network
// call, anything else (a hostname, or a named service in place of a
// numeric port) goes through ResolveOne. This is the shared path for
// both the listen address and the fixed outbound-bind address (spec
// §4.1: "name resolution happens only at startup for the
// listen/outgoing bind addresses").
func ResolveHostPort(ctx context.Context, hostport string, opts ResolveOptions) (Address, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return Address{}, err
	}

	if port, perr := strconv.ParseUint(portStr, 10, 16); perr == nil {
		if a, terr := Translate(host, uint16(port)); terr == nil {
			return a, nil
		}
	}

	return ResolveOne(ctx, host, portStr, opts)
}
