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
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

func portString(p uint16) string {
	return strconv.FormatUint(uint64(p), 10)
}

// FromV4 builds an Address from a raw IPv4 payload and port.
func FromV4(ip [4]byte, port uint16) Address {
	return Address{family: FamilyV4, addr: netip.AddrFrom4(ip), port: port}
}

// FromV6 builds an Address from a raw IPv6 payload, port, flow label and
// scope id.
func FromV6(ip [16]byte, port uint16, flowInfo, scopeID uint32) Address {
	return Address{family: FamilyV6, addr: netip.AddrFrom16(ip), port: port, flowInfo: flowInfo, scopeID: scopeID}
}

// Translate builds an Address from a literal host and a port, performing
// no DNS or service lookup (spec §4.1). The textual form of host decides
// the family: presence of '.' implies IPv4, presence of ':' implies
// IPv6; anything else (both, or neither) fails with ErrInvalidAddress.
func Translate(host string, port uint16) (Address, error) {
	host = strings.Trim(host, "[]")

	hasDot := strings.Contains(host, ".")
	hasColon := strings.Contains(host, ":")

	switch {
	case hasDot && !hasColon:
		ip, err := netip.ParseAddr(host)
		if err != nil || !ip.Is4() {
			return Address{}, fmt.Errorf("%w: %q is not a valid IPv4 literal", ErrInvalidAddress, host)
		}
		return FromV4(ip.As4(), port), nil
	case hasColon && !hasDot:
		ip, err := netip.ParseAddr(host)
		if err != nil || !ip.Is6() {
			return Address{}, fmt.Errorf("%w: %q is not a valid IPv6 literal", ErrInvalidAddress, host)
		}
		return FromV6(ip.As16(), port, 0, 0), nil
	default:
		return Address{}, fmt.Errorf("%w: %q is ambiguous (need '.' xor ':')", ErrInvalidAddress, host)
	}
}
