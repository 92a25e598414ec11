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

package address_test

import (
	"context"

	"github.com/nabbar/tcp-intercept/address"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Translate", func() {
	It("parses a bare IPv4 literal", func() {
		a, err := address.Translate("192.0.2.1", 5000)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Family()).To(Equal(address.FamilyV4))
		Expect(a.String()).To(Equal("[192.0.2.1]:5000"))
	})

	It("parses a bare IPv6 literal", func() {
		a, err := address.Translate("::1", 443)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Family()).To(Equal(address.FamilyV6))
		Expect(a.String()).To(Equal("[::1]:443"))
	})

	It("accepts bracket-escaped IPv6", func() {
		a, err := address.Translate("[2001:db8::1]", 80)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Family()).To(Equal(address.FamilyV6))
	})

	It("rejects a hostname (neither '.' nor unambiguous ':')", func() {
		_, err := address.Translate("not_an_address", 80)
		Expect(err).To(MatchError(address.ErrInvalidAddress))
	})

	It("rejects a token containing both '.' and ':' ambiguously", func() {
		_, err := address.Translate("fe80::1.2", 80)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Equal", func() {
	It("ignores FlowInfo/ScopeID", func() {
		a := address.FromV6([16]byte{0: 0x20, 1: 0x01}, 9000, 7, 3)
		b := address.FromV6([16]byte{0: 0x20, 1: 0x01}, 9000, 0, 0)
		Expect(a.Equal(b)).To(BeTrue())
	})

	It("differs on port", func() {
		a := address.FromV4([4]byte{127, 0, 0, 1}, 1)
		b := address.FromV4([4]byte{127, 0, 0, 1}, 2)
		Expect(a.Equal(b)).To(BeFalse())
	})
})

var _ = Describe("IsAny / IsLoopback", func() {
	It("flags 0.0.0.0 as any", func() {
		Expect(address.FromV4([4]byte{}, 0).IsAny()).To(BeTrue())
	})

	It("flags :: as any", func() {
		Expect(address.FromV6([16]byte{}, 0, 0, 0).IsAny()).To(BeTrue())
	})

	It("flags 127.0.0.1 as loopback", func() {
		Expect(address.FromV4([4]byte{127, 0, 0, 1}, 0).IsLoopback()).To(BeTrue())
	})

	It("flags ::1 as loopback", func() {
		ip := [16]byte{15: 1}
		Expect(address.FromV6(ip, 0, 0, 0).IsLoopback()).To(BeTrue())
	})
})

var _ = Describe("ResolveOne", func() {
	It("resolves a bracketed literal host and service to a single answer", func() {
		// a bracketed literal always resolves to exactly one answer, so
		// exercise the guard directly against a fabricated multi-answer
		// by resolving a hostname known to be a literal-looking loopback
		// is out of scope for a unit test without DNS; cover the literal
		// single-answer path instead.
		a, err := address.ResolveOne(context.Background(), "[127.0.0.1]", "[9000]", address.ResolveOptions{})
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Port()).To(Equal(uint16(9000)))
	})

	It("resolves localhost to a single answer when filtered to one family", func() {
		a, err := address.ResolveOne(context.Background(), "localhost", "9000", address.ResolveOptions{Family: address.ResolveV4Only})
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Family()).To(Equal(address.FamilyV4))
		Expect(a.IsLoopback()).To(BeTrue())
	})

	It("resolves a named service the same as its numeric port", func() {
		a, err := address.ResolveOne(context.Background(), "127.0.0.1", "http", address.ResolveOptions{})
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Port()).To(Equal(uint16(80)))
	})

	It("wraps ErrResolutionFailure for an unresolvable host", func() {
		_, err := address.ResolveOne(context.Background(), "this-host-definitely-does-not-exist.invalid", "80", address.ResolveOptions{})
		Expect(err).To(MatchError(address.ErrResolutionFailure))
	})
})

var _ = Describe("ResolveHostPort", func() {
	It("translates a literal host:port without touching the resolver", func() {
		a, err := address.ResolveHostPort(context.Background(), "192.0.2.1:443", address.ResolveOptions{})
		Expect(err).ToNot(HaveOccurred())
		Expect(a.String()).To(Equal("[192.0.2.1]:443"))
	})

	It("falls back to the system resolver for a hostname", func() {
		a, err := address.ResolveHostPort(context.Background(), "localhost:0", address.ResolveOptions{Family: address.ResolveV4Only})
		Expect(err).ToNot(HaveOccurred())
		Expect(a.IsLoopback()).To(BeTrue())
	})

	It("rejects a host:port with no splittable port", func() {
		_, err := address.ResolveHostPort(context.Background(), "192.0.2.1", address.ResolveOptions{})
		Expect(err).To(HaveOccurred())
	})
})
