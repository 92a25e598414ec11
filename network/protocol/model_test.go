/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2025 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

package protocol_test

import (
	"encoding/json"
	"math"
	"reflect"

	. "github.com/nabbar/tcp-intercept/network/protocol"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Parse", func() {
	It("parses tcp/tcp4/tcp6 case-insensitively", func() {
		Expect(Parse("tcp")).To(Equal(NetworkTCP))
		Expect(Parse("TCP")).To(Equal(NetworkTCP))
		Expect(Parse("Tcp4")).To(Equal(NetworkTCP4))
		Expect(Parse("TCP6")).To(Equal(NetworkTCP6))
	})

	It("trims whitespace and quoting", func() {
		Expect(Parse("  tcp  ")).To(Equal(NetworkTCP))
		Expect(Parse(`"tcp4"`)).To(Equal(NetworkTCP4))
		Expect(Parse("`tcp6`")).To(Equal(NetworkTCP6))
	})

	It("returns NetworkEmpty for unknown, empty, or non-TCP protocol names", func() {
		Expect(Parse("")).To(Equal(NetworkEmpty))
		Expect(Parse("udp")).To(Equal(NetworkEmpty))
		Expect(Parse("unix")).To(Equal(NetworkEmpty))
		Expect(Parse("http")).To(Equal(NetworkEmpty))
	})

	It("never panics on pathological input", func() {
		Expect(func() { Parse(string(make([]byte, 10000))) }).NotTo(Panic())
	})

	It("ParseBytes mirrors Parse", func() {
		Expect(ParseBytes([]byte("tcp"))).To(Equal(NetworkTCP))
		Expect(ParseBytes(nil)).To(Equal(NetworkEmpty))
	})

	It("ParseInt64 recovers the stored code and rejects out-of-range values", func() {
		Expect(ParseInt64(2)).To(Equal(NetworkTCP))
		Expect(ParseInt64(3)).To(Equal(NetworkTCP4))
		Expect(ParseInt64(4)).To(Equal(NetworkTCP6))
		Expect(ParseInt64(0)).To(Equal(NetworkEmpty))
		Expect(ParseInt64(1)).To(Equal(NetworkEmpty)) // the dropped unix code
		Expect(ParseInt64(-1)).To(Equal(NetworkEmpty))
		Expect(ParseInt64(math.MaxInt64)).To(Equal(NetworkEmpty))
		Expect(ParseInt64(256)).To(Equal(NetworkEmpty))
	})
})

var _ = Describe("String/Code/Int", func() {
	It("round-trips every known protocol through String and Code", func() {
		for _, p := range []NetworkProtocol{NetworkTCP, NetworkTCP4, NetworkTCP6} {
			Expect(Parse(p.String())).To(Equal(p))
			Expect(p.Code()).To(Equal(p.String()))
		}
	})

	It("returns empty string and zero for NetworkEmpty and unknown values", func() {
		Expect(NetworkEmpty.String()).To(Equal(""))
		Expect(NetworkProtocol(99).String()).To(Equal(""))
		Expect(NetworkEmpty.Int()).To(Equal(0))
	})

	It("exposes the original numeric codes for the TCP family", func() {
		Expect(NetworkTCP.Int()).To(Equal(2))
		Expect(NetworkTCP4.Int()).To(Equal(3))
		Expect(NetworkTCP6.Int()).To(Equal(4))
	})
})

var _ = Describe("JSON and YAML marshaling", func() {
	It("marshals and unmarshals through JSON", func() {
		data, err := NetworkTCP.MarshalJSON()
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal(`"tcp"`))

		var p NetworkProtocol
		Expect(p.UnmarshalJSON([]byte(`"tcp4"`))).To(Succeed())
		Expect(p).To(Equal(NetworkTCP4))
	})

	It("round-trips via encoding/json in a struct", func() {
		type wrapper struct {
			P NetworkProtocol `json:"p"`
		}
		body, err := json.Marshal(wrapper{P: NetworkTCP6})
		Expect(err).ToNot(HaveOccurred())
		Expect(string(body)).To(Equal(`{"p":"tcp6"}`))

		var out wrapper
		Expect(json.Unmarshal(body, &out)).To(Succeed())
		Expect(out.P).To(Equal(NetworkTCP6))
	})
})

var _ = Describe("ViperDecoderHook", func() {
	It("decodes a config string into a NetworkProtocol field", func() {
		hook := ViperDecoderHook()
		var target NetworkProtocol

		result, err := hook(reflect.TypeOf(""), reflect.TypeOf(target), "tcp4")
		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(Equal(NetworkTCP4))
	})

	It("passes through values destined for other fields untouched", func() {
		hook := ViperDecoderHook()
		result, err := hook(reflect.TypeOf(""), reflect.TypeOf(0), "tcp")
		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(Equal("tcp"))
	})

	It("decodes a numeric code the same as a string name", func() {
		hook := ViperDecoderHook()
		var target NetworkProtocol
		result, err := hook(reflect.TypeOf(0), reflect.TypeOf(target), 3)
		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(Equal(NetworkTCP4))
	})
})
