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

package protocol

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Parse accepts a protocol name case-insensitively, trimming
// surrounding whitespace and a single layer of quoting (so values
// lifted straight out of a shell-quoted config file or a Go-style
// backtick string still resolve). Anything unrecognized is
// NetworkEmpty.
func Parse(s string) NetworkProtocol {
	s = strings.TrimSpace(s)
	s = unquote(s)
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "tcp":
		return NetworkTCP
	case "tcp4":
		return NetworkTCP4
	case "tcp6":
		return NetworkTCP6
	default:
		return NetworkEmpty
	}
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
		return s[1 : len(s)-1]
	}
	return s
}

// ParseBytes is Parse for a byte slice, for callers decoding wire or
// file content without an intermediate string allocation concern.
func ParseBytes(b []byte) NetworkProtocol {
	return Parse(string(b))
}

// ParseInt64 recovers a NetworkProtocol from its stored numeric code.
// Out-of-range or negative values return NetworkEmpty rather than
// wrapping, since a corrupted or forward-incompatible config value
// must never silently alias a different protocol.
func ParseInt64(v int64) NetworkProtocol {
	if v < 0 || v > math.MaxUint8 {
		return NetworkEmpty
	}
	switch NetworkProtocol(v) {
	case NetworkTCP, NetworkTCP4, NetworkTCP6:
		return NetworkProtocol(v)
	default:
		return NetworkEmpty
	}
}

// String returns the canonical lowercase name, or "" when p does not
// name a known protocol.
func (p NetworkProtocol) String() string {
	switch p {
	case NetworkTCP:
		return "tcp"
	case NetworkTCP4:
		return "tcp4"
	case NetworkTCP6:
		return "tcp6"
	default:
		return ""
	}
}

// Code is an alias for String kept for symmetry with the wider
// protocol enumeration's Code()/String() pair; the two never diverge
// here since every name is already lowercase.
func (p NetworkProtocol) Code() string {
	return p.String()
}

// Int returns the protocol's stored numeric code, or 0 for
// NetworkEmpty and any unrecognized value.
func (p NetworkProtocol) Int() int {
	switch p {
	case NetworkTCP, NetworkTCP4, NetworkTCP6:
		return int(p)
	default:
		return 0
	}
}

func (p NetworkProtocol) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *NetworkProtocol) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"'`)
	*p = Parse(s)
	return nil
}

func (p NetworkProtocol) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

func (p *NetworkProtocol) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("protocol: yaml unmarshal: %w", err)
	}
	*p = Parse(s)
	return nil
}

// ViperDecoderHook returns a mapstructure decode hook that lets viper
// populate a NetworkProtocol field directly from a config string,
// the same way the rest of this repo's config struct fields decode
// via mapstructure.ComposeDecodeHookFunc.
func ViperDecoderHook() func(reflect.Type, reflect.Type, interface{}) (interface{}, error) {
	target := reflect.TypeOf(NetworkProtocol(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != target {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return Parse(v), nil
		case NetworkProtocol:
			return v, nil
		default:
			rv := reflect.ValueOf(data)
			switch {
			case rv.CanInt():
				return ParseInt64(rv.Int()), nil
			case rv.CanUint():
				return ParseInt64(int64(rv.Uint())), nil
			default:
				return data, nil
			}
		}
	}
}
