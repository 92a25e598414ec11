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

package config_test

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/nabbar/tcp-intercept/config"
	"github.com/nabbar/tcp-intercept/network/protocol"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config.Validate", func() {
	It("accepts a fixed-mode config with a valid listen and bind address", func() {
		c := config.Config{Listen: "0.0.0.0:1080", Bind: "10.0.0.1:0"}
		Expect(c.Validate()).To(Succeed())
	})

	It("accepts client-spoofing mode regardless of case", func() {
		c := config.Config{Listen: "0.0.0.0:1080", Bind: "Client"}
		Expect(c.Validate()).To(Succeed())
		Expect(c.IsClientSpoof()).To(BeTrue())
	})

	It("rejects a missing listen address", func() {
		c := config.Config{Bind: "client"}
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("rejects a missing bind value", func() {
		c := config.Config{Listen: "0.0.0.0:1080"}
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("rejects a fixed bind address that isn't host:port", func() {
		c := config.Config{Listen: "0.0.0.0:1080", Bind: "not-an-address"}
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("defaults to dual-stack TCP when no family is pinned", func() {
		c := config.Config{Listen: "0.0.0.0:1080", Bind: "client"}
		Expect(c.Network()).To(Equal(protocol.NetworkTCP))
	})

	It("reports a pinned family instead of the default", func() {
		c := config.Config{Listen: "0.0.0.0:1080", Bind: "client", Family: protocol.NetworkTCP6}
		Expect(c.Network()).To(Equal(protocol.NetworkTCP6))
	})
})

var _ = Describe("Load", func() {
	It("reads listen/bind from a config file on disk", func() {
		dir, err := os.MkdirTemp("", "config-*")
		Expect(err).ToNot(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, config.DefaultConfigName+".yaml")
		Expect(os.WriteFile(path, []byte("listen: 127.0.0.1:9090\nbind: client\n"), 0o644)).To(Succeed())

		v := viper.New()
		v.AddConfigPath(dir)
		v.SetConfigName(config.DefaultConfigName)

		c, err := config.Load(v)
		Expect(err).ToNot(HaveOccurred())
		Expect(c.Listen).To(Equal("127.0.0.1:9090"))
		Expect(c.IsClientSpoof()).To(BeTrue())
	})

	It("does not fail when no config file is present and env supplies the values", func() {
		v := viper.New()
		v.AddConfigPath(filepath.Join(os.TempDir(), "definitely-does-not-exist"))

		Expect(os.Setenv("TCP_INTERCEPT_LISTEN", "0.0.0.0:1080")).To(Succeed())
		Expect(os.Setenv("TCP_INTERCEPT_BIND", "client")).To(Succeed())
		defer os.Unsetenv("TCP_INTERCEPT_LISTEN")
		defer os.Unsetenv("TCP_INTERCEPT_BIND")

		c, err := config.Load(v)
		Expect(err).ToNot(HaveOccurred())
		Expect(c.Listen).To(Equal("0.0.0.0:1080"))
	})

	It("decodes network_family through the protocol viper hook", func() {
		dir, err := os.MkdirTemp("", "config-*")
		Expect(err).ToNot(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, config.DefaultConfigName+".yaml")
		Expect(os.WriteFile(path, []byte("listen: 127.0.0.1:9090\nbind: client\nnetwork_family: tcp4\n"), 0o644)).To(Succeed())

		v := viper.New()
		v.AddConfigPath(dir)
		v.SetConfigName(config.DefaultConfigName)

		c, err := config.Load(v)
		Expect(err).ToNot(HaveOccurred())
		Expect(c.Network()).To(Equal(protocol.NetworkTCP4))
	})
})
