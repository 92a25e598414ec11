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
	"fmt"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/nabbar/tcp-intercept/network/protocol"
)

var validate = validator.New()

// Validate runs the struct-tag rules and the one cross-field check
// tags can't express: Bind must be either the literal "client" or a
// parseable host:port.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.IsClientSpoof() {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Bind); err != nil {
		return fmt.Errorf("config: bind: %w", err)
	}
	return nil
}

// IsClientSpoof reports whether Bind requests client-spoofing mode
// rather than a fixed outbound source address.
func (c Config) IsClientSpoof() bool {
	return strings.EqualFold(strings.TrimSpace(c.Bind), bindClient)
}

// Network is the listening protocol: Family when the config pins one
// member of the TCP family, NetworkTCP (dual-stack) otherwise.
func (c Config) Network() protocol.NetworkProtocol {
	if c.Family == protocol.NetworkEmpty {
		return protocol.NetworkTCP
	}
	return c.Family
}

// DefaultConfigName is the base filename viper searches for, absent
// an explicit --config flag.
const DefaultConfigName = ".tcp-intercept"

// SearchPaths returns the directories a default config file is looked
// up in: the current directory, then the user's home directory,
// mirroring the teacher's cobra default flag wiring.
func SearchPaths() ([]string, error) {
	paths := []string{"."}

	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("config: resolve home directory: %w", err)
	}
	paths = append(paths, home)
	return paths, nil
}

// Load reads configuration from file/env/flags via v into a Config
// and validates it. v is expected to already have its flags bound;
// Load only adds the default search path and env prefix before
// reading.
func Load(v *viper.Viper) (Config, error) {
	v.SetConfigName(DefaultConfigName)
	v.SetEnvPrefix("TCP_INTERCEPT")
	v.AutomaticEnv()
	// AutomaticEnv alone only resolves keys viper already knows about;
	// bind the struct's keys explicitly so an env-only invocation (no
	// config file, no flags) still populates Unmarshal's target.
	for _, key := range []string{"listen", "bind", "log_file", "daemonize", "pid_file"} {
		_ = v.BindEnv(key)
	}

	paths, err := SearchPaths()
	if err != nil {
		return Config{}, err
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var c Config
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		protocol.ViperDecoderHook(),
	)
	if err = v.Unmarshal(&c, viper.DecodeHook(hook)); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err = c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
