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

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/nabbar/tcp-intercept/address"
	"github.com/nabbar/tcp-intercept/config"
	"github.com/nabbar/tcp-intercept/engine"
	"github.com/nabbar/tcp-intercept/event"
	"github.com/nabbar/tcp-intercept/internal/buildinfo"
	"github.com/nabbar/tcp-intercept/logsink"
)

// resolveTimeout bounds the DNS lookup bindPolicy falls back to for a
// non-literal outbound-bind address, mirroring engine's own guard
// against a stalled resolver.
const resolveTimeout = 5 * time.Second

// release/commit/date are populated at link time via
//
//	-ldflags "-X main.release=v1.0.0 -X main.commit=abcdef -X main.date=2025-01-01T00:00:00Z"
var (
	release = ""
	commit  = ""
	date    = ""
)

var cfgFile string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	info := buildinfo.New("tcp-intercept", "transparent TCP intercepting proxy", release, commit, date, "")

	cmd := &cobra.Command{
		Use:     "tcp-intercept",
		Short:   "transparent TCP intercepting proxy",
		Long:    "tcp-intercept accepts TPROXY-redirected TCP connections and splices them to their original destination.",
		Version: info.String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(info)
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file to load (default is $HOME/"+config.DefaultConfigName+".[yaml|json|toml])")
	_ = cmd.MarkPersistentFlagFilename("config", "json", "toml", "yaml", "yml")

	return cmd
}

func run(info buildinfo.Info) error {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("tcp-intercept: %w", err)
	}

	sink := logsink.New()
	if err = sink.Open(cfg.LogFile); err != nil {
		return fmt.Errorf("tcp-intercept: open log file: %w", err)
	}
	defer func() { _ = sink.Close() }()

	log := logsink.NewLogger(sink)

	if !color.NoColor {
		fmt.Fprintln(os.Stdout, color.CyanString(info.Header()))
	}

	if cfg.PIDFile != "" {
		if err = writePIDFile(cfg.PIDFile); err != nil {
			return fmt.Errorf("tcp-intercept: write pid file: %w", err)
		}
		defer func() { _ = os.Remove(cfg.PIDFile) }()
	}

	policy, err := bindPolicy(cfg)
	if err != nil {
		return fmt.Errorf("tcp-intercept: %w", err)
	}

	loop, err := event.NewLoop()
	if err != nil {
		return fmt.Errorf("tcp-intercept: create event loop: %w", err)
	}
	defer func() { _ = loop.Close() }()

	eng, err := engine.New(loop, log, cfg.Listen, policy, cfg.Network())
	if err != nil {
		return fmt.Errorf("tcp-intercept: %w", err)
	}

	loop.RegisterSignal(syscall.SIGINT, loop.Break)
	loop.RegisterSignal(syscall.SIGTERM, loop.Break)
	loop.RegisterSignal(syscall.SIGHUP, func() {
		if rerr := sink.Reopen(); rerr != nil {
			log.WithError(rerr).Warn("log file reopen failed")
		} else {
			log.Info("log file reopened")
		}
	})

	eng.Start()
	log.WithField("listen", cfg.Listen).Info("tcp-intercept started")

	var g errgroup.Group
	g.Go(func() error {
		defer func() { _ = eng.Close() }()
		return loop.Run()
	})

	return g.Wait()
}

// bindPolicy resolves cfg's outbound-bind configuration into an
// engine.BindPolicy, resolving the fixed address eagerly (literal IP
// direct, hostname or named service through the system resolver) so a
// misconfigured bind address fails at startup rather than on the
// first accepted connection.
func bindPolicy(cfg config.Config) (engine.BindPolicy, error) {
	if cfg.IsClientSpoof() {
		return engine.BindPolicy{Mode: engine.BindClientSpoof}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	addr, err := address.ResolveHostPort(ctx, cfg.Bind, address.ResolveOptions{})
	if err != nil {
		return engine.BindPolicy{}, fmt.Errorf("invalid bind address %q: %w", cfg.Bind, err)
	}
	return engine.BindPolicy{Mode: engine.BindFixed, Fixed: addr}, nil
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}
