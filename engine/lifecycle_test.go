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

package engine_test

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/tcp-intercept/engine"
	"github.com/nabbar/tcp-intercept/event"
	"github.com/nabbar/tcp-intercept/network/protocol"
)

var _ = Describe("New", func() {
	var loop *event.Loop

	BeforeEach(func() {
		var err error
		loop, err = event.NewLoop()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = loop.Close()
	})

	It("binds an ephemeral listener and Close releases it", func() {
		log, _ := test.NewNullLogger()
		log.SetLevel(logrus.DebugLevel)

		e, err := engine.New(loop, log, "127.0.0.1:0", engine.BindPolicy{Mode: engine.BindFixed}, protocol.NetworkTCP)
		Expect(err).NotTo(HaveOccurred())
		Expect(e).NotTo(BeNil())
		Expect(e.Len()).To(Equal(0))

		e.Start()
		Expect(e.Close()).To(Succeed())
	})

	It("rejects a listen address with no port", func() {
		log, _ := test.NewNullLogger()

		_, err := engine.New(loop, log, "127.0.0.1", engine.BindPolicy{Mode: engine.BindFixed}, protocol.NetworkTCP)
		Expect(err).To(MatchError(engine.ErrInvalidAddress))
	})

	It("rejects an ambiguous host literal", func() {
		log, _ := test.NewNullLogger()

		_, err := engine.New(loop, log, "not-an-ip:8080", engine.BindPolicy{Mode: engine.BindFixed}, protocol.NetworkTCP)
		Expect(err).To(MatchError(engine.ErrInvalidAddress))
	})

	It("rejects a IPv4 listen address when the family is pinned to tcp6", func() {
		log, _ := test.NewNullLogger()

		_, err := engine.New(loop, log, "127.0.0.1:0", engine.BindPolicy{Mode: engine.BindFixed}, protocol.NetworkTCP6)
		Expect(err).To(MatchError(engine.ErrInvalidAddress))
	})

	It("resolves a non-literal listen host through the system resolver", func() {
		log, _ := test.NewNullLogger()

		e, err := engine.New(loop, log, "localhost:0", engine.BindPolicy{Mode: engine.BindFixed}, protocol.NetworkTCP4)
		Expect(err).NotTo(HaveOccurred())
		Expect(e).NotTo(BeNil())
		Expect(e.Close()).To(Succeed())
	})

	It("runs the accept watcher on the loop without blocking Start", func() {
		log, _ := test.NewNullLogger()
		log.SetLevel(logrus.DebugLevel)

		e, err := engine.New(loop, log, "127.0.0.1:0", engine.BindPolicy{Mode: engine.BindFixed}, protocol.NetworkTCP)
		Expect(err).NotTo(HaveOccurred())
		e.Start()

		stopped := make(chan struct{})
		go func() {
			_ = loop.Run()
			close(stopped)
		}()

		time.Sleep(10 * time.Millisecond)
		loop.Break()
		Eventually(stopped, time.Second).Should(BeClosed())

		Expect(e.Close()).To(Succeed())
	})
})
