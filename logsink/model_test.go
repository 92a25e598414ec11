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

package logsink_test

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/nabbar/tcp-intercept/logsink"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Sink", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "logsink-*")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("appends writes to the opened file", func() {
		path := filepath.Join(dir, "out.log")
		s := logsink.New()
		Expect(s.Open(path)).To(Succeed())
		defer s.Close()

		_, err := s.Write([]byte("first\n"))
		Expect(err).ToNot(HaveOccurred())
		_, err = s.Write([]byte("second\n"))
		Expect(err).ToNot(HaveOccurred())

		body, err := os.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(body)).To(Equal("first\nsecond\n"))
	})

	It("keeps writing to a path it was reopened against after external rotation", func() {
		path := filepath.Join(dir, "out.log")
		s := logsink.New()
		Expect(s.Open(path)).To(Succeed())
		defer s.Close()

		_, err := s.Write([]byte("before\n"))
		Expect(err).ToNot(HaveOccurred())

		Expect(os.Rename(path, path+".1")).To(Succeed())
		Expect(s.Reopen()).To(Succeed())

		_, err = s.Write([]byte("after\n"))
		Expect(err).ToNot(HaveOccurred())

		rotated, err := os.ReadFile(path + ".1")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(rotated)).To(Equal("before\n"))

		fresh, err := os.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(fresh)).To(Equal("after\n"))
	})

	It("Reopen is a no-op when never pointed at a file", func() {
		s := logsink.New()
		Expect(s.Reopen()).To(Succeed())
	})

	It("NewLogger prefixes entries with an ISO-8601 timestamp", func() {
		path := filepath.Join(dir, "out.log")
		s := logsink.New()
		Expect(s.Open(path)).To(Succeed())
		defer s.Close()

		l := logsink.NewLogger(s)
		l.Info("hello")

		body, err := os.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6}[+-]\d{4} `).Match(body)).To(BeTrue())
		Expect(string(body)).To(ContainSubstring("hello"))
	})
})
