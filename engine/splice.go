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

package engine

import (
	"fmt"

	"github.com/nabbar/tcp-intercept/sockfd"
)

// onConnectComplete is the connect-completion callback, spec section
// 4.5.2. Triggered by real write-readiness on the outbound socket or
// by the synthetic event injected for a connect that completed
// synchronously at accept time.
func (e *Engine) onConnectComplete(c *Connection) {
	c.wConnect.Stop()

	errno, err := c.serverSock.GetSOError()
	if err != nil {
		e.log.WithError(err).WithField("conn", c.id).Warn("reading pending socket error failed")
		e.destroy(c)
		return
	}
	if errno != 0 {
		e.log.WithError(fmt.Errorf("%w: errno %d", ErrConnectFailure, errno)).WithField("conn", c.id).Warn("connect to server failed")
		e.destroy(c)
		return
	}

	// splice on: both write watchers fire immediately since both
	// buffers are empty, and the write callback itself flips each
	// direction over to reading (see onWriteReady).
	c.c2s.dstWrite.Start()
	c.s2c.dstWrite.Start()
}

// onWriteReady is the write-ready callback for a direction, spec
// section 4.5.3.
func (e *Engine) onWriteReady(c *Connection, h *half) {
	if len(h.buf) == 0 {
		h.srcRead.Start()
		h.dstWrite.Stop()
		return
	}

	n, err := h.dst.Send(h.buf)
	if err != nil {
		e.log.WithError(err).WithField("conn", c.id).WithField("dir", h.label).Warn("send failed")
		e.destroy(c)
		return
	}

	h.buf = h.buf[n:]
}

// onReadReady is the read-ready callback for a direction, spec
// section 4.5.4. Precondition: h.buf is empty (the caller only starts
// srcRead once the buffer has been fully drained by onWriteReady).
func (e *Engine) onReadReady(c *Connection, h *half) {
	data, err := h.src.Recv(recvBufferSize)
	if err != nil {
		e.log.WithError(err).WithField("conn", c.id).WithField("dir", h.label).Warn("recv failed")
		e.destroy(c)
		return
	}

	if len(data) == 0 {
		h.srcRead.Stop()
		_ = h.dst.Shutdown(sockfd.ShutdownWrite)
		h.open = false
		if !c.c2s.open && !c.s2c.open {
			e.destroy(c)
		}
		return
	}

	h.buf = data
	h.srcRead.Stop()
	h.dstWrite.Start()
}
