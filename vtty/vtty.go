/*
 * pic32sim - Virtual TTY (host-side UART backend)
 *
 * Copyright 2026, pic32sim contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package vtty is the host side of a simulated UART: a 4KiB ring
// buffer per unit, filled either by a raw-mode local terminal or by a
// Telnet-speaking TCP listener, running on its own goroutine so the
// simulation thread never blocks on host I/O. uart.Unit polls
// HasData/Pop and calls Push exactly as it would a hardware FIFO.
package vtty

import (
	"io"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/rcornwell/pic32sim/util/debug"
)

const ringSize = 4096

const debugMaskConn = 1

// Telnet IAC negotiation, ground in the same option space as a
// standard Telnet server: WILL ECHO, WILL SGA, DONT LINEMODE, DO TTYPE.
const (
	iac  byte = 255
	dont byte = 254
	do   byte = 253
	wont byte = 252
	will byte = 251
	sb   byte = 250
	se   byte = 240

	optBinary byte = 0
	optEcho   byte = 1
	optSGA    byte = 3
	optTType  byte = 24
	optLine   byte = 34

	sendTelQual byte = 1 // TELQUAL_SEND
)

var telnetInit = []byte{
	iac, dont, optLine,
	iac, will, optEcho,
	iac, will, optSGA,
	iac, do, optTType,
}

// ring is a fixed-capacity byte queue with a single writer (the host
// I/O goroutine) and a single reader (the simulation thread, via
// Unit.Pop), guarded by one mutex since both ends are cheap.
type ring struct {
	mu   sync.Mutex
	buf  [ringSize]byte
	head int // next byte to read
	tail int // next slot to write
	full bool
}

func (r *ring) push(b byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		r.head = (r.head + 1) % ringSize // drop oldest on overflow
	}
	r.buf[r.tail] = b
	r.tail = (r.tail + 1) % ringSize
	r.full = r.tail == r.head
}

func (r *ring) pop() (byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.head == r.tail && !r.full {
		return 0, false
	}
	b := r.buf[r.head]
	r.head = (r.head + 1) % ringSize
	r.full = false
	return b, true
}

func (r *ring) hasData() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.full || r.head != r.tail
}

// Unit is one UART's host-side backend. It satisfies uart.RingSource
// and uart.RingSink without importing that package, keeping the
// dependency direction from uart -> vtty (via the narrow interfaces)
// rather than the reverse.
type Unit struct {
	name string
	rx   ring
	tx   ring

	mu        sync.Mutex
	conn      net.Conn  // nil when nothing is connected
	out       io.Writer // local-mode output, nil when not in RunLocal
	debugMask int
}

// NewUnit builds a disconnected unit; call ListenTCP or RunLocal to
// give it a host connection.
func NewUnit(name string) *Unit {
	return &Unit{name: name}
}

// SetDebugMask enables the connection trace category.
func (u *Unit) SetDebugMask(mask int) { u.debugMask = mask }

// HasData reports whether a byte is waiting to be popped.
func (u *Unit) HasData() bool { return u.rx.hasData() }

// Pop removes and returns the oldest waiting byte.
func (u *Unit) Pop() (byte, bool) { return u.rx.pop() }

// Push queues a byte for transmission to whatever is connected. If
// nothing is connected the byte is silently dropped (spec.md: "VTTY
// output when not connected" is in the silently-handled list).
func (u *Unit) Push(b byte) {
	u.mu.Lock()
	conn, out := u.conn, u.out
	u.mu.Unlock()
	switch {
	case conn != nil:
		_, _ = conn.Write([]byte{b})
	case out != nil:
		_, _ = out.Write([]byte{b})
	}
}

func (u *Unit) setConn(c net.Conn) {
	u.mu.Lock()
	u.conn = c
	u.mu.Unlock()
}

// ListenTCP accepts Telnet connections on addr, one at a time: each
// new connection replaces whatever was previously attached. Runs
// until the listener errors (typically on process shutdown) and
// should be started on its own goroutine.
func (u *Unit) ListenTCP(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		debug.Debugf("vtty", u.debugMask, debugMaskConn, "%s: connection from %s", u.name, conn.RemoteAddr())
		_, _ = conn.Write(telnetInit)
		u.setConn(conn)
		go u.readLoop(conn)
	}
}

// readLoop drains one connection's bytes into the receive ring,
// stripping Telnet IAC sequences, until the connection closes.
func (u *Unit) readLoop(conn net.Conn) {
	defer func() {
		u.mu.Lock()
		if u.conn == conn {
			u.conn = nil
		}
		u.mu.Unlock()
		_ = conn.Close()
		debug.Debugf("vtty", u.debugMask, debugMaskConn, "%s: disconnected", u.name)
	}()

	var buf [256]byte
	state := stateData
	var opt byte
	for {
		n, err := conn.Read(buf[:])
		if err != nil {
			return
		}
		for _, b := range buf[:n] {
			state, opt = u.stepTelnet(conn, state, opt, b)
		}
	}
}

type telnetState int

const (
	stateData telnetState = iota
	stateIAC
	stateWill
	stateDo
	stateWont
	stateDont
	stateSB
	stateSE
	stateEsc
	stateEscBracket
)

const (
	ctrlP = 0x10
	ctrlN = 0x0E
	ctrlF = 0x06
	ctrlB = 0x02
	ctrlRB = 0x1D // Ctrl-]
	esc    = 0x1B
)

func (u *Unit) stepTelnet(conn net.Conn, state telnetState, opt byte, b byte) (telnetState, byte) {
	switch state {
	case stateData:
		switch {
		case b == iac:
			return stateIAC, opt
		case b == esc:
			return stateEsc, opt
		case b == 0 || b == '\n' || b == ctrlRB:
			// NUL and standalone LF are dropped for telnet client
			// compatibility; Ctrl-] is a remote-control escape that is
			// currently a no-op.
			return stateData, opt
		default:
			u.rx.push(b)
			return stateData, opt
		}
	case stateEsc:
		if b == '[' {
			return stateEscBracket, opt
		}
		u.rx.push(esc)
		u.rx.push(b)
		return stateData, opt
	case stateEscBracket:
		switch b {
		case 'A':
			u.rx.push(ctrlP)
		case 'B':
			u.rx.push(ctrlN)
		case 'C':
			u.rx.push(ctrlF)
		case 'D':
			u.rx.push(ctrlB)
		}
		return stateData, opt
	case stateIAC:
		switch b {
		case will:
			return stateWill, opt
		case wont:
			return stateWont, opt
		case do:
			return stateDo, opt
		case dont:
			return stateDont, opt
		case sb:
			return stateSB, opt
		case iac:
			u.rx.push(iac)
			return stateData, opt
		default:
			return stateData, opt
		}
	case stateWill:
		// b is the option the client just agreed to WILL. A client
		// that agrees to TTYPE still needs to be asked for its
		// terminal type; everything else we already declared our own
		// option set for up front and don't renegotiate.
		if b == optTType && conn != nil {
			_, _ = conn.Write([]byte{iac, sb, optTType, sendTelQual, iac, se})
		}
		return stateData, opt
	case stateWont, stateDo, stateDont:
		return stateData, opt
	case stateSB:
		if b == iac {
			return stateSE, opt
		}
		return stateSB, opt
	case stateSE:
		if b == se {
			return stateData, opt
		}
		return stateSB, opt
	}
	return stateData, opt
}

// RunLocal attaches the current process's controlling terminal (put
// into raw mode) as this unit's backend: bytes typed locally become
// RX data, and Push writes go back out through the same descriptor fd.
// It returns a restore function the caller should defer. The read loop
// blocks on fd in its own goroutine, matching the "VTTY thread" framing
// in spec.md.
func RunLocal(u *Unit, fd int) (restore func(), err error) {
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	tty := os.NewFile(uintptr(fd), "/dev/tty")
	u.mu.Lock()
	u.out = tty
	u.mu.Unlock()
	go func() {
		var buf [256]byte
		state := stateData
		var opt byte
		for {
			n, err := tty.Read(buf[:])
			if err != nil {
				return
			}
			for _, b := range buf[:n] {
				state, opt = u.stepTelnet(nil, state, opt, b)
			}
		}
	}()
	return func() { _ = term.Restore(fd, oldState) }, nil
}

// PollInterval is how often the simulation's own housekeeping may
// want to check VTTY liveness when it has nothing else to wait on;
// device polling itself is driven by core.Machine.PollSlice, not by
// this package.
const PollInterval = 10 * time.Millisecond
