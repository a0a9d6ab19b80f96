/*
 * pic32sim - UART peripheral model
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

// Package uart models the PIC32 UART units: MODE/STA/BRG/TXREG/RXREG
// storage plus the side effects a register decoder attaches to them
// (RX pop/assert, TX push/coalesce, the masked STA writes). Each Unit
// reads and writes bytes through a host-side ring (a vtty.Unit) rather
// than touching any terminal directly, so this package stays free of
// any I/O dependency.
package uart

import (
	"github.com/rcornwell/pic32sim/irq"
	"github.com/rcornwell/pic32sim/ioregion"
	"github.com/rcornwell/pic32sim/regs"
	"github.com/rcornwell/pic32sim/util/debug"
)

// Bit layout within MODE and STA. Positions are internally consistent
// and not required to match silicon exactly (the decoder owns the
// addresses; firmware only ever sees the behavior described by the
// peripheral's own header, supplied externally).
const (
	modeOn = 1 << 15

	staURXEN = 1 << 12
	staUTXEN = 1 << 10
	staUTXBF = 1 << 9
	staTRMT  = 1 << 8
	staRIDLE = 1 << 13
	staPERR  = 1 << 3
	staFERR  = 1 << 2
	staURXDA = 1 << 0

	// staHWMask is the set of STA bits the hardware (this model) owns;
	// firmware writes to these bits are ignored.
	staHWMask = staURXDA | staFERR | staPERR | staRIDLE | staTRMT | staUTXBF

	// txDelayThreshold is the number of poll_all calls a pending
	// transmit waits before its completion interrupt fires.
	txDelayThreshold = 3

	debugMaskRX = 1
	debugMaskTX = 2
)

// RingSource is the receive half of a unit's host-side byte source
// (normally a *vtty.Unit).
type RingSource interface {
	HasData() bool
	Pop() (b byte, ok bool)
}

// RingSink is the transmit half (normally a *vtty.Unit).
type RingSink interface {
	Push(b byte)
}

// Unit is one UART's register-backed state.
type Unit struct {
	io      *ioregion.IORegion
	index   int
	modeOff uint32
	staOff  uint32
	brgOff  uint32
	txregOff uint32
	rxregOff uint32

	irqCtrl    *irq.Controller
	rxIRQ, txIRQ int

	rx RingSource
	tx RingSink

	active bool
	delay  int

	debugMask int
}

// Config locates one unit's registers and IRQ numbers; the concrete
// per-variant register tables supply it.
type Config struct {
	Index                            int
	ModeOffset, StaOffset, BrgOffset uint32
	TxregOffset, RxregOffset         uint32
	RxIRQ, TxIRQ                     int
}

// NewUnit builds a UART unit bound to io and irqCtrl, reading/writing
// bytes through rx/tx.
func NewUnit(io *ioregion.IORegion, irqCtrl *irq.Controller, cfg Config, rx RingSource, tx RingSink) *Unit {
	return &Unit{
		io:       io,
		index:    cfg.Index,
		modeOff:  cfg.ModeOffset,
		staOff:   cfg.StaOffset,
		brgOff:   cfg.BrgOffset,
		txregOff: cfg.TxregOffset,
		rxregOff: cfg.RxregOffset,
		irqCtrl:  irqCtrl,
		rxIRQ:    cfg.RxIRQ,
		txIRQ:    cfg.TxIRQ,
		rx:       rx,
		tx:       tx,
	}
}

// SetDebugMask enables trace categories for this unit (debugMaskRX/TX).
func (u *Unit) SetDebugMask(mask int) { u.debugMask = mask }

// Install registers this unit's five registers into tbl, wiring the
// side-effect hooks that make register writes observable.
func (u *Unit) Install(tbl regs.Table) {
	modeD := tbl.RegisterQuartet(u.modeOff, "UMODE", 0)
	modeD.OnWrite = u.onModeWrite

	staD := tbl.RegisterQuartet(u.staOff, "USTA", staHWMask)
	staD.OnWrite = u.onStaWrite
	staD.OnRead = u.onStaRead

	tbl.RegisterQuartet(u.brgOff, "UBRG", 0)

	txD := tbl.Register(u.txregOff, "UTXREG", regs.Storage)
	txD.OnWrite = u.onTxWrite

	rxD := tbl.Register(u.rxregOff, "URXREG", regs.Storage)
	rxD.OnRead = u.onRxRead
}

func (u *Unit) onModeWrite(io *ioregion.IORegion, newWord uint32) {
	if newWord&modeOn != 0 {
		return
	}
	u.irqCtrl.Clear(u.rxIRQ)
	u.irqCtrl.Clear(u.txIRQ)
	sta := io.Word(u.staOff)
	sta &^= staURXDA | staFERR | staPERR | staUTXBF
	sta |= staRIDLE | staTRMT
	io.SetWord(u.staOff, sta)
	u.active = false
	u.delay = 0
}

func (u *Unit) onStaWrite(io *ioregion.IORegion, newWord uint32) {
	if newWord&staURXEN == 0 {
		sta := io.Word(u.staOff)
		sta &^= staURXDA | staFERR | staPERR
		io.SetWord(u.staOff, sta)
		u.irqCtrl.Clear(u.rxIRQ)
	}
	if newWord&staUTXEN == 0 {
		sta := io.Word(u.staOff)
		sta &^= staUTXBF
		sta |= staTRMT
		io.SetWord(u.staOff, sta)
		u.irqCtrl.Clear(u.txIRQ)
		u.active = false
	}
}

// onStaRead implements poll_status: RIDLE/TRMT read as permanently
// asserted (the transmit shift register is modeled as infinitely
// fast); URXDA tracks whether a character is currently buffered.
func (u *Unit) onStaRead(io *ioregion.IORegion) {
	sta := io.Word(u.staOff)
	sta |= staRIDLE | staTRMT
	if u.rx != nil && u.rx.HasData() {
		sta |= staURXDA
	} else {
		sta &^= staURXDA
	}
	io.SetWord(u.staOff, sta)
}

func (u *Unit) onTxWrite(io *ioregion.IORegion, newWord uint32) {
	b := byte(newWord)
	if u.tx != nil {
		u.tx.Push(b)
	}
	debug.DebugUnitf("uart", u.index, u.debugMask, debugMaskTX, "tx %#02x", b)

	if io.Word(u.modeOff)&modeOn == 0 {
		return
	}
	if io.Word(u.staOff)&staUTXEN == 0 {
		return
	}
	if u.active {
		return
	}
	u.active = true
	u.delay = 0
	sta := io.Word(u.staOff)
	sta |= staUTXBF
	sta &^= staTRMT
	io.SetWord(u.staOff, sta)
}

// onRxRead implements "read RXREG": pop one byte, update URXDA and
// the RX interrupt to reflect whether more data remains.
func (u *Unit) onRxRead(io *ioregion.IORegion) {
	if u.rx == nil {
		return
	}
	b, ok := u.rx.Pop()
	if !ok {
		return
	}
	io.SetWord(u.rxregOff, uint32(b))
	debug.DebugUnitf("uart", u.index, u.debugMask, debugMaskRX, "rx %#02x", b)

	sta := io.Word(u.staOff)
	if u.rx.HasData() {
		sta |= staURXDA
	} else {
		sta &^= staURXDA
		u.irqCtrl.Clear(u.rxIRQ)
	}
	io.SetWord(u.staOff, sta)
}

// Reset restores power-on defaults: MODE off, STA idle (RIDLE|TRMT
// asserted, everything else clear), and any in-flight transmit
// abandoned. Matches uart_reset in the original simulator.
func (u *Unit) Reset() {
	u.io.SetWord(u.modeOff, 0)
	u.io.SetWord(u.staOff, staRIDLE|staTRMT)
	u.io.SetWord(u.brgOff, 0)
	u.active = false
	u.delay = 0
}

// Poll is invoked once per CPU simulation slice. If RX is enabled and
// a character is waiting it raises the RX interrupt; if a transmit is
// in flight it advances the coalescing delay and raises the TX
// interrupt once the threshold is crossed.
func (u *Unit) Poll() {
	mode := u.io.Word(u.modeOff)
	if mode&modeOn == 0 {
		return
	}
	sta := u.io.Word(u.staOff)

	if sta&staURXEN != 0 && u.rx != nil && u.rx.HasData() {
		u.irqCtrl.Raise(u.rxIRQ)
	}

	if u.active {
		u.delay++
		if u.delay > txDelayThreshold {
			u.active = false
			u.delay = 0
			sta = u.io.Word(u.staOff)
			sta &^= staUTXBF
			sta |= staTRMT
			u.io.SetWord(u.staOff, sta)
			u.irqCtrl.Raise(u.txIRQ)
		}
	}
}

// Controller owns every UART unit on a chip variant.
type Controller struct {
	units []*Unit
}

// NewController wraps a set of already-configured units.
func NewController(units ...*Unit) *Controller {
	return &Controller{units: units}
}

// Install registers every unit's descriptors.
func (c *Controller) Install(tbl regs.Table) {
	for _, u := range c.units {
		u.Install(tbl)
	}
}

// PollAll polls every unit once, matching the simulation loop's
// per-slice UART housekeeping.
func (c *Controller) PollAll() {
	for _, u := range c.units {
		u.Poll()
	}
}

// Reset restores every unit to power-on defaults.
func (c *Controller) Reset() {
	for _, u := range c.units {
		u.Reset()
	}
}
