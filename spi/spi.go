/*
 * pic32sim - SPI peripheral model
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

// Package spi models the PIC32 SPI units: CON/STAT/BRG/CON2 storage
// plus a 4-entry enhanced-buffer FIFO. One unit per chip may be wired
// to the SD-card bus; transfers on that unit are routed through
// sdcard byte-by-byte according to the configured data width.
package spi

import (
	"github.com/rcornwell/pic32sim/ioregion"
	"github.com/rcornwell/pic32sim/irq"
	"github.com/rcornwell/pic32sim/regs"
)

const (
	conOn      = 1 << 15
	conEnhBuf  = 1 << 16
	conMode32  = 1 << 11
	conMode16  = 1 << 10

	statSPIRBF = 1 << 0
	statSPITBE = 1 << 3
	statSPIROV = 1 << 6

	// statHWMask: firmware can only ever clear SPIROV by writing zero
	// to it; every other status bit is hardware-owned.
	statHWMask = ^uint32(statSPIROV)
)

// Bus is the SD-card transaction sink a unit routes to when it is the
// configured SD SPI port.
type Bus interface {
	IO(data byte) byte
}

// Unit is one SPI controller's register-backed state.
type Unit struct {
	io      *ioregion.IORegion
	index   int
	conOff  uint32
	statOff uint32
	brgOff  uint32
	con2Off uint32
	bufOff  uint32

	irqCtrl                *irq.Controller
	faultIRQ, txIRQ, rxIRQ int

	buf   [4]uint32
	rfifo int
	wfifo int

	bus Bus // non-nil only for the unit wired to the SD card
}

// Config locates one unit's registers and IRQ numbers.
type Config struct {
	Index                                         int
	ConOffset, StatOffset, BrgOffset, Con2Offset  uint32
	BufOffset                                     uint32
	FaultIRQ, TxIRQ, RxIRQ                        int
}

// NewUnit builds an SPI unit. Pass a non-nil bus only for the unit
// that is wired to the SD card on this board.
func NewUnit(io *ioregion.IORegion, irqCtrl *irq.Controller, cfg Config, bus Bus) *Unit {
	return &Unit{
		io: io, index: cfg.Index,
		conOff: cfg.ConOffset, statOff: cfg.StatOffset, brgOff: cfg.BrgOffset,
		con2Off: cfg.Con2Offset, bufOff: cfg.BufOffset,
		irqCtrl: irqCtrl, faultIRQ: cfg.FaultIRQ, txIRQ: cfg.TxIRQ, rxIRQ: cfg.RxIRQ,
		bus: bus,
	}
}

// Install registers this unit's registers into tbl.
func (u *Unit) Install(tbl regs.Table) {
	conD := tbl.RegisterQuartet(u.conOff, "SPICON", 0)
	conD.OnWrite = u.onConWrite

	tbl.RegisterQuartet(u.statOff, "SPISTAT", statHWMask)

	tbl.RegisterQuartet(u.brgOff, "SPIBRG", 0)
	tbl.RegisterQuartet(u.con2Off, "SPICON2", 0)

	bufD := tbl.Register(u.bufOff, "SPIBUF", regs.Storage)
	bufD.OnWrite = u.onBufWrite
	bufD.OnRead = u.onBufRead
	bufD.ReadValue = u.bufReadValue
}

func (u *Unit) onConWrite(io *ioregion.IORegion, newWord uint32) {
	if newWord&conOn == 0 {
		u.irqCtrl.Clear(u.faultIRQ)
		u.irqCtrl.Clear(u.rxIRQ)
		u.irqCtrl.Clear(u.txIRQ)
		io.SetWord(u.statOff, statSPITBE)
		return
	}
	if newWord&conEnhBuf == 0 {
		u.rfifo = 0
		u.wfifo = 0
	}
}

func (u *Unit) transferByte(b byte) byte {
	if u.bus != nil {
		return u.bus.IO(b)
	}
	return 0xFF
}

func (u *Unit) onBufWrite(io *ioregion.IORegion, newWord uint32) {
	con := io.Word(u.conOff)
	var result uint32
	switch {
	case con&conMode32 != 0:
		result = uint32(u.transferByte(byte(newWord>>24))) << 24
		result |= uint32(u.transferByte(byte(newWord>>16))) << 16
		result |= uint32(u.transferByte(byte(newWord>>8))) << 8
		result |= uint32(u.transferByte(byte(newWord)))
	case con&conMode16 != 0:
		result = uint32(u.transferByte(byte(newWord>>8))) << 8
		result |= uint32(u.transferByte(byte(newWord)))
	default:
		result = uint32(u.transferByte(byte(newWord)))
	}
	u.buf[u.wfifo] = result

	stat := io.Word(u.statOff)
	switch {
	case stat&statSPIRBF != 0:
		stat |= statSPIROV
		u.irqCtrl.Raise(u.faultIRQ)
	case con&conEnhBuf != 0:
		u.wfifo = (u.wfifo + 1) & 3
		if u.wfifo == u.rfifo {
			stat |= statSPIRBF
			u.irqCtrl.Raise(u.rxIRQ)
		}
	default:
		stat |= statSPIRBF
		u.irqCtrl.Raise(u.rxIRQ)
	}
	io.SetWord(u.statOff, stat)
}

// bufReadValue returns the slot the read cursor currently points at,
// then advances the cursor in enhanced-buffer mode. Table.Read calls
// OnRead before ReadValue, so the cursor must not move until here —
// advancing it in onBufRead would make every read return the next
// slot's data instead of the one it just reported.
func (u *Unit) bufReadValue(io *ioregion.IORegion) uint32 {
	v := u.buf[u.rfifo]
	if io.Word(u.conOff)&conEnhBuf != 0 {
		u.rfifo = (u.rfifo + 1) & 3
	}
	return v
}

func (u *Unit) onBufRead(io *ioregion.IORegion) {
	stat := io.Word(u.statOff)
	stat &^= statSPIRBF
	io.SetWord(u.statOff, stat)
}

// Reset restores power-on defaults: CON off, STAT idle (SPITBE
// asserted, FIFO cursors cleared). Matches spi_reset in the original
// simulator.
func (u *Unit) Reset() {
	u.io.SetWord(u.conOff, 0)
	u.io.SetWord(u.statOff, statSPITBE)
	u.io.SetWord(u.brgOff, 0)
	u.io.SetWord(u.con2Off, 0)
	u.rfifo = 0
	u.wfifo = 0
}

// Controller owns every SPI unit on a chip variant.
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

// Reset restores every unit to power-on defaults.
func (c *Controller) Reset() {
	for _, u := range c.units {
		u.Reset()
	}
}
