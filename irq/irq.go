/*
 * pic32sim - Interrupt controller
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

// Package irq implements the PIC32 interrupt controller: pending/
// enable bit banks (IFS/IEC), a packed per-IRQ priority table (IPC),
// and the winner computation (INTSTAT / RIPL / vector) that is pushed
// to the CPU adapter whenever the pending or enabled set changes.
//
// The controller is parameterized by a Layout so the same engine
// serves both the MX7 (IRQ-to-vector lookup table, vector may be
// shared by several IRQs) and MZ (IRQ number is the vector number)
// variants; regs/mx7 and regs/mz each build the Layout that matches
// their own register map.
package irq

import "github.com/rcornwell/pic32sim/ioregion"

// Layout describes one chip variant's interrupt register map.
type Layout struct {
	NumBanks      int      // 3 on MX7, 6 on MZ
	IFSBase       uint32   // offset of IFS0; IFSn is IFSBase+0x10*n
	IECBase       uint32   // offset of IEC0; IECn is IECBase+0x10*n
	IPCBase       uint32   // offset of IPC0; IPCn is IPCBase+0x10*n
	INTSTATOffset uint32   // offset of INTSTAT
	IRQLast       int      // highest valid IRQ number
	VectorOf      []int    // nil on MZ (irq==vector); indexed by irq on MX7
}

// VectorSink receives the winning (level, vector) pair, mirroring the
// CPU adapter's set_vector hook (spec.md section 6).
type VectorSink interface {
	SetVector(ripl, vector int)
}

// Controller is one chip's interrupt controller instance.
type Controller struct {
	io     *ioregion.IORegion
	layout Layout
	sink   VectorSink
}

// NewController builds a Controller bound to io, using layout to
// locate its registers.
func NewController(io *ioregion.IORegion, layout Layout) *Controller {
	return &Controller{io: io, layout: layout}
}

// Bind attaches the sink that receives recomputed vectors. Must be
// called before any Raise/Clear/register write can usefully signal
// the CPU, but Raise/Clear/recompute are safe to call beforehand (the
// result is simply not propagated).
func (c *Controller) Bind(sink VectorSink) {
	c.sink = sink
}

// Each IFS/IEC/IPC register is a quartet (base, CLR, SET, INV), so
// consecutive registers sit 0x10 apart.
func (c *Controller) ifsOffset(bank int) uint32 { return c.layout.IFSBase + 0x10*uint32(bank) }
func (c *Controller) iecOffset(bank int) uint32 { return c.layout.IECBase + 0x10*uint32(bank) }
func (c *Controller) ipcOffset(group int) uint32 { return c.layout.IPCBase + 0x10*uint32(group) }

// Raise sets an IRQ's pending bit and recomputes the winner. Idempotent:
// if the bit is already set, no recompute happens (spec.md section 4.3
// invariant a).
func (c *Controller) Raise(irqNum int) {
	bank := irqNum >> 5
	bit := uint32(1) << uint(irqNum&31)
	off := c.ifsOffset(bank)
	if c.io.Word(off)&bit != 0 {
		return
	}
	c.io.SetWord(off, c.io.Word(off)|bit)
	c.Recompute()
}

// Clear clears an IRQ's pending bit and recomputes the winner.
// Idempotent (invariant b).
func (c *Controller) Clear(irqNum int) {
	bank := irqNum >> 5
	bit := uint32(1) << uint(irqNum&31)
	off := c.ifsOffset(bank)
	if c.io.Word(off)&bit == 0 {
		return
	}
	c.io.SetWord(off, c.io.Word(off)&^bit)
	c.Recompute()
}

// priorityAt returns the 3-bit priority packed in IPC at bit offset
// 2+8*(n&3) within IPC group n>>2 (spec.md section 4.3). On MZ, n is
// the IRQ number; on MX7 it is the vector number the IRQ maps to —
// IPC is always indexed by vector, and on MZ IRQ and vector coincide.
func (c *Controller) priorityAt(n int) int {
	group := n >> 2
	word := c.io.Word(c.ipcOffset(group))
	shift := uint(2 + 8*(n&3))
	return int((word >> shift) & 7)
}

// vectorFor maps an IRQ number to its vector. A negative result means
// "this IRQ has no vector on this variant" (mirrors irq_to_vector
// entries of -1 in the original MX7 table) and is skipped by Recompute.
func (c *Controller) vectorFor(irqNum int) int {
	if c.layout.VectorOf == nil {
		return irqNum
	}
	if irqNum < 0 || irqNum >= len(c.layout.VectorOf) {
		return -1
	}
	return c.layout.VectorOf[irqNum]
}

// Recompute re-scans every IRQ and publishes the new winner to
// INTSTAT and the CPU adapter. Must be invoked whenever IFS, IEC, or
// IPC storage changes.
func (c *Controller) Recompute() {
	ripl := 0
	vector := 0

	for irqNum := 0; irqNum <= c.layout.IRQLast; irqNum++ {
		bank := irqNum >> 5
		bit := uint32(1) << uint(irqNum&31)
		pending := c.io.Word(c.ifsOffset(bank))
		enabled := c.io.Word(c.iecOffset(bank))
		if pending&enabled&bit == 0 {
			continue
		}
		v := c.vectorFor(irqNum)
		if v < 0 {
			continue
		}
		level := c.priorityAt(v)
		// Strict greater-than: first-seen (ascending irqNum) wins ties,
		// and priority 0 ("disabled") never wins (invariant c).
		if level > ripl {
			ripl = level
			vector = v
		}
	}

	c.io.SetWord(c.layout.INTSTATOffset, uint32(vector)|uint32(ripl)<<8)
	if c.sink != nil {
		c.sink.SetVector(ripl, vector)
	}
}
