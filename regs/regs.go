/*
 * pic32sim - Generic register-decoder engine
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

// Package regs is the data-driven replacement for the preprocessor
// macro quartet (STORAGE/READONLY/WRITEOP/WRITEOPR) the original
// simulator used to synthesize a 4-case switch per register. A Table
// maps every valid word offset (including the three quartet aliases)
// to a Descriptor; Table.Read and Table.Write apply the one behavior
// that offset implies. The engine itself knows nothing about PIC32 register
// layouts — regs/mx7 and regs/mz supply the per-variant tables.
package regs

import (
	"github.com/rcornwell/pic32sim/ioregion"
)

// Kind classifies the read/write behavior of a register, per spec.md
// section 4.2.
type Kind int

const (
	// Storage is a plain read/write of the backing word.
	Storage Kind = iota
	// ReadOnly rejects writes; the current value is preserved.
	ReadOnly
	// WriteOp implements the assign/clear/set/invert quartet.
	WriteOp
	// WriteOpMasked is WriteOp with a read-only-bits mask.
	WriteOpMasked
)

// Descriptor describes one register's behavior and is shared by all
// four addresses (B, B+4, B+8, B+12) of a quartet register.
type Descriptor struct {
	Base   uint32 // storage offset (the "assign" address)
	Name   string // register name, used for trace and "???" diagnostics
	Kind   Kind
	ROMask uint32 // hardware-status-only bits, WriteOpMasked only

	// OnWrite, if set, runs after storage is updated with the new word.
	OnWrite func(io *ioregion.IORegion, newWord uint32)
	// OnRead, if set, runs before the word is fetched for a read
	// (e.g. UART poll_status, RXREG pop).
	OnRead func(io *ioregion.IORegion)
	// ReadValue, if set, overrides the plain io.Word(Base) read (e.g.
	// SPI BUF returning the FIFO read-cursor slot).
	ReadValue func(io *ioregion.IORegion) uint32
}

// Table maps a word offset to the descriptor governing it. Every
// quartet alias is registered as its own entry pointing at the same
// Descriptor.
type Table map[uint32]*Descriptor

// Register installs a Storage or ReadOnly register at a single offset.
func (t Table) Register(offset uint32, name string, kind Kind) *Descriptor {
	d := &Descriptor{Base: offset, Name: name, Kind: kind}
	t[offset] = d
	return d
}

// RegisterQuartet installs a WriteOp (or WriteOpMasked, if roMask!=0)
// register at base and its three aliases.
func (t Table) RegisterQuartet(base uint32, name string, roMask uint32) *Descriptor {
	kind := WriteOp
	if roMask != 0 {
		kind = WriteOpMasked
	}
	d := &Descriptor{Base: base, Name: name, Kind: kind, ROMask: roMask}
	t[base] = d
	t[base+4] = d
	t[base+8] = d
	t[base+12] = d
	return d
}

// ReadResult is what Table.Read reports back to the IO-Fabric.
type ReadResult struct {
	Value uint32
	Name  string
	Known bool
}

// WriteResult is what Table.Write reports back to the IO-Fabric.
type WriteResult struct {
	Name            string
	Known           bool
	ReadOnlyIgnored bool
}

// Read performs a word read at offset.
func (t Table) Read(io *ioregion.IORegion, offset uint32) ReadResult {
	d, ok := t[offset]
	if !ok {
		return ReadResult{Name: "???", Known: false}
	}
	if d.OnRead != nil {
		d.OnRead(io)
	}
	var value uint32
	if d.ReadValue != nil {
		value = d.ReadValue(io)
	} else {
		value = io.Word(d.Base)
	}
	return ReadResult{Value: value, Name: d.Name, Known: true}
}

// Write performs a word write of value at offset, applying the
// quartet/mask semantics implied by the register's Kind.
func (t Table) Write(io *ioregion.IORegion, offset uint32, value uint32) WriteResult {
	d, ok := t[offset]
	if !ok {
		return WriteResult{Name: "???", Known: false}
	}

	switch d.Kind {
	case ReadOnly:
		return WriteResult{Name: d.Name, Known: true, ReadOnlyIgnored: true}

	case Storage:
		io.SetWord(d.Base, value)

	case WriteOp:
		op := ioregion.OpFromOffset(offset)
		newWord := ioregion.Apply(op, io.Word(d.Base), value)
		io.SetWord(d.Base, newWord)

	case WriteOpMasked:
		op := ioregion.OpFromOffset(offset)
		newWord := ioregion.ApplyMasked(op, io.Word(d.Base), value, d.ROMask)
		io.SetWord(d.Base, newWord)
	}

	if d.OnWrite != nil {
		d.OnWrite(io, io.Word(d.Base))
	}
	return WriteResult{Name: d.Name, Known: true}
}
