/*
 * pic32sim - Flat I/O register backing store
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

// Package ioregion is the flat word array backing every peripheral
// register, plus the bitwise helpers that implement the PIC32
// assign/clear/set/invert ("quartet") alias convention. It has no
// knowledge of what any particular offset means; the regs package
// layers register semantics on top of it.
package ioregion

// Size is the number of 32-bit words covered by the peripheral I/O
// region, spec.md section 3: "a flat word array of 256K words".
const Size = 256 * 1024

// IORegion is the backing store for every peripheral register.
// Index is a word index (byte offset / 4), not a byte offset.
type IORegion struct {
	words [Size]uint32
}

// New returns a zeroed I/O region.
func New() *IORegion {
	return &IORegion{}
}

// Word reads the word stored at a byte offset (offset is masked to
// the 20-bit I/O window and word-aligned internally).
func (r *IORegion) Word(offset uint32) uint32 {
	return r.words[(offset&0xFFFFF)>>2]
}

// SetWord stores a word at a byte offset.
func (r *IORegion) SetWord(offset uint32, value uint32) {
	r.words[(offset&0xFFFFF)>>2] = value
}

// Op is one of the four quartet operations selected by the low
// address bits of a write (addr & 0xC): assign, clear, set, invert.
type Op int

const (
	OpAssign Op = iota
	OpClear
	OpSet
	OpInvert
)

// OpFromOffset derives the quartet operation from the low bits of a
// register offset: B selects assign, B+4 clear, B+8 set, B+12 invert.
func OpFromOffset(offset uint32) Op {
	switch offset & 0xC {
	case 0x4:
		return OpClear
	case 0x8:
		return OpSet
	case 0xC:
		return OpInvert
	default:
		return OpAssign
	}
}

// Apply computes new = op(current, operand) per the quartet contract.
func Apply(op Op, current, operand uint32) uint32 {
	switch op {
	case OpClear:
		return current &^ operand
	case OpSet:
		return current | operand
	case OpInvert:
		return current ^ operand
	default:
		return operand
	}
}

// ApplyMasked computes new = (current & mask) | (Apply(op,...) & ^mask),
// used for write-op registers that have hardware-status-only bits
// protected by a read-only mask.
func ApplyMasked(op Op, current, operand, mask uint32) uint32 {
	return (current & mask) | (Apply(op, current, operand) &^ mask)
}

// BootConfigWords mirrors the device-configuration words in the boot
// flash region (spec.md section 3), initialized from a board profile
// and read back as regular memory.
type BootConfigWords struct {
	words [16]uint32
}

// NewBootConfigWords builds the boot-config mirror from the given
// words, stored in order from index 0 (regs/mx7 and regs/mz pass
// DEVCFG0..DEVCFG3 from the board profile); unspecified entries read
// as zero.
func NewBootConfigWords(words ...uint32) *BootConfigWords {
	b := &BootConfigWords{}
	copy(b.words[:], words)
	return b
}

func (b *BootConfigWords) Word(index int) uint32 {
	if index < 0 || index >= len(b.words) {
		return 0
	}
	return b.words[index]
}

func (b *BootConfigWords) SetWord(index int, value uint32) {
	if index < 0 || index >= len(b.words) {
		return
	}
	b.words[index] = value
}
