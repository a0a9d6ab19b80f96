/*
 * pic32sim - I/O fabric
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

// Package iofabric sits between the CPU's load/store callbacks and
// the register-decoder table: it masks a physical address down to the
// 20-bit I/O window, normalizes byte/halfword accesses into the
// word-at-a-time Register-Decoder contract, and enforces the
// fail-fast policy on unknown registers or bad transfer sizes.
package iofabric

import (
	"fmt"

	"github.com/rcornwell/pic32sim/ioregion"
	"github.com/rcornwell/pic32sim/regs"
	"github.com/rcornwell/pic32sim/util/debug"
)

const debugMaskAccess = 1

// Fatal reports an unrecoverable fabric error (unknown register,
// bad transfer size). The caller decides whether this panics, dumps
// state, or exits — the fabric itself just names the failure.
type Fatal func(reason string)

// Fabric is one chip variant's I/O window: a backing store plus the
// register table describing it.
type Fabric struct {
	io        *ioregion.IORegion
	tbl       regs.Table
	fatal     Fatal
	debugMask int
}

// New builds a Fabric. fatal must not be nil.
func New(io *ioregion.IORegion, tbl regs.Table, fatal Fatal) *Fabric {
	return &Fabric{io: io, tbl: tbl, fatal: fatal}
}

// SetDebugMask enables the access trace category.
func (f *Fabric) SetDebugMask(mask int) { f.debugMask = mask }

// Read dispatches a read of nbytes (1, 2, or 4) at paddr. Any other
// size, or a read of an unmapped register, is fatal.
func (f *Fabric) Read(paddr uint32, nbytes int) uint32 {
	offset := paddr & 0xFFFFF
	aligned := offset &^ 3

	res := f.tbl.Read(f.io, aligned)
	if !res.Known {
		f.fatal(fmt.Sprintf("io-fabric: read of unknown register at offset %#x", offset))
		return 0
	}
	debug.DebugRegf(offset, f.debugMask, debugMaskAccess, "read %s = %#x", res.Name, res.Value)

	switch nbytes {
	case 4:
		return res.Value
	case 2:
		shift := 8 * (offset & 2)
		return (res.Value >> shift) & 0xFFFF
	case 1:
		shift := 8 * (offset & 3)
		return (res.Value >> shift) & 0xFF
	default:
		f.fatal(fmt.Sprintf("io-fabric: read size %d at offset %#x", nbytes, offset))
		return 0
	}
}

// Write dispatches a write of nbytes (1, 2, or 4) at paddr. Sub-word
// writes are folded into the aligned word by merging the shifted
// value with the word's current contents, then handed to the
// Register-Decoder exactly as a word write would be; the CLR/SET/INV
// alias offsets only make full sense for aligned word writes, so a
// sub-word write that lands on one of them is best-effort (spec.md
// section 4.1) rather than specially handled.
func (f *Fabric) Write(paddr uint32, nbytes int, value uint32) {
	offset := paddr & 0xFFFFF
	aligned := offset &^ 3

	var shifted, laneMask uint32
	switch nbytes {
	case 4:
		shifted, laneMask = value, 0xFFFFFFFF
	case 2:
		shift := 8 * (offset & 2)
		shifted = (value & 0xFFFF) << shift
		laneMask = 0xFFFF << shift
	case 1:
		shift := 8 * (offset & 3)
		shifted = (value & 0xFF) << shift
		laneMask = 0xFF << shift
	default:
		f.fatal(fmt.Sprintf("io-fabric: write size %d at offset %#x", nbytes, offset))
		return
	}

	current := f.io.Word(aligned)
	merged := (current &^ laneMask) | shifted

	res := f.tbl.Write(f.io, aligned, merged)
	if !res.Known {
		f.fatal(fmt.Sprintf("io-fabric: write to unknown register at offset %#x", offset))
		return
	}
	if res.ReadOnlyIgnored {
		debug.DebugRegf(offset, f.debugMask, debugMaskAccess, "write to read-only register %s ignored", res.Name)
		return
	}
	debug.DebugRegf(offset, f.debugMask, debugMaskAccess, "write %s = %#x", res.Name, merged)
}
