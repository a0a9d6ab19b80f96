/*
 * pic32sim - GPIO port model
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

// Package gpio models a PIC32 GPIO port: TRIS/LAT/PORT/ODC storage,
// plus the MZ-only change-notice registers (ANSEL/CNPU/CNPD/CNCON/
// CNEN/CNSTAT) carried as plain storage. A port may additionally have
// one or more chip-select pins registered against it; a LAT write
// that crosses the pin's active-low threshold fires that pin's hook,
// which is how the SD card's select line gets toggled by firmware.
package gpio

import (
	"github.com/rcornwell/pic32sim/ioregion"
	"github.com/rcornwell/pic32sim/regs"
	"github.com/rcornwell/pic32sim/util/debug"
)

const debugMaskDump = 1

type csHook struct {
	mask     uint32
	onChange func(selected bool)
	selected bool
}

// Port is one GPIO port's register-backed state.
type Port struct {
	io *ioregion.IORegion

	trisOff, latOff, portOff, odcOff uint32

	// MZ-only extras. Zero means "not present on this variant" and
	// Install skips registering it.
	anselOff, cnpuOff, cnpdOff, cnconOff, cnenOff, cnstatOff uint32

	hooks []*csHook
}

// Config locates one port's registers. Leave the MZ-only fields at
// zero on MX7 boards.
type Config struct {
	TrisOffset, LatOffset, PortOffset, OdcOffset uint32
	AnselOffset, CnpuOffset, CnpdOffset          uint32
	CnconOffset, CnenOffset, CnstatOffset        uint32
}

// NewPort builds a GPIO port bound to io.
func NewPort(io *ioregion.IORegion, cfg Config) *Port {
	return &Port{
		io:        io,
		trisOff:   cfg.TrisOffset,
		latOff:    cfg.LatOffset,
		portOff:   cfg.PortOffset,
		odcOff:    cfg.OdcOffset,
		anselOff:  cfg.AnselOffset,
		cnpuOff:   cfg.CnpuOffset,
		cnpdOff:   cfg.CnpdOffset,
		cnconOff:  cfg.CnconOffset,
		cnenOff:   cfg.CnenOffset,
		cnstatOff: cfg.CnstatOffset,
	}
}

// AddChipSelect registers a pin mask on this port whose active-low
// transitions invoke onChange(selected). Used to wire an SD card's
// select line to a specific port/pin.
func (p *Port) AddChipSelect(mask uint32, onChange func(selected bool)) {
	p.hooks = append(p.hooks, &csHook{mask: mask, onChange: onChange})
}

// Install registers this port's registers into tbl.
func (p *Port) Install(tbl regs.Table) {
	tbl.RegisterQuartet(p.trisOff, "TRIS", 0)
	latD := tbl.RegisterQuartet(p.latOff, "LAT", 0)
	latD.OnWrite = p.onLatWrite

	// PORT's quartet shares LAT's storage: a write to PORT is the same
	// op applied to the LAT word (WRITEOPX(PORTx, LATx) in the
	// original), so it must run through onLatWrite too. Its read value
	// still comes from the port pin state, not the latch.
	portD := &regs.Descriptor{Base: p.latOff, Name: "PORT", Kind: regs.WriteOp, OnWrite: p.onLatWrite, ReadValue: p.readPort}
	tbl[p.portOff] = portD
	tbl[p.portOff+4] = portD
	tbl[p.portOff+8] = portD
	tbl[p.portOff+12] = portD

	tbl.RegisterQuartet(p.odcOff, "ODC", 0)

	if p.anselOff != 0 {
		tbl.RegisterQuartet(p.anselOff, "ANSEL", 0)
	}
	if p.cnpuOff != 0 {
		tbl.RegisterQuartet(p.cnpuOff, "CNPU", 0)
	}
	if p.cnpdOff != 0 {
		tbl.RegisterQuartet(p.cnpdOff, "CNPD", 0)
	}
	if p.cnconOff != 0 {
		tbl.RegisterQuartet(p.cnconOff, "CNCON", 0)
	}
	if p.cnenOff != 0 {
		tbl.RegisterQuartet(p.cnenOff, "CNEN", 0)
	}
	if p.cnstatOff != 0 {
		tbl.Register(p.cnstatOff, "CNSTAT", regs.ReadOnly)
	}
}

func (p *Port) readPort(io *ioregion.IORegion) uint32 {
	return io.Word(p.portOff)
}

func (p *Port) onLatWrite(io *ioregion.IORegion, newWord uint32) {
	tris := io.Word(p.trisOff)
	outputMask := ^tris

	port := io.Word(p.portOff)
	port = (port &^ outputMask) | (newWord & outputMask)
	io.SetWord(p.portOff, port)

	for _, h := range p.hooks {
		selected := newWord&h.mask == 0 // active low
		if selected != h.selected {
			h.selected = selected
			h.onChange(selected)
		}
	}
}

// DumpFunc is the CPU register-dump trace hook. On MZ, reading CNPUG
// or CNPDG triggers this as a side effect of the original firmware's
// debug build — it is debug instrumentation, not hardware behavior,
// so it only fires when a debug mask enables it.
type DumpFunc func()

// ChangeNoticeGlobal models the MZ-only CNPUG/CNPDG registers, which
// are global (not per-port) pull-up/pull-down group controls whose
// read path the original firmware used to dump CPU registers.
type ChangeNoticeGlobal struct {
	io                 *ioregion.IORegion
	cnpugOff, cnpdgOff uint32
	dump               DumpFunc
	debugMask          int
}

// NewChangeNoticeGlobal builds the CNPUG/CNPDG pair. dump may be nil.
func NewChangeNoticeGlobal(io *ioregion.IORegion, cnpugOff, cnpdgOff uint32, dump DumpFunc) *ChangeNoticeGlobal {
	return &ChangeNoticeGlobal{io: io, cnpugOff: cnpugOff, cnpdgOff: cnpdgOff, dump: dump}
}

// SetDebugMask enables the dump trace category for this register pair.
func (g *ChangeNoticeGlobal) SetDebugMask(mask int) { g.debugMask = mask }

// Install registers CNPUG/CNPDG into tbl.
func (g *ChangeNoticeGlobal) Install(tbl regs.Table) {
	pug := tbl.RegisterQuartet(g.cnpugOff, "CNPUG", 0)
	pug.OnRead = g.onRead
	pdg := tbl.RegisterQuartet(g.cnpdgOff, "CNPDG", 0)
	pdg.OnRead = g.onRead
}

func (g *ChangeNoticeGlobal) onRead(io *ioregion.IORegion) {
	debug.Debugf("gpio", g.debugMask, debugMaskDump, "CNPUG/CNPDG read: dumping CPU registers")
	if g.dump != nil && g.debugMask&debugMaskDump != 0 {
		g.dump()
	}
}

// Reset restores power-on defaults (all pins input, outputs low).
func (p *Port) Reset() {
	p.io.SetWord(p.trisOff, 0xFFFFFFFF)
	p.io.SetWord(p.latOff, 0)
	p.io.SetWord(p.portOff, 0)
	p.io.SetWord(p.odcOff, 0)
	for _, h := range p.hooks {
		if h.selected {
			h.selected = false
			h.onChange(false)
		}
	}
}
