/*
 * pic32sim - PIC32MZ register-decoder table
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

// Package mz builds the PIC32MZ register-decoder table. Unlike MX7,
// the IRQ number is the vector number directly (no lookup table), and
// the interrupt controller spans 6 IFS/IEC banks and 48 IPC groups —
// exactly 192 IRQ lines, with no sharing. MZ also carries the
// change-notice register set (ANSEL/CNPU/CNPD/CNCON/CNEN/CNSTAT per
// port, plus the CNPUG/CNPDG globals) that MX7 lacks.
package mz

import (
	"os"

	"github.com/rcornwell/pic32sim/gpio"
	"github.com/rcornwell/pic32sim/ioregion"
	"github.com/rcornwell/pic32sim/irq"
	"github.com/rcornwell/pic32sim/regs"
	"github.com/rcornwell/pic32sim/sdcard"
	"github.com/rcornwell/pic32sim/spi"
	"github.com/rcornwell/pic32sim/uart"
)

const (
	oscconOff = 0x0000
	osctunOff = 0x0010
	ddpconOff = 0x0020
	devidOff  = 0x0030
	syskeyOff = 0x0040
	rconOff   = 0x0050
	rswrstOff = 0x0060
	checonOff = 0x0070

	ifsBase    = 0x1000
	iecBase    = 0x1080
	ipcBase    = 0x1100
	intstatOff = 0x1400

	uartBase   = 0x2000
	uartStride = 0x50
	numUART    = 6

	spiBase   = 0x3000
	spiStride = 0x50
	numSPI    = 6

	gpioBase   = 0x4000
	gpioStride = 0x100
	numGPIO    = 7

	cnpugOff = 0x5000
	cnpdgOff = 0x5010

	ppsBase = 0x6000
	numPPS  = 20

	syskeyUnlock1 = 0xAA996655
	syskeyUnlock2 = 0x556699AA

	irqLast = 191 // 6 banks * 32 bits - 1
)

// irq numbers, used directly as vector numbers on this variant. Units
// 5 and 6 don't exist on every MZ part but are harmless to wire.
const (
	irqUART1Err, irqUART1Rx, irqUART1Tx = 112, 113, 114
	irqUART2Err, irqUART2Rx, irqUART2Tx = 145, 146, 147
	irqUART3Err, irqUART3Rx, irqUART3Tx = 157, 158, 159
	irqUART4Err, irqUART4Rx, irqUART4Tx = 161, 162, 163
	irqUART5Err, irqUART5Rx, irqUART5Tx = 166, 167, 168
	irqUART6Err, irqUART6Rx, irqUART6Tx = 171, 172, 173

	irqSPI1Fault, irqSPI1Tx, irqSPI1Rx = 109, 110, 111
	irqSPI2Fault, irqSPI2Tx, irqSPI2Rx = 142, 143, 144
	irqSPI3Fault, irqSPI3Tx, irqSPI3Rx = 154, 155, 156
	irqSPI4Fault, irqSPI4Tx, irqSPI4Rx = 169, 170, 171 // SPI4 shares 171 with UART6 err on real silicon
	irqSPI5Fault, irqSPI5Tx, irqSPI5Rx = 174, 175, 176
	irqSPI6Fault, irqSPI6Tx, irqSPI6Rx = 177, 178, 179
)

// Machine bundles every device wired into an MZ register table.
type Machine struct {
	Table regs.Table
	IRQ   *irq.Controller
	UART  *uart.Controller
	SPI   *spi.Controller
	GPIO  [numGPIO]*gpio.Port
	CN    *gpio.ChangeNoticeGlobal
	SD    *sdcard.Controller

	BootCfg *ioregion.BootConfigWords

	io               *ioregion.IORegion
	syskeyState      int
	onSoftReset      func()
	terminateOnReset bool
}

type uartRing struct {
	RX uart.RingSource
	TX uart.RingSink
}

// UARTRing builds the per-unit ring-source/sink pair for BuildConfig.
func UARTRing(rx uart.RingSource, tx uart.RingSink) uartRing {
	return uartRing{RX: rx, TX: tx}
}

// BuildConfig supplies the board-specific wiring regs/mz cannot invent
// on its own.
type BuildConfig struct {
	UARTRings   [numUART]uartRing
	SDCards     [2]sdcard.BlockDevice
	SDKBytes    [2]uint32
	SDCSPort    [2]int
	SDCSPin     [2]int
	SDSPIUnit   int
	OnSoftReset func()
	// DumpRegisters backs CNPUG/CNPDG's debug-dump read side effect.
	DumpRegisters func()
	// DevID and OSCCON seed the corresponding registers at boot.
	DevID  uint32
	OSCCON uint32
	// DevCfg holds DEVCFG0..3, mirrored read-only via Machine.BootCfg.
	DevCfg [4]uint32
	// TerminateOnReset, when set, makes a read of RSWRST with its low
	// bit set exit the process with status 0, matching a simulator
	// invoked with stop_on_reset configured.
	TerminateOnReset bool
}

// Build constructs a fully wired MZ register table and device set
// over a fresh IORegion.
func Build(io *ioregion.IORegion, cfg BuildConfig) *Machine {
	m := &Machine{Table: regs.Table{}, io: io, onSoftReset: cfg.OnSoftReset, terminateOnReset: cfg.TerminateOnReset}
	m.BootCfg = ioregion.NewBootConfigWords(cfg.DevCfg[0], cfg.DevCfg[1], cfg.DevCfg[2], cfg.DevCfg[3])

	m.IRQ = irq.NewController(io, irq.Layout{
		NumBanks:      6,
		IFSBase:       ifsBase,
		IECBase:       iecBase,
		IPCBase:       ipcBase,
		INTSTATOffset: intstatOff,
		IRQLast:       irqLast,
		VectorOf:      nil, // irq number is the vector number
	})
	m.installSystem()
	m.installIRQBanks()
	if cfg.DevID != 0 {
		io.SetWord(devidOff, cfg.DevID)
	}
	if cfg.OSCCON != 0 {
		io.SetWord(oscconOff, cfg.OSCCON)
	}

	sdUnits := make([]*sdcard.Unit, 2)
	for i := range sdUnits {
		sdUnits[i] = sdcard.NewUnit(sdName(i), cfg.SDCards[i], cfg.SDKBytes[i])
	}
	m.SD = sdcard.NewController(sdUnits...)

	uartIRQs := [numUART][2]int{
		{irqUART1Rx, irqUART1Tx},
		{irqUART2Rx, irqUART2Tx},
		{irqUART3Rx, irqUART3Tx},
		{irqUART4Rx, irqUART4Tx},
		{irqUART5Rx, irqUART5Tx},
		{irqUART6Rx, irqUART6Tx},
	}
	uartUnits := make([]*uart.Unit, numUART)
	for i := 0; i < numUART; i++ {
		base := uint32(uartBase + i*uartStride)
		uartUnits[i] = uart.NewUnit(io, m.IRQ, uart.Config{
			Index: i, ModeOffset: base, StaOffset: base + 0x10, BrgOffset: base + 0x20,
			TxregOffset: base + 0x30, RxregOffset: base + 0x40,
			RxIRQ: uartIRQs[i][0], TxIRQ: uartIRQs[i][1],
		}, cfg.UARTRings[i].RX, cfg.UARTRings[i].TX)
	}
	m.UART = uart.NewController(uartUnits...)
	m.UART.Install(m.Table)

	spiIRQs := [numSPI][3]int{
		{irqSPI1Fault, irqSPI1Tx, irqSPI1Rx},
		{irqSPI2Fault, irqSPI2Tx, irqSPI2Rx},
		{irqSPI3Fault, irqSPI3Tx, irqSPI3Rx},
		{irqSPI4Fault, irqSPI4Tx, irqSPI4Rx},
		{irqSPI5Fault, irqSPI5Tx, irqSPI5Rx},
		{irqSPI6Fault, irqSPI6Tx, irqSPI6Rx},
	}
	spiUnits := make([]*spi.Unit, numSPI)
	for i := 0; i < numSPI; i++ {
		base := uint32(spiBase + i*spiStride)
		var bus spi.Bus
		if i == cfg.SDSPIUnit {
			bus = m.SD
		}
		spiUnits[i] = spi.NewUnit(io, m.IRQ, spi.Config{
			Index: i, ConOffset: base, StatOffset: base + 0x10, BrgOffset: base + 0x20,
			Con2Offset: base + 0x30, BufOffset: base + 0x40,
			FaultIRQ: spiIRQs[i][0], TxIRQ: spiIRQs[i][1], RxIRQ: spiIRQs[i][2],
		}, bus)
	}
	m.SPI = spi.NewController(spiUnits...)
	m.SPI.Install(m.Table)

	for p := 0; p < numGPIO; p++ {
		base := uint32(gpioBase + p*gpioStride)
		m.GPIO[p] = gpio.NewPort(io, gpio.Config{
			TrisOffset: base, PortOffset: base + 0x10, LatOffset: base + 0x20, OdcOffset: base + 0x30,
			AnselOffset: base + 0x40, CnpuOffset: base + 0x50, CnpdOffset: base + 0x60,
			CnconOffset: base + 0x70, CnenOffset: base + 0x80, CnstatOffset: base + 0x90,
		})
		m.GPIO[p].Install(m.Table)
	}
	for card := 0; card < 2; card++ {
		port := cfg.SDCSPort[card]
		pin := cfg.SDCSPin[card]
		if port < 0 || port >= numGPIO || pin < 0 {
			continue
		}
		unit := sdUnits[card]
		m.GPIO[port].AddChipSelect(1<<uint(pin), unit.Select)
	}

	m.CN = gpio.NewChangeNoticeGlobal(io, cnpugOff, cnpdgOff, cfg.DumpRegisters)
	m.CN.Install(m.Table)

	m.installPPS()
	return m
}

func sdName(i int) string {
	if i == 0 {
		return "sd0"
	}
	return "sd1"
}

func (m *Machine) installSystem() {
	tbl := m.Table
	tbl.RegisterQuartet(oscconOff, "OSCCON", 0)
	tbl.RegisterQuartet(osctunOff, "OSCTUN", 0)
	tbl.RegisterQuartet(ddpconOff, "DDPCON", 0)
	tbl.Register(devidOff, "DEVID", regs.ReadOnly)

	syskeyD := tbl.Register(syskeyOff, "SYSKEY", regs.Storage)
	syskeyD.OnWrite = m.onSyskeyWrite

	tbl.Register(rconOff, "RCON", regs.Storage)

	rswrstD := tbl.RegisterQuartet(rswrstOff, "RSWRST", 0)
	rswrstD.OnWrite = m.onRswrstWrite
	rswrstD.OnRead = m.onRswrstRead

	tbl.RegisterQuartet(checonOff, "CHECON", 0)
}

func (m *Machine) onSyskeyWrite(io *ioregion.IORegion, newWord uint32) {
	switch {
	case m.syskeyState == 0 && newWord == syskeyUnlock1:
		m.syskeyState = 1
	case m.syskeyState == 1 && newWord == syskeyUnlock2:
		m.syskeyState = 2
	default:
		m.syskeyState = 0
	}
}

func (m *Machine) onRswrstWrite(io *ioregion.IORegion, newWord uint32) {
	if m.syskeyState == 2 && newWord&1 != 0 {
		m.syskeyState = 0
		if m.onSoftReset != nil {
			m.onSoftReset()
		}
		m.Reset()
	}
}

// onRswrstRead implements the simulator's stop-on-reset option: a read
// of RSWRST with its low bit still set exits the process immediately.
func (m *Machine) onRswrstRead(io *ioregion.IORegion) {
	if m.terminateOnReset && io.Word(rswrstOff)&1 != 0 {
		os.Exit(0)
	}
}

func (m *Machine) installIRQBanks() {
	tbl := m.Table
	for n := 0; n < 6; n++ {
		ifsD := tbl.RegisterQuartet(ifsBase+uint32(n)*0x10, "IFS", 0)
		ifsD.OnWrite = func(io *ioregion.IORegion, _ uint32) { m.IRQ.Recompute() }
		iecD := tbl.RegisterQuartet(iecBase+uint32(n)*0x10, "IEC", 0)
		iecD.OnWrite = func(io *ioregion.IORegion, _ uint32) { m.IRQ.Recompute() }
	}
	for n := 0; n < 48; n++ {
		ipcD := tbl.RegisterQuartet(ipcBase+uint32(n)*0x10, "IPC", 0)
		ipcD.OnWrite = func(io *ioregion.IORegion, _ uint32) { m.IRQ.Recompute() }
	}
	tbl.Register(intstatOff, "INTSTAT", regs.ReadOnly)
}

func (m *Machine) installPPS() {
	tbl := m.Table
	for i := 0; i < numPPS; i++ {
		tbl.Register(uint32(ppsBase+4*i), "PPS", regs.Storage)
	}
}

// Reset restores SYSKEY, RSWRST and every owned device (GPIO, SD, UART,
// SPI) to power-on defaults, as triggered by a completed RSWRST
// sequence, then recomputes the interrupt winner. Other registers in
// the table, such as IEC/IPC and PPS, keep their current values.
func (m *Machine) Reset() {
	m.io.SetWord(syskeyOff, 0)
	m.io.SetWord(rswrstOff, 0)
	for p := 0; p < numGPIO; p++ {
		m.GPIO[p].Reset()
	}
	m.SD.Reset()
	m.UART.Reset()
	m.SPI.Reset()
	m.IRQ.Recompute()
}
