/*
 * pic32sim - PIC32MX7 register-decoder table
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

// Package mx7 builds the PIC32MX7 register-decoder table: the
// concrete offsets for the system/reset block, the interrupt
// controller, six UARTs, four SPI units, seven GPIO ports, and the
// peripheral pin select registers, plus the IRQ-to-vector lookup that
// is this variant's distinguishing feature (several IRQs can share a
// vector; the MZ variant instead uses the IRQ number directly).
package mx7

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

// Register offsets. Every quartet register reserves a 0x10 span
// (base, +4 CLR, +8 SET, +12 INV); this is the decoder's own address
// allocation and need not match any particular silicon revision.
const (
	oscconOff  = 0x0000
	osctunOff  = 0x0010
	ddpconOff  = 0x0020
	devidOff   = 0x0030
	syskeyOff  = 0x0040
	rconOff    = 0x0050
	rswrstOff  = 0x0060
	checonOff  = 0x0070

	ifsBase  = 0x1000
	iecBase  = 0x1040
	ipcBase  = 0x1080
	intstatOff = 0x1280

	uartBase  = 0x2000
	uartStride = 0x50
	numUART   = 6

	spiBase  = 0x3000
	spiStride = 0x50
	numSPI   = 4

	gpioBase  = 0x4000
	gpioStride = 0x100
	numGPIO   = 7

	ppsBase = 0x6000
	numPPS  = 20

	syskeyUnlock1 = 0xAA996655
	syskeyUnlock2 = 0x556699AA
)

// irqToVector reproduces the structural shape of the real MX7
// IRQ-to-vector table: 76 IRQ lines, several of which are deliberately
// routed to the same vector (SPI1's fault/tx/rx trio; the shared
// UART/SPI/I2C vectors; the Input-Capture error lines reusing their
// primary vector). The concrete vector numbers are this decoder's own
// allocation, not silicon register values.
var irqToVector = []int{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, // 0-22
	23, 23, 23, // 23-25 SPI1 fault/tx/rx share one vector
	24, 24, 24, // 26-28 UART1/SPI3/I2C3 share one vector
	25, 25, 25, // 29-31 I2C1
	26,     // 32 CN
	27,     // 33 AD1
	28,     // 34 PMP
	29,     // 35 CMP1
	30,     // 36 CMP2
	31, 31, 31, // 37-39 UART3/SPI2/I2C4 share one vector
	32, 32, 32, // 40-42 UART2/SPI4/I2C5 share one vector
	33, 33, 33, // 43-45 I2C2
	34,                             // 46 FSCM
	35,                             // 47 RTCC
	36, 37, 38, 39, 40, 41, 42, 43, // 48-55 DMA0-7
	44,         // 56 FCE
	45,         // 57 USB
	46,         // 58 CAN1
	47,         // 59 CAN2
	48,         // 60 ETH
	5,          // 61 IC1 error shares IC1's vector
	9,          // 62 IC2 error
	13,         // 63 IC3 error
	17,         // 64 IC4 error
	21,         // 65 IC5 error
	28,         // 66 PMP error shares PMP's vector
	49, 49, 49, // 67-69 UART4
	50, 50, 50, // 70-72 UART6
	51, 51, 51, // 73-75 UART5
}

const (
	irqUART1Err = 26
	irqUART1Rx  = 27
	irqUART1Tx  = 28
	irqUART2Err = 40
	irqUART2Rx  = 41
	irqUART2Tx  = 42
	irqUART3Err = 37
	irqUART3Rx  = 38
	irqUART3Tx  = 39
	irqUART4Err = 67
	irqUART4Rx  = 68
	irqUART4Tx  = 69
	irqUART6Err = 70
	irqUART6Rx  = 71
	irqUART6Tx  = 72
	irqUART5Err = 73
	irqUART5Rx  = 74
	irqUART5Tx  = 75

	irqSPI1Fault = 23
	irqSPI1Tx    = 24
	irqSPI1Rx    = 25
	// SPI2/3/4 get irq numbers of their own past the real table's 76
	// entries; the last 20 slots of the MX7's 96-bit bank space are
	// otherwise unused.
	irqSPI2Fault = 76
	irqSPI2Tx    = 77
	irqSPI2Rx    = 78
	irqSPI3Fault = 79
	irqSPI3Tx    = 80
	irqSPI3Rx    = 81
	irqSPI4Fault = 82
	irqSPI4Tx    = 83
	irqSPI4Rx    = 84

	irqLast = 95
)

func init() {
	// Extend irqToVector to cover the full 3-bank (96-bit) space,
	// giving the extra SPI2/3/4 lines their own vectors.
	for len(irqToVector) <= irqLast {
		irqToVector = append(irqToVector, -1)
	}
	irqToVector[irqSPI2Fault], irqToVector[irqSPI2Tx], irqToVector[irqSPI2Rx] = 52, 53, 54
	irqToVector[irqSPI3Fault], irqToVector[irqSPI3Tx], irqToVector[irqSPI3Rx] = 55, 56, 57
	irqToVector[irqSPI4Fault], irqToVector[irqSPI4Tx], irqToVector[irqSPI4Rx] = 58, 59, 60
}

// Machine bundles every device wired into an MX7 register table.
type Machine struct {
	Table regs.Table
	IRQ   *irq.Controller
	UART  *uart.Controller
	SPI   *spi.Controller
	GPIO  [numGPIO]*gpio.Port
	SD    *sdcard.Controller

	// BootCfg mirrors the DEVCFG0..3 configuration-bit words a real
	// chip latches from flash at power-on; it is read-only from the
	// firmware's perspective and is not part of the live register table.
	BootCfg *ioregion.BootConfigWords

	io               *ioregion.IORegion
	syskeyState      int
	onSoftReset      func()
	terminateOnReset bool
}

// BuildConfig supplies the board-specific pieces the register table
// cannot invent on its own: UART host-side rings, the SD card's
// backing images, and the GPIO/pin routing of the SD chip selects.
type BuildConfig struct {
	UARTRings [numUART]uartRing
	SDCards   [2]sdcard.BlockDevice
	SDKBytes  [2]uint32
	// SDCSPort/SDCSPin pick the GPIO port (A=0..G=6) and pin whose LAT
	// writes toggle the corresponding card's select line; -1 disables.
	SDCSPort [2]int
	SDCSPin  [2]int
	// SDSPIUnit is which SPI unit (0-3) is wired to the card bus.
	SDSPIUnit int
	// OnSoftReset is invoked when firmware completes the SYSKEY
	// unlock sequence and writes 1 to RSWRST.
	OnSoftReset func()

	// DevID and OSCCON seed the corresponding registers at boot, from
	// the embedder's board.Profile.
	DevID  uint32
	OSCCON uint32
	// DevCfg holds DEVCFG0..3, mirrored read-only via Machine.BootCfg.
	DevCfg [4]uint32
	// TerminateOnReset, when set, makes a read of RSWRST with its low
	// bit set exit the process with status 0, matching a simulator
	// invoked with stop_on_reset configured.
	TerminateOnReset bool
}

type uartRing struct {
	RX uart.RingSource
	TX uart.RingSink
}

// UARTRing builds the per-unit ring-source/sink pair for BuildConfig.
func UARTRing(rx uart.RingSource, tx uart.RingSink) uartRing {
	return uartRing{RX: rx, TX: tx}
}

// Build constructs a fully wired MX7 register table and device set
// over a fresh IORegion.
func Build(io *ioregion.IORegion, cfg BuildConfig) *Machine {
	m := &Machine{Table: regs.Table{}, io: io, onSoftReset: cfg.OnSoftReset, terminateOnReset: cfg.TerminateOnReset}
	m.BootCfg = ioregion.NewBootConfigWords(cfg.DevCfg[0], cfg.DevCfg[1], cfg.DevCfg[2], cfg.DevCfg[3])

	m.IRQ = irq.NewController(io, irq.Layout{
		NumBanks:      3,
		IFSBase:       ifsBase,
		IECBase:       iecBase,
		IPCBase:       ipcBase,
		INTSTATOffset: intstatOff,
		IRQLast:       irqLast,
		VectorOf:      irqToVector,
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
	for n := 0; n < 3; n++ {
		ifsD := tbl.RegisterQuartet(ifsBase+uint32(n)*0x10, "IFS", 0)
		ifsD.OnWrite = func(io *ioregion.IORegion, _ uint32) { m.IRQ.Recompute() }
		iecD := tbl.RegisterQuartet(iecBase+uint32(n)*0x10, "IEC", 0)
		iecD.OnWrite = func(io *ioregion.IORegion, _ uint32) { m.IRQ.Recompute() }
	}
	for n := 0; n <= 24; n++ {
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
