/*
 * pic32sim - Board profile
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

// Package board is the plain-data board profile the embedder supplies
// to describe a wiring of GPIO chip selects, SPI units, and the
// console UART that isn't implied by the chip variant alone. It holds
// no file format or CLI parsing of its own; config/boardconfig does
// the validation and wiring into a regs/mx7 or regs/mz BuildConfig.
package board

// Variant names a supported chip family.
type Variant int

const (
	MX7 Variant = iota
	MZ
)

// Profile is the `{ sdcard_spi_unit, cs0_port, cs0_pin, cs1_port,
// cs1_pin, console_uart, devcfg0..3, devid, osccon }` tuple.
type Profile struct {
	Variant Variant

	// SDCardSPIUnit is which SPI unit (0-based) the SD card bus is
	// wired to. -1 means no SD card is present.
	SDCardSPIUnit int

	// CS0Port/CS0Pin and CS1Port/CS1Pin name the GPIO port (0=A..6=G)
	// and pin driving each SD card's chip select. A port of -1 means
	// that card slot is unused.
	CS0Port, CS0Pin int
	CS1Port, CS1Pin int

	// ConsoleUART is which UART unit (0-based) the primary VTTY is
	// attached to.
	ConsoleUART int

	// DevCfg0..3, DevID, and OSCCON are the boot-time configuration
	// words a real PIC32 reads from its configuration bits / DEVID
	// register; they seed the corresponding read-only and storage
	// registers at Build time.
	DevCfg0, DevCfg1, DevCfg2, DevCfg3 uint32
	DevID                              uint32
	OSCCON                             uint32

	// TerminateOnReset mirrors the original simulator's stop_on_reset
	// option: when set, a read of RSWRST with its low bit still set
	// exits the process with status 0 instead of continuing to run.
	TerminateOnReset bool
}
