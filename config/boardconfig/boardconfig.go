/*
 * pic32sim - Board profile validation and wiring
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

// Package boardconfig validates a board.Profile and turns it into the
// regs/mx7 or regs/mz BuildConfig the register table actually needs.
// It plays the same role the teacher's config/configparser plays for
// device models, minus the file format: board.Profile is already a
// parsed Go struct by the time it reaches here, because spec.md places
// config-file and CLI parsing out of scope.
package boardconfig

import (
	"errors"
	"fmt"

	"github.com/rcornwell/pic32sim/board"
	"github.com/rcornwell/pic32sim/ioregion"
	"github.com/rcornwell/pic32sim/regs/mx7"
	"github.com/rcornwell/pic32sim/regs/mz"
	"github.com/rcornwell/pic32sim/sdcard"
	"github.com/rcornwell/pic32sim/uart"
)

const numGPIOPorts = 7 // A..G

// Validate checks a board.Profile for internally-consistent wiring
// before it is handed to a Build* function: when an SD card SPI unit
// is set, both chip-select ports must be -1 or an existing GPIO port,
// and console_uart must not be negative. Other unit indices are not
// range-checked. A Profile that
// fails validation would otherwise surface as a confusing panic deep
// inside regs/mx7 or regs/mz.
func Validate(p board.Profile) error {
	if p.SDCardSPIUnit >= 0 {
		if p.CS0Port < -1 || p.CS0Port >= numGPIOPorts {
			return fmt.Errorf("boardconfig: cs0_port %d out of range", p.CS0Port)
		}
		if p.CS1Port < -1 || p.CS1Port >= numGPIOPorts {
			return fmt.Errorf("boardconfig: cs1_port %d out of range", p.CS1Port)
		}
	}
	if p.ConsoleUART < 0 {
		return errors.New("boardconfig: console_uart must be set")
	}
	return nil
}

// BuildMX7 validates p and constructs a regs/mx7 Machine, attaching
// the given UART rings (indexed by UART unit number) and SD card
// backing devices (indexed by card slot 0/1).
func BuildMX7(io *ioregion.IORegion, p board.Profile, uartRings [6]MX7UART, sdCards [2]sdcard.BlockDevice, sdKBytes [2]uint32, onSoftReset func()) (*mx7.Machine, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	cfg := mx7.BuildConfig{
		SDCards:          sdCards,
		SDKBytes:         sdKBytes,
		SDSPIUnit:        p.SDCardSPIUnit,
		OnSoftReset:      onSoftReset,
		DevID:            p.DevID,
		OSCCON:           p.OSCCON,
		DevCfg:           [4]uint32{p.DevCfg0, p.DevCfg1, p.DevCfg2, p.DevCfg3},
		TerminateOnReset: p.TerminateOnReset,
	}
	cfg.SDCSPort[0], cfg.SDCSPin[0] = p.CS0Port, p.CS0Pin
	cfg.SDCSPort[1], cfg.SDCSPin[1] = p.CS1Port, p.CS1Pin
	for i, r := range uartRings {
		cfg.UARTRings[i] = mx7.UARTRing(r.RX, r.TX)
	}
	return mx7.Build(io, cfg), nil
}

// BuildMZ is BuildMX7's counterpart for the MZ variant.
func BuildMZ(io *ioregion.IORegion, p board.Profile, uartRings [6]MZUART, sdCards [2]sdcard.BlockDevice, sdKBytes [2]uint32, onSoftReset, dumpRegisters func()) (*mz.Machine, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	cfg := mz.BuildConfig{
		SDCards:          sdCards,
		SDKBytes:         sdKBytes,
		SDSPIUnit:        p.SDCardSPIUnit,
		OnSoftReset:      onSoftReset,
		DumpRegisters:    dumpRegisters,
		DevID:            p.DevID,
		OSCCON:           p.OSCCON,
		DevCfg:           [4]uint32{p.DevCfg0, p.DevCfg1, p.DevCfg2, p.DevCfg3},
		TerminateOnReset: p.TerminateOnReset,
	}
	cfg.SDCSPort[0], cfg.SDCSPin[0] = p.CS0Port, p.CS0Pin
	cfg.SDCSPort[1], cfg.SDCSPin[1] = p.CS1Port, p.CS1Pin
	for i, r := range uartRings {
		cfg.UARTRings[i] = mz.UARTRing(r.RX, r.TX)
	}
	return mz.Build(io, cfg), nil
}

// MX7UART and MZUART are the (RX, TX) ring pair for one UART unit,
// named separately per variant since mx7.UARTRing/mz.UARTRing return
// distinct unexported types.
type MX7UART struct {
	RX uart.RingSource
	TX uart.RingSink
}

type MZUART struct {
	RX uart.RingSource
	TX uart.RingSink
}
