/*
 * pic32sim - SD/MMC card over SPI
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

// Package sdcard implements an SD/MMC card as seen over SPI: a
// byte-at-a-time command parser where the state is implicit in a
// byte counter and the opcode latched at buf[0], backed by ordinary
// block reads/writes against a host file.
package sdcard

const (
	cmdGoIdle        = 0x40 // CMD0
	cmdSendIfCond    = 0x48 // CMD8
	cmdSendCSD       = 0x49 // CMD9
	cmdStop          = 0x4C // CMD12
	cmdSetBlen       = 0x50 // CMD16
	cmdReadSingle    = 0x51 // CMD17
	cmdReadMultiple  = 0x52 // CMD18
	cmdSetWBECnt     = 0x57 // ACMD23
	cmdWriteSingle   = 0x58 // CMD24
	cmdWriteMultiple = 0x59 // CMD25
	cmdSendOpSDC     = 0x69 // ACMD41
	cmdApp           = 0x77 // CMD55

	dataStartBlock     = 0xFE
	writeMultipleToken = 0xFC

	bufSize = 1024 + 16
)

// BlockDevice is the host file backing a card image; *os.File
// satisfies it.
type BlockDevice interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
}

// Unit is one SD/MMC card.
type Unit struct {
	name         string
	kbytes       uint32
	dev          BlockDevice
	selected     bool
	readMultiple bool
	blen         uint32
	wbecnt       uint32
	offset       uint32
	count        uint32
	limit        uint32
	buf          [bufSize]byte
}

// NewUnit builds a card of the given reported size, backed by dev.
// dev may be nil: the unit then behaves as "no card installed" and
// every transaction returns 0xFF.
func NewUnit(name string, dev BlockDevice, kbytes uint32) *Unit {
	u := &Unit{name: name, dev: dev, kbytes: kbytes}
	u.reset()
	return u
}

func (u *Unit) reset() {
	u.selected = false
	u.blen = 512
	u.count = 0
}

// Reset restores power-on defaults, as triggered by a peripheral soft
// reset.
func (u *Unit) Reset() { u.reset() }

// Select activates or deactivates the card's chip select. Selecting
// resets the byte counter so a fresh command can begin; deselecting
// does not (mirrors real SPI-mode SD behavior, where a command's
// reply tail can be abandoned mid-stream).
func (u *Unit) Select(on bool) {
	if on {
		u.selected = true
		u.count = 0
	} else {
		u.selected = false
	}
}

func readBlock(dev BlockDevice, offset uint32, buf []byte) {
	for i := range buf {
		buf[i] = 0xFF
	}
	if dev == nil {
		return
	}
	_, _ = dev.ReadAt(buf, int64(offset))
}

func writeBlock(dev BlockDevice, offset uint32, buf []byte) {
	if dev == nil {
		return
	}
	_, _ = dev.WriteAt(buf, int64(offset))
}

// transact pushes one byte into the card's state machine and returns
// its reply byte for that SPI clock.
func (u *Unit) transact(data byte) byte {
	if u.dev == nil {
		return 0xFF
	}

	reply := byte(0xFF)

	if u.count == 0 {
		u.buf[0] = data
		if data != 0xFF {
			u.count++
		}
		return reply
	}

	switch u.buf[0] {
	case cmdGoIdle:
		if u.count >= 7 {
			break
		}
		u.buf[u.count] = data
		u.count++
		if u.count == 7 {
			reply = 0x01
		}

	case cmdApp:
		if u.count >= 7 {
			break
		}
		u.buf[u.count] = data
		u.count++
		if u.count == 7 {
			reply = 0
			u.count = 0
		}

	case cmdSendOpSDC:
		if u.count >= 7 {
			break
		}
		u.buf[u.count] = data
		u.count++
		if u.count == 7 {
			reply = 0
		}

	case cmdSetBlen:
		if u.count >= 7 {
			break
		}
		u.buf[u.count] = data
		u.count++
		if u.count == 7 {
			blen := uint32(u.buf[1])<<24 | uint32(u.buf[2])<<16 | uint32(u.buf[3])<<8 | uint32(u.buf[4])
			if blen > 0 && blen <= 1024 {
				u.blen = blen
				reply = 0
			} else {
				// Rejected: leave u.blen at its last valid value so a
				// later CMD17/CMD18 can't slice buf out of bounds.
				reply = 4
			}
		}

	case cmdSetWBECnt:
		if u.count >= 7 {
			break
		}
		u.buf[u.count] = data
		u.count++
		if u.count == 7 {
			u.wbecnt = uint32(u.buf[1])<<24 | uint32(u.buf[2])<<16 | uint32(u.buf[3])<<8 | uint32(u.buf[4])
			reply = 0
			u.count = 0
		}

	case cmdSendCSD:
		if u.count >= 7 {
			break
		}
		u.buf[u.count] = data
		u.count++
		if u.count == 7 {
			reply = 0
			u.limit = 16 + 3
			u.count = 1
			u.buf[0] = 0
			u.buf[1] = dataStartBlock
			sectors := u.kbytes/512 - 1
			csd := [16]byte{1 << 6, 0, 0, 0, 0, 0, 0, 0, byte(sectors >> 8), byte(sectors), 0, 0, 0, 0, 0, 0}
			copy(u.buf[2:2+16], csd[:])
			u.buf[u.limit-1] = 0xFF
			u.buf[u.limit] = 0xFF
		}

	case cmdReadSingle:
		if u.count >= 7 {
			break
		}
		u.buf[u.count] = data
		u.count++
		if u.count == 7 {
			reply = 0
			u.offset = uint32(u.buf[1])<<24 | uint32(u.buf[2])<<16 | uint32(u.buf[3])<<8 | uint32(u.buf[4])
			u.limit = u.blen + 3
			u.count = 1
			u.buf[0] = 0
			u.buf[1] = dataStartBlock
			readBlock(u.dev, u.offset, u.buf[2:2+u.blen])
			u.buf[u.limit-1] = 0xFF
			u.buf[u.limit] = 0xFF
		}

	case cmdReadMultiple:
		if u.count >= 7 {
			break
		}
		u.buf[u.count] = data
		u.count++
		if u.count == 7 {
			reply = 0
			u.readMultiple = true
			u.offset = uint32(u.buf[1])<<24 | uint32(u.buf[2])<<16 | uint32(u.buf[3])<<8 | uint32(u.buf[4])
			u.limit = u.blen + 3
			u.count = 1
			u.buf[0] = 0
			u.buf[1] = dataStartBlock
			readBlock(u.dev, u.offset, u.buf[2:2+u.blen])
			u.buf[u.limit-1] = 0xFF
			u.buf[u.limit] = 0xFF
		}

	case cmdWriteSingle:
		if u.count >= uint32(len(u.buf)) {
			break
		}
		u.buf[u.count] = data
		u.count++
		switch {
		case u.count == 7:
			reply = 0
			u.offset = uint32(u.buf[1])<<24 | uint32(u.buf[2])<<16 | uint32(u.buf[3])<<8 | uint32(u.buf[4])
		case u.count == 7+u.blen+2+2:
			if u.buf[7] == dataStartBlock {
				reply = 0x05
				u.offset = uint32(u.buf[1])<<24 | uint32(u.buf[2])<<16 | uint32(u.buf[3])<<8 | uint32(u.buf[4])
				writeBlock(u.dev, u.offset, u.buf[8:8+u.blen])
			} else {
				reply = 4
			}
		}

	case cmdWriteMultiple:
		if u.count >= 7 {
			break
		}
		u.buf[u.count] = data
		u.count++
		if u.count == 7 {
			reply = 0
			u.offset = uint32(u.buf[1])<<24 | uint32(u.buf[2])<<16 | uint32(u.buf[3])<<8 | uint32(u.buf[4])
			u.count = 0
		}

	case writeMultipleToken:
		if u.count >= uint32(len(u.buf)) {
			break
		}
		u.buf[u.count] = data
		u.count++
		if u.count == 2+u.blen+2 {
			reply = 0x05
			writeBlock(u.dev, u.offset, u.buf[1:1+u.blen])
			u.offset += 512
			u.count = 0
		}

	case 0xFD:
		// CMD25 stop-transmission token: ends the multi-block write.
		u.count = 0

	case cmdStop:
		// Short path: fires off the second byte of the command, not
		// after a full 7-byte body.
		if u.count > 1 {
			break
		}
		u.readMultiple = false
		reply = 0

	case cmdSendIfCond:
		// Same short path as CMD_STOP; this simulator doesn't speak
		// the v2 probe and answers "illegal command".
		if u.count > 1 {
			break
		}
		u.readMultiple = false
		reply = 4

	case 0:
		if u.count <= u.limit {
			reply = u.buf[u.count]
			u.count++
			break
		}
		if u.readMultiple {
			u.offset += u.blen
			u.count = 1
			readBlock(u.dev, u.offset, u.buf[2:2+u.blen])
			reply = 0
		}

	default:
		// Unrecognized opcode: ignore.
	}

	return reply
}

// Controller multiplexes whichever unit currently has chip select
// asserted onto a single SPI data line, exactly as a single MOSI/MISO
// pair is shared by every device on a bus.
type Controller struct {
	units []*Unit
}

// NewController wraps the (normally 2) card slots.
func NewController(units ...*Unit) *Controller {
	return &Controller{units: units}
}

// Unit returns the card at index, or nil if out of range.
func (c *Controller) Unit(index int) *Unit {
	if index < 0 || index >= len(c.units) {
		return nil
	}
	return c.units[index]
}

// IO clocks one byte onto the bus and returns whatever the selected
// card (if any) replies; with no card selected the bus floats high.
func (c *Controller) IO(data byte) byte {
	for _, u := range c.units {
		if u.selected {
			return u.transact(data)
		}
	}
	return 0xFF
}

// Reset restores every card to its power-on state.
func (c *Controller) Reset() {
	for _, u := range c.units {
		u.Reset()
	}
}
