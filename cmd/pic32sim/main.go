/*
 * pic32sim - Demo process wiring a PIC32 peripheral core to VTTY consoles
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

// Command pic32sim wires an MX7 peripheral core to a set of VTTY
// consoles and runs it until interrupted. There is no CPU here — that
// is an external collaborator per spec.md §1 — so this demo drives
// the core with core/testadapter standing in for the ISS, purely to
// exercise the I/O fabric, IRQ controller, and VTTY path end to end.
// Board profile and CLI argument parsing are likewise out of scope;
// the profile below is a fixed development default.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rcornwell/pic32sim/board"
	"github.com/rcornwell/pic32sim/config/boardconfig"
	"github.com/rcornwell/pic32sim/config/debugconfig"
	"github.com/rcornwell/pic32sim/core"
	"github.com/rcornwell/pic32sim/core/testadapter"
	"github.com/rcornwell/pic32sim/ioregion"
	"github.com/rcornwell/pic32sim/sdcard"
	"github.com/rcornwell/pic32sim/util/logger"
	"github.com/rcornwell/pic32sim/vtty"
)

var log *slog.Logger

func main() {
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	log = slog.New(logger.NewHandler(nil, &slog.HandlerOptions{Level: programLevel}, false))
	slog.SetDefault(log)

	log.Info("pic32sim started")

	profile := board.Profile{
		Variant:       board.MX7,
		SDCardSPIUnit: -1,
		CS0Port:       -1,
		CS0Pin:        -1,
		CS1Port:       -1,
		CS1Pin:        -1,
		ConsoleUART:   0,
		DevID:         0x4A07A053,
		OSCCON:        0x01,
	}

	io := ioregion.New()

	var units [6]*vtty.Unit
	var rings [6]boardconfig.MX7UART
	for i := range units {
		units[i] = vtty.NewUnit(unitName(i))
		rings[i] = boardconfig.MX7UART{RX: units[i], TX: units[i]}
	}

	var sdCards [2]sdcard.BlockDevice

	vm, err := boardconfig.BuildMX7(io, profile, rings, sdCards, [2]uint32{}, onSoftReset)
	if err != nil {
		log.Error("board profile rejected", "error", err)
		os.Exit(1)
	}

	adapter := testadapter.New()
	machine := core.NewFromMX7(io, vm, adapter)

	debugconfig.RegisterTarget("VTTY", map[string]int{"CONN": 1}, func(mask int) {
		for _, u := range units {
			u.SetDebugMask(mask)
		}
	})

	consoleAddr := "127.0.0.1:2300"
	go func() {
		if err := units[profile.ConsoleUART].ListenTCP(consoleAddr); err != nil {
			log.Warn("console VTTY listener stopped", "error", err)
		}
	}()
	log.Info("console VTTY listening", "addr", consoleAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	failed := false
runLoop:
	for {
		select {
		case <-ctx.Done():
			break runLoop
		case <-ticker.C:
			if err := machine.Guard(machine.PollSlice); err != nil {
				log.Error("fatal error from peripheral core", "error", err)
				failed = true
				break runLoop
			}
		}
	}

	log.Info("pic32sim shutting down")
	if failed {
		os.Exit(1)
	}
}

func onSoftReset() {
	log.Info("SYSKEY-unlocked RSWRST: firmware requested a soft reset")
}

func unitName(i int) string {
	return "uart" + string(rune('1'+i))
}
