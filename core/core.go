/*
 * pic32sim - Machine orchestrator
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

// Package core wires one built register table (regs/mx7 or regs/mz)
// to an Adapter and exposes the three things the CPU side actually
// calls every simulation slice: read, write, and the per-slice poll
// that lets the UART model notice newly arrived host bytes. It also
// owns the fatal-error boundary: io-fabric and device code signal
// unrecoverable conditions by panicking with a *FatalError, and
// Machine.Guard is the one place that recovers it.
package core

import (
	"github.com/rcornwell/pic32sim/iofabric"
	"github.com/rcornwell/pic32sim/ioregion"
	"github.com/rcornwell/pic32sim/irq"
	"github.com/rcornwell/pic32sim/regs/mx7"
	"github.com/rcornwell/pic32sim/regs/mz"
	"github.com/rcornwell/pic32sim/uart"
)

// FatalError is panicked by the I/O fabric (and may be panicked by
// device code) to unwind to Machine.Guard.
type FatalError struct {
	Reason string
}

func (e *FatalError) Error() string { return e.Reason }

// Machine is one running chip instance: an I/O region, its register
// table wired by a variant package, and the adapter that receives
// interrupt vectors.
type Machine struct {
	io      *ioregion.IORegion
	fabric  *iofabric.Fabric
	adapter Adapter
	irqCtrl *irq.Controller
	uartCtl *uart.Controller
	reset   func()
}

func (m *Machine) fatal(reason string) {
	panic(&FatalError{Reason: reason})
}

// NewFromMX7 wraps an already-built MX7 machine for use by a CPU
// adapter.
func NewFromMX7(io *ioregion.IORegion, vm *mx7.Machine, adapter Adapter) *Machine {
	m := &Machine{io: io, adapter: adapter, irqCtrl: vm.IRQ, uartCtl: vm.UART, reset: vm.Reset}
	m.fabric = iofabric.New(io, vm.Table, m.fatal)
	vm.IRQ.Bind(adapter)
	return m
}

// NewFromMZ wraps an already-built MZ machine for use by a CPU
// adapter.
func NewFromMZ(io *ioregion.IORegion, vm *mz.Machine, adapter Adapter) *Machine {
	m := &Machine{io: io, adapter: adapter, irqCtrl: vm.IRQ, uartCtl: vm.UART, reset: vm.Reset}
	m.fabric = iofabric.New(io, vm.Table, m.fatal)
	vm.IRQ.Bind(adapter)
	return m
}

// Read services read_callback: a physical load in [0x1F800000,
// 0x1F8FFFFF], which the I/O fabric reduces to a window offset.
func (m *Machine) Read(paddr uint32, nbytes int) uint32 {
	return m.fabric.Read(paddr, nbytes)
}

// Write services write_callback.
func (m *Machine) Write(paddr uint32, nbytes int, value uint32) {
	m.fabric.Write(paddr, nbytes, value)
}

// PollSlice runs the per-CPU-slice peripheral housekeeping: UART RX/TX
// polling against the VTTY rings, per spec.md's data-flow description.
func (m *Machine) PollSlice() {
	m.uartCtl.PollAll()
}

// Reset re-applies the variant's power-on defaults, independent of any
// firmware-triggered RSWRST (used by the host to implement a hard
// reset button/command).
func (m *Machine) Reset() {
	m.reset()
}

// Guard runs fn, recovering any *FatalError it panics with, reporting
// it to the adapter's Fatal hook, and returning it as a normal error
// instead of letting the panic escape the simulation loop.
func (m *Machine) Guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r == nil {
			return
		} else if fe, ok := r.(*FatalError); ok {
			m.adapter.Fatal(fe.Reason)
			err = fe
		} else {
			panic(r)
		}
	}()
	fn()
	return nil
}
