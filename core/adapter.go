/*
 * pic32sim - CPU adapter contract
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

package core

// Adapter is the boundary the CPU implementation (out of scope here)
// is expected to satisfy. It mirrors the three CPU-facing hooks named
// in spec.md section 6: the interrupt nets, the soft-reset trigger
// written to CPU memory at 0xFFFFFFF0, and the fatal-error path that
// dumps CPU registers before the process terminates.
type Adapter interface {
	// SetVector writes EIC_RIPL/EIC_VectorNum, mirroring irq.VectorSink.
	SetVector(ripl, vector int)
	// SoftReset is the CPU's soft-reset hook; the real contract is
	// "write the value 4 to CPU memory at 0xFFFFFFF0", which only the
	// CPU model can actually perform. Machine does not call it: a
	// SYSKEY-unlocked RSWRST write invokes the OnSoftReset callback
	// given to regs/mx7 or regs/mz BuildConfig instead.
	SoftReset()
	// Fatal dumps CPU registers and terminates the process, in
	// response to an unknown register, a bad I/O transfer size, or a
	// machine-check exception (exc-code 24).
	Fatal(reason string)
}
