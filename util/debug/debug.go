/*
 * pic32sim - Per-module debug tracing
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

// Package debug formats the bitmask-gated trace lines used by the
// register decoders and device models. Each caller keeps its own mask
// of enabled categories (a debugMask field set through SetDebugMask)
// and calls through here so formatting and destination stay uniform
// across packages.
package debug

import (
	"fmt"
	"os"
	"strconv"
)

var logFile *os.File = os.Stderr

// SetOutput redirects all debug trace output to file.
func SetOutput(file *os.File) {
	if file == nil {
		file = os.Stderr
	}
	logFile = file
}

// Debugf emits a generic trace line gated by mask&level.
func Debugf(module string, mask int, level int, format string, a ...interface{}) {
	if (mask & level) != 0 {
		fmt.Fprintf(logFile, module+": "+format+"\n", a...)
	}
}

// DebugRegf emits a trace line tagged with a register offset into the I/O region.
func DebugRegf(offset uint32, mask int, level int, format string, a ...interface{}) {
	if (mask & level) != 0 {
		fmt.Fprintf(logFile, strconv.FormatUint(uint64(offset), 16)+": "+format+"\n", a...)
	}
}

// DebugUnitf emits a trace line tagged with a peripheral name and unit index.
func DebugUnitf(name string, unit int, mask int, level int, format string, a ...interface{}) {
	if (mask & level) != 0 {
		tag := name + strconv.Itoa(unit)
		fmt.Fprintf(logFile, tag+": "+format+"\n", a...)
	}
}
