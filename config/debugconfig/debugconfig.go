/*
 * pic32sim - Debug trace category configuration.
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

// Package debugconfig registers a "DEBUG" configparser model the same
// way the teacher wires per-subsystem debug options (its CHANNEL/CPU/
// TAPE cases), but targeting this module's peripheral trace
// categories (UART, GPIO, IOFABRIC, VTTY) instead of S370 device
// classes. Each category is a named target that was registered ahead
// of time via RegisterTarget, carrying the bit value for each of its
// named sub-options (e.g. "uart rx,tx").
package debugconfig

import (
	"errors"
	"strings"

	config "github.com/rcornwell/pic32sim/config/configparser"
)

// target is one debuggable subsystem: a name-to-bit table for its
// trace categories, and the setter that actually installs the mask.
type target struct {
	bits   map[string]int
	setMask func(mask int)
}

var targets = map[string]*target{}

// RegisterTarget makes a subsystem configurable via a "DEBUG <name>
// <category>,<category>..." config line. bits maps each accepted
// category name (case-insensitive) to the bit OR'd into the mask
// passed to setMask.
func RegisterTarget(name string, bits map[string]int, setMask func(mask int)) {
	targets[strings.ToUpper(name)] = &target{bits: bits, setMask: setMask}
}

func init() {
	config.RegisterModel("DEBUG", config.TypeOptions, setDebug)
}

func setDebug(_ uint16, name string, options []config.Option) error {
	t, ok := targets[strings.ToUpper(name)]
	if !ok {
		return errors.New("debug target unknown: " + name)
	}
	mask := 0
	for _, opt := range options {
		mask |= bitFor(t, opt.Name)
		for _, v := range opt.Value {
			mask |= bitFor(t, *v)
		}
	}
	t.setMask(mask)
	return nil
}

func bitFor(t *target, name string) int {
	return t.bits[strings.ToUpper(name)]
}
