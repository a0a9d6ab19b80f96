/*
 * pic32sim - Test double for the CPU adapter contract
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

// Package testadapter is a recording core.Adapter used by this
// module's own tests (and available to a CPU implementer's tests)
// in place of a real CPU model.
package testadapter

// Adapter records every call it receives instead of acting on them.
type Adapter struct {
	Ripl, Vector   int
	VectorCalls    int
	SoftResetCalls int
	FatalReasons   []string
}

// New returns a zeroed Adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) SetVector(ripl, vector int) {
	a.Ripl, a.Vector = ripl, vector
	a.VectorCalls++
}

func (a *Adapter) SoftReset() {
	a.SoftResetCalls++
}

func (a *Adapter) Fatal(reason string) {
	a.FatalReasons = append(a.FatalReasons, reason)
}

// LastFatal returns the most recent fatal reason, or "" if none fired.
func (a *Adapter) LastFatal() string {
	if len(a.FatalReasons) == 0 {
		return ""
	}
	return a.FatalReasons[len(a.FatalReasons)-1]
}
