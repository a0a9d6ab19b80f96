package core

import (
	"testing"

	"github.com/rcornwell/pic32sim/core/testadapter"
	"github.com/rcornwell/pic32sim/ioregion"
	"github.com/rcornwell/pic32sim/regs/mx7"
	"github.com/rcornwell/pic32sim/uart"
)

type nullRing struct{}

func (nullRing) HasData() bool         { return false }
func (nullRing) Pop() (byte, bool)     { return 0, false }
func (nullRing) Push(b byte)           {}

func buildMachine(t *testing.T) (*Machine, *testadapter.Adapter) {
	t.Helper()
	io := ioregion.New()
	cfg := mx7.BuildConfig{SDSPIUnit: -1}
	cfg.SDCSPort[0], cfg.SDCSPin[0] = -1, -1
	cfg.SDCSPort[1], cfg.SDCSPin[1] = -1, -1
	for i := range cfg.UARTRings {
		cfg.UARTRings[i] = mx7.UARTRing(nullRing{}, nullRing{})
	}
	vm := mx7.Build(io, cfg)
	adapter := testadapter.New()
	m := NewFromMX7(io, vm, adapter)
	return m, adapter
}

func TestWordReadWriteRoundTrips(t *testing.T) {
	m, _ := buildMachine(t)
	m.Write(0x1F800000, 4, 0xDEADBEEF) // OSCCON
	if got := m.Read(0x1F800000, 4); got != 0xDEADBEEF {
		t.Fatalf("got %#x want 0xdeadbeef", got)
	}
}

func TestUnknownRegisterTriggersGuardedFatal(t *testing.T) {
	m, adapter := buildMachine(t)
	err := m.Guard(func() {
		m.Read(0x1F8FFFF0, 4)
	})
	if err == nil {
		t.Fatal("expected Guard to return the fatal error")
	}
	if adapter.LastFatal() == "" {
		t.Fatal("expected the adapter's Fatal hook to be invoked")
	}
}

func TestGuardDoesNotSwallowOtherPanics(t *testing.T) {
	m, _ := buildMachine(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a non-FatalError panic to propagate out of Guard")
		}
	}()
	_ = m.Guard(func() { panic("not a FatalError") })
}

func TestIRQRecomputeReachesAdapter(t *testing.T) {
	m, adapter := buildMachine(t)
	m.irqCtrl.Raise(0)
	if adapter.VectorCalls == 0 {
		t.Fatal("expected the adapter's SetVector to be invoked via irq.Controller.Bind")
	}
}

func TestPollSliceDoesNotPanicWithNoUARTTraffic(t *testing.T) {
	m, _ := buildMachine(t)
	m.PollSlice()
}

func TestResetDelegatesToVariantReset(t *testing.T) {
	m, _ := buildMachine(t)
	m.Write(0x1F804000, 4, 0) // GPIO port A TRIS = all outputs
	m.Reset()
	if got := m.Read(0x1F804000, 4); got != 0xFFFFFFFF {
		t.Fatalf("expected TRIS reset to all-input, got %#x", got)
	}
}

var _ uart.RingSource = nullRing{}
var _ uart.RingSink = nullRing{}
