package gpio

import (
	"testing"

	"github.com/rcornwell/pic32sim/ioregion"
	"github.com/rcornwell/pic32sim/regs"
)

func setup(t *testing.T) (*ioregion.IORegion, *Port, regs.Table) {
	t.Helper()
	io := ioregion.New()
	p := NewPort(io, Config{TrisOffset: 0x500, LatOffset: 0x510, PortOffset: 0x520, OdcOffset: 0x530})
	tbl := regs.Table{}
	p.Install(tbl)
	return io, p, tbl
}

func TestLatWriteMirrorsOutputBitsToPort(t *testing.T) {
	io, _, tbl := setup(t)
	tbl.Write(io, 0x500, 0) // all pins output (TRIS=0)

	tbl.Write(io, 0x510, 0x0F)
	if got := io.Word(0x520); got != 0x0F {
		t.Fatalf("got PORT %#x want 0x0F", got)
	}
}

func TestLatWriteDoesNotMirrorInputBits(t *testing.T) {
	io, _, tbl := setup(t)
	tbl.Write(io, 0x500, 0xFFFFFFFF) // all pins input
	io.SetWord(0x520, 0x77)

	tbl.Write(io, 0x510, 0xFF)
	if got := io.Word(0x520); got != 0x77 {
		t.Fatalf("expected PORT unaffected by LAT write on input pins, got %#x", got)
	}
}

func TestPortWriteMirrorsToLatAndPort(t *testing.T) {
	io, _, tbl := setup(t)
	tbl.Write(io, 0x500, 0) // all pins output (TRIS=0)

	tbl.Write(io, 0x520, 0x0F) // write through PORT, not LAT
	if got := io.Word(0x510); got != 0x0F {
		t.Fatalf("expected PORT write to update LAT, got LAT=%#x", got)
	}
	if got := io.Word(0x520); got != 0x0F {
		t.Fatalf("got PORT %#x want 0x0F", got)
	}
}

func TestPortWriteFiresChipSelectLikeLatWrite(t *testing.T) {
	io, p, tbl := setup(t)
	tbl.Write(io, 0x500, 0) // outputs

	var events []bool
	p.AddChipSelect(1<<2, func(selected bool) { events = append(events, selected) })

	tbl.Write(io, 0x520, 0xFF&^(1<<2)) // bit 2 low via PORT: select asserted
	if len(events) != 1 || events[0] != true {
		t.Fatalf("expected chip select to fire from a PORT write, got %v", events)
	}
}

func TestChipSelectFiresOnActiveLowEdge(t *testing.T) {
	io, p, tbl := setup(t)
	tbl.Write(io, 0x500, 0) // outputs

	var events []bool
	p.AddChipSelect(1<<2, func(selected bool) { events = append(events, selected) })

	tbl.Write(io, 0x510, 0xFF)        // bit 2 high: deselected (no transition recorded, starts deselected already)
	tbl.Write(io, 0x510, 0xFF&^(1<<2)) // bit 2 low: select asserted
	tbl.Write(io, 0x510, 0xFF)        // bit 2 high: deselected

	if len(events) != 2 || events[0] != true || events[1] != false {
		t.Fatalf("expected [true false] edge events, got %v", events)
	}
}

func TestChipSelectIsEdgeTriggeredNotLevel(t *testing.T) {
	io, p, tbl := setup(t)
	tbl.Write(io, 0x500, 0)

	calls := 0
	p.AddChipSelect(1<<0, func(selected bool) { calls++ })

	tbl.Write(io, 0x510, 0)
	tbl.Write(io, 0x510, 0)
	tbl.Write(io, 0x510, 0)
	if calls != 1 {
		t.Fatalf("expected a single edge event for repeated identical writes, got %d", calls)
	}
}

func TestResetClearsPortsAndDeselectsActiveChipSelect(t *testing.T) {
	io, p, tbl := setup(t)
	tbl.Write(io, 0x500, 0)

	var lastState bool
	p.AddChipSelect(1<<0, func(selected bool) { lastState = selected })
	tbl.Write(io, 0x510, 0) // select asserted

	p.Reset()
	if lastState {
		t.Fatalf("expected reset to deassert chip select")
	}
	if io.Word(0x500) != 0xFFFFFFFF {
		t.Fatalf("expected TRIS reset to all-input")
	}
}
