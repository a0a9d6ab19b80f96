package regs

import (
	"testing"

	"github.com/rcornwell/pic32sim/ioregion"
)

func TestQuartetAssignClearSetInvert(t *testing.T) {
	io := ioregion.New()
	tbl := Table{}
	tbl.RegisterQuartet(0x100, "TESTREG", 0)

	io.SetWord(0x100, 0xFFFF0000)

	res := tbl.Write(io, 0x104, 0x0000FF00) // CLR
	if !res.Known {
		t.Fatalf("expected known register")
	}
	if got, want := io.Word(0x100), uint32(0xFFFF0000)&^0x0000FF00; got != want {
		t.Errorf("CLR: got %#x want %#x", got, want)
	}

	io.SetWord(0x100, 0x0000FF00)
	tbl.Write(io, 0x108, 0x000000FF) // SET
	if got, want := io.Word(0x100), uint32(0x0000FFFF); got != want {
		t.Errorf("SET: got %#x want %#x", got, want)
	}

	io.SetWord(0x100, 0x0000FFFF)
	tbl.Write(io, 0x10C, 0x0000FFFF) // INV
	if got, want := io.Word(0x100), uint32(0); got != want {
		t.Errorf("INV: got %#x want %#x", got, want)
	}

	tbl.Write(io, 0x100, 0x12345678) // assign
	if got, want := io.Word(0x100), uint32(0x12345678); got != want {
		t.Errorf("ASSIGN: got %#x want %#x", got, want)
	}
}

func TestWriteOpMaskedProtectsHardwareBits(t *testing.T) {
	io := ioregion.New()
	tbl := Table{}
	const hwMask = 0xFF000000
	tbl.RegisterQuartet(0x200, "MASKED", hwMask)

	io.SetWord(0x200, 0xAA000000) // hardware bits set
	tbl.Write(io, 0x200, 0x000000FF)

	got := io.Word(0x200)
	if got&hwMask != 0xAA000000 {
		t.Errorf("hardware bits clobbered: %#x", got)
	}
	if got&^hwMask != 0x000000FF {
		t.Errorf("firmware bits not applied: %#x", got)
	}
}

func TestReadOnlyWriteIsIgnored(t *testing.T) {
	io := ioregion.New()
	tbl := Table{}
	tbl.Register(0x300, "RODEV", ReadOnly)
	io.SetWord(0x300, 0xDEADBEEF)

	res := tbl.Write(io, 0x300, 0)
	if !res.ReadOnlyIgnored {
		t.Fatalf("expected ReadOnlyIgnored")
	}
	if got := io.Word(0x300); got != 0xDEADBEEF {
		t.Errorf("read-only storage changed: %#x", got)
	}
}

func TestUnknownOffsetIsUnknown(t *testing.T) {
	tbl := Table{}
	io := ioregion.New()

	if tbl.Read(io, 0x9999).Known {
		t.Fatal("expected unknown read")
	}
	if tbl.Write(io, 0x9999, 0).Known {
		t.Fatal("expected unknown write")
	}
}

func TestOnWriteHookRunsAfterStorage(t *testing.T) {
	io := ioregion.New()
	tbl := Table{}
	var seen uint32
	d := tbl.Register(0x400, "HOOKED", Storage)
	d.OnWrite = func(_ *ioregion.IORegion, newWord uint32) {
		seen = newWord
	}

	tbl.Write(io, 0x400, 0x55)
	if seen != 0x55 {
		t.Errorf("hook saw %#x, want 0x55", seen)
	}
}
