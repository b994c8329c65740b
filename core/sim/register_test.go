package sim

import (
	"testing"

	"golang.org/x/exp/slices"

	"softspi/core"
)

func TestRegisterHistory(t *testing.T) {
	r := NewRegister(0x10)
	r.Set(0x11)
	r.Set(0x13)
	r.Set(0x02)

	if got, want := r.Writes(), []uint8{0x11, 0x13, 0x02}; !slices.Equal(got, want) {
		t.Errorf("Writes() = %x, want %x", got, want)
	}
	if got, want := r.History(1), []bool{false, true, true}; !slices.Equal(got, want) {
		t.Errorf("History(1) = %v, want %v", got, want)
	}
	if n := r.Edges(0, 0x10); n != 1 {
		t.Errorf("Edges(0) = %d, want 1", n)
	}
	if n := r.Edges(4, 0x10); n != 0 {
		t.Errorf("Edges(4) = %d, want 0", n)
	}

	r.ResetHistory()
	if len(r.Writes()) != 0 || r.Get() != 0x02 {
		t.Errorf("ResetHistory should keep value 0x02, got 0x%02x with %d writes", r.Get(), len(r.Writes()))
	}
}

func TestRegisterSampled(t *testing.T) {
	r := NewRegister(0)
	// data=bit0, clock=bit2
	for _, w := range []uint8{0x01, 0x05, 0x01, 0x00, 0x04, 0x00} {
		r.Set(w)
	}
	if got, want := r.Sampled(2, 0), []bool{true, false}; !slices.Equal(got, want) {
		t.Errorf("Sampled = %v, want %v", got, want)
	}
}

func TestRegisterConnectAndDrive(t *testing.T) {
	r := NewRegister(0)
	r.Connect(0, 3)

	core.SetBit(r, 0)
	if !r.Level(3) {
		t.Error("bit 3 should follow bit 0")
	}
	core.ClearBit(r, 0)
	if r.Level(3) {
		t.Error("bit 3 should follow bit 0 low")
	}

	r.Drive(3, true)
	if !r.Level(3) {
		t.Error("driven level should override the jumper")
	}
	r.Release(3)
	if r.Level(3) {
		t.Error("released pin should follow the jumper again")
	}
}

func TestRegisterWireAcrossPorts(t *testing.T) {
	a := NewRegister(0)
	b := NewRegister(0)
	b.Wire(a, 5, 1)

	a.Set(0x20)
	if b.Get() != 0x02 {
		t.Errorf("expected 0x02 on b, got 0x%02x", b.Get())
	}
}

func TestShiftRegisterModel(t *testing.T) {
	r := NewRegister(0)
	s := NewShiftRegister(r, 0, 1, 2)

	// Shift in 1, 0, 1 then latch
	for _, bit := range []uint8{1, 0, 1} {
		r.Set(bit)
		r.Set(bit | 0x02)
		r.Set(bit)
	}
	if s.Pending() != 0b101 || s.Output() != 0 {
		t.Errorf("pending 0x%02x output 0x%02x before latch", s.Pending(), s.Output())
	}
	r.Set(0x04)
	r.Set(0x00)
	if s.Output() != 0b101 {
		t.Errorf("expected latched 0x05, got 0x%02x", s.Output())
	}
	if s.Clocks() != 3 || s.Latches() != 1 {
		t.Errorf("expected 3 clocks and 1 latch, got %d and %d", s.Clocks(), s.Latches())
	}
}

func TestTicks(t *testing.T) {
	var ticks Ticks
	ticks.Hold(2)
	ticks.Hold(3)
	if ticks.Calls != 2 || ticks.Total != 5 {
		t.Errorf("expected 2 calls and 5 ticks, got %d and %d", ticks.Calls, ticks.Total)
	}
}
