package buspirate

import (
	"bytes"
	"errors"
	"testing"

	"softspi/core"
	"softspi/core/sim"
)

// fakePirate emulates the bitbang command set of a Bus Pirate
type fakePirate struct {
	silentZeros int // Reset bytes ignored before the banner
	zeros       int
	inputs      uint8
	pins        uint8
	jumpers     map[core.Pin]core.Pin // Input pin -> output it follows
	pending     bytes.Buffer
	written     []byte
	writeErr    error
	flushed     int
	closed      bool
}

func newFakePirate() *fakePirate {
	return &fakePirate{jumpers: make(map[core.Pin]core.Pin)}
}

func (f *fakePirate) state() uint8 {
	v := f.pins &^ f.inputs
	for in, out := range f.jumpers {
		mask := uint8(1) << uint8(in)
		if f.inputs&mask != 0 && f.pins&(1<<uint8(out)) != 0 {
			v |= mask
		}
	}
	return v
}

func (f *fakePirate) Write(b []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	for _, c := range b {
		f.written = append(f.written, c)
		switch {
		case c == cmdReset:
			f.zeros++
			if f.zeros > f.silentZeros {
				f.pending.WriteString(bitbangBanner)
			}
		case c == cmdTerminal:
			f.pending.WriteByte(0x01)
		case c&0xE0 == cmdDirection:
			f.inputs = c & directionMask
			f.pending.WriteByte(f.state())
		case c&cmdPins != 0:
			f.pins = c & pinMask
			f.pending.WriteByte(f.state())
		}
	}
	return len(b), nil
}

func (f *fakePirate) Read(b []byte) (int, error) {
	if f.pending.Len() == 0 {
		return 0, nil // Read timeout
	}
	return f.pending.Read(b)
}

func (f *fakePirate) Flush() error {
	f.flushed++
	f.pending.Reset()
	return nil
}

func (f *fakePirate) Close() error {
	f.closed = true
	return nil
}

func TestOpenEntersBitbang(t *testing.T) {
	fake := newFakePirate()
	fake.silentZeros = 3

	reg, err := Open(fake, 1<<PinMISO)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if fake.flushed != 1 {
		t.Errorf("expected one flush, got %d", fake.flushed)
	}
	if fake.zeros != 4 {
		t.Errorf("expected 4 reset bytes, got %d", fake.zeros)
	}
	if fake.inputs != 1<<PinMISO {
		t.Errorf("expected MISO input, got directions %05b", fake.inputs)
	}
	if reg.Err() != nil {
		t.Errorf("unexpected error: %v", reg.Err())
	}
}

func TestOpenNoBanner(t *testing.T) {
	fake := newFakePirate()
	fake.silentZeros = 100

	if _, err := Open(fake, 0); !errors.Is(err, ErrNoBanner) {
		t.Errorf("expected ErrNoBanner, got %v", err)
	}
	if fake.zeros != enterAttempts {
		t.Errorf("expected %d attempts, got %d", enterAttempts, fake.zeros)
	}
}

func TestSetSendsPinCommand(t *testing.T) {
	fake := newFakePirate()
	reg, err := Open(fake, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	fake.written = nil

	reg.Set(0xFF)
	if len(fake.written) != 1 || fake.written[0] != 0xFF {
		t.Errorf("expected command 0xff, got %x", fake.written)
	}
	if reg.Get() != pinMask {
		t.Errorf("expected 0x7f, got 0x%02x", reg.Get())
	}
	if len(fake.written) != 1 {
		t.Errorf("Get with no inputs should not touch the link, wrote %x", fake.written)
	}

	reg.Power(true, false)
	if last := fake.written[len(fake.written)-1]; last != 0xDF {
		t.Errorf("expected power without pull-ups (0xdf), got 0x%02x", last)
	}
}

func TestBusLoopbackOverBitbang(t *testing.T) {
	fake := newFakePirate()
	fake.jumpers[PinMISO] = PinMOSI

	reg, err := Open(fake, 1<<PinMISO)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	bus := core.New(core.WithTickSource(&sim.Ticks{}))
	if err := bus.Init(reg, PinMOSI, PinMISO, PinCLK, PinCS); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	for _, order := range []core.BitOrder{core.MSBFirst, core.LSBFirst} {
		for _, v := range []byte{0x00, 0x81, 0xB2, 0xFF} {
			got, err := bus.Transfer(v, order)
			if err != nil {
				t.Fatalf("Transfer failed: %v", err)
			}
			if got != v {
				t.Errorf("%s: sent 0x%02x, read 0x%02x", order, v, got)
			}
		}
	}

	if err := bus.TriggerOutput(); err != nil {
		t.Fatalf("TriggerOutput failed: %v", err)
	}
	if fake.pins&(1<<PinCS) != 0 {
		t.Error("CS should end low")
	}
}

func TestWriteFailureIsSticky(t *testing.T) {
	fake := newFakePirate()
	reg, err := Open(fake, 1<<PinMISO)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	linkDown := errors.New("cable unplugged")
	fake.writeErr = linkDown

	bus := core.New(core.WithTickSource(&sim.Ticks{}))
	if err := bus.Init(reg, PinMOSI, PinMISO, PinCLK, PinCS); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	_, err = bus.Transfer(0x55, core.MSBFirst)
	if !errors.Is(err, core.ErrPortIO) || !errors.Is(err, linkDown) {
		t.Errorf("expected port I/O error wrapping the link failure, got %v", err)
	}

	fake.writeErr = nil
	fake.written = nil
	reg.Set(0x01)
	if len(fake.written) != 0 {
		t.Errorf("register should stay failed, wrote %x", fake.written)
	}
}

func TestShortReply(t *testing.T) {
	fake := newFakePirate()
	reg, err := Open(fake, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// A reply that never arrives: swallow the next command
	silent := &silentPort{fakePirate: fake}
	reg.port = silent
	reg.Set(0x04)
	if !errors.Is(reg.Err(), ErrShortReply) {
		t.Errorf("expected ErrShortReply, got %v", reg.Err())
	}
}

// silentPort accepts writes and never answers
type silentPort struct {
	*fakePirate
}

func (s *silentPort) Write(b []byte) (int, error) { return len(b), nil }
func (s *silentPort) Read(b []byte) (int, error)  { return 0, nil }

func TestClose(t *testing.T) {
	fake := newFakePirate()
	reg, err := Open(fake, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := reg.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if last := fake.written[len(fake.written)-1]; last != cmdTerminal {
		t.Errorf("expected terminal reset 0x0f, got 0x%02x", last)
	}
	if !fake.closed {
		t.Error("serial port not closed")
	}
}
