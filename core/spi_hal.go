package core

import "tinygo.org/x/drivers"

// BitOrder selects which end of a byte is shifted first.
type BitOrder uint8

// Bit orders
const (
	LSBFirst BitOrder = iota // Least significant bit first
	MSBFirst                 // Most significant bit first
)

// Valid reports whether o is a known bit order.
func (o BitOrder) Valid() bool {
	return o == LSBFirst || o == MSBFirst
}

func (o BitOrder) String() string {
	switch o {
	case LSBFirst:
		return "lsb-first"
	case MSBFirst:
		return "msb-first"
	default:
		return "unknown"
	}
}

// SampleEdge selects when the data-in line is read within a bit cycle.
//
// SampleBeforeClock reads after data-out is driven and before the clock
// rises (peer shifts on the falling edge, CPHA=0 style).
// SampleAfterClock reads once the clock pulse has completed.
type SampleEdge uint8

// Sample points
const (
	SampleBeforeClock SampleEdge = iota
	SampleAfterClock
)

// Conn adapts a Bus to the tinygo.org/x/drivers SPI interface so existing
// device drivers can run over bit-banged pins.
type Conn struct {
	bus   *Bus
	order BitOrder
}

var _ drivers.SPI = (*Conn)(nil)

// Conn returns a drivers.SPI view of the bus using a fixed bit order.
func (b *Bus) Conn(order BitOrder) *Conn {
	return &Conn{bus: b, order: order}
}

// Transfer shifts one byte out and returns the byte shifted in.
func (c *Conn) Transfer(w byte) (byte, error) {
	return c.bus.Transfer(w, c.order)
}

// Tx performs a multi-byte transfer
// A nil w clocks out zeros for len(r); a nil r discards what is read.
// When both are given they must be the same length.
func (c *Conn) Tx(w, r []byte) error {
	switch {
	case w != nil && r != nil:
		if len(w) != len(r) {
			return ErrBufferMismatch
		}
		for i, b := range w {
			in, err := c.bus.Transfer(b, c.order)
			if err != nil {
				return err
			}
			r[i] = in
		}
	case w != nil:
		for _, b := range w {
			if _, err := c.bus.Transfer(b, c.order); err != nil {
				return err
			}
		}
	default:
		for i := range r {
			in, err := c.bus.Transfer(0, c.order)
			if err != nil {
				return err
			}
			r[i] = in
		}
	}
	return nil
}
