package sim

import "softspi/core"

// ShiftRegister models a 74HC595 serial-in, parallel-out shift register
// attached to one port: SER on data, SRCLK on clock, RCLK on latch.
type ShiftRegister struct {
	data, clock, latch core.Pin

	shift   uint8
	output  uint8
	clocks  int
	latches int
}

// NewShiftRegister attaches a shift register to port.
func NewShiftRegister(port *Register, data, clock, latch core.Pin) *ShiftRegister {
	s := &ShiftRegister{data: data, clock: clock, latch: latch}
	port.Watch(s.observe)
	return s
}

func (s *ShiftRegister) observe(prev, next uint8) {
	if rising(prev, next, s.clock) {
		var bit uint8
		if next&(1<<uint8(s.data)) != 0 {
			bit = 1
		}
		s.shift = s.shift<<1 | bit
		s.clocks++
	}
	if rising(prev, next, s.latch) {
		s.output = s.shift
		s.latches++
	}
}

// Output returns the latched parallel outputs, Q7 in bit 7.
func (s *ShiftRegister) Output() uint8 { return s.output }

// Pending returns the shift stage not yet latched.
func (s *ShiftRegister) Pending() uint8 { return s.shift }

// Clocks returns the number of rising clock edges seen.
func (s *ShiftRegister) Clocks() int { return s.clocks }

// Latches returns the number of rising latch edges seen.
func (s *ShiftRegister) Latches() int { return s.latches }

// PeerShift selects the clock edge on which a Peer presents its next bit.
type PeerShift uint8

// Peer shift edges
const (
	// ShiftOnFalling presents the first bit at Load and each following bit
	// after a falling clock edge. Pairs with core.SampleBeforeClock.
	ShiftOnFalling PeerShift = iota

	// ShiftOnRising presents each bit at the rising clock edge.
	// Pairs with core.SampleAfterClock.
	ShiftOnRising
)

// Peer is an MSB-first SPI slave: it captures data-out on each rising
// clock edge and drives data-in from a loaded reply byte.
type Peer struct {
	port           *Register
	out, in, clock core.Pin
	mode           PeerShift
	reply          uint8
	bit            int
	received       uint8
	receivedBits   int
	receivedBytes  []uint8
}

// NewPeer attaches a peer to port. out is the master's data-out pin, in
// the master's data-in pin.
func NewPeer(port *Register, out, in, clock core.Pin, mode PeerShift) *Peer {
	p := &Peer{port: port, out: out, in: in, clock: clock, mode: mode}
	port.Watch(p.observe)
	p.port.Drive(in, false)
	return p
}

// Load sets the byte returned by the next transfer.
func (p *Peer) Load(reply uint8) {
	p.reply = reply
	p.bit = 0
	if p.mode == ShiftOnFalling {
		p.present()
	}
}

func (p *Peer) present() {
	if p.bit > 7 {
		p.port.Drive(p.in, false)
		return
	}
	p.port.Drive(p.in, p.reply&(0x80>>p.bit) != 0)
	p.bit++
}

func (p *Peer) observe(prev, next uint8) {
	if rising(prev, next, p.clock) {
		if p.mode == ShiftOnRising {
			p.present()
		}
		var bit uint8
		if next&(1<<uint8(p.out)) != 0 {
			bit = 1
		}
		p.received = p.received<<1 | bit
		p.receivedBits++
		if p.receivedBits == 8 {
			p.receivedBytes = append(p.receivedBytes, p.received)
			p.received = 0
			p.receivedBits = 0
		}
	}
	if falling(prev, next, p.clock) && p.mode == ShiftOnFalling {
		p.present()
	}
}

// Received returns every complete byte captured from data-out.
func (p *Peer) Received() []uint8 {
	out := make([]uint8, len(p.receivedBytes))
	copy(out, p.receivedBytes)
	return out
}

// Ticks is a TickSource that only counts.
type Ticks struct {
	Calls int // Number of Hold calls
	Total int // Sum of held ticks
}

var _ core.TickSource = (*Ticks)(nil)

// Hold records the request and returns immediately.
func (t *Ticks) Hold(ticks int) {
	t.Calls++
	t.Total += ticks
}
