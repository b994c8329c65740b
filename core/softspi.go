// Software (bit-banged) SPI over byte-wide port registers
// A Bus binds clock, select, data-out and data-in roles to bits of
// caller-owned registers and shifts bytes by toggling those bits.
package core

import "errors"

// Role is the logical function of a bound pin.
type Role uint8

// Bus roles. The first three double as status bit positions.
const (
	RoleDataOut Role = iota // MOSI
	RoleClock               // SCLK
	RoleSelect              // chip select / latch
	RoleDataIn              // MISO
	numRoles
)

func (r Role) String() string {
	switch r {
	case RoleDataOut:
		return "data-out"
	case RoleClock:
		return "clock"
	case RoleSelect:
		return "select"
	case RoleDataIn:
		return "data-in"
	default:
		return "unknown"
	}
}

// statusBit returns the initialization status bit for r, or 0 for roles
// that do not take part in readiness.
func (r Role) statusBit() uint8 {
	if r > RoleSelect {
		return 0
	}
	return 1 << r
}

// allRolesReady is set when data-out, clock and select are bound.
const allRolesReady = 0x07

// BindError reports a rejected binding or a missing required role.
type BindError struct {
	Role Role
	Pin  Pin
	Err  error
}

func (e *BindError) Error() string {
	return e.Err.Error() + ": " + e.Role.String() + " pin " + itoa(int(e.Pin))
}

func (e *BindError) Unwrap() error { return e.Err }

// PortError reports an I/O failure surfaced by a register after a bus
// operation. It matches both ErrPortIO and the underlying error.
type PortError struct {
	Role Role
	Err  error
}

func (e *PortError) Error() string {
	return ErrPortIO.Error() + " on " + e.Role.String() + ": " + e.Err.Error()
}

func (e *PortError) Unwrap() []error { return []error{ErrPortIO, e.Err} }

type binding struct {
	port Register
	pin  Pin
}

func (b binding) bound() bool { return b.port != nil }

// Bus is one bit-banged SPI bus bound to a fixed pin set.
// A Bus is not safe for concurrent use; callers serialize access.
type Bus struct {
	name     string
	bindings [numRoles]binding
	status   uint8
	ticks    int
	clock    TickSource
	sample   SampleEdge
	gated    bool
	events   *EventRing
}

// Option configures a Bus at construction.
type Option func(*Bus)

// WithDelay sets the initial delay ticks. Non-positive values are ignored.
func WithDelay(ticks int) Option {
	return func(b *Bus) { b.SetDelay(ticks) }
}

// WithTickSource replaces the default busy loop.
func WithTickSource(ts TickSource) Option {
	return func(b *Bus) {
		if ts != nil {
			b.clock = ts
		}
	}
}

// WithSampleEdge selects when data-in is read.
func WithSampleEdge(e SampleEdge) Option {
	return func(b *Bus) { b.sample = e }
}

// WithoutReadyCheck lets transfers run before every role is bound.
// Operations still fail if the line they pulse (clock or select) is unbound.
func WithoutReadyCheck() Option {
	return func(b *Bus) { b.gated = false }
}

// WithEventRing records bus operations into ring.
func WithEventRing(ring *EventRing) Option {
	return func(b *Bus) { b.events = ring }
}

// WithName labels the bus in debug output.
func WithName(name string) Option {
	return func(b *Bus) { b.name = name }
}

// New creates an unbound bus with MinDelayTicks and a busy-loop tick source.
func New(opts ...Option) *Bus {
	b := &Bus{
		name:  "softspi",
		ticks: MinDelayTicks,
		clock: BusyLoop{},
		gated: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the bus label
func (b *Bus) Name() string { return b.name }

// Bind records the port and pin for one role. It does not touch hardware.
//
// NoPin declares data-out or data-in absent; for data-out this counts
// towards readiness so read-only buses can run. Clock and select cannot
// be absent. A nil port unbinds the role and reports ErrInvalidBinding.
func (b *Bus) Bind(role Role, port Register, pin Pin) error {
	if role >= numRoles {
		return &BindError{Role: role, Pin: pin, Err: ErrInvalidBinding}
	}

	if pin == NoPin {
		if role == RoleClock || role == RoleSelect {
			return b.rejectBind(role, pin, ErrInvalidBinding)
		}
		b.bindings[role] = binding{}
		b.status |= role.statusBit()
		b.record(EvtBind, uint8(role), 0xff)
		return nil
	}

	if !pin.Valid() {
		return b.rejectBind(role, pin, ErrPinIndexOutOfRange)
	}

	if port == nil {
		b.bindings[role] = binding{}
		b.status &^= role.statusBit()
		return b.rejectBind(role, pin, ErrInvalidBinding)
	}

	b.bindings[role] = binding{port: port, pin: pin}
	b.status |= role.statusBit()
	b.record(EvtBind, uint8(role), uint8(pin))
	return nil
}

func (b *Bus) rejectBind(role Role, pin Pin, err error) error {
	DebugPrintln("[SOFTSPI] " + b.name + ": rejected " + role.String() + " pin " + itoa(int(pin)))
	b.record(EvtRejected, uint8(role), uint8(pin))
	return &BindError{Role: role, Pin: pin, Err: err}
}

// Init binds all four roles against a single shared port.
// dataOut and dataIn may be NoPin. Every role is attempted; the errors of
// the rejected ones are joined.
func (b *Bus) Init(port Register, dataOut, dataIn, clock, sel Pin) error {
	var errs []error
	for _, rb := range [...]struct {
		role Role
		pin  Pin
	}{
		{RoleDataOut, dataOut},
		{RoleDataIn, dataIn},
		{RoleClock, clock},
		{RoleSelect, sel},
	} {
		if err := b.Bind(rb.role, port, rb.pin); err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrors(errs)
}

// IsReady reports whether data-out, clock and select have been bound.
// Data-in does not take part.
func (b *Bus) IsReady() bool {
	return b.status == allRolesReady
}

// SetDelay updates the delay ticks used between clock edges.
// Non-positive values leave the current setting unchanged.
func (b *Bus) SetDelay(ticks int) {
	if ticks <= 0 {
		return
	}
	b.ticks = ticks
}

// Delay returns the configured delay ticks
func (b *Bus) Delay() int { return b.ticks }

func (b *Bus) delay() {
	b.clock.Hold(b.ticks)
}

// check guards an operation that pulses role.
func (b *Bus) check(role Role) error {
	if b.gated && !b.IsReady() {
		b.record(EvtRejected, uint8(role), b.status)
		return ErrNotReady
	}
	if !b.bindings[role].bound() {
		b.record(EvtRejected, uint8(role), b.status)
		return &BindError{Role: role, Pin: NoPin, Err: ErrInvalidBinding}
	}
	return nil
}

// bitAt returns bit i of value in shift order.
func bitAt(value byte, i int, order BitOrder) bool {
	if order == MSBFirst {
		return (value>>(7-i))&1 == 1
	}
	return (value>>i)&1 == 1
}

// accumulate places a sampled bit at shift position i.
func accumulate(result byte, level bool, i int, order BitOrder) byte {
	var bit byte
	if level {
		bit = 1
	}
	if order == MSBFirst {
		return result<<1 | bit
	}
	return result | bit<<i
}

// pulseClock raises the clock, holds, lowers it and holds again.
func (b *Bus) pulseClock() {
	clk := b.bindings[RoleClock]
	SetBit(clk.port, clk.pin)
	b.delay()
	ClearBit(clk.port, clk.pin)
	b.delay()
}

// Transfer shifts value out on data-out while shifting a byte in from
// data-in, over 8 clock pulses. The returned byte is 0 when data-in is
// absent. With neither data line bound it emits 8 bare clock pulses.
func (b *Bus) Transfer(value byte, order BitOrder) (byte, error) {
	if err := b.check(RoleClock); err != nil {
		return 0, err
	}
	if !order.Valid() {
		return 0, ErrInvalidBitOrder
	}

	out := b.bindings[RoleDataOut]
	in := b.bindings[RoleDataIn]

	var result byte
	for i := 0; i < 8; i++ {
		if out.bound() {
			WriteBit(out.port, out.pin, bitAt(value, i, order))
		}

		var level bool
		if in.bound() && b.sample == SampleBeforeClock {
			level = ReadBit(in.port, in.pin)
		}

		b.pulseClock()

		if in.bound() {
			if b.sample == SampleAfterClock {
				level = ReadBit(in.port, in.pin)
			}
			result = accumulate(result, level, i, order)
		}
	}

	if err := b.portErr(); err != nil {
		return result, err
	}
	b.record(EvtTransfer, value, result)
	return result, nil
}

// Clear shifts out 0x00 LSB first, driving data-out low for every cycle.
func (b *Bus) Clear() (byte, error) {
	return b.Transfer(0x00, LSBFirst)
}

// TriggerOutput pulses select: high, delay, low. Select is lowered
// without a trailing delay. Use it for shift-register latch framing.
func (b *Bus) TriggerOutput() error {
	if err := b.check(RoleSelect); err != nil {
		return err
	}
	sel := b.bindings[RoleSelect]
	SetBit(sel.port, sel.pin)
	b.delay()
	ClearBit(sel.port, sel.pin)

	if err := b.portErr(); err != nil {
		return err
	}
	b.record(EvtTrigger, 1, 0)
	return nil
}

// WriteChipSelect drives select to state with no delay. Use it to hold
// a chip select across several Transfer calls.
func (b *Bus) WriteChipSelect(state bool) error {
	if err := b.check(RoleSelect); err != nil {
		return err
	}
	sel := b.bindings[RoleSelect]
	WriteBit(sel.port, sel.pin, state)

	if err := b.portErr(); err != nil {
		return err
	}
	var level uint8
	if state {
		level = 1
	}
	b.record(EvtChipSelect, level, 0)
	return nil
}

// Critical runs fn with interrupts masked on targets that support it.
// The bus has no internal locking; use this around multi-step sequences
// that must not be preempted.
func (b *Bus) Critical(fn func() error) error {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return fn()
}

// portErr returns the first error reported by a bound register.
func (b *Bus) portErr() error {
	for role := Role(0); role < numRoles; role++ {
		bd := b.bindings[role]
		if !bd.bound() {
			continue
		}
		if r, ok := bd.port.(ErrorReporter); ok {
			if err := r.Err(); err != nil {
				return &PortError{Role: role, Err: err}
			}
		}
	}
	return nil
}

func (b *Bus) record(eventType, value, result uint8) {
	if b.events != nil {
		b.events.Record(eventType, value, result)
	}
}

func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}
