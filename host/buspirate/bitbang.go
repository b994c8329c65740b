// Package buspirate drives a Bus Pirate in binary bitbang mode so its
// CS, MISO, CLK, MOSI and AUX lines act as one byte-wide port register.
//
// Every register access is one command byte and one reply byte over the
// serial link, so the resulting bus runs at a few kHz at best. It is meant
// for bring-up and for exercising the driver against real parts from a PC.
package buspirate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"softspi/core"
	"softspi/host/logging"
	"softspi/host/serial"
)

// Port bits in bitbang mode.
const (
	PinCS     core.Pin = 0
	PinMISO   core.Pin = 1
	PinCLK    core.Pin = 2
	PinMOSI   core.Pin = 3
	PinAUX    core.Pin = 4
	PinPullup core.Pin = 5
	PinPower  core.Pin = 6
)

// Bitbang-mode commands.
const (
	cmdReset     = 0x00 // Enter / stay in bitbang mode, answers "BBIO1"
	cmdTerminal  = 0x0F // Back to the user terminal, answers 0x01
	cmdDirection = 0x40 // 010xxxxx: 1 = input for AUX|MOSI|CLK|MISO|CS
	cmdPins      = 0x80 // 1xxxxxxx: POWER|PULLUP|AUX|MOSI|CLK|MISO|CS

	directionMask = 0x1F
	pinMask       = 0x7F

	enterAttempts = 20
	readAttempts  = 4
)

const bitbangBanner = "BBIO1"

// Errors from the Bus Pirate link.
var (
	// ErrNoBanner indicates the Bus Pirate never answered with BBIO1.
	ErrNoBanner = errors.New("buspirate: no bitbang banner")

	// ErrShortReply indicates a command reply did not arrive.
	ErrShortReply = errors.New("buspirate: short reply")

	// ErrTerminal indicates the exit to the user terminal was not acknowledged.
	ErrTerminal = errors.New("buspirate: terminal reset not acknowledged")
)

// Register is a Bus Pirate in bitbang mode seen as a core.Register.
// Get and Set each cost a serial round trip; when no line is an input Get
// returns the last reply without touching the link.
//
// The first I/O failure is kept and reported by Err; later accesses are
// skipped and return the last known state.
type Register struct {
	port   serial.Port
	inputs uint8 // Direction bits, 1 = input
	state  uint8 // Last commanded pin levels
	pins   uint8 // Last pin state reported by the Bus Pirate
	err    error
	log    *slog.Logger
}

var (
	_ core.Register      = (*Register)(nil)
	_ core.ErrorReporter = (*Register)(nil)
)

// Open switches the Bus Pirate on port into bitbang mode and sets the
// direction of each line. Bits set in inputs (CS..AUX) become inputs;
// the usual SPI wiring is 1<<PinMISO.
func Open(port serial.Port, inputs uint8) (*Register, error) {
	r := &Register{
		port:   port,
		inputs: inputs & directionMask,
		log:    logging.For(logging.ComponentBusPirate),
	}

	if err := port.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush serial port: %w", err)
	}
	if err := r.enter(); err != nil {
		return nil, err
	}

	reply, err := r.exchange(cmdDirection | r.inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to set pin directions: %w", err)
	}
	r.pins = reply & pinMask

	r.log.Info("bitbang mode ready", "inputs", fmt.Sprintf("%05b", r.inputs), "pins", fmt.Sprintf("%07b", r.pins))
	return r, nil
}

// enter sends reset bytes until the bitbang banner appears.
func (r *Register) enter() error {
	banner := make([]byte, len(bitbangBanner))
	for attempt := 1; attempt <= enterAttempts; attempt++ {
		if _, err := r.port.Write([]byte{cmdReset}); err != nil {
			return fmt.Errorf("failed to write reset: %w", err)
		}
		n, err := r.read(banner)
		if err != nil && !errors.Is(err, ErrShortReply) {
			return err
		}
		if n == len(banner) && string(banner) == bitbangBanner {
			r.log.Debug("banner received", "attempt", attempt)
			return nil
		}
	}
	return ErrNoBanner
}

// read fills buf, tolerating reads that time out with no data.
func (r *Register) read(buf []byte) (int, error) {
	got := 0
	for idle := 0; got < len(buf) && idle < readAttempts; {
		n, err := r.port.Read(buf[got:])
		got += n
		if err != nil && !errors.Is(err, io.EOF) {
			return got, fmt.Errorf("failed to read reply: %w", err)
		}
		if n == 0 {
			idle++
		}
	}
	if got < len(buf) {
		return got, ErrShortReply
	}
	return got, nil
}

// exchange sends one command byte and returns the one-byte reply.
func (r *Register) exchange(cmd uint8) (uint8, error) {
	if _, err := r.port.Write([]byte{cmd}); err != nil {
		return 0, fmt.Errorf("failed to write command 0x%02x: %w", cmd, err)
	}
	var reply [1]byte
	if _, err := r.read(reply[:]); err != nil {
		return 0, fmt.Errorf("command 0x%02x: %w", cmd, err)
	}
	return reply[0], nil
}

// update commands the current state and records the reply.
func (r *Register) update() {
	if r.err != nil {
		return
	}
	reply, err := r.exchange(cmdPins | r.state)
	if err != nil {
		r.err = err
		r.log.Error("pin update failed", "err", err)
		return
	}
	r.pins = reply & pinMask
}

// Get returns the pin state, refreshing it when any line is an input.
func (r *Register) Get() uint8 {
	if r.inputs != 0 {
		r.update()
	}
	return r.pins
}

// Set drives the output lines. Bits of input lines are ignored by the
// Bus Pirate. Bit 7 is not a pin and is dropped.
func (r *Register) Set(value uint8) {
	r.state = value & pinMask
	r.update()
}

// Power switches the on-board supplies and the pull-up resistors.
func (r *Register) Power(supply, pullups bool) {
	r.state &^= 1<<uint8(PinPower) | 1<<uint8(PinPullup)
	if supply {
		r.state |= 1 << uint8(PinPower)
	}
	if pullups {
		r.state |= 1 << uint8(PinPullup)
	}
	r.update()
}

// Err returns the first I/O failure.
func (r *Register) Err() error {
	return r.err
}

// Close returns the Bus Pirate to its user terminal and closes port.
func (r *Register) Close() error {
	var errs []error
	if err := r.terminal(); err != nil {
		errs = append(errs, err)
	}
	if err := r.port.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close serial port: %w", err))
	}
	return errors.Join(errs...)
}

func (r *Register) terminal() error {
	reply, err := r.exchange(cmdTerminal)
	if err != nil {
		return err
	}
	if reply != 0x01 {
		return fmt.Errorf("%w: got 0x%02x", ErrTerminal, reply)
	}
	return nil
}
