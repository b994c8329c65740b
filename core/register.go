package core

// Pin is a bit index within a byte-wide port register.
// Valid indices are 0-7; NoPin marks an absent data line.
type Pin int8

// NoPin declares a role absent (write-only or read-only bus).
const NoPin Pin = -1

// Valid reports whether p addresses a bit of a byte-wide port.
func (p Pin) Valid() bool {
	return p >= 0 && p <= 7
}

// mask returns the single-bit mask for p. p must be valid.
func (p Pin) mask() uint8 {
	return 1 << uint8(p)
}

// Register is a byte-wide port register the driver can read and write.
// It stands in for a memory-mapped GPIO port; implementations may be a
// real peripheral, a group of GPIO pins, a serial-attached expander or
// a simulated register in tests.
type Register interface {
	// Get returns the current port value
	Get() uint8

	// Set writes the whole port value
	Set(value uint8)
}

// ErrorReporter is implemented by registers whose backing I/O can fail.
// Err returns the first failure seen, or nil.
type ErrorReporter interface {
	Err() error
}

// SetBit raises bit pin of port with a single read-modify-write.
func SetBit(port Register, pin Pin) {
	port.Set(port.Get() | pin.mask())
}

// ClearBit lowers bit pin of port with a single read-modify-write.
func ClearBit(port Register, pin Pin) {
	port.Set(port.Get() &^ pin.mask())
}

// ReadBit returns the level of bit pin of port.
func ReadBit(port Register, pin Pin) bool {
	return (port.Get()>>uint8(pin))&1 == 1
}

// WriteBit drives bit pin of port to level.
func WriteBit(port Register, pin Pin, level bool) {
	if level {
		SetBit(port, pin)
	} else {
		ClearBit(port, pin)
	}
}
