package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// NoGPIO leaves a bit of a GPIOPort unconnected
const NoGPIO GPIOPin = ^GPIOPin(0)

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	// Returns error if pin is invalid or already in use
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// ConfigureInputPullDown configures a pin as a digital input with pull-down resistor
	ConfigureInputPullDown(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)

	// ReadPin reads the current pin state (alias for GetPin for convenience)
	ReadPin(pin GPIOPin) bool
}

// GPIOPort presents up to eight individually addressed GPIO pins as one
// byte-wide Register, for chips without a byte-addressable port.
// Bit i of the port maps to pins[i].
type GPIOPort struct {
	driver GPIODriver
	pins   [8]GPIOPin
	inputs uint8 // Bits configured as inputs
	shadow uint8 // Last value written to output bits
	err    error
}

var _ Register = (*GPIOPort)(nil)

// NewGPIOPort configures pins through driver. Bits set in inputs become
// pulled-down inputs; the rest become outputs driven low.
func NewGPIOPort(driver GPIODriver, pins [8]GPIOPin, inputs uint8) (*GPIOPort, error) {
	p := &GPIOPort{driver: driver, pins: pins, inputs: inputs}
	for i, pin := range pins {
		if pin == NoGPIO {
			continue
		}
		if inputs&(1<<i) != 0 {
			if err := driver.ConfigureInputPullDown(pin); err != nil {
				return nil, err
			}
			continue
		}
		if err := driver.ConfigureOutput(pin); err != nil {
			return nil, err
		}
		if err := driver.SetPin(pin, false); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Get returns the output shadow merged with the live input levels
func (p *GPIOPort) Get() uint8 {
	value := p.shadow
	for i, pin := range p.pins {
		if pin == NoGPIO || p.inputs&(1<<i) == 0 {
			continue
		}
		level, err := p.driver.GetPin(pin)
		if err != nil {
			p.fail(err)
			continue
		}
		if level {
			value |= 1 << i
		} else {
			value &^= 1 << i
		}
	}
	return value
}

// Set drives every output bit whose level differs from the shadow
func (p *GPIOPort) Set(value uint8) {
	changed := (p.shadow ^ value) &^ p.inputs
	for i, pin := range p.pins {
		if pin == NoGPIO || changed&(1<<i) == 0 {
			continue
		}
		if err := p.driver.SetPin(pin, value&(1<<i) != 0); err != nil {
			p.fail(err)
			continue
		}
		p.shadow ^= 1 << i
	}
}

// Err returns the first driver error seen by Get or Set
func (p *GPIOPort) Err() error {
	return p.err
}

func (p *GPIOPort) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
