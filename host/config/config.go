// Package config loads the host-side bus configuration: which serial
// device to open, which bitbang lines carry each SPI role and how the bus
// is clocked.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"softspi/core"
	"softspi/host/buspirate"
)

// Role keys used in the "pins" object.
const (
	KeyClock   = "clock"
	KeySelect  = "select"
	KeyDataOut = "data_out"
	KeyDataIn  = "data_in"
)

// Framing modes
const (
	FramingLatch  = "latch"  // Pulse select after each write (shift registers)
	FramingSelect = "select" // Hold select low around the whole write (SPI chip select)
)

// ErrInvalidConfig indicates a value that cannot be turned into a bus.
var ErrInvalidConfig = errors.New("invalid bus configuration")

// BusConfig describes one bit-banged bus driven from the host
type BusConfig struct {
	Device      string         `json:"device"`
	Baud        int            `json:"baud"`
	ReadTimeout int            `json:"read_timeout_ms"`
	Pins        map[string]int `json:"pins"`
	DelayTicks  int            `json:"delay_ticks"`
	TickMicros  int            `json:"tick_us"`
	BitOrder    string         `json:"bit_order"`
	Sample      string         `json:"sample"`
	Framing     string         `json:"framing"`
	Power       bool           `json:"power"`
	Pullups     bool           `json:"pullups"`
}

// LoadConfig parses a JSON configuration and applies defaults
func LoadConfig(jsonData []byte) (*BusConfig, error) {
	var config BusConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadFile reads and parses a JSON configuration file
func LoadFile(path string) (*BusConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfig returns the standard Bus Pirate SPI wiring
func DefaultConfig() *BusConfig {
	config := &BusConfig{}
	applyDefaults(config)
	return config
}

// defaultPins maps roles onto the Bus Pirate's labelled SPI lines
var defaultPins = map[string]int{
	KeyClock:   int(buspirate.PinCLK),
	KeySelect:  int(buspirate.PinCS),
	KeyDataOut: int(buspirate.PinMOSI),
	KeyDataIn:  int(buspirate.PinMISO),
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *BusConfig) {
	if config.Device == "" {
		config.Device = "/dev/ttyUSB0"
	}
	if config.Baud == 0 {
		config.Baud = 115200
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 200 // 200ms
	}
	if config.DelayTicks == 0 {
		config.DelayTicks = core.MinDelayTicks
	}
	if config.TickMicros == 0 {
		config.TickMicros = 10
	}
	if config.BitOrder == "" {
		config.BitOrder = "msb"
	}
	if config.Sample == "" {
		config.Sample = "before"
	}
	if config.Framing == "" {
		config.Framing = FramingLatch
	}

	if config.Pins == nil {
		config.Pins = make(map[string]int, len(defaultPins))
	}
	for role, pin := range defaultPins {
		if _, ok := config.Pins[role]; !ok {
			config.Pins[role] = pin
		}
	}
}

// Validate checks every field that feeds the bus
func (c *BusConfig) Validate() error {
	for role, pin := range c.Pins {
		switch role {
		case KeyClock, KeySelect:
			if pin < 0 || pin > 7 {
				return fmt.Errorf("%w: %s pin %d", ErrInvalidConfig, role, pin)
			}
		case KeyDataOut, KeyDataIn:
			if pin < int(core.NoPin) || pin > 7 {
				return fmt.Errorf("%w: %s pin %d", ErrInvalidConfig, role, pin)
			}
		default:
			return fmt.Errorf("%w: unknown role %q", ErrInvalidConfig, role)
		}
	}
	if c.DelayTicks < 0 {
		return fmt.Errorf("%w: delay_ticks %d", ErrInvalidConfig, c.DelayTicks)
	}
	if c.TickMicros < 0 {
		return fmt.Errorf("%w: tick_us %d", ErrInvalidConfig, c.TickMicros)
	}
	if _, err := ParseBitOrder(c.BitOrder); err != nil {
		return err
	}
	if _, err := ParseSampleEdge(c.Sample); err != nil {
		return err
	}
	if c.Framing != FramingLatch && c.Framing != FramingSelect {
		return fmt.Errorf("%w: framing %q", ErrInvalidConfig, c.Framing)
	}
	return nil
}

// ParseBitOrder accepts "msb"/"lsb" and the long forms printed by core
func ParseBitOrder(s string) (core.BitOrder, error) {
	switch s {
	case "msb", "msb-first":
		return core.MSBFirst, nil
	case "lsb", "lsb-first":
		return core.LSBFirst, nil
	default:
		return 0, fmt.Errorf("%w: bit order %q", ErrInvalidConfig, s)
	}
}

// ParseSampleEdge accepts "before" or "after"
func ParseSampleEdge(s string) (core.SampleEdge, error) {
	switch s {
	case "before":
		return core.SampleBeforeClock, nil
	case "after":
		return core.SampleAfterClock, nil
	default:
		return 0, fmt.Errorf("%w: sample %q", ErrInvalidConfig, s)
	}
}

// Pin returns the configured pin for key, NoPin when absent
func (c *BusConfig) Pin(key string) core.Pin {
	pin, ok := c.Pins[key]
	if !ok {
		return core.NoPin
	}
	return core.Pin(pin)
}

// Inputs returns the Bus Pirate direction mask for this wiring
func (c *BusConfig) Inputs() uint8 {
	pin := c.Pin(KeyDataIn)
	if !pin.Valid() {
		return 0
	}
	return 1 << uint8(pin)
}

// Order returns the parsed bit order; the config must be valid
func (c *BusConfig) Order() core.BitOrder {
	order, _ := ParseBitOrder(c.BitOrder)
	return order
}

// Options returns the core options this configuration implies
func (c *BusConfig) Options() []core.Option {
	edge, _ := ParseSampleEdge(c.Sample)
	return []core.Option{
		core.WithName(c.Device),
		core.WithDelay(c.DelayTicks),
		core.WithTickSource(core.SleepTicks{Unit: time.Duration(c.TickMicros) * time.Microsecond}),
		core.WithSampleEdge(edge),
	}
}

// Bind applies the pin mapping to bus over port
func (c *BusConfig) Bind(bus *core.Bus, port core.Register) error {
	return bus.Init(port,
		c.Pin(KeyDataOut),
		c.Pin(KeyDataIn),
		c.Pin(KeyClock),
		c.Pin(KeySelect))
}
