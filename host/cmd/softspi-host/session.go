package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"softspi/core"
	"softspi/host/buspirate"
	"softspi/host/config"
	"softspi/host/logging"
	"softspi/host/serial"
)

// session is one open Bus Pirate with a bus bound to it
type session struct {
	cfg  *config.BusConfig
	reg  *buspirate.Register
	bus  *core.Bus
	ring core.EventRing
}

// loadConfig reads the config file, if any, and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.BusConfig, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device = device
	}
	if flags.Changed("baud") {
		cfg.Baud = baud
	}
	if flags.Changed("order") {
		cfg.BitOrder = order
	}
	if flags.Changed("delay") {
		cfg.DelayTicks = delayTicks
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log := logging.For(logging.ComponentCLI)
	log.Info("opening Bus Pirate", "device", cfg.Device, "baud", cfg.Baud)

	port, err := serial.Open(&serial.Config{
		Device:      cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, err
	}

	reg, err := buspirate.Open(port, cfg.Inputs())
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to enter bitbang mode on %s: %w", cfg.Device, err)
	}
	if cfg.Power || cfg.Pullups {
		reg.Power(cfg.Power, cfg.Pullups)
	}

	s := &session{cfg: cfg, reg: reg}
	s.bus = core.New(append(cfg.Options(), core.WithEventRing(&s.ring))...)
	if err := cfg.Bind(s.bus, reg); err != nil {
		reg.Close()
		return nil, fmt.Errorf("failed to bind pins: %w", err)
	}

	// Chip select idles high in select framing
	if cfg.Framing == config.FramingSelect {
		if err := s.bus.WriteChipSelect(true); err != nil {
			reg.Close()
			return nil, err
		}
	}
	return s, nil
}

// fail dumps the event ring when debugging and passes err through
func (s *session) fail(err error) error {
	if core.IsDebugEnabled() {
		s.ring.Dump(s.bus.Name())
	}
	return err
}

func (s *session) Close() error {
	return s.reg.Close()
}
