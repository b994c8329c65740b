package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"softspi/core"
	"softspi/host/config"
)

var (
	sendCmd = &cobra.Command{
		Use:   "send <byte>...",
		Short: "Shift bytes out and print the bytes read back",
		Long:  "Shift each hex byte out in the configured bit order, then latch (latch framing) or release chip select (select framing).",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseBytes(args)
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			rx, err := sendFrame(s.bus, s.cfg.Framing, s.cfg.Order(), data)
			if err != nil {
				return s.fail(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatBytes(rx))
			return nil
		},
	}

	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Shift out a zero byte, driving data low for every cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := s.bus.Clear(); err != nil {
				return s.fail(err)
			}
			if s.cfg.Framing == config.FramingLatch {
				if err := s.bus.TriggerOutput(); err != nil {
					return s.fail(err)
				}
			}
			return nil
		},
	}

	latchCmd = &cobra.Command{
		Use:   "latch",
		Short: "Pulse the select/latch line once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.bus.TriggerOutput(); err != nil {
				return s.fail(err)
			}
			return nil
		},
	}

	loopbackCmd = &cobra.Command{
		Use:   "loopback",
		Short: "Check every byte value with MOSI jumpered to MISO",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.cfg.Pin(config.KeyDataIn).Valid() {
				return fmt.Errorf("loopback needs a data_in pin")
			}
			bad, err := loopback(s.bus, s.cfg.Order())
			if err != nil {
				return s.fail(err)
			}
			out := cmd.OutOrStdout()
			for _, m := range bad {
				fmt.Fprintf(out, "sent %s read %s\n", hexByte(m.sent), hexByte(m.got))
			}
			if len(bad) > 0 {
				return fmt.Errorf("loopback: %d of 256 values mismatched", len(bad))
			}
			fmt.Fprintln(out, "loopback: 256 of 256 values ok")
			return nil
		},
	}
)

// sendFrame shifts data out framed per the configured mode.
// Select framing holds chip select low for the whole frame; latch framing
// pulses select once after the last byte.
func sendFrame(bus *core.Bus, framing string, order core.BitOrder, data []byte) ([]byte, error) {
	if framing == config.FramingSelect {
		if err := bus.WriteChipSelect(false); err != nil {
			return nil, err
		}
	}

	rx := make([]byte, len(data))
	if err := bus.Conn(order).Tx(data, rx); err != nil {
		return nil, err
	}

	switch framing {
	case config.FramingSelect:
		if err := bus.WriteChipSelect(true); err != nil {
			return nil, err
		}
	case config.FramingLatch:
		if err := bus.TriggerOutput(); err != nil {
			return nil, err
		}
	}
	return rx, nil
}

type mismatch struct {
	sent, got byte
}

// loopback sends every byte value and collects those that came back wrong
func loopback(bus *core.Bus, order core.BitOrder) ([]mismatch, error) {
	var bad []mismatch
	for v := 0; v <= 0xFF; v++ {
		got, err := bus.Transfer(byte(v), order)
		if err != nil {
			return bad, err
		}
		if got != byte(v) {
			bad = append(bad, mismatch{sent: byte(v), got: got})
		}
	}
	return bad, nil
}

// parseBytes accepts hex bytes with or without a 0x prefix
func parseBytes(args []string) ([]byte, error) {
	data := make([]byte, 0, len(args))
	for _, arg := range args {
		s := strings.TrimPrefix(strings.ToLower(arg), "0x")
		v, err := strconv.ParseUint(s, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid byte %q: %w", arg, err)
		}
		data = append(data, byte(v))
	}
	return data, nil
}

func hexByte(b byte) string {
	return fmt.Sprintf("0x%02x", b)
}

func formatBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = hexByte(b)
	}
	return strings.Join(parts, " ")
}
