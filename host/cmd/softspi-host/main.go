// Command softspi-host drives a bit-banged SPI bus through a Bus Pirate in
// binary bitbang mode. It shifts bytes out, latches shift registers,
// frames chip-select transactions and runs a MOSI->MISO loopback check.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"softspi/core"
	"softspi/host/logging"
)

var (
	configPath string
	device     string
	baud       int
	order      string
	delayTicks int
	verbose    bool
	jsonLogs   bool

	rootCmd = &cobra.Command{
		Use:           "softspi-host",
		Short:         "Bit-banged SPI over a Bus Pirate",
		Long:          "Drive clock, data and select lines of a Bus Pirate in bitbang mode to talk to SPI parts and shift registers.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if jsonLogs {
				logging.SetOutput(os.Stderr, true)
			}
			if verbose {
				logging.SetLevel(slog.LevelDebug)
				core.SetDebugWriter(logging.CoreWriter(logging.ComponentBus))
				core.SetDebugEnabled(true)
			}
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "JSON bus configuration file")
	flags.StringVarP(&device, "device", "d", "", "Serial device path (overrides config)")
	flags.IntVarP(&baud, "baud", "b", 0, "Baud rate (overrides config)")
	flags.StringVarP(&order, "order", "o", "", "Bit order: msb or lsb (overrides config)")
	flags.IntVar(&delayTicks, "delay", 0, "Delay ticks between clock edges (overrides config)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&jsonLogs, "json-logs", false, "Log as JSON")

	rootCmd.AddCommand(sendCmd, clearCmd, latchCmd, loopbackCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
