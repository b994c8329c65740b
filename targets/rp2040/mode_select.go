//go:build rp2040

package main

// ModeConfig determines which demo the firmware runs
type ModeConfig struct {
	// Set to true to drive a MAX7219 digit display through the
	// tinygo drivers adapter
	// Set to false to count on a 74HC595
	Display bool
}

// GetMode returns the current mode configuration
func GetMode() ModeConfig {
	return ModeConfig{
		Display: false,
	}
}
