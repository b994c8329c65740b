//go:build rp2040

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/max72xx"

	"softspi/core"
)

// MAX7219 registers
const (
	regDigit0    = 0x01
	regDecode    = 0x09
	regIntensity = 0x0A
	regScanLimit = 0x0B
	regShutdown  = 0x0C
	regTest      = 0x0F
)

// displayCS is driven by the max72xx driver, not the bus
const displayCS = machine.GPIO5

var displayPins = [8]core.GPIOPin{
	bitData:  3,
	bitLatch: core.NoGPIO,
	bitClock: 2,
	bitMISO:  core.NoGPIO,
	4:        core.NoGPIO,
	5:        core.NoGPIO,
	6:        core.NoGPIO,
	7:        core.NoGPIO,
}

// runDisplay counts 0-99999999 on an eight digit MAX7219 module
func runDisplay() {
	port, err := core.NewGPIOPort(NewRPGPIODriver(), displayPins, 0)
	if err != nil {
		core.DebugPrintln("[SOFTSPI] gpio setup failed: " + err.Error())
		halt()
	}

	// Write-only bus without select: the ready check would refuse it
	bus := core.New(
		core.WithName("max7219"),
		core.WithoutReadyCheck(),
		core.WithEventRing(&events),
	)
	for _, err := range []error{
		bus.Bind(core.RoleDataOut, port, bitData),
		bus.Bind(core.RoleClock, port, bitClock),
	} {
		if err != nil {
			core.DebugPrintln("[SOFTSPI] bind failed: " + err.Error())
			halt()
		}
	}

	display := max72xx.NewDevice(bus.Conn(core.MSBFirst), displayCS)
	display.Configure()
	display.WriteCommand(regTest, 0)
	display.WriteCommand(regScanLimit, 7)
	display.WriteCommand(regDecode, 0xFF) // Code B on every digit
	display.WriteCommand(regIntensity, 4)
	display.WriteCommand(regShutdown, 1)

	var count uint32
	for {
		v := count
		for digit := byte(0); digit < 8; digit++ {
			display.WriteCommand(regDigit0+digit, byte(v%10))
			v /= 10
		}
		if err := port.Err(); err != nil {
			fail(err)
		}
		count = (count + 1) % 100000000
		time.Sleep(100 * time.Millisecond)
	}
}
