//go:build rp2040

// Firmware that drives SPI peripherals from Pico GPIOs through a
// bit-banged bus: a counter on a 74HC595 or, in display mode, a MAX7219
// through the tinygo drivers package. Any bus error dumps the event ring
// to UART0.
package main

import (
	"time"

	"softspi/core"
)

// Port bit assignments. The GPIOPort maps each bit to a machine pin.
const (
	bitData  core.Pin = 0 // SER
	bitLatch core.Pin = 1 // RCLK
	bitClock core.Pin = 2 // SRCLK
	bitMISO  core.Pin = 3 // QH' of the last register in the chain
)

var portPins = [8]core.GPIOPin{
	bitData:  3,
	bitLatch: 5,
	bitClock: 2,
	bitMISO:  4,
	4:        core.NoGPIO,
	5:        core.NoGPIO,
	6:        core.NoGPIO,
	7:        core.NoGPIO,
}

var events core.EventRing

func main() {
	InitDebugUART()

	if GetMode().Display {
		runDisplay()
	}

	port, err := core.NewGPIOPort(NewRPGPIODriver(), portPins, 1<<uint8(bitMISO))
	if err != nil {
		core.DebugPrintln("[SOFTSPI] gpio setup failed: " + err.Error())
		halt()
	}

	bus := core.New(
		core.WithName("hc595"),
		core.WithDelay(4),
		core.WithEventRing(&events),
	)
	if err := bus.Init(port, bitData, bitMISO, bitClock, bitLatch); err != nil {
		core.DebugPrintln("[SOFTSPI] bind failed: " + err.Error())
		halt()
	}

	var count uint8
	for {
		if err := show(bus, count); err != nil {
			fail(err)
		}
		count++
		time.Sleep(250 * time.Millisecond)
	}
}

// show shifts value into the register and latches it onto the outputs
func show(bus *core.Bus, value uint8) error {
	return bus.Critical(func() error {
		if _, err := bus.Transfer(value, core.MSBFirst); err != nil {
			return err
		}
		return bus.TriggerOutput()
	})
}

func fail(err error) {
	core.DebugPrintln("[SOFTSPI] " + err.Error())
	events.Dump("bus")
	halt()
}

func halt() {
	for {
		time.Sleep(time.Second)
	}
}
