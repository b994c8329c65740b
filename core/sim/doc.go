// Package sim provides host-side stand-ins for port registers, tick
// sources and the peers found at the far end of a bit-banged bus.
//
// A [Register] keeps a history of every write so tests can replay the
// waveform on any pin. Peers such as [ShiftRegister] and [Peer] attach to
// a Register and react to clock and latch edges as the real parts would.
package sim
