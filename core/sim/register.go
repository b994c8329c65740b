package sim

import (
	"golang.org/x/exp/slices"

	"softspi/core"
)

// link routes a source bit onto a destination bit when read.
type link struct {
	src  *Register
	from core.Pin
	to   core.Pin
}

// Register is a simulated byte-wide port.
type Register struct {
	value    uint8
	writes   []uint8
	links    []link
	driven   uint8 // Bits driven by a peer
	levels   uint8 // Levels of driven bits
	watchers []func(prev, next uint8)
}

var _ core.Register = (*Register)(nil)

// NewRegister returns a register holding initial.
func NewRegister(initial uint8) *Register {
	return &Register{value: initial}
}

// Get returns the stored value with wired and peer-driven bits applied.
func (r *Register) Get() uint8 {
	v := r.value
	for _, l := range r.links {
		if l.src.value&(1<<uint8(l.from)) != 0 {
			v |= 1 << uint8(l.to)
		} else {
			v &^= 1 << uint8(l.to)
		}
	}
	return v&^r.driven | r.levels&r.driven
}

// Set stores value, appends it to the history and notifies watchers.
func (r *Register) Set(value uint8) {
	prev := r.value
	r.value = value
	r.writes = append(r.writes, value)
	for _, w := range r.watchers {
		w(prev, value)
	}
}

// Writes returns every value passed to Set, oldest first.
func (r *Register) Writes() []uint8 {
	return slices.Clone(r.writes)
}

// Level returns the current level of pin as Get would report it.
func (r *Register) Level(pin core.Pin) bool {
	return r.Get()&(1<<uint8(pin)) != 0
}

// History returns the level of pin after each write.
func (r *Register) History(pin core.Pin) []bool {
	out := make([]bool, len(r.writes))
	for i, w := range r.writes {
		out[i] = w&(1<<uint8(pin)) != 0
	}
	return out
}

// Edges counts the rising edges of pin across the write history,
// starting from the value the register held before the first write.
func (r *Register) Edges(pin core.Pin, initial uint8) int {
	n := 0
	prev := initial&(1<<uint8(pin)) != 0
	for _, level := range r.History(pin) {
		if level && !prev {
			n++
		}
		prev = level
	}
	return n
}

// Sampled returns the level of data at each rising edge of clock, where
// both pins live on this register.
func (r *Register) Sampled(clock, data core.Pin) []bool {
	var out []bool
	prevClock := false
	for _, w := range r.writes {
		level := w&(1<<uint8(clock)) != 0
		if level && !prevClock {
			out = append(out, w&(1<<uint8(data)) != 0)
		}
		prevClock = level
	}
	return out
}

// Connect wires output bit from onto input bit to of the same register,
// the host-side equivalent of a jumper between MOSI and MISO.
func (r *Register) Connect(from, to core.Pin) {
	r.Wire(r, from, to)
}

// Wire makes bit to of r follow bit from of src.
func (r *Register) Wire(src *Register, from, to core.Pin) {
	r.links = append(r.links, link{src: src, from: from, to: to})
}

// Drive forces pin to level as a peer output would, overriding stored
// and wired values until Release.
func (r *Register) Drive(pin core.Pin, level bool) {
	mask := uint8(1) << uint8(pin)
	r.driven |= mask
	if level {
		r.levels |= mask
	} else {
		r.levels &^= mask
	}
}

// Release stops driving pin.
func (r *Register) Release(pin core.Pin) {
	mask := uint8(1) << uint8(pin)
	r.driven &^= mask
	r.levels &^= mask
}

// Watch registers fn to run after every Set with the old and new value.
func (r *Register) Watch(fn func(prev, next uint8)) {
	r.watchers = append(r.watchers, fn)
}

// ResetHistory forgets recorded writes but keeps the current value.
func (r *Register) ResetHistory() {
	r.writes = r.writes[:0]
}

// rising reports whether pin went low to high between prev and next.
func rising(prev, next uint8, pin core.Pin) bool {
	mask := uint8(1) << uint8(pin)
	return prev&mask == 0 && next&mask != 0
}

// falling reports whether pin went high to low between prev and next.
func falling(prev, next uint8, pin core.Pin) bool {
	mask := uint8(1) << uint8(pin)
	return prev&mask != 0 && next&mask == 0
}
