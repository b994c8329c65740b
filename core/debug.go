package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// BusEvent captures one bus operation for post-mortem analysis
type BusEvent struct {
	EventType uint8  // Event type code
	Value     uint8  // Byte shifted out, role, or select level
	Result    uint8  // Byte shifted in, pin, or status bits
	Seq       uint32 // Monotonic sequence number within the ring
}

// Event type codes
const (
	EvtBind       = 1 // Role bound (Value=role, Result=pin or 0xff for NoPin)
	EvtTransfer   = 2 // Byte transferred
	EvtTrigger    = 3 // Select pulsed
	EvtChipSelect = 4 // Select driven (Value=level)
	EvtRejected   = 5 // Operation or binding refused
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
// Bit timing shifts noticeably when a slow writer is active
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// EventRing is a fixed-size, non-allocating log of bus events.
// The zero value is ready to use.
type EventRing struct {
	events [EventRingSize]BusEvent
	head   uint8 // Next write position
	seq    uint32
}

// Record captures an event, overwriting the oldest when full
func (r *EventRing) Record(eventType, value, result uint8) {
	r.seq++
	r.events[r.head] = BusEvent{
		EventType: eventType,
		Value:     value,
		Result:    result,
		Seq:       r.seq,
	}
	r.head = (r.head + 1) % EventRingSize
}

// Events returns the recorded events from oldest to newest
func (r *EventRing) Events() []BusEvent {
	out := make([]BusEvent, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := r.events[(r.head+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Clear empties the ring
func (r *EventRing) Clear() {
	*r = EventRing{}
}

// eventName returns the dump label for an event type
func eventName(eventType uint8) string {
	switch eventType {
	case EvtBind:
		return "BIND"
	case EvtTransfer:
		return "TRANSFER"
	case EvtTrigger:
		return "TRIGGER"
	case EvtChipSelect:
		return "CHIP_SELECT"
	case EvtRejected:
		return "REJECTED!"
	default:
		return "UNKNOWN"
	}
}

// Dump writes the ring through the debug writer, ignoring debugEnabled.
// Call it on shutdown or after an error.
func (r *EventRing) Dump(label string) {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[SOFTSPI] === " + label + " event dump ===")
	for _, evt := range r.Events() {
		debugPrintln("[SOFTSPI] " + itoa(int(evt.Seq)) + " " + eventName(evt.EventType) +
			" v=" + hex8(evt.Value) +
			" r=" + hex8(evt.Result))
	}
	debugPrintln("[SOFTSPI] === End Dump ===")
}
