package dispatch

import "github.com/nikopaulanne/dsmr-custom/pkg/obis"

// Provenance tags where a binding came from. Custom bindings shadow
// standard ones for the same code.
type Provenance uint8

const (
	Standard Provenance = iota
	Custom
)

func (p Provenance) String() string {
	if p == Custom {
		return "custom"
	}
	return "standard"
}

// ValueSink is the consumer capability. The registry never inspects sink
// internals; a sink error is reported, counted, and the frame's remaining
// pairs keep flowing.
type ValueSink interface {
	Accept(code obis.Code, value obis.Value) error
}

// SinkFunc adapts a function to the ValueSink interface.
type SinkFunc func(code obis.Code, value obis.Value) error

func (f SinkFunc) Accept(code obis.Code, value obis.Value) error {
	return f(code, value)
}

// Binding associates a code with a sink identity. Created once at startup;
// immutable for the life of the process.
type Binding struct {
	Code       obis.Code
	Name       string
	Sink       ValueSink
	Provenance Provenance
}
