package dispatch

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/nikopaulanne/dsmr-custom/pkg/obis"
)

// Registry routes parsed values to bound sinks. The binding table is
// populated before acquisition starts and sealed; dispatch then runs
// lock-free on the read-only table.
type Registry struct {
	bindings map[obis.Code][]Binding
	sealed   bool

	rejected atomic.Uint64
}

func NewRegistry() *Registry {
	return &Registry{bindings: make(map[obis.Code][]Binding)}
}

// Bind registers a sink for a code. Codes are normalized, so any spelling of
// the same code lands on the same entry. Binding after Seal is a programming
// error.
func (r *Registry) Bind(code string, name string, sink ValueSink, prov Provenance) error {
	if r.sealed {
		return fmt.Errorf("registry is sealed, cannot bind %q", code)
	}
	if sink == nil {
		return fmt.Errorf("binding %q (%s): nil sink", code, name)
	}
	normalized, err := obis.Parse(code)
	if err != nil {
		if code == string(obis.Identification) {
			normalized = obis.Identification
		} else {
			return fmt.Errorf("binding %q (%s): %w", code, name, err)
		}
	}
	r.bindings[normalized] = append(r.bindings[normalized], Binding{
		Code:       normalized,
		Name:       name,
		Sink:       sink,
		Provenance: prov,
	})
	return nil
}

// Seal freezes the binding table. Must be called before the first Dispatch.
func (r *Registry) Seal() {
	r.sealed = true
}

// Bindings returns the bindings for a code in registration order.
func (r *Registry) Bindings(code obis.Code) []Binding {
	return r.bindings[code]
}

// Dispatch delivers value to the sinks bound to code and returns how many
// deliveries happened. A custom binding suppresses every standard binding
// for the same code; an unbound code is dropped silently, since not every
// code the meter emits has a consumer.
func (r *Registry) Dispatch(code obis.Code, value obis.Value) int {
	bound := r.bindings[code]
	if len(bound) == 0 {
		return 0
	}

	hasCustom := false
	for _, b := range bound {
		if b.Provenance == Custom {
			hasCustom = true
			break
		}
	}

	delivered := 0
	for _, b := range bound {
		if hasCustom && b.Provenance != Custom {
			continue
		}
		if err := b.Sink.Accept(code, value); err != nil {
			r.rejected.Add(1)
			log.Printf("Sink %s rejected %s: %v", b.Name, code, err)
			continue
		}
		delivered++
	}
	return delivered
}

// Rejected reports how many deliveries sinks have refused since startup.
func (r *Registry) Rejected() uint64 {
	return r.rejected.Load()
}
