package obis

import "time"

// Code is a normalized OBIS identifier of the form A-B:C.D.E or A-B:C.D.E.F.
// Two codes are equal when their canonical strings are equal; Parse produces
// the canonical form.
type Code string

// Identification is the pseudo-code used for the telegram identification
// line (the "/XXX5..." header), which carries no OBIS code of its own.
const Identification Code = "identification"

type Kind uint8

const (
	KindNumeric Kind = iota
	KindText
	KindTimestamp
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	default:
		return "raw"
	}
}

// Value is the tagged union carried from the parser to the sinks.
// Exactly one representation is active, selected by Kind.
type Value struct {
	Kind Kind

	// Numeric: Scaled * 10^-Scale, so "000123.456" keeps its three
	// decimals as Scaled=123456, Scale=3. Unit is the suffix after '*',
	// forwarded as seen on the wire.
	Scaled int64
	Scale  int
	Unit   string

	// Text and Raw share the string slot.
	Text string

	// Timestamp: meter-local time plus the DST marker from the telegram.
	Time time.Time
	DST  bool
}

// Float collapses a numeric value to float64 for consumers that do not care
// about the preserved decimal exponent.
func (v Value) Float() float64 {
	f := float64(v.Scaled)
	for i := 0; i < v.Scale; i++ {
		f /= 10
	}
	return f
}

func NumericValue(scaled int64, scale int, unit string) Value {
	return Value{Kind: KindNumeric, Scaled: scaled, Scale: scale, Unit: unit}
}

func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

func TimestampValue(t time.Time, dst bool) Value {
	return Value{Kind: KindTimestamp, Time: t, DST: dst}
}

func RawValue(s string) Value {
	return Value{Kind: KindRaw, Text: s}
}
