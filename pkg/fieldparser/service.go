// Package fieldparser walks a plaintext telegram line by line and produces
// the (OBIS code, value) pairs it recognizes. It always recognizes the full
// grammar; deciding which codes have a consumer is the dispatch registry's
// job, not the parser's.
package fieldparser

import (
	"strings"

	"github.com/nikopaulanne/dsmr-custom/pkg/fields"
	"github.com/nikopaulanne/dsmr-custom/pkg/obis"
)

type Pair struct {
	Code  obis.Code
	Value obis.Value
}

// Scanner yields pairs lazily, in frame order. It is one-shot: once Next
// returns false the scanner is exhausted.
type Scanner struct {
	lines   []string
	lineIdx int
	pending []Pair

	units fields.Index

	malformed       int
	unexpectedUnits int
}

// Scan prepares a scanner over a plaintext telegram. The unit index may be
// nil, in which case no unit expectations are checked.
func Scan(telegram []byte, units fields.Index) *Scanner {
	body := string(telegram)
	if bang := strings.IndexByte(body, '!'); bang >= 0 {
		body = body[:bang]
	}
	s := &Scanner{units: units}
	for _, line := range strings.FieldsFunc(body, func(r rune) bool { return r == '\r' || r == '\n' }) {
		if line != "" {
			s.lines = append(s.lines, line)
		}
	}
	return s
}

// Next returns the next recognized pair. Unrecognized lines are skipped
// silently (meter firmware adds lines over time); malformed ones are skipped
// and counted.
func (s *Scanner) Next() (Pair, bool) {
	for {
		if len(s.pending) > 0 {
			p := s.pending[0]
			s.pending = s.pending[1:]
			return p, true
		}
		if s.lineIdx >= len(s.lines) {
			return Pair{}, false
		}
		line := s.lines[s.lineIdx]
		s.lineIdx++
		s.scanLine(line)
	}
}

// Malformed reports how many lines failed the grammar and were skipped.
func (s *Scanner) Malformed() int {
	return s.malformed
}

// UnexpectedUnits reports how many numeric values carried a unit other than
// the expected one for their code. The values are forwarded regardless.
func (s *Scanner) UnexpectedUnits() int {
	return s.unexpectedUnits
}

func (s *Scanner) scanLine(line string) {
	// The identification line carries the meter model, no OBIS code.
	if line[0] == '/' {
		s.pending = append(s.pending, Pair{Code: obis.Identification, Value: obis.RawValue(strings.TrimPrefix(line, "/"))})
		return
	}

	open := strings.IndexByte(line, '(')
	if open <= 0 || !strings.HasSuffix(line, ")") {
		s.malformed++
		return
	}
	code, err := obis.Parse(line[:open])
	if err != nil {
		s.malformed++
		return
	}

	// Multi-value lines (timestamped M-Bus readings, logged events) emit
	// one pair per parenthesized group, in line order.
	rest := line[open:]
	var pairs []Pair
	for len(rest) > 0 {
		if rest[0] != '(' {
			s.malformed++
			return
		}
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			s.malformed++
			return
		}
		pairs = append(pairs, Pair{Code: code, Value: s.parseGroup(code, rest[1:end])})
		rest = rest[end+1:]
	}
	s.pending = append(s.pending, pairs...)
}

func (s *Scanner) parseGroup(code obis.Code, group string) obis.Value {
	if t, dst, err := obis.ParseTimestamp(group); err == nil {
		return obis.TimestampValue(t, dst)
	}
	if scaled, scale, unit, ok := parseNumeric(group); ok {
		if unit != "" && s.units != nil {
			if want, alt, known := s.units.ExpectedUnit(code); known && want != "" && unit != want && unit != alt {
				s.unexpectedUnits++
			}
		}
		return obis.NumericValue(scaled, scale, unit)
	}
	return obis.TextValue(group)
}

// parseNumeric matches value[*unit] with a plain decimal value. The decimal
// exponent implied by the text is preserved, never rounded away.
func parseNumeric(group string) (scaled int64, scale int, unit string, ok bool) {
	num := group
	if star := strings.IndexByte(group, '*'); star >= 0 {
		num, unit = group[:star], group[star+1:]
		if unit == "" {
			return 0, 0, "", false
		}
	}
	if num == "" {
		return 0, 0, "", false
	}
	seenDot := false
	digits := 0
	for _, c := range num {
		switch {
		case c >= '0' && c <= '9':
			// 18 digits is the most int64 holds without wrapping.
			digits++
			if digits > 18 {
				return 0, 0, "", false
			}
			scaled = scaled*10 + int64(c-'0')
			if seenDot {
				scale++
			}
		case c == '.' && !seenDot:
			seenDot = true
		default:
			return 0, 0, "", false
		}
	}
	if num == "." {
		return 0, 0, "", false
	}
	return scaled, scale, unit, true
}
