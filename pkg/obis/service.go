package obis

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Parse normalizes a textual OBIS code to its canonical form.
// Embedded whitespace is dropped, each group must be a non-negative integer
// no larger than 255, and the separators must appear as A-B:C.D.E with an
// optional trailing .F group.
func Parse(s string) (Code, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if clean == "" {
		return "", fmt.Errorf("empty OBIS code")
	}

	var groups [6]int
	part := 0
	digits := 0
	for _, c := range clean {
		switch {
		case c >= '0' && c <= '9':
			groups[part] = groups[part]*10 + int(c-'0')
			if groups[part] > 255 {
				return "", fmt.Errorf("OBIS code %q: group %d exceeds 255", s, part)
			}
			digits++
		case part == 0 && c == '-', part == 1 && c == ':', part >= 2 && part < 5 && c == '.':
			if digits == 0 {
				return "", fmt.Errorf("OBIS code %q: empty group %d", s, part)
			}
			part++
			digits = 0
		default:
			return "", fmt.Errorf("OBIS code %q: unexpected character %q", s, c)
		}
	}
	if part < 4 || digits == 0 {
		return "", fmt.Errorf("OBIS code %q: incomplete", s)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d-%d:%d.%d.%d", groups[0], groups[1], groups[2], groups[3], groups[4])
	if part == 5 {
		fmt.Fprintf(&b, ".%d", groups[5])
	}
	return Code(b.String()), nil
}

// MustParse is Parse for codes known valid at compile time.
func MustParse(s string) Code {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FromGroups builds a canonical five-group code. Used by the standard field
// table where the channel (B group) is configuration-dependent.
func FromGroups(a, b, c, d, e int) Code {
	return Code(fmt.Sprintf("%d-%d:%d.%d.%d", a, b, c, d, e))
}

const timestampLayout = "060102150405"

// ParseTimestamp parses the DSMR timestamp grammar: twelve digits
// YYMMDDhhmmss followed by the DST marker, W (winter) or S (summer).
func ParseTimestamp(s string) (time.Time, bool, error) {
	if len(s) != 13 {
		return time.Time{}, false, fmt.Errorf("timestamp %q: want 13 characters, got %d", s, len(s))
	}
	dstMark := s[12]
	if dstMark != 'W' && dstMark != 'S' {
		return time.Time{}, false, fmt.Errorf("timestamp %q: bad DST marker %q", s, dstMark)
	}
	if _, err := strconv.Atoi(s[:12]); err != nil {
		return time.Time{}, false, fmt.Errorf("timestamp %q: non-numeric", s)
	}
	t, err := time.Parse(timestampLayout, s[:12])
	if err != nil {
		return time.Time{}, false, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return t, dstMark == 'S', nil
}

// IsTimestamp reports whether s matches the timestamp grammar without
// producing the parsed value.
func IsTimestamp(s string) bool {
	_, _, err := ParseTimestamp(s)
	return err == nil
}
