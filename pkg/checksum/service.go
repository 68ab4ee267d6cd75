package checksum

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sigurn/crc16"
)

// ErrCrcMismatch signals a telegram whose trailing checksum does not match
// its body. The frame is discarded without parsing.
var ErrCrcMismatch = errors.New("telegram CRC mismatch")

// CRC16/ARC matches the DSMR specification (poly 0xA001 reflected, init 0).
var table = crc16.MakeTable(crc16.CRC16_ARC)

// Validate checks the 4 hex digits after '!' against the CRC computed over
// everything from the opening '/' through '!' inclusive. When check is
// false the telegram passes through untouched.
func Validate(telegram []byte, check bool) error {
	if !check {
		return nil
	}
	bang := -1
	for i := len(telegram) - 1; i >= 0; i-- {
		if telegram[i] == '!' {
			bang = i
			break
		}
	}
	if bang < 0 {
		return fmt.Errorf("%w: missing '!' terminator", ErrCrcMismatch)
	}
	trailer := strings.TrimRight(string(telegram[bang+1:]), "\r\n")
	if len(trailer) < 4 {
		return fmt.Errorf("%w: truncated checksum %q", ErrCrcMismatch, trailer)
	}
	given := strings.ToUpper(trailer[:4])

	calc := crc16.Checksum(telegram[:bang+1], table)
	want := fmt.Sprintf("%04X", calc)
	if given != want {
		return fmt.Errorf("%w: got %s, want %s", ErrCrcMismatch, given, want)
	}
	return nil
}

// Compute returns the CRC over body (which must include the trailing '!').
// Used by telegram builders in tests and simulators.
func Compute(body []byte) uint16 {
	return crc16.Checksum(body, table)
}
