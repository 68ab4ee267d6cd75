package framer

import (
	"errors"
	"time"
)

var (
	// ErrFrameTooLong is returned when max_telegram_length bytes accumulate
	// without a terminator. The partial buffer is discarded.
	ErrFrameTooLong = errors.New("telegram exceeds maximum length")
	// ErrFrameTimeout is returned by CheckTimeout when a frame in progress
	// stalls past the receive timeout.
	ErrFrameTimeout = errors.New("timeout while receiving telegram")
	// ErrInvalidHeader is returned when an encrypted frame header does not
	// match the configured profile.
	ErrInvalidHeader = errors.New("invalid encrypted frame header")
)

type Mode uint8

const (
	// ModePlaintext frames '/'-delimited telegrams terminated by '!' + CRC.
	ModePlaintext Mode = iota
	// ModeEncrypted frames marker-delimited telegrams whose length is
	// declared in the frame header.
	ModeEncrypted
)

type Config struct {
	Mode              Mode
	MaxTelegramLength int
	ReceiveTimeout    time.Duration

	// Encrypted mode wire profile.
	Marker         byte
	SystemTitleLen int
	TagLen         int
}

// RawFrame is one complete telegram as read off the wire. Data is owned by
// the receiver of the frame; the framer's internal buffer is reset on emit.
type RawFrame struct {
	Data      []byte
	Encrypted bool
}

// Framer accumulates a byte stream into telegram frames. It holds only
// buffer state; all timing is driven by the caller through the now argument.
type Framer struct {
	cfg Config

	buf         []byte
	headerFound bool
	footerFound bool
	expectedLen int
	lastByte    time.Time
}
