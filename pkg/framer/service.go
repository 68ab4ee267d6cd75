package framer

import (
	"fmt"
	"time"
)

func New(cfg Config) *Framer {
	if cfg.MaxTelegramLength <= 0 {
		cfg.MaxTelegramLength = 1500
	}
	return &Framer{cfg: cfg, buf: make([]byte, 0, cfg.MaxTelegramLength)}
}

// Reset discards any frame in progress. The framer resynchronizes by
// scanning for the next start marker.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
	f.headerFound = false
	f.footerFound = false
	f.expectedLen = 0
}

// InFrame reports whether a frame is being accumulated.
func (f *Framer) InFrame() bool {
	return f.headerFound
}

// CheckTimeout fails a frame in progress when no byte has arrived within
// the receive timeout. A zero timeout disables the check.
func (f *Framer) CheckTimeout(now time.Time) error {
	if !f.headerFound || f.cfg.ReceiveTimeout == 0 {
		return nil
	}
	if now.Sub(f.lastByte) > f.cfg.ReceiveTimeout {
		f.Reset()
		return ErrFrameTimeout
	}
	return nil
}

// Feed consumes one byte. It returns a completed frame, an error that
// aborted the frame in progress, or neither while accumulation continues.
func (f *Framer) Feed(b byte, now time.Time) (*RawFrame, error) {
	if f.cfg.Mode == ModeEncrypted {
		return f.feedEncrypted(b, now)
	}
	return f.feedPlaintext(b, now)
}

func (f *Framer) feedPlaintext(b byte, now time.Time) (*RawFrame, error) {
	if !f.headerFound {
		if b != '/' {
			return nil, nil
		}
		f.Reset()
		f.headerFound = true
		f.lastByte = now
		f.buf = append(f.buf, b)
		return nil, nil
	}
	f.lastByte = now

	if len(f.buf) >= f.cfg.MaxTelegramLength {
		f.Reset()
		return nil, ErrFrameTooLong
	}

	// Meters wrap long lines; CR/LF immediately before '(' belongs to the
	// wrapped line, not the telegram structure.
	if b == '(' {
		for n := len(f.buf); n > 0 && (f.buf[n-1] == '\r' || f.buf[n-1] == '\n'); n-- {
			f.buf = f.buf[:n-1]
		}
	}
	f.buf = append(f.buf, b)

	if b == '!' {
		f.footerFound = true
		return nil, nil
	}
	if f.footerFound && (b == '\n' || b == '\r') {
		frame := &RawFrame{Data: append([]byte(nil), f.buf...)}
		f.Reset()
		return frame, nil
	}
	return nil, nil
}

func (f *Framer) feedEncrypted(b byte, now time.Time) (*RawFrame, error) {
	if !f.headerFound {
		if b != f.cfg.Marker {
			return nil, nil
		}
		f.Reset()
		f.headerFound = true
	}
	f.lastByte = now

	if len(f.buf) >= f.cfg.MaxTelegramLength {
		f.Reset()
		return nil, ErrFrameTooLong
	}
	f.buf = append(f.buf, b)

	stl := f.cfg.SystemTitleLen
	lenOffset := 2 + stl + 1
	headerLen := stl + 10

	if f.expectedLen == 0 && len(f.buf) >= lenOffset+2 {
		if f.buf[1] != byte(stl) {
			b0, b1 := f.buf[0], f.buf[1]
			f.Reset()
			return nil, fmt.Errorf("%w: %02X%02X", ErrInvalidHeader, b0, b1)
		}
		payloadLen := int(f.buf[lenOffset])<<8 | int(f.buf[lenOffset+1])
		if payloadLen == 0 {
			f.Reset()
			return nil, fmt.Errorf("%w: zero payload length", ErrInvalidHeader)
		}
		f.expectedLen = headerLen + payloadLen + f.cfg.TagLen
		if f.expectedLen > f.cfg.MaxTelegramLength {
			f.Reset()
			return nil, ErrFrameTooLong
		}
	}

	if f.expectedLen == 0 || len(f.buf) < f.expectedLen {
		return nil, nil
	}
	frame := &RawFrame{Data: append([]byte(nil), f.buf...), Encrypted: true}
	f.Reset()
	return frame, nil
}
