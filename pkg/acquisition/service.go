// Package acquisition drives the telegram pipeline: it owns the
// request/receive timing, feeds serial bytes through the framer, and pushes
// each completed frame through decryption, CRC validation, parsing and
// dispatch. The driver is a cooperative state machine: Tick runs one
// iteration and never blocks, which keeps it suitable for a single loop
// shared with other work.
package acquisition

import (
	"errors"
	"log"
	"time"

	"github.com/nikopaulanne/dsmr-custom/pkg/checksum"
	"github.com/nikopaulanne/dsmr-custom/pkg/decryptor"
	"github.com/nikopaulanne/dsmr-custom/pkg/dispatch"
	"github.com/nikopaulanne/dsmr-custom/pkg/fieldparser"
	"github.com/nikopaulanne/dsmr-custom/pkg/fields"
	"github.com/nikopaulanne/dsmr-custom/pkg/framer"
)

type Driver struct {
	cfg      Config
	source   ByteSource
	pin      RequestPin
	framer   *framer.Framer
	dec      *decryptor.Decryptor
	units    fields.Index
	registry *dispatch.Registry
	now      func() time.Time

	state        State
	lastRequest  time.Time
	requestStart time.Time
	counters     counters
}

// NewDriver wires the pipeline. pin may be nil; now defaults to time.Now.
func NewDriver(
	cfg Config,
	source ByteSource,
	pin RequestPin,
	f *framer.Framer,
	dec *decryptor.Decryptor,
	units fields.Index,
	registry *dispatch.Registry,
) *Driver {
	return &Driver{
		cfg:      cfg,
		source:   source,
		pin:      pin,
		framer:   f,
		dec:      dec,
		units:    units,
		registry: registry,
		now:      time.Now,
	}
}

// SetClock replaces the wall clock. Tests drive the state machine with a
// fake clock.
func (d *Driver) SetClock(now func() time.Time) {
	d.now = now
}

func (d *Driver) State() State {
	return d.state
}

// Counters returns a snapshot of the error and throughput counters. Safe to
// call from another goroutine (the HTTP stats handler does).
func (d *Driver) Counters() Counters {
	return d.counters.snapshot()
}

// Tick runs one cooperative iteration: possibly starts a request window,
// drains whatever bytes have arrived, and completes a full
// decode-and-dispatch synchronously when a frame closes.
func (d *Driver) Tick() {
	now := d.now()

	if d.state == StateIdle {
		if !d.intervalReached(now) {
			// Bytes arriving while gated belong to a telegram we chose
			// to skip; discard them so the next window starts clean.
			for {
				if _, ok := d.source.ReadByte(); !ok {
					break
				}
			}
			return
		}
		d.startRequesting(now)
	}

	// Drain the bytes that arrived since the last tick.
	for {
		b, ok := d.source.ReadByte()
		if !ok {
			break
		}
		frame, err := d.framer.Feed(b, now)
		if err != nil {
			d.countFrameError(err)
			d.abortCycle()
			return
		}
		if frame != nil {
			d.decode(frame)
			return
		}
	}

	// Cooperative deadline checks: mid-frame stall, or no header at all
	// within the receive timeout.
	if err := d.framer.CheckTimeout(now); err != nil {
		d.countFrameError(err)
		d.abortCycle()
		return
	}
	if !d.framer.InFrame() && d.cfg.ReceiveTimeout > 0 &&
		now.Sub(d.requestStart) > d.cfg.ReceiveTimeout {
		log.Printf("Timeout waiting for telegram header (%v)", d.cfg.ReceiveTimeout)
		d.counters.frameTimeouts.Add(1)
		d.abortCycle()
	}
}

func (d *Driver) intervalReached(now time.Time) bool {
	if d.cfg.RequestInterval == 0 || d.lastRequest.IsZero() {
		return true
	}
	return now.Sub(d.lastRequest) >= d.cfg.RequestInterval
}

func (d *Driver) startRequesting(now time.Time) {
	d.state = StateRequesting
	if d.pin != nil {
		d.pin.Assert()
	}
	d.lastRequest = now
	d.requestStart = now
	d.framer.Reset()
	d.state = StateReceiving
}

// abortCycle returns to idle without dispatching. No retry within the
// cycle; the next request interval makes the next attempt.
func (d *Driver) abortCycle() {
	if d.pin != nil {
		d.pin.Deassert()
	}
	d.framer.Reset()
	d.state = StateIdle
}

func (d *Driver) countFrameError(err error) {
	switch {
	case errors.Is(err, framer.ErrFrameTimeout):
		log.Printf("Telegram receive failed: %v", err)
		d.counters.frameTimeouts.Add(1)
	case errors.Is(err, framer.ErrFrameTooLong):
		log.Printf("Telegram receive failed: %v", err)
		d.counters.framesTooLong.Add(1)
	default:
		log.Printf("Telegram receive failed: %v", err)
		d.counters.invalidFrames.Add(1)
	}
}

func (d *Driver) decode(frame *framer.RawFrame) {
	d.state = StateDecoding
	if d.pin != nil {
		d.pin.Deassert()
	}

	plaintext := frame.Data
	if frame.Encrypted {
		var err error
		plaintext, err = d.dec.Decrypt(frame.Data)
		if err != nil {
			log.Printf("Skipping telegram: %v", err)
			d.counters.decryptFailures.Add(1)
			d.abortCycle()
			return
		}
	}

	if err := checksum.Validate(plaintext, d.cfg.CrcCheck); err != nil {
		log.Printf("Skipping telegram: %v", err)
		d.counters.crcMismatches.Add(1)
		d.abortCycle()
		return
	}

	d.state = StateDispatching
	scanner := fieldparser.Scan(plaintext, d.units)
	for {
		pair, ok := scanner.Next()
		if !ok {
			break
		}
		if n := d.registry.Dispatch(pair.Code, pair.Value); n > 0 {
			d.counters.pairsDispatched.Add(uint64(n))
		} else {
			d.counters.pairsDropped.Add(1)
		}
	}
	if m := scanner.Malformed(); m > 0 {
		log.Printf("Telegram contained %d malformed lines", m)
		d.counters.malformedLines.Add(uint64(m))
	}
	d.counters.framesOK.Add(1)

	d.framer.Reset()
	d.state = StateIdle
}
