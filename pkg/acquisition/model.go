package acquisition

import (
	"sync/atomic"
	"time"
)

type State uint8

const (
	StateIdle State = iota
	StateRequesting
	StateReceiving
	StateDecoding
	StateDispatching
)

func (s State) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateReceiving:
		return "receiving"
	case StateDecoding:
		return "decoding"
	case StateDispatching:
		return "dispatching"
	default:
		return "idle"
	}
}

// ByteSource is a non-blocking view of the serial line: the next available
// byte, or false when nothing has arrived yet. The driver never blocks
// waiting for serial data.
type ByteSource interface {
	ReadByte() (byte, bool)
}

// RequestPin is the optional wake pin, held asserted for the duration of the
// request/receive window. Exclusively owned by the driver.
type RequestPin interface {
	Assert()
	Deassert()
}

type Config struct {
	// RequestInterval gates how soon a new cycle may start after the
	// previous one returned to idle. Zero means continuous.
	RequestInterval time.Duration
	// ReceiveTimeout bounds both the wait for the first byte after a
	// request and the gap between consecutive bytes mid-frame.
	ReceiveTimeout time.Duration
	CrcCheck       bool
}

// Counters is a snapshot of the driver's observability counters.
type Counters struct {
	FramesOK        uint64
	FrameTimeouts   uint64
	FramesTooLong   uint64
	CrcMismatches   uint64
	DecryptFailures uint64
	InvalidFrames   uint64
	MalformedLines  uint64
	PairsDispatched uint64
	PairsDropped    uint64
}

type counters struct {
	framesOK        atomic.Uint64
	frameTimeouts   atomic.Uint64
	framesTooLong   atomic.Uint64
	crcMismatches   atomic.Uint64
	decryptFailures atomic.Uint64
	invalidFrames   atomic.Uint64
	malformedLines  atomic.Uint64
	pairsDispatched atomic.Uint64
	pairsDropped    atomic.Uint64
}

func (c *counters) snapshot() Counters {
	return Counters{
		FramesOK:        c.framesOK.Load(),
		FrameTimeouts:   c.frameTimeouts.Load(),
		FramesTooLong:   c.framesTooLong.Load(),
		CrcMismatches:   c.crcMismatches.Load(),
		DecryptFailures: c.decryptFailures.Load(),
		InvalidFrames:   c.invalidFrames.Load(),
		MalformedLines:  c.malformedLines.Load(),
		PairsDispatched: c.pairsDispatched.Load(),
		PairsDropped:    c.pairsDropped.Load(),
	}
}
