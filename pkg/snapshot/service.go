// Package snapshot keeps the most recent value per OBIS code for the
// /latest endpoint. It is a ValueSink that never rejects.
package snapshot

import (
	"sync"
	"time"

	"github.com/nikopaulanne/dsmr-custom/pkg/broadcaster"
	"github.com/nikopaulanne/dsmr-custom/pkg/obis"
)

type Store struct {
	mu     sync.RWMutex
	latest map[obis.Code]broadcaster.Reading
}

func NewStore() *Store {
	return &Store{latest: make(map[obis.Code]broadcaster.Reading)}
}

// Accept implements dispatch.ValueSink.
func (s *Store) Accept(code obis.Code, value obis.Value) error {
	reading := broadcaster.NewReading(time.Now().Format(time.RFC3339), code, value)
	s.mu.Lock()
	s.latest[code] = reading
	s.mu.Unlock()
	return nil
}

// Latest returns a copy of the snapshot keyed by canonical code string.
func (s *Store) Latest() map[string]broadcaster.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]broadcaster.Reading, len(s.latest))
	for code, reading := range s.latest {
		out[string(code)] = reading
	}
	return out
}

// Empty reports whether any reading has arrived yet.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.latest) == 0
}
