// Package cache holds the latest telemetry sample per metric kind.
//
// The key set is fixed at construction. Each key owns one atomically swapped
// pointer, so a reader sees either the previous complete entry or the next
// one, never a mix of the two. Publishing is intended for a single writer
// (the poller); reads never block.
package cache

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/atomic"

	"github.com/Guliveer/vitalis/spy/internal/models"
)

// ErrUnknownKind is returned when publishing a kind the store was not built for.
var ErrUnknownKind = errors.New("cache: unknown kind")

// Entry is one published sample.
type Entry struct {
	Record     models.Record
	CapturedAt time.Time
	// Seq increases with every publish across the whole store.
	Seq uint64
}

// Store maps metric kinds to their latest entry.
type Store struct {
	slots map[models.Kind]*atomic.Pointer[Entry]
	seq   atomic.Uint64
	now   func() time.Time
}

// New creates a store for the given kinds. With no kinds it uses
// models.CheapKinds.
func New(kinds ...models.Kind) *Store {
	if len(kinds) == 0 {
		kinds = models.CheapKinds
	}
	s := &Store{
		slots: make(map[models.Kind]*atomic.Pointer[Entry], len(kinds)),
		now:   time.Now,
	}
	for _, k := range kinds {
		s.slots[k] = atomic.NewPointer[Entry](nil)
	}
	return s
}

// Publish replaces the entry for the record's kind.
func (s *Store) Publish(rec models.Record) error {
	if rec == nil {
		return fmt.Errorf("cache: publish nil record")
	}
	slot, ok := s.slots[rec.Kind()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, rec.Kind())
	}
	slot.Store(&Entry{
		Record:     rec,
		CapturedAt: s.now(),
		Seq:        s.seq.Inc(),
	})
	return nil
}

// Read returns the latest entry for kind. The second value is false when
// nothing has been published yet or the kind is unknown.
func (s *Store) Read(kind models.Kind) (Entry, bool) {
	slot, ok := s.slots[kind]
	if !ok {
		return Entry{}, false
	}
	e := slot.Load()
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Clear drops every entry. Used when the plugin unloads.
func (s *Store) Clear() {
	for _, slot := range s.slots {
		slot.Store(nil)
	}
}

// Len returns the number of kinds the store tracks.
func (s *Store) Len() int {
	return len(s.slots)
}
