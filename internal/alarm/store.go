// Package alarm holds the alarm definitions, their fixed-size persisted
// encoding and the recurrence check evaluated on every clock tick.
package alarm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Capacity is the number of alarm slots.
const Capacity = 10

// PersistKey is the storage key the alarm blob lives under.
const PersistKey = "alarm"

var (
	ErrFull               = errors.New("alarm store is full")
	ErrOutOfRange         = errors.New("alarm index out of range")
	ErrCorruptPersistence = errors.New("persisted alarm data is corrupt")
)

// Persister is the storage collaborator the store writes through.
type Persister interface {
	Write(ctx context.Context, key string, value []byte) error
}

// Store is a fixed-capacity ordered list of alarms. Occupied slots are always
// the first Count() entries; the rest hold the empty sentinel.
type Store struct {
	mu      sync.RWMutex
	slots   [Capacity]Record
	count   int
	version uint64
	persist Persister
}

// NewStore returns an empty store writing through p. A nil p disables
// persistence.
func NewStore(p Persister) *Store {
	return &Store{persist: p}
}

// Load decodes a persisted blob. It never fails hard: a blob that is empty,
// not a whole number of records or larger than Capacity records yields an
// empty store together with ErrCorruptPersistence.
func Load(data []byte, p Persister) (*Store, error) {
	s := NewStore(p)
	if len(data) == 0 || len(data)%RecordSize != 0 || len(data) > Capacity*RecordSize {
		log.Printf("Warning: invalid size of persisted alarm data: %d bytes. Starting with no alarms.", len(data))
		return s, fmt.Errorf("%w: %d bytes", ErrCorruptPersistence, len(data))
	}

	for off := 0; off < len(data); off += RecordSize {
		var rec Record
		if err := rec.UnmarshalBinary(data[off : off+RecordSize]); err != nil {
			return NewStore(p), fmt.Errorf("%w: %v", ErrCorruptPersistence, err)
		}
		if rec.Empty() {
			continue
		}
		// Occupied records are packed to the front even if the blob had gaps.
		s.slots[s.count] = rec
		s.count++
	}
	log.Printf("Loaded %d alarms", s.count)
	return s, nil
}

// Count returns the number of occupied slots.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// At returns the record in slot i.
func (s *Store) At(i int) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= s.count {
		return Record{}, false
	}
	return s.slots[i], true
}

// List returns a copy of the occupied slots in index order.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, s.count)
	copy(out, s.slots[:s.count])
	return out
}

// Append stores rec in the first free slot and returns its index. No
// validation of the time fields happens here.
func (s *Store) Append(ctx context.Context, rec Record) (int, error) {
	if rec.Empty() {
		return 0, fmt.Errorf("cannot append an empty record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == Capacity {
		return 0, ErrFull
	}
	next := s.slots
	next[s.count] = rec
	if err := s.commit(ctx, next, s.count+1); err != nil {
		return 0, err
	}
	return s.count - 1, nil
}

// Delete removes slot index, shifting every later slot down by one.
func (s *Store) Delete(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= s.count {
		return fmt.Errorf("%w: %d (have %d)", ErrOutOfRange, index, s.count)
	}
	next := s.slots
	copy(next[index:], next[index+1:s.count])
	next[s.count-1] = Record{}
	return s.commit(ctx, next, s.count-1)
}

// MarkFired sets the fired flag of slot i. It is not persisted on its own.
func (s *Store) MarkFired(i int, fired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= s.count {
		return
	}
	s.slots[i].Fired = fired
}

// ResetFired clears every fired flag and persists when anything changed.
func (s *Store) ResetFired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.slots
	changed := false
	for i := 0; i < s.count; i++ {
		if next[i].Fired {
			next[i].Fired = false
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.commit(ctx, next, s.count)
}

// Version increases with every committed mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Serialize encodes all Capacity slots, occupied or not.
func (s *Store) Serialize() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return encode(&s.slots)
}

// commit persists next and only then makes it current, so memory never runs
// ahead of storage. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, next [Capacity]Record, count int) error {
	if s.persist != nil {
		if err := s.persist.Write(ctx, PersistKey, encode(&next)); err != nil {
			return fmt.Errorf("failed to persist alarms: %w", err)
		}
	}
	s.slots = next
	s.count = count
	s.version++
	return nil
}

func encode(slots *[Capacity]Record) []byte {
	buf := make([]byte, Capacity*RecordSize)
	for i := range slots {
		slots[i].put(buf[i*RecordSize:])
	}
	return buf
}
