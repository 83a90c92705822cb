// Package store holds the in-flight transfer records. It is the only
// mutable shared state in the engine: the executor inserts, the tracker
// mutates, and callers read snapshot copies. A single coarse mutex is
// enough because critical sections are map accesses, never I/O.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// Lookup and mutation errors
var (
	ErrNotFound = errors.New("transfer not found")

	// ErrTerminalState guards completed/failed records against any further
	// mutation
	ErrTerminalState = errors.New("transfer is in a terminal state")
)

// Store is a mutex-guarded arena of transfer records keyed by id
type Store struct {
	mu      sync.RWMutex
	records map[string]*model.TransferRecord
}

// New creates an empty store
func New() *Store {
	return &Store{records: make(map[string]*model.TransferRecord)}
}

// Insert adds a newly created record. Ids are generator-assigned and
// unique; a duplicate insert is a programming error surfaced to the caller.
func (s *Store) Insert(rec model.TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("duplicate transfer id %s", rec.ID)
	}
	clone := rec
	s.records[rec.ID] = &clone
	return nil
}

// Get returns a snapshot copy of a record
func (s *Store) Get(id string) (model.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return model.TransferRecord{}, ErrNotFound
	}
	return *rec, nil
}

// Filter narrows List results; zero values match everything
type Filter struct {
	Status    model.TransferStatus
	FromChain types.ChainID
	ToChain   types.ChainID
}

func (f Filter) matches(rec *model.TransferRecord) bool {
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.FromChain != "" && rec.FromChain != f.FromChain {
		return false
	}
	if f.ToChain != "" && rec.ToChain != f.ToChain {
		return false
	}
	return true
}

// List returns snapshot copies of matching records, newest first
func (s *Store) List(f Filter) []model.TransferRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.TransferRecord
	for _, rec := range s.records {
		if f.matches(rec) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// LiveIDs returns the ids of all non-terminal records, oldest first, for
// the tracker's sweep
func (s *Store) LiveIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		id      string
		created time.Time
	}
	var live []entry
	for id, rec := range s.records {
		if !rec.Status.Terminal() {
			live = append(live, entry{id, rec.CreatedAt})
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if !live[i].created.Equal(live[j].created) {
			return live[i].created.Before(live[j].created)
		}
		return live[i].id < live[j].id
	})

	ids := make([]string, len(live))
	for i, e := range live {
		ids[i] = e.id
	}
	return ids
}

// Update applies mutate to a live record and bumps UpdatedAt. Terminal
// records are immutable: the mutation is rejected before mutate runs, so
// no transition can ever leave completed or failed.
func (s *Store) Update(id string, mutate func(*model.TransferRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status.Terminal() {
		return ErrTerminalState
	}
	mutate(rec)
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// CountByStatus returns the number of records per status, for metrics
func (s *Store) CountByStatus() map[model.TransferStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.TransferStatus]int, 4)
	for _, rec := range s.records {
		counts[rec.Status]++
	}
	return counts
}
