package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/amann12/ManageLeave/pkg/dialog"
)

type memoryEntry struct {
	blob     []byte
	version  int64
	lastSeen time.Time
}

// MemoryStore keeps encoded conversation state in process memory. Each
// Load decodes a private copy, so a turn that fails never touches the
// stored state.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryStore creates a store whose entries expire after ttl of idleness.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*memoryEntry),
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*dialog.State, int64, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	var blob []byte
	var version int64
	if ok {
		e.lastSeen = s.now()
		blob, version = e.blob, e.version
	}
	s.mu.Unlock()

	if !ok {
		return dialog.NewState(), 0, nil
	}
	state, err := dialog.DecodeState(blob)
	if err != nil {
		return nil, 0, err
	}
	return state, version, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, state *dialog.State, version int64) error {
	blob, err := state.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if e, ok := s.entries[id]; ok {
		current = e.version
	}
	if current != version {
		return ErrConflict
	}
	s.entries[id] = &memoryEntry{blob: blob, version: version + 1, lastSeen: s.now()}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Reap removes conversations idle for longer than the store's TTL.
func (s *MemoryStore) Reap(_ context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored conversations.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
