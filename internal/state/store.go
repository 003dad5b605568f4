package state

import (
	"sync"
	"time"
)

// Mode is the externally observable display mode.
type Mode int

const (
	ModePreparing Mode = iota
	ModeOriginal
	ModeWebContent
)

func (m Mode) String() string {
	switch m {
	case ModePreparing:
		return "preparing"
	case ModeOriginal:
		return "original"
	case ModeWebContent:
		return "web"
	default:
		return "unknown"
	}
}

// Snapshot represents what the display surface is allowed to see.
type Snapshot struct {
	Mode        Mode
	Endpoint    string
	HasEndpoint bool
	Loading     bool
	// RatingRequested is set once the one-time rating prompt has been asked for.
	RatingRequested bool
	LastUpdated     time.Time
}

// Store coordinates the sequencer's writes with surface reads.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	// changed is closed and replaced on every Update.
	changed chan struct{}
}

// NewStore returns a Store in the initial Preparing state.
func NewStore() *Store {
	return &Store{
		snapshot: Snapshot{Mode: ModePreparing, Loading: true},
		changed:  make(chan struct{}),
	}
}

// Update applies fn to the current snapshot and publishes the result.
func (s *Store) Update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.snapshot)
	s.snapshot.LastUpdated = time.Now()
	if s.changed != nil {
		close(s.changed)
	}
	s.changed = make(chan struct{})
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Changed returns a channel closed on the next Update.
func (s *Store) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.changed == nil {
		s.changed = make(chan struct{})
	}
	return s.changed
}
