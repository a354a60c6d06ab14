package orchestrator

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/golang/snappy"

	"github.com/nfvio/topoconv/pkg/logging"
	"github.com/nfvio/topoconv/pkg/virtualizer"
)

// ErrSnapshotNotFound is returned when a scope has no stored base document.
var ErrSnapshotNotFound = errors.New("snapshot not found")

type snapshot struct {
	data     []byte // snappy-compressed serialized document
	storedAt time.Time
}

// SnapshotStore keeps the last known base document per scope so request
// generation and diffing can run against a stable baseline. Documents are
// stored serialized and compressed; Load rebuilds an independent document,
// so callers can mutate what they get back without touching the stored
// baseline.
type SnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]snapshot
	log   logging.Logger
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore(log logging.Logger) *SnapshotStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SnapshotStore{
		snaps: make(map[string]snapshot),
		log:   log.With(logging.Component("snapshot")),
	}
}

// Save stores the document as the scope's baseline, replacing any previous
// one.
func (s *SnapshotStore) Save(scope string, v *virtualizer.Virtualizer) error {
	data, err := v.Bytes()
	if err != nil {
		return fmt.Errorf("serialize snapshot for scope %q: %w", scope, err)
	}
	compressed := snappy.Encode(nil, data)
	s.mu.Lock()
	s.snaps[scope] = snapshot{data: compressed, storedAt: time.Now().UTC()}
	s.mu.Unlock()
	s.log.Debug("Stored topology snapshot",
		logging.String("scope", scope),
		logging.Int("raw_bytes", len(data)),
		logging.Int("stored_bytes", len(compressed)))
	return nil
}

// Load rebuilds the scope's baseline document.
func (s *SnapshotStore) Load(scope string) (*virtualizer.Virtualizer, error) {
	s.mu.RLock()
	snap, ok := s.snaps[scope]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("scope %q: %w", scope, ErrSnapshotNotFound)
	}
	data, err := snappy.Decode(nil, snap.data)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot for scope %q: %w", scope, err)
	}
	v, err := virtualizer.Parse(data, s.log)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot for scope %q: %w", scope, err)
	}
	return v, nil
}

// StoredAt returns when the scope's baseline was saved.
func (s *SnapshotStore) StoredAt(scope string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[scope]
	return snap.storedAt, ok
}

// Delete drops the scope's baseline.
func (s *SnapshotStore) Delete(scope string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snaps[scope]; !ok {
		return false
	}
	delete(s.snaps, scope)
	return true
}

// Scopes lists the scopes holding a baseline, sorted.
func (s *SnapshotStore) Scopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.snaps))
	for scope := range s.snaps {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}
