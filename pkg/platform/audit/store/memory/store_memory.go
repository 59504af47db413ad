package memory

import (
	"context"
	"sync"

	id "rotalog/pkg/domain"
	audit "rotalog/pkg/platform/audit"
)

// InMemoryStore keeps audit events per trainee. Intended for tests and
// single-process development setups.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.InternID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.InternID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.InternID][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.InternID] = append(s.events[event.InternID], event)
	return nil
}

func (s *InMemoryStore) ListByIntern(_ context.Context, internID id.InternID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[internID]...), nil
}

// ListAll returns all audit events across all trainees (admin-only operation).
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []audit.Event
	for _, events := range s.events {
		all = append(all, events...)
	}
	return all, nil
}
