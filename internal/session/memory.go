package session

import (
	"context"
	"sync"

	"github.com/xaenox/fpl-assistant/internal/models"
)

// MemoryStore keeps each session in a fixed-capacity ring buffer. The outer
// lock only guards the session map; every session carries its own lock so
// appends to one session never block another.
type MemoryStore struct {
	capacity int

	mu       sync.RWMutex
	sessions map[string]*ring
}

type ring struct {
	mu    sync.Mutex
	turns []models.Turn
	start int
	count int
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		sessions: make(map[string]*ring),
	}
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, turn models.Turn) error {
	r := s.session(sessionID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count < len(r.turns) {
		r.turns[(r.start+r.count)%len(r.turns)] = turn
		r.count++
		return nil
	}

	// Full: overwrite the oldest slot.
	r.turns[r.start] = turn
	r.start = (r.start + 1) % len(r.turns)
	return nil
}

func (s *MemoryStore) RecentEntities(ctx context.Context, sessionID string, limit int) ([]models.EntityRef, error) {
	turns, err := s.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var out []models.EntityRef
	for i := len(turns) - 1; i >= 0 && len(out) < limit; i-- {
		// Within a turn, entities are most-recent-last.
		ents := turns[i].Entities
		for j := len(ents) - 1; j >= 0 && len(out) < limit; j-- {
			out = append(out, ents[j])
		}
	}
	return out, nil
}

func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	s.mu.RLock()
	r, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Turn, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.turns[(r.start+i)%len(r.turns)])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) session(id string) *ring {
	s.mu.RLock()
	r, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok = s.sessions[id]; ok {
		return r
	}
	r = &ring{turns: make([]models.Turn, s.capacity)}
	s.sessions[id] = r
	return r
}
