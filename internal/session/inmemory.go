package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/tutor/internal/emotion"
)

// InMemoryStore keeps sessions in process memory. State is lost on restart
// and sessions accumulate for the lifetime of the process; there is no
// expiry policy.
type InMemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string]*Record
	maxHistory int
}

func NewInMemoryStore(maxHistory int) *InMemoryStore {
	return &InMemoryStore{
		sessions:   make(map[string]*Record),
		maxHistory: maxHistory,
	}
}

func (s *InMemoryStore) GetOrCreate(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if _, ok := s.sessions[id]; ok {
			return id, nil
		}
	}
	rec := &Record{ID: uuid.NewString(), Created: time.Now().UTC()}
	s.sessions[rec.ID] = rec
	return rec.ID, nil
}

func (s *InMemoryStore) AppendExchange(id, question, answer string, emo emotion.Emotion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	rec.History = append(rec.History, Exchange{
		Question:  question,
		Answer:    answer,
		Emotion:   emo,
		Timestamp: time.Now().UTC(),
	})
	if len(rec.History) > s.maxHistory {
		rec.History = rec.History[len(rec.History)-s.maxHistory:]
	}
	rec.MessageCount++
	return nil
}

func (s *InMemoryStore) Reset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	rec.History = nil
	rec.MessageCount = 0
	return nil
}

func (s *InMemoryStore) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.sessions))
	for _, rec := range s.sessions {
		out = append(out, Summary{ID: rec.ID, Created: rec.Created, MessageCount: rec.MessageCount})
	}
	return out, nil
}

func (s *InMemoryStore) Get(id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	// Copy so callers cannot mutate shared state.
	cp := *rec
	cp.History = append([]Exchange(nil), rec.History...)
	return cp, nil
}
