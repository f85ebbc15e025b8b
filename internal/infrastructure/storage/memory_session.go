package storage

import (
	"context"
	"sync"
	"time"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

// MemorySessionStore is the DSN-less fallback (dev runs and tests).
// State lives as long as the process.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]entity.Session
	leads    []entity.Lead
	logs     []LogEntry
	topics   map[string]int
}

// LogEntry is one analytics record kept by the memory store.
type LogEntry struct {
	Identity  string
	Action    string
	Content   string
	CreatedAt time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]entity.Session),
		topics:   make(map[string]int),
	}
}

func (s *MemorySessionStore) Get(_ context.Context, identity string) (*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[identity]
	if !ok {
		return nil, nil
	}
	copied := sess
	copied.Metadata = make(map[string]string, len(sess.Metadata))
	for k, v := range sess.Metadata {
		copied.Metadata[k] = v
	}
	return &copied, nil
}

func (s *MemorySessionStore) Save(_ context.Context, sess *entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sess
	copied.Metadata = make(map[string]string, len(sess.Metadata))
	for k, v := range sess.Metadata {
		copied.Metadata[k] = v
	}
	s.sessions[sess.Identity] = copied
	return nil
}

func (s *MemorySessionStore) SaveLead(_ context.Context, lead entity.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, lead)
	return nil
}

func (s *MemorySessionStore) LogEvent(_ context.Context, identity, action, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, LogEntry{Identity: identity, Action: action, Content: content, CreatedAt: time.Now()})
	return nil
}

// Leads returns a snapshot, for tests.
func (s *MemorySessionStore) Leads() []entity.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Lead, len(s.leads))
	copy(out, s.leads)
	return out
}

func (s *MemorySessionStore) GetTopic(_ context.Context, identity string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.topics[identity]
	return id, ok, nil
}

func (s *MemorySessionStore) SetTopic(_ context.Context, identity string, topicID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[identity] = topicID
	return nil
}

func (s *MemorySessionStore) FindIdentityByTopic(_ context.Context, topicID int) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for identity, id := range s.topics {
		if id == topicID {
			return identity, true, nil
		}
	}
	return "", false, nil
}
