package session

import (
	"context"
	"sync"
	"time"

	"github.com/baalimago/charadex/internal/models"
)

type memoryEntry struct {
	messages []models.Message
	touched  time.Time
}

// sweepInterval is how often Append drops every expired session, so that
// abandoned sessions don't pile up.
const sweepInterval = time.Minute

// Memory keeps conversations in process. Entries untouched for longer than the
// ttl are dropped when accessed, and by a periodic sweep.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	sessions  map[string]*memoryEntry
	lastSweep time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*memoryEntry),
	}
}

func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	for id, e := range m.sessions {
		if now.Sub(e.touched) > m.ttl {
			delete(m.sessions, id)
		}
	}
	m.lastSweep = now
}

func (m *Memory) entry(id string) *memoryEntry {
	e, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if m.now().Sub(e.touched) > m.ttl {
		delete(m.sessions, id)
		return nil
	}
	return e
}

func (m *Memory) Load(ctx context.Context, id string) ([]models.Message, error) {
	if id == "" {
		return nil, ErrNoID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(id)
	if e == nil {
		return []models.Message{}, nil
	}
	return models.CopyMessages(e.messages), nil
}

func (m *Memory) Append(ctx context.Context, id string, msgs ...models.Message) error {
	if id == "" {
		return ErrNoID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep(m.now())
	e := m.entry(id)
	if e == nil {
		e = &memoryEntry{}
		m.sessions[id] = e
	}
	e.messages = append(e.messages, msgs...)
	e.touched = m.now()
	return nil
}

func (m *Memory) Reset(ctx context.Context, id string) error {
	if id == "" {
		return ErrNoID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
