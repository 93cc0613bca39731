package workflow

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("workflow session not found")

const sessionTTL = 30 * time.Minute

// Manager holds the in-flight substitution sessions. One session per staff
// dialog; nothing here is persisted.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (m *Manager) Start(orderID, itemID, menuItemID string, cancelOnly bool) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()

	s := &Session{
		ID:         uuid.New().String(),
		OrderID:    orderID,
		ItemID:     itemID,
		MenuItemID: menuItemID,
		Step:       StepConfirm,
		CancelOnly: cancelOnly,
		CreatedAt:  m.now(),
	}
	m.sessions[s.ID] = s
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// expireLocked drops abandoned sessions. Called under the lock on every
// access instead of running a sweeper goroutine.
func (m *Manager) expireLocked() {
	cutoff := m.now().Add(-sessionTTL)
	for id, s := range m.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
