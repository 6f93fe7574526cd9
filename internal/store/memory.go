// internal/store/memory.go
package store

import (
	"context"
	"sync"
	"time"

	"asha-assistant/internal/models"
)

// Memory keeps turns in process. Turns are lost on restart.
type Memory struct {
	mu       sync.RWMutex
	nextID   int64
	sessions map[string][]models.ConversationTurn
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string][]models.ConversationTurn),
		now:      time.Now,
	}
}

func (m *Memory) GetMessages(_ context.Context, sessionID string) ([]models.ConversationTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	turns := m.sessions[sessionID]
	out := make([]models.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (m *Memory) AddMessage(_ context.Context, turn models.NewTurn) (models.ConversationTurn, error) {
	if err := validate(turn); err != nil {
		return models.ConversationTurn{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	stored := models.ConversationTurn{
		ID:        m.nextID,
		Role:      turn.Role,
		Content:   turn.Content,
		SessionID: turn.SessionID,
		Timestamp: m.now().UTC(),
	}
	m.sessions[turn.SessionID] = append(m.sessions[turn.SessionID], stored)
	return stored, nil
}

func (m *Memory) ClearMessages(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
