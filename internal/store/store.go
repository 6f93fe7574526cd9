// Package store persists conversation turns.
package store

import (
	"context"
	"errors"
	"strings"

	"asha-assistant/internal/models"
)

var ErrInvalidTurn = errors.New("INVALID_TURN")

// MessageStore returns turns of a session ordered by id.
type MessageStore interface {
	GetMessages(ctx context.Context, sessionID string) ([]models.ConversationTurn, error)
	AddMessage(ctx context.Context, turn models.NewTurn) (models.ConversationTurn, error)
	ClearMessages(ctx context.Context, sessionID string) error
}

func validate(turn models.NewTurn) error {
	if strings.TrimSpace(turn.SessionID) == "" {
		return errors.Join(ErrInvalidTurn, errors.New("sessionId is required"))
	}
	switch turn.Role {
	case models.RoleUser, models.RoleAssistant, models.RoleSystem:
	default:
		return errors.Join(ErrInvalidTurn, errors.New("unknown role "+string(turn.Role)))
	}
	return nil
}
