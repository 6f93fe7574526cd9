// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"asha-assistant/internal/models"
)

const schema = `CREATE TABLE IF NOT EXISTS messages (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT        NOT NULL,
	role       TEXT        NOT NULL,
	content    TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS messages_session_id_idx ON messages (session_id, id)`

const (
	selectMessagesQuery = `SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = $1 ORDER BY id ASC`
	insertMessageQuery  = `INSERT INTO messages (session_id, role, content) VALUES ($1, $2, $3) RETURNING id, created_at`
	deleteMessagesQuery = `DELETE FROM messages WHERE session_id = $1`
)

// Postgres stores turns in the messages table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the messages table and its index when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure messages schema: %w", err)
	}
	return nil
}

func (p *Postgres) GetMessages(ctx context.Context, sessionID string) ([]models.ConversationTurn, error) {
	rows, err := p.db.QueryContext(ctx, selectMessagesQuery, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	turns := make([]models.ConversationTurn, 0)
	for rows.Next() {
		var t models.ConversationTurn
		var role string
		if err := rows.Scan(&t.ID, &t.SessionID, &role, &t.Content, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		t.Role = models.Role(role)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return turns, nil
}

func (p *Postgres) AddMessage(ctx context.Context, turn models.NewTurn) (models.ConversationTurn, error) {
	if err := validate(turn); err != nil {
		return models.ConversationTurn{}, err
	}

	stored := models.ConversationTurn{
		Role:      turn.Role,
		Content:   turn.Content,
		SessionID: turn.SessionID,
	}
	err := p.db.QueryRowContext(ctx, insertMessageQuery, turn.SessionID, string(turn.Role), turn.Content).
		Scan(&stored.ID, &stored.Timestamp)
	if err != nil {
		return models.ConversationTurn{}, fmt.Errorf("insert message: %w", err)
	}
	stored.Timestamp = stored.Timestamp.UTC()
	return stored, nil
}

func (p *Postgres) ClearMessages(ctx context.Context, sessionID string) error {
	if _, err := p.db.ExecContext(ctx, deleteMessagesQuery, sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}
