package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/budget-planner/internal/domain"
)

// ChatSessionSummary is a session row with its message count.
type ChatSessionSummary struct {
	Session      domain.ChatSession
	MessageCount int
}

// ChatRepository defines persistence access for chat sessions and their
// messages. Every operation is scoped to the owning user id.
type ChatRepository interface {
	CreateSession(ctx context.Context, session *domain.ChatSession) error
	GetSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]ChatSessionSummary, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error
	TouchSession(ctx context.Context, userID, sessionID, title string) error
	AppendMessages(ctx context.Context, sessionID string, messages []domain.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)
}

type chatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository returns a Postgres-backed implementation.
func NewChatRepository(pool *pgxpool.Pool) ChatRepository {
	return &chatRepository{pool: pool}
}

func (r *chatRepository) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	const query = `
        INSERT INTO chat_sessions (id, user_id, title)
        VALUES ($1, $2, $3)
        RETURNING created_at, last_accessed`

	return r.pool.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.Title,
	).Scan(&session.CreatedAt, &session.LastAccessed)
}

func (r *chatRepository) GetSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	const query = `
        SELECT id, user_id, title, created_at, last_accessed
        FROM chat_sessions WHERE id=$1 AND user_id=$2`

	var session domain.ChatSession
	if err := r.pool.QueryRow(ctx, query, sessionID, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.CreatedAt,
		&session.LastAccessed,
	); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *chatRepository) ListSessions(ctx context.Context, userID string, limit int) ([]ChatSessionSummary, error) {
	const query = `
        SELECT s.id, s.user_id, s.title, s.created_at, s.last_accessed,
               (SELECT COUNT(*) FROM chat_messages m WHERE m.session_id = s.id)
        FROM chat_sessions s
        WHERE s.user_id=$1
        ORDER BY s.last_accessed DESC
        LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []ChatSessionSummary
	for rows.Next() {
		var s ChatSessionSummary
		if err := rows.Scan(
			&s.Session.ID,
			&s.Session.UserID,
			&s.Session.Title,
			&s.Session.CreatedAt,
			&s.Session.LastAccessed,
			&s.MessageCount,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *chatRepository) DeleteSession(ctx context.Context, userID, sessionID string) error {
	const query = `DELETE FROM chat_sessions WHERE id=$1 AND user_id=$2`

	cmd, err := r.pool.Exec(ctx, query, sessionID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *chatRepository) TouchSession(ctx context.Context, userID, sessionID, title string) error {
	// Title is set on the first exchange only; later calls pass "".
	if title != "" {
		const query = `
        UPDATE chat_sessions SET title=$1, last_accessed=NOW()
        WHERE id=$2 AND user_id=$3`
		_, err := r.pool.Exec(ctx, query, title, sessionID, userID)
		return err
	}

	const query = `UPDATE chat_sessions SET last_accessed=NOW() WHERE id=$1 AND user_id=$2`
	_, err := r.pool.Exec(ctx, query, sessionID, userID)
	return err
}

func (r *chatRepository) AppendMessages(ctx context.Context, sessionID string, messages []domain.ChatMessage) error {
	batch := &pgx.Batch{}
	const query = `
        INSERT INTO chat_messages (session_id, role, content)
        VALUES ($1, $2, $3)`
	for _, msg := range messages {
		batch.Queue(query, sessionID, msg.Role, msg.Content)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range messages {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *chatRepository) ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	query := `
        SELECT id, session_id, role, content, created_at
        FROM chat_messages WHERE session_id=$1 ORDER BY created_at`
	args := []any{sessionID}
	if limit > 0 {
		query = `
        SELECT id, session_id, role, content, created_at FROM (
            SELECT id, session_id, role, content, created_at
            FROM chat_messages WHERE session_id=$1 ORDER BY created_at DESC LIMIT $2
        ) recent ORDER BY created_at`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
