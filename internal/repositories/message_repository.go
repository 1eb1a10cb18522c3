package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger-service/internal/models"
)

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, senderID int, text string) (models.Message, error)
	ListMessages(ctx context.Context, chatID int) ([]models.ChatMessage, error)
	LastMessages(ctx context.Context, chatIDs []int) (map[int]models.LastMessage, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message and bumps the chat's activity timestamp in
// one transaction, so the chat list never observes a message without the
// matching updated_at.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, senderID int, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var msg models.Message
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO messages (chat_id, sender_id, text) VALUES ($1, $2, $3) RETURNING id, chat_id, sender_id, text, read, created_at`,
		chatID, senderID, text,
	).StructScan(&msg); err != nil {
		if isForeignKeyViolation(err) {
			err = referenceErr(err)
		}
		return models.Message{}, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE chats SET updated_at = NOW() WHERE id=$1`, chatID); err != nil {
		return models.Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListMessages returns the chat history oldest first, joined with sender
// display fields. Equal timestamps fall back to insertion order.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT m.id, m.chat_id, m.sender_id, m.text, m.read, m.created_at,
            u.username AS sender_username, u.name AS sender_name, u.avatar AS sender_avatar
        FROM messages m
        INNER JOIN users u ON u.id = m.sender_id
        WHERE m.chat_id=$1
        ORDER BY m.created_at ASC, m.id ASC`, chatID)
	return msgs, err
}

// LastMessages returns the newest message per chat for the given ids.
func (r *MessageRepo) LastMessages(ctx context.Context, chatIDs []int) (map[int]models.LastMessage, error) {
	last := make(map[int]models.LastMessage, len(chatIDs))
	if len(chatIDs) == 0 {
		return last, nil
	}

	rows, err := r.db.QueryxContext(ctx,
		`SELECT DISTINCT ON (chat_id) chat_id, text, created_at
        FROM messages
        WHERE chat_id = ANY($1)
        ORDER BY chat_id, created_at DESC, id DESC`,
		pq.Array(chatIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m models.LastMessage
		if err := rows.StructScan(&m); err != nil {
			return nil, err
		}
		last[m.ChatID] = m
	}
	return last, rows.Err()
}

// referenceErr maps a messages foreign-key violation to the missing entity.
func referenceErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && strings.Contains(pqErr.Constraint, "sender") {
		return ErrUserNotFound
	}
	return ErrChatNotFound
}
