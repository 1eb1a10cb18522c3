package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ChatSettingsRepository stores per-user per-chat preferences.
type ChatSettingsRepository interface {
	SetPinned(ctx context.Context, chatID int, userID int, pinned bool) error
	PinnedChats(ctx context.Context, userID int) (map[int]bool, error)
}

// ChatSettingsRepo is a sqlx implementation of ChatSettingsRepository.
type ChatSettingsRepo struct {
	db *sqlx.DB
}

// NewChatSettingsRepo constructs a ChatSettingsRepo.
func NewChatSettingsRepo(db *sqlx.DB) *ChatSettingsRepo {
	return &ChatSettingsRepo{db: db}
}

// SetPinned upserts the pin flag; the last writer wins.
func (r *ChatSettingsRepo) SetPinned(ctx context.Context, chatID int, userID int, pinned bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_settings (chat_id, user_id, pinned) VALUES ($1, $2, $3)
        ON CONFLICT (chat_id, user_id) DO UPDATE SET pinned = EXCLUDED.pinned`,
		chatID, userID, pinned)
	if isForeignKeyViolation(err) {
		return ErrChatNotFound
	}
	return err
}

// PinnedChats returns the set of chats the user has pinned.
func (r *ChatSettingsRepo) PinnedChats(ctx context.Context, userID int) (map[int]bool, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT chat_id FROM chat_settings WHERE user_id=$1 AND pinned = TRUE`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pinned := map[int]bool{}
	for rows.Next() {
		var chatID int
		if err := rows.Scan(&chatID); err != nil {
			return nil, err
		}
		pinned[chatID] = true
	}
	return pinned, rows.Err()
}
