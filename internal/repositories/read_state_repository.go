package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ReadStateRepository tracks which messages a user has read. Read flags only
// ever move from false to true.
type ReadStateRepository interface {
	MarkRead(ctx context.Context, chatID int, userID int) error
	UnreadCount(ctx context.Context, chatID int, userID int) (int, error)
	UnreadCounts(ctx context.Context, chatIDs []int, userID int) (map[int]int, error)
}

// ReadStateRepo is a sqlx implementation of ReadStateRepository.
type ReadStateRepo struct {
	db *sqlx.DB
}

// NewReadStateRepo constructs a ReadStateRepo.
func NewReadStateRepo(db *sqlx.DB) *ReadStateRepo {
	return &ReadStateRepo{db: db}
}

// MarkRead flips every unread message from other senders to read. Calling it
// again with nothing left to flip is a no-op.
func (r *ReadStateRepo) MarkRead(ctx context.Context, chatID int, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read = TRUE WHERE chat_id=$1 AND sender_id <> $2 AND read = FALSE`,
		chatID, userID)
	return err
}

// UnreadCount counts unread messages from other senders in one chat.
func (r *ReadStateRepo) UnreadCount(ctx context.Context, chatID int, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE chat_id=$1 AND sender_id <> $2 AND read = FALSE`,
		chatID, userID)
	return count, err
}

// UnreadCounts batches UnreadCount over several chats. Chats with no unread
// messages are absent from the result.
func (r *ReadStateRepo) UnreadCounts(ctx context.Context, chatIDs []int, userID int) (map[int]int, error) {
	counts := make(map[int]int, len(chatIDs))
	if len(chatIDs) == 0 {
		return counts, nil
	}

	rows, err := r.db.QueryxContext(ctx,
		`SELECT chat_id, COUNT(*) FROM messages
        WHERE chat_id = ANY($1) AND sender_id <> $2 AND read = FALSE
        GROUP BY chat_id`,
		pq.Array(chatIDs), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var chatID, count int
		if err := rows.Scan(&chatID, &count); err != nil {
			return nil, err
		}
		counts[chatID] = count
	}
	return counts, rows.Err()
}
