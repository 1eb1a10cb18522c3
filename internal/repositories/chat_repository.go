package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger-service/internal/models"
)

const chatColumns = `id, name, avatar, is_group, direct_key, created_at, updated_at`

// ChatRepository abstracts chat and membership persistence.
type ChatRepository interface {
	CreateOrGetChat(ctx context.Context, userIDs []int, name *string, isGroup bool) (models.Chat, bool, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	IsMember(ctx context.Context, chatID int, userID int) (bool, error)
	ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error)
	MemberCounts(ctx context.Context, chatIDs []int) (map[int]int, error)
	DirectCounterparts(ctx context.Context, userID int, chatIDs []int) (map[int]models.User, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateOrGetChat creates a chat with its memberships, or returns the
// existing chat for a direct pair. The boolean result reports whether a new
// chat row was created.
func (r *ChatRepo) CreateOrGetChat(ctx context.Context, userIDs []int, name *string, isGroup bool) (models.Chat, bool, error) {
	ids := dedupeIDs(userIDs)
	if len(ids) < 2 {
		return models.Chat{}, false, ErrNotEnoughMembers
	}

	var directKey *string
	if !isGroup && len(ids) == 2 {
		key := directKeyFor(ids[0], ids[1])
		directKey = &key

		var chat models.Chat
		err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE is_group = FALSE AND direct_key=$1`, key)
		if err == nil {
			return chat, false, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return models.Chat{}, false, err
		}
	}

	chat, err := r.insertChat(ctx, ids, name, isGroup, directKey)
	if err == nil {
		return chat, true, nil
	}
	if directKey != nil && isUniqueViolation(err) {
		// Lost the create race: another request inserted the same pair first.
		var existing models.Chat
		if selErr := r.db.GetContext(ctx, &existing, `SELECT `+chatColumns+` FROM chats WHERE is_group = FALSE AND direct_key=$1`, *directKey); selErr != nil {
			return models.Chat{}, false, selErr
		}
		return existing, false, nil
	}
	if isForeignKeyViolation(err) {
		return models.Chat{}, false, ErrUserNotFound
	}
	return models.Chat{}, false, err
}

// insertChat writes the chat row and one membership per user in a single
// transaction. The first id is flagged admin for group chats only.
func (r *ChatRepo) insertChat(ctx context.Context, ids []int, name *string, isGroup bool, directKey *string) (models.Chat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var chat models.Chat
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO chats (name, avatar, is_group, direct_key) VALUES ($1, $2, $3, $4) RETURNING `+chatColumns,
		name, placeholderAvatar(name), isGroup, directKey,
	).StructScan(&chat); err != nil {
		return models.Chat{}, err
	}

	for i, id := range ids {
		isAdmin := isGroup && i == 0
		if _, err = tx.ExecContext(ctx, `INSERT INTO chat_members (chat_id, user_id, is_admin) VALUES ($1, $2, $3)`, chat.ID, id, isAdmin); err != nil {
			return models.Chat{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsMember checks whether a user belongs to the chat.
func (r *ChatRepo) IsMember(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_members WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// ListChatsForUser returns every chat the user is a member of.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats,
		`SELECT c.id, c.name, c.avatar, c.is_group, c.direct_key, c.created_at, c.updated_at
        FROM chats c
        INNER JOIN chat_members cm ON cm.chat_id = c.id
        WHERE cm.user_id=$1`, userID)
	return chats, err
}

// MemberCounts returns the membership size per chat.
func (r *ChatRepo) MemberCounts(ctx context.Context, chatIDs []int) (map[int]int, error) {
	counts := make(map[int]int, len(chatIDs))
	if len(chatIDs) == 0 {
		return counts, nil
	}

	rows, err := r.db.QueryxContext(ctx,
		`SELECT chat_id, COUNT(*) FROM chat_members WHERE chat_id = ANY($1) GROUP BY chat_id`,
		pq.Array(chatIDs))
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

// DirectCounterparts returns, for each direct chat in chatIDs, the live
// profile of the member that is not userID.
func (r *ChatRepo) DirectCounterparts(ctx context.Context, userID int, chatIDs []int) (map[int]models.User, error) {
	counterparts := make(map[int]models.User, len(chatIDs))
	if len(chatIDs) == 0 {
		return counterparts, nil
	}

	rows, err := r.db.QueryxContext(ctx,
		`SELECT cm.chat_id, u.id, u.username, u.name, u.avatar, u.online
        FROM chat_members cm
        INNER JOIN chats c ON c.id = cm.chat_id
        INNER JOIN users u ON u.id = cm.user_id
        WHERE c.is_group = FALSE AND cm.chat_id = ANY($1) AND cm.user_id <> $2`,
		pq.Array(chatIDs), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var chatID int
		var u models.User
		if err := rows.Scan(&chatID, &u.ID, &u.Username, &u.Name, &u.Avatar, &u.Online); err != nil {
			return nil, err
		}
		counterparts[chatID] = u
	}
	return counterparts, rows.Err()
}

// dedupeIDs drops duplicate ids while preserving first-seen order.
func dedupeIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// directKeyFor normalizes an unordered user pair into the unique lookup key.
func directKeyFor(a, b int) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

func placeholderAvatar(name *string) string {
	seed := "chat"
	if name != nil && *name != "" {
		seed = *name
	}
	return "https://api.dicebear.com/7.x/shapes/svg?seed=" + url.QueryEscape(seed)
}
