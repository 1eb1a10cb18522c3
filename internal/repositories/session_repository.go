package repositories

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

// SessionRepository issues and resolves opaque session tokens. The resolved
// user id is the only actor identity the rest of the service trusts.
type SessionRepository interface {
	CreateSession(ctx context.Context, userID int) (models.Session, error)
	UserIDByToken(ctx context.Context, token string) (int, error)
}

// SessionRepo is a sqlx implementation of SessionRepository.
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo constructs a SessionRepo.
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// CreateSession stores a fresh random token for the user.
func (r *SessionRepo) CreateSession(ctx context.Context, userID int) (models.Session, error) {
	token, err := newToken()
	if err != nil {
		return models.Session{}, err
	}

	var session models.Session
	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO sessions (token, user_id) VALUES ($1, $2) RETURNING token, user_id, created_at`,
		token, userID,
	).StructScan(&session)
	if isForeignKeyViolation(err) {
		return models.Session{}, ErrUserNotFound
	}
	return session, err
}

// UserIDByToken resolves a token to its user id.
func (r *SessionRepo) UserIDByToken(ctx context.Context, token string) (int, error) {
	var userID int
	err := r.db.GetContext(ctx, &userID, `SELECT user_id FROM sessions WHERE token=$1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSessionNotFound
	}
	return userID, err
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
