package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger-service/internal/models"
)

const userColumns = `id, username, name, avatar, banner, bio, online, created_at`

// UserRepository is the identity side of the service: accounts, credentials
// and profile lookups.
type UserRepository interface {
	CreateUser(ctx context.Context, username, name, passwordHash, avatar string) (models.User, error)
	Authenticate(ctx context.Context, username, passwordHash string) (models.User, error)
	GetUser(ctx context.Context, userID int) (models.User, error)
	BulkUsers(ctx context.Context, ids []int) ([]models.User, error)
	UpdateProfile(ctx context.Context, userID int, patch models.UserPatch) (models.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
	SetOnline(ctx context.Context, userID int, online bool) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser registers an account. A duplicate username surfaces as
// ErrUsernameTaken.
func (r *UserRepo) CreateUser(ctx context.Context, username, name, passwordHash, avatar string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (username, name, password_hash, avatar, online) VALUES ($1, $2, $3, $4, TRUE)
        RETURNING `+userColumns,
		username, name, passwordHash, avatar,
	).StructScan(&user)
	if isUniqueViolation(err) {
		return models.User{}, ErrUsernameTaken
	}
	return user, err
}

// Authenticate matches username and credential digest.
func (r *UserRepo) Authenticate(ctx context.Context, username, passwordHash string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE username=$1 AND password_hash=$2`,
		username, passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, err
}

// GetUser fetches a single user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// BulkUsers fetches multiple users in one query.
func (r *UserRepo) BulkUsers(ctx context.Context, ids []int) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	return users, err
}

// UpdateProfile applies a partial profile update. The write set is assembled
// only from fields present in the patch.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID int, patch models.UserPatch) (models.User, error) {
	if patch.Empty() {
		return models.User{}, ErrEmptyPatch
	}

	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, column+"=$"+strconv.Itoa(len(args)))
	}

	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Bio != nil {
		add("bio", *patch.Bio)
	}
	if patch.Avatar != nil {
		add("avatar", *patch.Avatar)
	}
	if patch.Banner != nil {
		add("banner", *patch.Banner)
	}

	args = append(args, userID)
	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id=$` + strconv.Itoa(len(args)) + ` RETURNING ` + userColumns

	var user models.User
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if isUniqueViolation(err) {
		return models.User{}, ErrUsernameTaken
	}
	return user, err
}

// SearchUsers matches username or display name, case-insensitively.
func (r *UserRepo) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	var users []models.User
	if query == "" {
		err := r.db.SelectContext(ctx, &users,
			`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1`, limit)
		return users, err
	}

	pattern := "%" + query + "%"
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE username ILIKE $1 OR name ILIKE $1 ORDER BY id LIMIT $2`,
		pattern, limit)
	return users, err
}

// SetOnline flips the presence flag.
func (r *UserRepo) SetOnline(ctx context.Context, userID int, online bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET online=$1 WHERE id=$2`, online, userID)
	return err
}

