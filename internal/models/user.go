package models

import "time"

// User is an identity record. PasswordHash never leaves the service.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Avatar       *string   `db:"avatar" json:"avatar,omitempty"`
	Banner       *string   `db:"banner" json:"banner,omitempty"`
	Bio          *string   `db:"bio" json:"bio,omitempty"`
	Online       bool      `db:"online" json:"online"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserPatch carries the optional profile fields of an update. Only fields
// that are present end up in the write set.
type UserPatch struct {
	Username *string `json:"username,omitempty"`
	Name     *string `json:"name,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Banner   *string `json:"banner,omitempty"`
}

// Empty reports whether the patch carries no fields at all.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Name == nil && p.Bio == nil && p.Avatar == nil && p.Banner == nil
}

// Session maps an opaque token to an authenticated user.
type Session struct {
	Token     string    `db:"token" json:"token"`
	UserID    int       `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
