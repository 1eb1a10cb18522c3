package models

import "time"

// Chat is a conversation, either direct (exactly two members) or a group.
// Name and avatar are authoritative only for groups; for direct chats they
// are placeholders that the chat-list projection overrides with the
// counterpart's profile.
type Chat struct {
	ID        int       `db:"id" json:"id"`
	Name      *string   `db:"name" json:"name,omitempty"`
	Avatar    *string   `db:"avatar" json:"avatar,omitempty"`
	IsGroup   bool      `db:"is_group" json:"is_group"`
	DirectKey *string   `db:"direct_key" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ChatMember ties a user to a chat.
type ChatMember struct {
	ChatID  int  `db:"chat_id" json:"chat_id"`
	UserID  int  `db:"user_id" json:"user_id"`
	IsAdmin bool `db:"is_admin" json:"is_admin"`
}

// ChatSetting holds per-user per-chat preferences. A missing row is
// equivalent to pinned = false.
type ChatSetting struct {
	ChatID int  `db:"chat_id" json:"chat_id"`
	UserID int  `db:"user_id" json:"user_id"`
	Pinned bool `db:"pinned" json:"pinned"`
}

// ChatSummary is one entry of a user's projected chat list.
type ChatSummary struct {
	ChatID          int        `json:"chat_id"`
	Name            string     `json:"name"`
	Avatar          string     `json:"avatar,omitempty"`
	IsGroup         bool       `json:"is_group"`
	MemberCount     int        `json:"member_count"`
	LastMessage     *string    `json:"last_message,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	Pinned          bool       `json:"pinned"`
	UnreadCount     int        `json:"unread_count"`
	Online          *bool      `json:"online,omitempty"`
	CounterpartID   *int       `json:"counterpart_id,omitempty"`
}
