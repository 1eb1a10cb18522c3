package models

import "time"

// Message is an immutable chat message; only the read flag may change, and
// only from false to true.
type Message struct {
	ID        int       `db:"id" json:"id"`
	ChatID    int       `db:"chat_id" json:"chat_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Text      string    `db:"text" json:"text"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatMessage is a message joined with its sender's display fields.
type ChatMessage struct {
	Message
	SenderUsername string  `db:"sender_username" json:"sender_username"`
	SenderName     string  `db:"sender_name" json:"sender_name"`
	SenderAvatar   *string `db:"sender_avatar" json:"sender_avatar,omitempty"`
}

// LastMessage is the newest message of a chat, used by the chat-list
// projection.
type LastMessage struct {
	ChatID    int       `db:"chat_id" json:"chat_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatEvent is broadcasted through websockets.
type ChatEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}
