package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
	"messenger-service/internal/ws"
)

// MessageHandler manages chat-scoped operations: message history, sending,
// read state and pinning. Membership is checked before any of them.
type MessageHandler struct {
	chatRepo     repositories.ChatRepository
	messageRepo  repositories.MessageRepository
	readRepo     repositories.ReadStateRepository
	settingsRepo repositories.ChatSettingsRepository
	hub          *ws.Hub
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(
	chatRepo repositories.ChatRepository,
	messageRepo repositories.MessageRepository,
	readRepo repositories.ReadStateRepository,
	settingsRepo repositories.ChatSettingsRepository,
	hub *ws.Hub,
) *MessageHandler {
	return &MessageHandler{
		chatRepo:     chatRepo,
		messageRepo:  messageRepo,
		readRepo:     readRepo,
		settingsRepo: settingsRepo,
		hub:          hub,
	}
}

// GetMessages returns the chat's full history, oldest first.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	chatID, _, ok := h.requireMembership(c)
	if !ok {
		return
	}

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a message and broadcasts it to the chat's websocket room.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	chatID, userID, ok := h.requireMembership(c)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), chatID, userID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message text must not be empty"})
		case errors.Is(err, repositories.ErrChatNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		case errors.Is(err, repositories.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		}
		return
	}

	observability.IncMessageStored()
	h.hub.BroadcastMessage(chatID, msg)
	c.JSON(http.StatusCreated, msg)
}

// MarkRead marks every unread message from other senders as read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	chatID, userID, ok := h.requireMembership(c)
	if !ok {
		return
	}

	if err := h.readRepo.MarkRead(c.Request.Context(), chatID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}

	c.Status(http.StatusNoContent)
}

// PinChat sets or clears the caller's pin on the chat.
func (h *MessageHandler) PinChat(c *gin.Context) {
	chatID, userID, ok := h.requireMembership(c)
	if !ok {
		return
	}

	var req struct {
		Pinned *bool `json:"pinned" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.settingsRepo.SetPinned(c.Request.Context(), chatID, userID, *req.Pinned); err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update pin"})
		return
	}

	c.Status(http.StatusNoContent)
}

// requireMembership parses the chat id and verifies the caller belongs to the
// chat. On failure the response is already written.
func (h *MessageHandler) requireMembership(c *gin.Context) (int, int, bool) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return 0, 0, false
	}

	userID := c.GetInt("userID")
	member, err := h.chatRepo.IsMember(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return 0, 0, false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return 0, 0, false
	}
	return chatID, userID, true
}
