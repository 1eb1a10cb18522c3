package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
)

// ChatLister produces the per-user chat list projection.
type ChatLister interface {
	ListForUser(ctx context.Context, userID int) ([]models.ChatSummary, error)
}

// ChatHandler manages chat creation and the chat list.
type ChatHandler struct {
	chatRepo repositories.ChatRepository
	lister   ChatLister
	emitter  *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, lister ChatLister, emitter *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{
		chatRepo: chatRepo,
		lister:   lister,
		emitter:  emitter,
	}
}

// CreateChat creates a chat, or returns the existing one for a direct pair.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		UserIDs []int   `json:"user_ids" binding:"required"`
		Name    *string `json:"name"`
		IsGroup bool    `json:"is_group"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if !containsID(req.UserIDs, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "caller must be a chat member"})
		return
	}

	chat, created, err := h.chatRepo.CreateOrGetChat(c.Request.Context(), req.UserIDs, req.Name, req.IsGroup)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotEnoughMembers):
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least two distinct members required"})
		case errors.Is(err, repositories.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		observability.IncChatCreated(chat.IsGroup)
		h.audit(c, "INFO", fmt.Sprintf("chat %d created", chat.ID))
	}
	c.JSON(status, gin.H{"chat_id": chat.ID, "created": created})
}

// ListChats returns the authenticated user's chat list, most recently active
// first.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")

	summaries, err := h.lister.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": summaries})
}

func (h *ChatHandler) audit(c *gin.Context, level, text string) {
	if h.emitter == nil {
		return
	}
	h.emitter.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

func containsID(ids []int, id int) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func chatIDParam(c *gin.Context) (int, bool) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, false
	}
	return chatID, true
}
