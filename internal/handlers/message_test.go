package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/ws"
)

var errBoom = errors.New("boom")

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/chats/:chat_id/messages", handler.GetMessages)
	r.POST("/chats/:chat_id/messages", handler.PostMessage)
	r.PUT("/chats/:chat_id/read", handler.MarkRead)
	r.PUT("/chats/:chat_id/pin", handler.PinChat)
	return r
}

func newMessageHandler(
	chatRepo *mocks.ChatRepositoryMock,
	messageRepo *mocks.MessageRepositoryMock,
	readRepo *mocks.ReadStateRepositoryMock,
	settingsRepo *mocks.ChatSettingsRepositoryMock,
) *MessageHandler {
	return NewMessageHandler(chatRepo, messageRepo, readRepo, settingsRepo, ws.NewHub(nil))
}

func TestGetMessagesSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := newMessageHandler(chatRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	chatRepo.On("IsMember", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("ListMessages", mock.Anything, 5).Return([]models.ChatMessage{
		{Message: models.Message{ID: 1, ChatID: 5, SenderID: 2, Text: "hi"}, SenderUsername: "bob", SenderName: "Bob"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	chatRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestGetMessagesNotMember(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := newMessageHandler(chatRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	chatRepo.On("IsMember", mock.Anything, 5, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "ListMessages")
}

func TestGetMessagesInvalidID(t *testing.T) {
	handler := newMessageHandler(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), nil, nil)
	router := setupMessageRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/chats/abc/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostMessageSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := newMessageHandler(chatRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	chatRepo.On("IsMember", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, 5, 1, "hi").
		Return(models.Message{ID: 7, ChatID: 5, SenderID: 1, Text: "hi"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/5/messages", bytes.NewBufferString(`{"text":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	chatRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestPostMessageEmptyText(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := newMessageHandler(chatRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	chatRepo.On("IsMember", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, 5, 1, "   ").
		Return(models.Message{}, repositories.ErrEmptyMessage).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/5/messages", bytes.NewBufferString(`{"text":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestPostMessageNotMember(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := newMessageHandler(chatRepo, messageRepo, nil, nil)
	router := setupMessageRouter(handler)

	chatRepo.On("IsMember", mock.Anything, 5, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/5/messages", bytes.NewBufferString(`{"text":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateMessage")
}

func TestMarkReadSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	readRepo := new(mocks.ReadStateRepositoryMock)
	handler := newMessageHandler(chatRepo, new(mocks.MessageRepositoryMock), readRepo, nil)
	router := setupMessageRouter(handler)

	chatRepo.On("IsMember", mock.Anything, 5, 1).Return(true, nil).Once()
	readRepo.On("MarkRead", mock.Anything, 5, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/chats/5/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	readRepo.AssertExpectations(t)
}

func TestPinChatSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	settingsRepo := new(mocks.ChatSettingsRepositoryMock)
	handler := newMessageHandler(chatRepo, new(mocks.MessageRepositoryMock), nil, settingsRepo)
	router := setupMessageRouter(handler)

	chatRepo.On("IsMember", mock.Anything, 5, 1).Return(true, nil).Once()
	settingsRepo.On("SetPinned", mock.Anything, 5, 1, true).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/chats/5/pin", bytes.NewBufferString(`{"pinned":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	settingsRepo.AssertExpectations(t)
}

func TestPinChatMissingFlag(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	settingsRepo := new(mocks.ChatSettingsRepositoryMock)
	handler := newMessageHandler(chatRepo, new(mocks.MessageRepositoryMock), nil, settingsRepo)
	router := setupMessageRouter(handler)

	chatRepo.On("IsMember", mock.Anything, 5, 1).Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/chats/5/pin", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	settingsRepo.AssertNotCalled(t, "SetPinned")
}
