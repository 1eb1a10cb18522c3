package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/chats", handler.ListChats)
	r.POST("/chats", handler.CreateChat)
	return r
}

func TestCreateChatNewDirect(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := NewChatHandler(chatRepo, new(mocks.ChatListProjectorMock), nil)
	router := setupChatRouter(handler)

	chatRepo.On("CreateOrGetChat", mock.Anything, []int{1, 2}, (*string)(nil), false).
		Return(models.Chat{ID: 10}, true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats", bytes.NewBufferString(`{"user_ids":[1,2]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, float64(10), resp["chat_id"])
	require.Equal(t, true, resp["created"])
	chatRepo.AssertExpectations(t)
}

func TestCreateChatExistingDirect(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := NewChatHandler(chatRepo, new(mocks.ChatListProjectorMock), nil)
	router := setupChatRouter(handler)

	chatRepo.On("CreateOrGetChat", mock.Anything, []int{1, 2}, (*string)(nil), false).
		Return(models.Chat{ID: 10}, false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats", bytes.NewBufferString(`{"user_ids":[1,2]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, false, resp["created"])
	chatRepo.AssertExpectations(t)
}

func TestCreateChatCallerNotMember(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := NewChatHandler(chatRepo, new(mocks.ChatListProjectorMock), nil)
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/chats", bytes.NewBufferString(`{"user_ids":[2,3]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	chatRepo.AssertNotCalled(t, "CreateOrGetChat")
}

func TestCreateChatNotEnoughMembers(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := NewChatHandler(chatRepo, new(mocks.ChatListProjectorMock), nil)
	router := setupChatRouter(handler)

	chatRepo.On("CreateOrGetChat", mock.Anything, []int{1, 1}, (*string)(nil), false).
		Return(models.Chat{}, false, repositories.ErrNotEnoughMembers).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats", bytes.NewBufferString(`{"user_ids":[1,1]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	chatRepo.AssertExpectations(t)
}

func TestCreateChatUnknownMember(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := NewChatHandler(chatRepo, new(mocks.ChatListProjectorMock), nil)
	router := setupChatRouter(handler)

	chatRepo.On("CreateOrGetChat", mock.Anything, []int{1, 99}, (*string)(nil), false).
		Return(models.Chat{}, false, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats", bytes.NewBufferString(`{"user_ids":[1,99]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	chatRepo.AssertExpectations(t)
}

func TestListChatsSuccess(t *testing.T) {
	lister := new(mocks.ChatListProjectorMock)
	handler := NewChatHandler(new(mocks.ChatRepositoryMock), lister, nil)
	router := setupChatRouter(handler)

	name := "alice"
	lister.On("ListForUser", mock.Anything, 1).Return([]models.ChatSummary{
		{ChatID: 3, Name: name, UnreadCount: 2, Pinned: true},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Chats []models.ChatSummary `json:"chats"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Chats, 1)
	require.Equal(t, 3, resp.Chats[0].ChatID)
	require.Equal(t, 2, resp.Chats[0].UnreadCount)
	lister.AssertExpectations(t)
}

func TestListChatsProjectorError(t *testing.T) {
	lister := new(mocks.ChatListProjectorMock)
	handler := NewChatHandler(new(mocks.ChatRepositoryMock), lister, nil)
	router := setupChatRouter(handler)

	lister.On("ListForUser", mock.Anything, 1).Return(([]models.ChatSummary)(nil), errBoom).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	lister.AssertExpectations(t)
}
