package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateOrGetChat(ctx context.Context, userIDs []int, name *string, isGroup bool) (models.Chat, bool, error) {
	args := m.Called(ctx, userIDs, name, isGroup)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) IsMember(ctx context.Context, chatID int, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *ChatRepositoryMock) MemberCounts(ctx context.Context, chatIDs []int) (map[int]int, error) {
	args := m.Called(ctx, chatIDs)
	var counts map[int]int
	if val := args.Get(0); val != nil {
		counts = val.(map[int]int)
	}
	return counts, args.Error(1)
}

func (m *ChatRepositoryMock) DirectCounterparts(ctx context.Context, userID int, chatIDs []int) (map[int]models.User, error) {
	args := m.Called(ctx, userID, chatIDs)
	var users map[int]models.User
	if val := args.Get(0); val != nil {
		users = val.(map[int]models.User)
	}
	return users, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID int, senderID int, text string) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, text)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) LastMessages(ctx context.Context, chatIDs []int) (map[int]models.LastMessage, error) {
	args := m.Called(ctx, chatIDs)
	var last map[int]models.LastMessage
	if val := args.Get(0); val != nil {
		last = val.(map[int]models.LastMessage)
	}
	return last, args.Error(1)
}

type ReadStateRepositoryMock struct {
	mock.Mock
}

func (m *ReadStateRepositoryMock) MarkRead(ctx context.Context, chatID int, userID int) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ReadStateRepositoryMock) UnreadCount(ctx context.Context, chatID int, userID int) (int, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Int(0), args.Error(1)
}

func (m *ReadStateRepositoryMock) UnreadCounts(ctx context.Context, chatIDs []int, userID int) (map[int]int, error) {
	args := m.Called(ctx, chatIDs, userID)
	var counts map[int]int
	if val := args.Get(0); val != nil {
		counts = val.(map[int]int)
	}
	return counts, args.Error(1)
}

type ChatSettingsRepositoryMock struct {
	mock.Mock
}

func (m *ChatSettingsRepositoryMock) SetPinned(ctx context.Context, chatID int, userID int, pinned bool) error {
	args := m.Called(ctx, chatID, userID, pinned)
	return args.Error(0)
}

func (m *ChatSettingsRepositoryMock) PinnedChats(ctx context.Context, userID int) (map[int]bool, error) {
	args := m.Called(ctx, userID)
	var pinned map[int]bool
	if val := args.Get(0); val != nil {
		pinned = val.(map[int]bool)
	}
	return pinned, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, username, name, passwordHash, avatar string) (models.User, error) {
	args := m.Called(ctx, username, name, passwordHash, avatar)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) Authenticate(ctx context.Context, username, passwordHash string) (models.User, error) {
	args := m.Called(ctx, username, passwordHash)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, userID int, patch models.UserPatch) (models.User, error) {
	args := m.Called(ctx, userID, patch)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	args := m.Called(ctx, query, limit)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SetOnline(ctx context.Context, userID int, online bool) error {
	args := m.Called(ctx, userID, online)
	return args.Error(0)
}

type SessionRepositoryMock struct {
	mock.Mock
}

func (m *SessionRepositoryMock) CreateSession(ctx context.Context, userID int) (models.Session, error) {
	args := m.Called(ctx, userID)
	var session models.Session
	if val := args.Get(0); val != nil {
		session = val.(models.Session)
	}
	return session, args.Error(1)
}

func (m *SessionRepositoryMock) UserIDByToken(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

type ChatListProjectorMock struct {
	mock.Mock
}

func (m *ChatListProjectorMock) ListForUser(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	args := m.Called(ctx, userID)
	var summaries []models.ChatSummary
	if val := args.Get(0); val != nil {
		summaries = val.([]models.ChatSummary)
	}
	return summaries, args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ReadStateRepository = (*ReadStateRepositoryMock)(nil)
var _ repositories.ChatSettingsRepository = (*ChatSettingsRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.SessionRepository = (*SessionRepositoryMock)(nil)
var _ telemetry.Publisher = (*PublisherMock)(nil)
