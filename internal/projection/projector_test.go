package projection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
)

func strPtr(s string) *string { return &s }

func TestListForUserEmpty(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	projector := NewChatListProjector(chats, new(mocks.MessageRepositoryMock),
		new(mocks.ReadStateRepositoryMock), new(mocks.ChatSettingsRepositoryMock))

	chats.On("ListChatsForUser", mock.Anything, 1).Return([]models.Chat{}, nil).Once()

	summaries, err := projector.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, summaries)
	chats.AssertExpectations(t)
}

func TestListForUserOrderingAndOverlay(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	reads := new(mocks.ReadStateRepositoryMock)
	settings := new(mocks.ChatSettingsRepositoryMock)
	projector := NewChatListProjector(chats, messages, reads, settings)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	groupName := "team"

	// Chat 1: direct, old message. Chat 2: group, newer message. Chat 3:
	// direct, no messages at all, created most recently.
	chats.On("ListChatsForUser", mock.Anything, 1).Return([]models.Chat{
		{ID: 1, IsGroup: false, CreatedAt: base.Add(-48 * time.Hour)},
		{ID: 2, IsGroup: true, Name: &groupName, CreatedAt: base.Add(-24 * time.Hour)},
		{ID: 3, IsGroup: false, CreatedAt: base.Add(2 * time.Hour)},
	}, nil).Once()
	messages.On("LastMessages", mock.Anything, []int{1, 2, 3}).Return(map[int]models.LastMessage{
		1: {ChatID: 1, Text: "old", CreatedAt: base.Add(-2 * time.Hour)},
		2: {ChatID: 2, Text: "new", CreatedAt: base.Add(time.Hour)},
	}, nil).Once()
	reads.On("UnreadCounts", mock.Anything, []int{1, 2, 3}, 1).Return(map[int]int{2: 4}, nil).Once()
	settings.On("PinnedChats", mock.Anything, 1).Return(map[int]bool{1: true}, nil).Once()
	chats.On("MemberCounts", mock.Anything, []int{1, 2, 3}).Return(map[int]int{1: 2, 2: 5, 3: 2}, nil).Once()
	chats.On("DirectCounterparts", mock.Anything, 1, []int{1, 2, 3}).Return(map[int]models.User{
		1: {ID: 7, Username: "bob", Name: "Bob", Avatar: strPtr("http://a/bob.svg"), Online: true},
		3: {ID: 9, Username: "eve", Name: "Eve", Online: false},
	}, nil).Once()

	summaries, err := projector.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	// Most recent activity first: chat 3 (created after chat 2's last
	// message), then chat 2, then chat 1.
	require.Equal(t, 3, summaries[0].ChatID)
	require.Equal(t, 2, summaries[1].ChatID)
	require.Equal(t, 1, summaries[2].ChatID)

	// Direct chats show the counterpart's profile.
	require.Equal(t, "Eve", summaries[0].Name)
	require.NotNil(t, summaries[0].CounterpartID)
	require.Equal(t, 9, *summaries[0].CounterpartID)
	require.NotNil(t, summaries[0].Online)
	require.False(t, *summaries[0].Online)
	require.Nil(t, summaries[0].LastMessage)

	require.Equal(t, "team", summaries[1].Name)
	require.Equal(t, 4, summaries[1].UnreadCount)
	require.Equal(t, 5, summaries[1].MemberCount)
	require.Nil(t, summaries[1].CounterpartID)
	require.NotNil(t, summaries[1].LastMessage)
	require.Equal(t, "new", *summaries[1].LastMessage)

	require.Equal(t, "Bob", summaries[2].Name)
	require.Equal(t, "http://a/bob.svg", summaries[2].Avatar)
	require.True(t, summaries[2].Pinned)
	require.True(t, *summaries[2].Online)

	chats.AssertExpectations(t)
	messages.AssertExpectations(t)
	reads.AssertExpectations(t)
	settings.AssertExpectations(t)
}

func TestListForUserPinDoesNotReorder(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	reads := new(mocks.ReadStateRepositoryMock)
	settings := new(mocks.ChatSettingsRepositoryMock)
	projector := NewChatListProjector(chats, messages, reads, settings)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	nameA, nameB := "a", "b"

	chats.On("ListChatsForUser", mock.Anything, 1).Return([]models.Chat{
		{ID: 1, IsGroup: true, Name: &nameA, CreatedAt: base},
		{ID: 2, IsGroup: true, Name: &nameB, CreatedAt: base},
	}, nil).Once()
	messages.On("LastMessages", mock.Anything, []int{1, 2}).Return(map[int]models.LastMessage{
		1: {ChatID: 1, Text: "older", CreatedAt: base.Add(time.Hour)},
		2: {ChatID: 2, Text: "newer", CreatedAt: base.Add(2 * time.Hour)},
	}, nil).Once()
	reads.On("UnreadCounts", mock.Anything, []int{1, 2}, 1).Return(map[int]int{}, nil).Once()
	settings.On("PinnedChats", mock.Anything, 1).Return(map[int]bool{1: true}, nil).Once()
	chats.On("MemberCounts", mock.Anything, []int{1, 2}).Return(map[int]int{1: 3, 2: 3}, nil).Once()
	chats.On("DirectCounterparts", mock.Anything, 1, []int{1, 2}).Return(map[int]models.User{}, nil).Once()

	summaries, err := projector.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// The pinned chat stays behind the more recently active one.
	require.Equal(t, 2, summaries[0].ChatID)
	require.False(t, summaries[0].Pinned)
	require.Equal(t, 1, summaries[1].ChatID)
	require.True(t, summaries[1].Pinned)
}

func TestListForUserPropagatesRepoError(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	projector := NewChatListProjector(chats, messages,
		new(mocks.ReadStateRepositoryMock), new(mocks.ChatSettingsRepositoryMock))

	name := "a"
	chats.On("ListChatsForUser", mock.Anything, 1).Return([]models.Chat{
		{ID: 1, IsGroup: true, Name: &name},
	}, nil).Once()
	messages.On("LastMessages", mock.Anything, []int{1}).
		Return(map[int]models.LastMessage(nil), context.DeadlineExceeded).Once()

	_, err := projector.ListForUser(context.Background(), 1)
	require.Error(t, err)
}
