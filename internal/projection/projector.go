package projection

import (
	"context"
	"sort"
	"time"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// ChatListProjector assembles a user's chat list from the chat, message,
// read-state and settings repositories. It is strictly read-only.
type ChatListProjector struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	reads    repositories.ReadStateRepository
	settings repositories.ChatSettingsRepository
}

// NewChatListProjector constructs a ChatListProjector.
func NewChatListProjector(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	reads repositories.ReadStateRepository,
	settings repositories.ChatSettingsRepository,
) *ChatListProjector {
	return &ChatListProjector{
		chats:    chats,
		messages: messages,
		reads:    reads,
		settings: settings,
	}
}

// ListForUser returns one summary per chat the user belongs to, most recently
// active first. For direct chats the display identity is the counterpart's
// live profile, not the placeholder chat fields. Pins are reported but do not
// influence ordering.
func (p *ChatListProjector) ListForUser(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	chats, err := p.chats.ListChatsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return []models.ChatSummary{}, nil
	}

	chatIDs := make([]int, 0, len(chats))
	for _, chat := range chats {
		chatIDs = append(chatIDs, chat.ID)
	}

	last, err := p.messages.LastMessages(ctx, chatIDs)
	if err != nil {
		return nil, err
	}
	unread, err := p.reads.UnreadCounts(ctx, chatIDs, userID)
	if err != nil {
		return nil, err
	}
	pinned, err := p.settings.PinnedChats(ctx, userID)
	if err != nil {
		return nil, err
	}
	memberCounts, err := p.chats.MemberCounts(ctx, chatIDs)
	if err != nil {
		return nil, err
	}
	counterparts, err := p.chats.DirectCounterparts(ctx, userID, chatIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summary := models.ChatSummary{
			ChatID:      chat.ID,
			IsGroup:     chat.IsGroup,
			MemberCount: memberCounts[chat.ID],
			Pinned:      pinned[chat.ID],
			UnreadCount: unread[chat.ID],
		}
		if chat.Name != nil {
			summary.Name = *chat.Name
		}
		if chat.Avatar != nil {
			summary.Avatar = *chat.Avatar
		}

		if msg, ok := last[chat.ID]; ok {
			text := msg.Text
			at := msg.CreatedAt
			summary.LastMessage = &text
			summary.LastMessageTime = &at
		}

		if !chat.IsGroup {
			if other, ok := counterparts[chat.ID]; ok {
				summary.Name = other.Name
				if other.Avatar != nil {
					summary.Avatar = *other.Avatar
				}
				online := other.Online
				summary.Online = &online
				counterpartID := other.ID
				summary.CounterpartID = &counterpartID
			}
		}

		summaries = append(summaries, summary)
	}

	createdAt := make(map[int]time.Time, len(chats))
	for _, chat := range chats {
		createdAt[chat.ID] = chat.CreatedAt
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return activityTime(summaries[i], createdAt).After(activityTime(summaries[j], createdAt))
	})

	return summaries, nil
}

// activityTime is the sort key: the last message time when any message
// exists, otherwise the chat's creation time.
func activityTime(s models.ChatSummary, createdAt map[int]time.Time) time.Time {
	if s.LastMessageTime != nil {
		return *s.LastMessageTime
	}
	return createdAt[s.ChatID]
}
