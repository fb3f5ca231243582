package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

// MessageMaxLength caps a single direct message, in characters.
const MessageMaxLength = 2000

// MessageNotifier delivers a new message to its recipient in real time.
type MessageNotifier interface {
	NotifyNewMessage(ctx context.Context, recipientID uint, msg *models.Message) error
}

type MessageService struct {
	conversations repository.ConversationRepository
	users         repository.UserRepository
	notifier      MessageNotifier
}

// NewMessageService returns a MessageService. notifier may be nil.
func NewMessageService(conversations repository.ConversationRepository, users repository.UserRepository, notifier MessageNotifier) *MessageService {
	return &MessageService{conversations: conversations, users: users, notifier: notifier}
}

func loginRequired() error {
	return models.NewUnauthorizedError("You must be logged in.")
}

// participant summarizes user, with placeholders for accounts that no longer exist.
func participant(id uint, user *models.User) models.ParticipantSummary {
	if user == nil {
		return models.ParticipantSummary{ID: id, Name: "Unknown", Username: "unknown"}
	}
	return models.ParticipantSummary{ID: user.ID, Name: user.Name, Username: user.Username, Avatar: user.Avatar}
}

// GetConversations lists the caller's inbox, most recent activity first.
func (s *MessageService) GetConversations(ctx context.Context, callerID uint) ([]models.ConversationSummary, error) {
	if callerID == 0 {
		return nil, loginRequired()
	}

	convs, err := s.conversations.ListForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(convs))
	others := make([]uint, 0, len(convs))
	for i := range convs {
		ids = append(ids, convs[i].ID)
		others = append(others, convs[i].OtherParticipant(callerID))
	}

	users, err := s.users.GetByIDs(ctx, others)
	if err != nil {
		return nil, err
	}
	last, err := s.conversations.LastMessages(ctx, ids)
	if err != nil {
		return nil, err
	}
	unread, err := s.conversations.UnreadCounts(ctx, ids, callerID)
	if err != nil {
		return nil, err
	}

	out := make([]models.ConversationSummary, 0, len(convs))
	for i, conv := range convs {
		out = append(out, models.ConversationSummary{
			ID:               conv.ID,
			OtherParticipant: participant(others[i], users[others[i]]),
			LastMessage:      last[conv.ID],
			UnreadCount:      unread[conv.ID],
			LastMessageAt:    conv.LastMessageAt,
			CreatedAt:        conv.CreatedAt,
		})
	}
	return out, nil
}

// GetConversation opens a conversation the caller takes part in and marks
// the other participant's messages read.
func (s *MessageService) GetConversation(ctx context.Context, callerID, convID uint) (*models.ConversationDetail, error) {
	if callerID == 0 {
		return nil, loginRequired()
	}

	conv, err := s.conversations.GetByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if conv == nil || !conv.HasParticipant(callerID) {
		return nil, models.NewNotFoundMessage("Conversation not found.")
	}

	if _, err := s.conversations.MarkRead(ctx, conv.ID, callerID); err != nil {
		return nil, err
	}
	msgs, err := s.conversations.Messages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	otherID := conv.OtherParticipant(callerID)
	other, err := s.users.GetByID(ctx, otherID)
	if err != nil && !models.IsNotFound(err) {
		return nil, err
	}

	return &models.ConversationDetail{
		Conversation:     *conv,
		OtherParticipant: participant(otherID, other),
		Messages:         msgs,
	}, nil
}

// StartConversation returns the existing conversation with otherUserID or creates it.
func (s *MessageService) StartConversation(ctx context.Context, callerID, otherUserID uint) (*models.Conversation, error) {
	if callerID == 0 {
		return nil, loginRequired()
	}
	if callerID == otherUserID {
		return nil, models.NewValidationError("You cannot message yourself.")
	}
	if _, err := s.users.GetByID(ctx, otherUserID); err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewNotFoundMessage("User not found.")
		}
		return nil, err
	}
	return s.conversations.GetOrCreate(ctx, callerID, otherUserID)
}

// SendMessage appends a message and notifies the recipient. Unknown
// conversations and non-participants get the same generic failure.
func (s *MessageService) SendMessage(ctx context.Context, callerID, convID uint, content string) (_ *models.Message, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "MessageService", "SendMessage")
	defer func() { observability.EndSpan(span, err) }()

	if callerID == 0 {
		return nil, loginRequired()
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message cannot be empty.")
	}
	if utf8.RuneCountInString(content) > MessageMaxLength {
		return nil, models.NewValidationError("Message must be less than 2000 characters.")
	}

	conv, err := s.conversations.GetByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if conv == nil || !conv.HasParticipant(callerID) {
		return nil, models.NewNotFoundMessage("Failed to send message.")
	}

	msg, err := s.conversations.SendMessage(ctx, convID, callerID, content)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, models.NewNotFoundMessage("Failed to send message.")
	}
	observability.MessagesSent.Inc()

	if s.notifier != nil {
		if nerr := s.notifier.NotifyNewMessage(ctx, conv.OtherParticipant(callerID), msg); nerr != nil {
			observability.Logger.WarnContext(ctx, "realtime delivery failed", "conversation_id", convID, "error", nerr.Error())
		}
	}
	return msg, nil
}

// GetUnreadCount is zero for guests.
func (s *MessageService) GetUnreadCount(ctx context.Context, callerID uint) (int64, error) {
	if callerID == 0 {
		return 0, nil
	}
	return s.conversations.UnreadCount(ctx, callerID)
}
