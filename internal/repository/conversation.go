package repository

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errNotParticipant = errors.New("sender is not a participant")

// ConversationRepository defines the interface for direct message operations
type ConversationRepository interface {
	// GetOrCreate returns the conversation for the unordered pair, creating it once.
	GetOrCreate(ctx context.Context, a, b uint) (*models.Conversation, error)
	// GetByID returns (nil, nil) when the conversation does not exist.
	GetByID(ctx context.Context, id uint) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error)
	LastMessages(ctx context.Context, convIDs []uint) (map[uint]*models.Message, error)
	UnreadCounts(ctx context.Context, convIDs []uint, readerID uint) (map[uint]int64, error)
	// SendMessage returns (nil, nil) for an unknown conversation or a sender
	// outside it.
	SendMessage(ctx context.Context, convID, senderID uint, content string) (*models.Message, error)
	Messages(ctx context.Context, convID uint) ([]models.Message, error)
	MarkRead(ctx context.Context, convID, readerID uint) (int64, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	UnreadCountIn(ctx context.Context, convID, userID uint) (int64, error)
}

// conversationRepository implements ConversationRepository
type conversationRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db, log: observability.NewRepoLogger("conversations")}
}

func (r *conversationRepository) GetOrCreate(ctx context.Context, a, b uint) (*models.Conversation, error) {
	lo, hi := models.OrderedPair(a, b)
	now := time.Now()

	conv := models.Conversation{ParticipantA: lo, ParticipantB: hi, LastMessageAt: now, CreatedAt: now}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&conv)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "create")
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.LogWrite(ctx, "create", "conversation_id", conv.ID)
	}

	var existing models.Conversation
	err := r.db.WithContext(ctx).
		Where("participant_a = ? AND participant_b = ?", lo, hi).
		First(&existing).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &existing, nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.WithContext(ctx).First(&conv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &conv, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	convs := []models.Conversation{}
	err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("last_message_at DESC").
		Order("id DESC").
		Find(&convs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return convs, nil
}

func (r *conversationRepository) LastMessages(ctx context.Context, convIDs []uint) (map[uint]*models.Message, error) {
	out := make(map[uint]*models.Message, len(convIDs))
	if len(convIDs) == 0 {
		return out, nil
	}

	latest := r.db.Model(&models.Message{}).
		Select("MAX(id)").
		Where("conversation_id IN ?", convIDs).
		Group("conversation_id")

	var msgs []models.Message
	if err := r.db.WithContext(ctx).Where("id IN (?)", latest).Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range msgs {
		out[msgs[i].ConversationID] = &msgs[i]
	}
	return out, nil
}

type conversationCount struct {
	ConversationID uint
	Count          int64
}

func (r *conversationRepository) UnreadCounts(ctx context.Context, convIDs []uint, readerID uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(convIDs))
	if len(convIDs) == 0 {
		return out, nil
	}

	var rows []conversationCount
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ?", convIDs, readerID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.ConversationID] = row.Count
	}
	return out, nil
}

func (r *conversationRepository) SendMessage(ctx context.Context, convID, senderID uint, content string) (*models.Message, error) {
	var msg models.Message

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.First(&conv, convID).Error; err != nil {
			return err
		}
		if !conv.HasParticipant(senderID) {
			return errNotParticipant
		}

		msg = models.Message{ConversationID: convID, SenderID: senderID, Content: content}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		return tx.Model(&models.Conversation{}).
			Where("id = ?", convID).
			Update("last_message_at", msg.CreatedAt).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, errNotParticipant):
		return nil, nil
	case err != nil:
		r.log.LogError(ctx, err, "send_message")
		return nil, models.NewInternalError(err)
	}

	r.log.LogWrite(ctx, "send_message", "conversation_id", convID, "message_id", msg.ID)
	return &msg, nil
}

func (r *conversationRepository) Messages(ctx context.Context, convID uint) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

func (r *conversationRepository) MarkRead(ctx context.Context, convID, readerID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", convID, readerID, false).
		Update("is_read", true)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "mark_read")
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *conversationRepository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.participant_a = ? OR conversations.participant_b = ?)", userID, userID).
		Where("messages.sender_id <> ? AND messages.is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *conversationRepository) UnreadCountIn(ctx context.Context, convID, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", convID, userID, false).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
