package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is a two-party message thread. Participants are stored in
// ascending id order so the pair index matches regardless of who started it.
type Conversation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParticipantA  uint      `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"participant_a"`
	ParticipantB  uint      `gorm:"not null;uniqueIndex:idx_conversation_pair;index" json:"participant_b"`
	LastMessageAt time.Time `gorm:"index" json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// BeforeCreate orders the participant pair.
func (c *Conversation) BeforeCreate(_ *gorm.DB) error {
	c.ParticipantA, c.ParticipantB = OrderedPair(c.ParticipantA, c.ParticipantB)
	return nil
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID uint) uint {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// OrderedPair returns a and b in ascending order.
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// Message is a single message within a conversation.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsRead         bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// ParticipantSummary is the other side of a conversation as shown in lists.
type ParticipantSummary struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar,omitempty"`
}

// ConversationSummary is one row of a user's inbox.
type ConversationSummary struct {
	ID               uint               `json:"id"`
	OtherParticipant ParticipantSummary `json:"other_participant"`
	LastMessage      *Message           `json:"last_message,omitempty"`
	UnreadCount      int64              `json:"unread_count"`
	LastMessageAt    time.Time          `json:"last_message_at"`
	CreatedAt        time.Time          `json:"created_at"`
}

// ConversationDetail is a conversation opened by one of its participants.
type ConversationDetail struct {
	Conversation     Conversation       `json:"conversation"`
	OtherParticipant ParticipantSummary `json:"other_participant"`
	Messages         []Message          `json:"messages"`
}
