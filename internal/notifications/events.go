package notifications

import (
	"encoding/json"

	"inkwell/internal/models"
)

// Event types pushed to websocket clients.
const (
	EventNewMessage      = "new_message"
	EventMessagesDropped = "messages_dropped"
	EventPong            = "pong"
)

// Event is the frame written to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// NewMessagePayload announces a message to its recipient.
type NewMessagePayload struct {
	ConversationID uint            `json:"conversation_id"`
	Message        *models.Message `json:"message"`
}

func encodeEvent(eventType string, payload any) ([]byte, error) {
	return json.Marshal(Event{Type: eventType, Payload: payload})
}
