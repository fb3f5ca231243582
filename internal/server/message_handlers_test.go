package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) startConversation(t *testing.T, from account, to uint) models.Conversation {
	t.Helper()
	res := e.do(t, http.MethodPost, "/api/conversations", map[string]uint{"user_id": to}, from.Token)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	var conv models.Conversation
	res.decode(t, &conv)
	return conv
}

func unread(t *testing.T, env *testEnv, who account) float64 {
	t.Helper()
	res := env.do(t, http.MethodGet, "/api/conversations/unread", nil, who.Token)
	require.Equal(t, http.StatusOK, res.Status)
	return res.object(t)["count"].(float64)
}

func TestConversationFlow(t *testing.T) {
	env := newTestEnv(t)
	alex := env.register(t, "Alex Chen", "alex@example.com")
	jamie := env.register(t, "Jamie Wilson", "jamie@example.com")

	conv := env.startConversation(t, alex, jamie.ID)
	again := env.startConversation(t, jamie, alex.ID)
	assert.Equal(t, conv.ID, again.ID)

	path := fmt.Sprintf("/api/conversations/%d", conv.ID)
	res := env.do(t, http.MethodPost, path+"/messages", map[string]string{"content": "  Hi Jamie!  "}, alex.Token)
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))
	var msg models.Message
	res.decode(t, &msg)
	assert.Equal(t, "Hi Jamie!", msg.Content)
	assert.Equal(t, alex.ID, msg.SenderID)
	assert.False(t, msg.IsRead)

	assert.Equal(t, float64(1), unread(t, env, jamie))
	assert.Equal(t, float64(0), unread(t, env, alex))

	var inbox []models.ConversationSummary
	env.do(t, http.MethodGet, "/api/conversations", nil, jamie.Token).decode(t, &inbox)
	require.Len(t, inbox, 1)
	assert.Equal(t, "alexchen", inbox[0].OtherParticipant.Username)
	assert.Equal(t, int64(1), inbox[0].UnreadCount)
	require.NotNil(t, inbox[0].LastMessage)
	assert.Equal(t, "Hi Jamie!", inbox[0].LastMessage.Content)

	var detail models.ConversationDetail
	res = env.do(t, http.MethodGet, path, nil, jamie.Token)
	require.Equal(t, http.StatusOK, res.Status)
	res.decode(t, &detail)
	assert.Equal(t, "alexchen", detail.OtherParticipant.Username)
	require.Len(t, detail.Messages, 1)

	assert.Equal(t, float64(0), unread(t, env, jamie))
}

func TestConversationAccess(t *testing.T) {
	env := newTestEnv(t)
	alex := env.register(t, "Alex Chen", "alex@example.com")
	jamie := env.register(t, "Jamie Wilson", "jamie@example.com")
	sam := env.register(t, "Sam Rivera", "sam@example.com")
	conv := env.startConversation(t, alex, jamie.ID)
	path := fmt.Sprintf("/api/conversations/%d", conv.ID)

	res := env.do(t, http.MethodGet, path, nil, sam.Token)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Conversation not found.", res.object(t)["error"])

	res = env.do(t, http.MethodPost, path+"/messages", map[string]string{"content": "Let me in"}, sam.Token)
	assert.Equal(t, http.StatusNotFound, res.Status)

	res = env.do(t, http.MethodGet, "/api/conversations", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestStartConversationErrors(t *testing.T) {
	env := newTestEnv(t)
	alex := env.register(t, "Alex Chen", "alex@example.com")

	res := env.do(t, http.MethodPost, "/api/conversations", map[string]uint{"user_id": alex.ID}, alex.Token)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "You cannot message yourself.", res.object(t)["error"])

	res = env.do(t, http.MethodPost, "/api/conversations", map[string]uint{"user_id": 9999}, alex.Token)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestSendMessageValidation(t *testing.T) {
	env := newTestEnv(t)
	alex := env.register(t, "Alex Chen", "alex@example.com")
	jamie := env.register(t, "Jamie Wilson", "jamie@example.com")
	conv := env.startConversation(t, alex, jamie.ID)
	path := fmt.Sprintf("/api/conversations/%d/messages", conv.ID)

	res := env.do(t, http.MethodPost, path, map[string]string{"content": "   "}, alex.Token)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Message cannot be empty.", res.object(t)["error"])

	res = env.do(t, http.MethodPost, path, map[string]string{"content": strings.Repeat("x", 2001)}, alex.Token)
	assert.Equal(t, http.StatusBadRequest, res.Status)
}
