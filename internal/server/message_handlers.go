package server

import (
	"github.com/gofiber/fiber/v2"
)

type startConversationRequest struct {
	UserID uint `json:"user_id"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// GetConversations handles GET /api/conversations
// @Summary Inbox
// @Description Conversations of the caller, most recent activity first.
// @Tags messages
// @Produce json
// @Success 200 {array} models.ConversationSummary
// @Router /conversations [get]
func (s *Server) GetConversations(c *fiber.Ctx) error {
	convs, err := s.messageService.GetConversations(c.UserContext(), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(convs)
}

// StartConversation handles POST /api/conversations. It returns the existing
// conversation with the user when there is one.
// @Summary Start or reopen a conversation
// @Tags messages
// @Accept json
// @Produce json
// @Param request body startConversationRequest true "Other user"
// @Success 200 {object} models.Conversation
// @Failure 400 {object} models.ErrorResponse
// @Router /conversations [post]
func (s *Server) StartConversation(c *fiber.Ctx) error {
	var req startConversationRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	conv, err := s.messageService.StartConversation(c.UserContext(), viewer(c), req.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conv)
}

// GetConversation handles GET /api/conversations/:id and marks it read.
// @Summary Open a conversation
// @Tags messages
// @Produce json
// @Param id path int true "Conversation ID"
// @Success 200 {object} models.ConversationDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /conversations/{id} [get]
func (s *Server) GetConversation(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	detail, err := s.messageService.GetConversation(c.UserContext(), viewer(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// SendMessage handles POST /api/conversations/:id/messages
// @Summary Send a message
// @Tags messages
// @Accept json
// @Produce json
// @Param id path int true "Conversation ID"
// @Param request body sendMessageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /conversations/{id}/messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	var req sendMessageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	msg, err := s.messageService.SendMessage(c.UserContext(), viewer(c), id, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetUnreadCount handles GET /api/conversations/unread
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.messageService.GetUnreadCount(c.UserContext(), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}
