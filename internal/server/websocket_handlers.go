package server

import (
	"errors"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a websocket ticket
// @Description Returns a single-use ticket valid for 30 seconds, passed as ?ticket= to /api/ws.
// @Tags realtime
// @Produce json
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	ticket, err := s.tickets.Issue(c.UserContext(), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(s.tickets.ttl.Seconds()),
	})
}

// wsAuth authenticates websocket upgrades with a ticket, falling back to the
// session cookie or bearer token.
func (s *Server) wsAuth() fiber.Handler {
	required := s.auth.Required()
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if ticket := c.Query("ticket"); ticket != "" {
			userID, ok := s.tickets.Redeem(c.UserContext(), ticket)
			if !ok {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired websocket ticket."))
			}
			c.Locals(middleware.LocalUserID, userID)
			c.SetUserContext(observability.WithUserID(c.UserContext(), userID))
			return c.Next()
		}
		return required(c)
	}
}

// WebsocketHandler handles GET /api/ws. Each connection receives the
// caller's realtime events.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals(middleware.LocalUserID).(uint)
		if !ok || userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			code := websocket.CloseTryAgainLater
			if !errors.Is(err, notifications.ErrServerFull) && !errors.Is(err, notifications.ErrUserFull) {
				code = websocket.CloseInternalServerErr
			}
			observability.Logger.Warn("websocket rejected", "user_id", userID, "error", err.Error())
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, err.Error()))
			_ = conn.Close()
			return
		}

		observability.Logger.Debug("websocket connected", "user_id", userID)
		go client.WritePump()
		client.ReadPump()
	})
}
