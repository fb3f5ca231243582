// Package middleware provides authentication, rate limiting, logging and
// tracing middleware for the HTTP server.
package middleware

import (
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Fiber locals set by the auth middleware.
const (
	LocalUserID = "userID"
	LocalClaims = "sessionClaims"
)

// ErrLoginRequired is the message returned to unauthenticated callers of protected routes.
const ErrLoginRequired = "You must be logged in."

// Authenticator resolves the caller from the session token.
type Authenticator struct {
	codec *session.Codec
}

// NewAuthenticator returns an Authenticator backed by codec.
func NewAuthenticator(codec *session.Codec) *Authenticator {
	return &Authenticator{codec: codec}
}

// resolve verifies the request token and stores the caller in locals and the user context.
func (a *Authenticator) resolve(c *fiber.Ctx) error {
	raw := session.TokenFromRequest(c)
	if raw == "" {
		return session.ErrInvalidToken
	}

	claims, err := a.codec.Verify(c.UserContext(), raw)
	if err != nil {
		return err
	}
	userID, err := claims.UserID()
	if err != nil {
		return err
	}

	c.Locals(LocalUserID, userID)
	c.Locals(LocalClaims, claims)
	c.SetUserContext(observability.WithUserID(c.UserContext(), userID))
	return nil
}

// Optional resolves the caller when a valid token is present and otherwise
// continues as a guest.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_ = a.resolve(c)
		return c.Next()
	}
}

// Required rejects requests without a valid, unrevoked session token.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := a.resolve(c); err != nil {
			msg := ErrLoginRequired
			if errors.Is(err, session.ErrRevoked) {
				msg = "Session has been revoked."
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}
		return c.Next()
	}
}

// UserID returns the authenticated caller, if any.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}

// Claims returns the verified session claims, if any.
func Claims(c *fiber.Ctx) *session.Claims {
	claims, _ := c.Locals(LocalClaims).(*session.Claims)
	return claims
}
