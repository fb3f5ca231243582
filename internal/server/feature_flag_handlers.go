package server

import (
	"inkwell/internal/featureflags"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured feature flags and their evaluated state for the caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(viewer(c)),
	})
}

// requireRealtime hides the realtime endpoints from callers outside the
// realtime_messages rollout.
func (s *Server) requireRealtime(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.RealtimeMessages, viewer(c)) {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundMessage("Realtime messaging is not available."))
	}
	return c.Next()
}
