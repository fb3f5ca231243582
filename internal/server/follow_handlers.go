package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/:username/follow
// @Summary Follow a user
// @Tags social
// @Param username path string true "Username"
// @Success 200 {object} object{success=bool,following=bool}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/{username}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	created, err := s.followService.FollowUser(c.UserContext(), viewer(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": created, "following": true})
}

// UnfollowUser handles DELETE /api/users/:username/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	removed, err := s.followService.UnfollowUser(c.UserContext(), viewer(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": removed, "following": false})
}

// CheckFollowing handles GET /api/users/:username/follow
func (s *Server) CheckFollowing(c *fiber.Ctx) error {
	following, err := s.followService.CheckIsFollowing(c.UserContext(), viewer(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"following": following})
}

// GetFollowers handles GET /api/users/:username/followers
// @Summary Followers of a user
// @Tags social
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.PublicUser
// @Router /users/{username}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	users, err := s.followService.Followers(c.UserContext(), c.Params("username"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:username/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	users, err := s.followService.Following(c.UserContext(), c.Params("username"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetMyFollowStats handles GET /api/me/stats
func (s *Server) GetMyFollowStats(c *fiber.Ctx) error {
	stats, err := s.followService.GetFollowStats(c.UserContext(), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
