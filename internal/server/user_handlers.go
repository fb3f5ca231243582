package server

import (
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

type updateAvatarRequest struct {
	Avatar string `json:"avatar"`
}

// GetMyProfile handles GET /api/me
// @Summary Own account
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Router /me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetMyProfile(c.UserContext(), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetMyPosts handles GET /api/me/posts, including members-only posts.
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	posts, err := s.postService.GetMyPosts(c.UserContext(), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// UpdateMyProfile handles PUT /api/me/profile
// @Summary Edit name and bio
// @Description The new name is applied to all of the user's posts.
// @Tags users
// @Accept json
// @Produce json
// @Param request body updateProfileRequest true "Profile"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /me/profile [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID: viewer(c),
		Name:   req.Name,
		Bio:    req.Bio,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyAvatar handles PUT /api/me/avatar with an image data URL.
// @Summary Upload avatar
// @Tags users
// @Accept json
// @Produce json
// @Param request body updateAvatarRequest true "Image data URL"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /me/avatar [put]
func (s *Server) UpdateMyAvatar(c *fiber.Ctx) error {
	var req updateAvatarRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateAvatar(c.UserContext(), viewer(c), req.Avatar)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteMyAvatar handles DELETE /api/me/avatar
func (s *Server) DeleteMyAvatar(c *fiber.Ctx) error {
	user, err := s.userService.DeleteAvatar(c.UserContext(), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:username
// @Summary Public profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	profile, err := s.userService.GetUserByUsername(c.UserContext(), viewer(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetUserPosts handles GET /api/users/:username/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	posts, err := s.postService.GetUserPosts(c.UserContext(), viewer(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// SearchUsers handles GET /api/users/search?q=
// @Summary Search users by name or username
// @Tags users
// @Produce json
// @Param q query string true "Query"
// @Success 200 {array} models.PublicUser
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 10)
	users, err := s.userService.SearchUsers(c.UserContext(), c.Query("q"), page.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
