package server

import (
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

type checkEmailRequest struct {
	Email string `json:"email"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordStrengthRequest struct {
	Password string `json:"password"`
}

// authResponse writes an AuthResult: failures keep their envelope with a
// status from their code, successes set the session cookie.
func (s *Server) authResponse(c *fiber.Ctx, result *service.AuthResult, successStatus int) error {
	if !result.Success {
		return c.Status(statusForError(&models.AppError{Code: result.Code})).JSON(result)
	}
	c.Cookie(s.codec.Cookie(result.Session))
	return c.Status(successStatus).JSON(result)
}

// CheckEmail handles POST /api/auth/check-email
// @Summary Check whether an email is registered
// @Tags auth
// @Accept json
// @Produce json
// @Param request body checkEmailRequest true "Email"
// @Success 200 {object} service.CheckEmailResult
// @Router /auth/check-email [post]
func (s *Server) CheckEmail(c *fiber.Ctx) error {
	var req checkEmailRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	result, err := s.authService.CheckEmail(c.UserContext(), req.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// Register handles POST /api/auth/register
// @Summary Create an account
// @Description Registers a user, derives a unique username and starts a session.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} service.AuthResult
// @Failure 409 {object} service.AuthResult
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	result, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return respondError(c, err)
	}
	return s.authResponse(c, result, fiber.StatusCreated)
}

// Login handles POST /api/auth/login
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} service.AuthResult
// @Failure 401 {object} service.AuthResult
// @Failure 404 {object} service.AuthResult
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	result, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return s.authResponse(c, result, fiber.StatusOK)
}

// Logout handles POST /api/auth/logout. It always clears the cookie and
// revokes the token when one was presented.
// @Summary Sign out
// @Tags auth
// @Success 200 {object} object{success=bool}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.authService.Logout(c.UserContext(), middleware.Claims(c)); err != nil {
		return respondError(c, err)
	}
	c.Cookie(s.codec.ClearCookie())
	return c.JSON(fiber.Map{"success": true})
}

// Session handles GET /api/auth/session
// @Summary Current user
// @Description Returns the signed-in user, or null for guests.
// @Tags auth
// @Produce json
// @Success 200 {object} object{user=models.User}
// @Router /auth/session [get]
func (s *Server) Session(c *fiber.Ctx) error {
	user, err := s.authService.CurrentUser(c.UserContext(), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// PasswordStrength handles POST /api/auth/password-strength
// @Summary Score a password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body passwordStrengthRequest true "Password"
// @Success 200 {object} validation.PasswordStrength
// @Router /auth/password-strength [post]
func (s *Server) PasswordStrength(c *fiber.Ctx) error {
	var req passwordStrengthRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return c.JSON(s.authService.PasswordStrength(req.Password))
}
