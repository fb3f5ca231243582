package service

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/session"
	"inkwell/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// Redirect targets suggested to the client after a failed login or registration.
const (
	RedirectLogin    = "login"
	RedirectRegister = "register"
)

// usernameAttempts bounds retries when a concurrent registration takes the derived username.
const usernameAttempts = 3

// CheckEmailResult tells the client which auth form to show.
type CheckEmailResult struct {
	Exists bool   `json:"exists"`
	Email  string `json:"email"`
}

// AuthResult is the outcome of a login or registration. Unsuccessful results
// carry a user-facing error and, for unknown or known emails, a redirect hint.
type AuthResult struct {
	Success        bool               `json:"success"`
	Error          string             `json:"error,omitempty"`
	Code           string             `json:"code,omitempty"`
	ShouldRedirect string             `json:"shouldRedirect,omitempty"`
	Message        string             `json:"message,omitempty"`
	User           *models.PublicUser `json:"user,omitempty"`
	Token          string             `json:"token,omitempty"`

	// Session is the signed token to place in the session cookie.
	Session session.Token `json:"-"`
}

func failed(code, msg string) *AuthResult {
	return &AuthResult{Success: false, Code: code, Error: msg}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type AuthService struct {
	users    repository.UserRepository
	codec    *session.Codec
	hashCost int
}

// NewAuthService returns an AuthService. hashCost <= 0 uses bcrypt.DefaultCost.
func NewAuthService(users repository.UserRepository, codec *session.Codec, hashCost int) *AuthService {
	if hashCost <= 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, codec: codec, hashCost: hashCost}
}

func (s *AuthService) CheckEmail(ctx context.Context, email string) (*CheckEmailResult, error) {
	normalized := validation.NormalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	return &CheckEmailResult{Exists: user != nil, Email: normalized}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (_ *AuthResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "AuthService", "Register")
	defer func() { observability.EndSpan(span, err) }()

	email := validation.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		observability.AuthEvents.WithLabelValues("register", "exists").Inc()
		return alreadyRegistered(), nil
	}

	if name == "" {
		return failed(models.CodeValidation, "Please enter your name."), nil
	}
	if err := validation.ValidateNameMax(name); err != nil {
		return failed(models.CodeValidation, err.Error()), nil
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return failed(models.CodeValidation, err.Error()), nil
	}
	if err := validation.ValidateEmail(email); err != nil {
		return failed(models.CodeValidation, err.Error()), nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	base := validation.DeriveUsername(name)
	for range usernameAttempts {
		user.Username, err = s.users.AvailableUsername(ctx, base)
		if err != nil {
			return nil, err
		}
		err = s.users.Create(ctx, user)
		if !errors.Is(err, repository.ErrUsernameTaken) {
			break
		}
		user.ID = 0
	}
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		return alreadyRegistered(), nil
	case err != nil:
		observability.AuthEvents.WithLabelValues("register", "error").Inc()
		return nil, err
	}

	observability.AuthEvents.WithLabelValues("register", "success").Inc()
	return s.signedIn(user)
}

func alreadyRegistered() *AuthResult {
	return &AuthResult{
		Success:        false,
		Code:           models.CodeConflict,
		Error:          "An account with this email already exists.",
		ShouldRedirect: RedirectLogin,
		Message:        "You already have an account! Taking you to login...",
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (_ *AuthResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "AuthService", "Login")
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		observability.AuthEvents.WithLabelValues("login", "unknown_email").Inc()
		return &AuthResult{
			Success:        false,
			Code:           models.CodeNotFound,
			Error:          "No account found with this email.",
			ShouldRedirect: RedirectRegister,
			Message:        "No account found. Creating one for you...",
		}, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		observability.AuthEvents.WithLabelValues("login", "bad_password").Inc()
		return failed(models.CodeUnauthorized, "Incorrect password. Please try again."), nil
	}

	observability.AuthEvents.WithLabelValues("login", "success").Inc()
	return s.signedIn(user)
}

func (s *AuthService) signedIn(user *models.User) (*AuthResult, error) {
	token, err := s.codec.Issue(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	public := user.Public()
	return &AuthResult{Success: true, User: &public, Token: token.Value, Session: token}, nil
}

// Logout revokes the session token. Without Redis this is a no-op and the
// caller only clears the cookie.
func (s *AuthService) Logout(ctx context.Context, claims *session.Claims) error {
	if claims == nil {
		return nil
	}
	if err := s.codec.Revoke(ctx, claims); err != nil {
		return models.NewInternalError(err)
	}
	observability.AuthEvents.WithLabelValues("logout", "success").Inc()
	return nil
}

// CurrentUser returns the signed-in user, or nil for guests and deleted accounts.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if models.IsNotFound(err) {
		return nil, nil
	}
	return user, err
}

// PasswordStrength scores password for the registration form meter.
func (s *AuthService) PasswordStrength(password string) validation.PasswordStrength {
	return validation.GetPasswordStrength(password)
}
