// Package session issues and verifies signed session tokens and maps them
// to the blog_session cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CookieName is the name of the session cookie.
const CookieName = "blog_session"

var (
	ErrInvalidToken = errors.New("invalid or expired session token")
	ErrRevoked      = errors.New("session token has been revoked")
)

// Claims is the signed token payload. Email, Username and Name are a
// snapshot taken at login and are not authoritative.
type Claims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// Token is a freshly signed session token.
type Token struct {
	Value     string
	Claims    *Claims
	ExpiresAt time.Time
}

// Codec signs and verifies session tokens. A nil Redis client disables revocation.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	secure   bool
	rdb      *redis.Client
	now      func() time.Time
}

// NewCodec builds a Codec from configuration.
func NewCodec(cfg *config.Config, rdb *redis.Client) *Codec {
	return &Codec{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      cfg.SessionTTL(),
		secure:   cfg.IsProduction(),
		rdb:      rdb,
		now:      time.Now,
	}
}

// TTL is the lifetime of issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a new token for user.
func (c *Codec) Issue(user *models.User) (Token, error) {
	if len(c.secret) == 0 {
		return Token{}, fmt.Errorf("JWT secret not configured")
	}

	now := c.now()
	expires := now.Add(c.ttl)
	claims := &Claims{
		Email:    user.Email,
		Username: user.Username,
		Name:     user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign session token: %w", err)
	}
	return Token{Value: signed, Claims: claims, ExpiresAt: expires}, nil
}

// Parse verifies signature, algorithm, expiry, issuer and audience.
func (c *Codec) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// Revoke blacklists the token id until the token would have expired anyway.
func (c *Codec) Revoke(ctx context.Context, claims *Claims) error {
	if c.rdb == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	remaining := claims.ExpiresAt.Sub(c.now())
	if remaining <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, cache.BlacklistKey(claims.ID), "1", remaining).Err()
}

// IsRevoked reports whether the token id has been blacklisted.
func (c *Codec) IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	if c.rdb == nil || claims == nil || claims.ID == "" {
		return false, nil
	}
	n, err := c.rdb.Exists(ctx, cache.BlacklistKey(claims.ID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Verify parses raw and rejects revoked tokens. Redis errors fail open.
func (c *Codec) Verify(ctx context.Context, raw string) (*Claims, error) {
	claims, err := c.Parse(raw)
	if err != nil {
		return nil, err
	}
	if revoked, _ := c.IsRevoked(ctx, claims); revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Cookie returns the session cookie carrying token.
func (c *Codec) Cookie(token Token) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		Expires:  token.ExpiresAt,
		Secure:   c.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// ClearCookie returns a cookie that deletes the session cookie.
func (c *Codec) ClearCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   c.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// TokenFromRequest returns the bearer token or the session cookie, in that
// order. Tokens in the query string are ignored; websocket clients use tickets.
func TokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(CookieName)
}
