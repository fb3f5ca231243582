package cache

import (
	"fmt"
	"strings"
	"time"
)

const (
	PostSlugKeyPrefix = "post:slug:%s"
	ProfileKeyPrefix  = "user:username:%s"
	BlacklistPrefix   = "blacklist:%s"
	RateLimitPrefix   = "rate:%s:%s"
	WSTicketPrefix    = "ws_ticket:%s"
)

const (
	PostTTL     = 30 * time.Minute
	ProfileTTL  = 5 * time.Minute
	WSTicketTTL = 30 * time.Second
)

// PostSlugKey is the cache key of a post looked up by slug.
func PostSlugKey(slug string) string {
	return fmt.Sprintf(PostSlugKeyPrefix, slug)
}

// ProfileKey is the cache key of a public user looked up by username.
func ProfileKey(username string) string {
	return fmt.Sprintf(ProfileKeyPrefix, strings.ToLower(username))
}

// BlacklistKey marks a revoked session token id.
func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistPrefix, jti)
}

// RateLimitKey is the counter key for a limiter scope and client identity.
func RateLimitKey(scope, identity string) string {
	return fmt.Sprintf(RateLimitPrefix, scope, identity)
}

// WSTicketKey holds the user a single-use websocket ticket was issued to.
func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketPrefix, ticket)
}
