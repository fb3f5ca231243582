// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a registered account. Email is stored normalized (trimmed, lowercase).
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Bio          string    `gorm:"type:text" json:"bio"`
	Avatar       *string   `gorm:"type:text" json:"avatar,omitempty"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is a user without private fields, safe to show to anyone.
type PublicUser struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	Avatar    *string   `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Public strips private fields from u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

// FollowStats holds follower and following counts for a user.
type FollowStats struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// Profile is the public profile page payload.
type Profile struct {
	User        PublicUser  `json:"user"`
	Stats       FollowStats `json:"stats"`
	PostCount   int64       `json:"post_count"`
	IsFollowing bool        `json:"is_following"`
	IsSelf      bool        `json:"is_self"`
}
