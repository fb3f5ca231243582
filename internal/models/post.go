package models

import "time"

// Visibility controls who can read a post.
type Visibility string

const (
	// VisibilityPublic posts are readable by everyone.
	VisibilityPublic Visibility = "public"
	// VisibilityAuthenticated posts are readable only by logged in users.
	VisibilityAuthenticated Visibility = "authenticated"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityAuthenticated
}

// Post is a blog post. AuthorName and AuthorUsername are denormalized from
// the author and kept in sync when the author renames.
type Post struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Slug           string     `gorm:"size:160;not null;uniqueIndex" json:"slug"`
	Title          string     `gorm:"size:200;not null" json:"title"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Excerpt        string     `gorm:"type:text;not null" json:"excerpt"`
	Topic          string     `gorm:"size:32;not null;index" json:"topic"`
	AuthorID       uint       `gorm:"not null;index" json:"author_id"`
	AuthorName     string     `gorm:"size:100;not null" json:"author_name"`
	AuthorUsername string     `gorm:"size:64;not null" json:"author_username"`
	Visibility     Visibility `gorm:"type:varchar(20);not null;default:'public';index" json:"visibility"`
	// ReadingTime is not persisted; computed when rendering
	ReadingTime int       `gorm:"-" json:"reading_time"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PostPatch carries a partial post update. Nil fields are left untouched.
type PostPatch struct {
	Title      *string
	Content    *string
	Topic      *string
	Visibility *Visibility
}

// PostFilter narrows a post listing.
type PostFilter struct {
	Topic      string
	AuthorID   uint
	PublicOnly bool
}
