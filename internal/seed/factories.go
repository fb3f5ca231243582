package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/store"
	"inkwell/internal/topics"
	"inkwell/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
)

// createAttempts bounds retries when a generated email collides.
const createAttempts = 5

// Factory builds fake accounts and posts and persists them through the
// store's repositories.
type Factory struct {
	users        repository.UserRepository
	posts        repository.PostRepository
	faker        *gofakeit.Faker
	passwordHash string
	// MaxDays spreads post dates over this many days back.
	MaxDays int
	now     func() time.Time
}

// NewFactory creates a Factory. Every generated account gets passwordHash.
func NewFactory(st *store.Store, faker *gofakeit.Faker, passwordHash string) *Factory {
	return &Factory{
		users:        st.Users,
		posts:        st.Posts,
		faker:        faker,
		passwordHash: passwordHash,
		MaxDays:      90,
		now:          time.Now,
	}
}

// BuildUser returns an unsaved account with a display name, email and bio.
func (f *Factory) BuildUser() *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	return &models.User{
		Name:         first + " " + last,
		Email:        strings.ToLower(fmt.Sprintf("%s.%s.%d@example.com", first, last, f.faker.Number(100, 99999))),
		Bio:          f.faker.Sentence(12),
		PasswordHash: f.passwordHash,
	}
}

// CreateUser persists a generated account under the first free username
// derived from its name. overrides run before the insert.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	var lastErr error
	for range createAttempts {
		user := f.BuildUser()
		for _, override := range overrides {
			override(user)
		}

		username, err := f.users.AvailableUsername(ctx, validation.DeriveUsername(user.Name))
		if err != nil {
			return nil, err
		}
		user.Username = username

		err = f.users.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrEmailTaken) && !errors.Is(err, repository.ErrUsernameTaken) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("create fake user: %w", lastErr)
}

// BuildPost returns an unsaved post by author dated within MaxDays.
func (f *Factory) BuildPost(author *models.User) *models.Post {
	ids := make([]string, 0, len(topics.All()))
	for _, t := range topics.All() {
		ids = append(ids, t.ID)
	}

	visibility := models.VisibilityPublic
	if f.faker.Number(1, 4) == 1 {
		visibility = models.VisibilityAuthenticated
	}

	age := time.Duration(f.faker.Number(0, max(f.MaxDays*24-1, 0))) * time.Hour
	return &models.Post{
		Title:          strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), "."),
		Content:        f.faker.Paragraph(f.faker.Number(2, 4), 4, 12, "\n\n"),
		Topic:          f.faker.RandomString(ids),
		AuthorID:       author.ID,
		AuthorName:     author.Name,
		AuthorUsername: author.Username,
		Visibility:     visibility,
		CreatedAt:      f.now().Add(-age),
	}
}

// CreatePost persists a generated post. overrides run before the insert.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author)
	for _, override := range overrides {
		override(post)
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create fake post: %w", err)
	}
	return post, nil
}
