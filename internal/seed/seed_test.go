package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/store"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Connect(context.Background(), &config.Config{Env: "test", DBDriver: config.DriverSQLite})
	require.NoError(t, err)
	st := store.New(db, nil, store.Options{})
	t.Cleanup(func() { _ = st.Close() })
	return st
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLoadFixture(t *testing.T) {
	f, err := LoadFixture()
	require.NoError(t, err)

	assert.Equal(t, "password123", f.Password)
	require.Len(t, f.Users, 3)
	assert.Equal(t, "alexchen", f.Users[0].Username)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), f.Users[0].Joined.UTC())
	assert.Nil(t, f.Users[2].Avatar)
	assert.Len(t, f.Posts, 8)
}

func TestSeedFixture(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	res, err := Seed(ctx, st, Options{HashCost: bcrypt.MinCost, Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	assert.Equal(t, &Result{Users: 3, Posts: 8}, res)

	alex, err := st.Users.GetByEmail(ctx, "alex@example.com")
	require.NoError(t, err)
	require.NotNil(t, alex)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(alex.PasswordHash), []byte("password123")))
	require.NotNil(t, alex.Avatar)
	assert.True(t, strings.HasPrefix(*alex.Avatar, "data:image/webp;base64,"))

	sam, err := st.Users.GetByEmail(ctx, "sam@example.com")
	require.NoError(t, err)
	assert.Nil(t, sam.Avatar)

	post, err := st.Posts.GetBySlug(ctx, "behind-the-scenes-my-development-setup")
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, models.VisibilityAuthenticated, post.Visibility)
	assert.Equal(t, "Alex Chen", post.AuthorName)
	assert.WithinDuration(t, fixedNow.AddDate(0, 0, -3), post.CreatedAt, time.Second)

	public, err := st.Posts.Count(ctx, models.PostFilter{PublicOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(6), public)

	latest, err := st.Posts.List(ctx, models.PostFilter{PublicOnly: true}, 1, 0)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "getting-started-with-next-js-app-router", latest[0].Slug)
}

func TestSeedSkipsExistingFixture(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	opts := Options{HashCost: bcrypt.MinCost}

	_, err := Seed(ctx, st, opts)
	require.NoError(t, err)
	res, err := Seed(ctx, st, opts)
	require.NoError(t, err)
	assert.True(t, res.FixtureSkipped)
	assert.Zero(t, res.Posts)

	opts.Clean = true
	res, err = Seed(ctx, st, opts)
	require.NoError(t, err)
	assert.False(t, res.FixtureSkipped)
	assert.Equal(t, 3, res.Users)
}

func TestSeedExtras(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	res, err := Seed(ctx, st, Options{HashCost: bcrypt.MinCost, ExtraUsers: 4, PostsPerUser: 2})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Users)
	assert.Equal(t, 16, res.Posts)
	assert.Equal(t, 4, res.Follows)

	total, err := st.Posts.Count(ctx, models.PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(16), total)
}

func TestFactory(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	f := NewFactory(st, gofakeit.New(42), "hash")
	f.MaxDays = 10
	f.now = func() time.Time { return fixedNow }

	user, err := f.CreateUser(ctx, func(u *models.User) { u.Name = "Jordan Lee" })
	require.NoError(t, err)
	assert.Equal(t, "jordanlee", user.Username)

	again, err := f.CreateUser(ctx, func(u *models.User) { u.Name = "Jordan Lee" })
	require.NoError(t, err)
	assert.Equal(t, "jordanlee1", again.Username)

	for range 5 {
		post, err := f.CreatePost(ctx, user)
		require.NoError(t, err)
		assert.NotEmpty(t, post.Slug)
		assert.NotEmpty(t, post.Excerpt)
		assert.True(t, post.Visibility.Valid())
		assert.Equal(t, "jordanlee", post.AuthorUsername)
		assert.False(t, post.CreatedAt.Before(fixedNow.AddDate(0, 0, -10)))
		assert.False(t, post.CreatedAt.After(fixedNow))
	}
}

func TestGradientAvatar(t *testing.T) {
	avatar, err := gradientAvatar("#6366f1", "#8b5cf6")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(avatar, "data:image/webp;base64,"))

	for _, bad := range []string{"6366f1", "#12345", "#gggggg"} {
		_, err := gradientAvatar(bad, "#000000")
		assert.Error(t, err, bad)
	}
}
