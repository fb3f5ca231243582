package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_LookupsAreCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	alex := createUser(t, db, "alexchen")

	byEmail, err := repo.GetByEmail(ctx, "  ALEXCHEN@Example.com ")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, alex.ID, byEmail.ID)

	byUsername, err := repo.GetByUsername(ctx, "AlexChen")
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	assert.Equal(t, alex.ID, byUsername.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, models.IsNotFound(err))
}

func TestUserRepository_CreateRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Email: "a@example.com", Username: "a", Name: "A", PasswordHash: "x"}))

	err := repo.Create(ctx, &models.User{Email: "a@example.com", Username: "other", Name: "A", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	err = repo.Create(ctx, &models.User{Email: "b@example.com", Username: "a", Name: "B", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserRepository_AvailableUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	name, err := repo.AvailableUsername(ctx, "alexchen")
	require.NoError(t, err)
	assert.Equal(t, "alexchen", name)

	createUser(t, db, "alexchen")
	createUser(t, db, "alexchen1")
	createUser(t, db, "alexchenx")

	name, err = repo.AvailableUsername(ctx, "alexchen")
	require.NoError(t, err)
	assert.Equal(t, "alexchen2", name)

	createUser(t, db, "a_b")
	name, err = repo.AvailableUsername(ctx, "a_b")
	require.NoError(t, err)
	assert.Equal(t, "a_b1", name)

	name, err = repo.AvailableUsername(ctx, "axb")
	require.NoError(t, err)
	assert.Equal(t, "axb", name)
}

func TestUserRepository_AvailableUsernameSkipsReservedNames(t *testing.T) {
	repo := NewUserRepository(newTestDB(t), nil)

	name, err := repo.AvailableUsername(context.Background(), "Search")
	require.NoError(t, err)
	assert.Equal(t, "search1", name)
}

func TestUserRepository_AvailableUsernameFitsColumn(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	base := strings.Repeat("a", validation.UsernameMaxLength)
	first, err := repo.AvailableUsername(ctx, base)
	require.NoError(t, err)
	assert.Len(t, first, validation.UsernameBaseMaxLength)

	createUser(t, db, first)
	second, err := repo.AvailableUsername(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, first+"1", second)
	assert.LessOrEqual(t, len(second), validation.UsernameMaxLength)
}

func TestUserRepository_UpdateProfileCascadesAuthorName(t *testing.T) {
	db := newTestDB(t)
	c, mr := newTestCache(t)
	users := NewUserRepository(db, c)
	posts := NewPostRepository(db, c)
	ctx := context.Background()

	author := createUser(t, db, "jamie")
	other := createUser(t, db, "sam")

	mine := newPost(author, "Mine", "body")
	theirs := newPost(other, "Theirs", "body")
	require.NoError(t, posts.Create(ctx, mine))
	require.NoError(t, posts.Create(ctx, theirs))

	// warm both caches
	_, err := posts.GetBySlug(ctx, mine.Slug)
	require.NoError(t, err)
	_, err = users.GetPublicByUsername(ctx, "jamie")
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.PostSlugKey(mine.Slug)))
	require.True(t, mr.Exists(cache.ProfileKey("jamie")))

	updated, err := users.UpdateProfile(ctx, author.ID, "Jamie Wilson", "Writes things.")
	require.NoError(t, err)
	assert.Equal(t, "Jamie Wilson", updated.Name)
	assert.Equal(t, "Writes things.", updated.Bio)

	assert.False(t, mr.Exists(cache.PostSlugKey(mine.Slug)))
	assert.False(t, mr.Exists(cache.ProfileKey("jamie")))

	got, err := posts.GetBySlug(ctx, mine.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Jamie Wilson", got.AuthorName)

	untouched, err := posts.GetBySlug(ctx, theirs.Slug)
	require.NoError(t, err)
	assert.Equal(t, "sam", untouched.AuthorName)

	_, err = users.UpdateProfile(ctx, 999, "Nobody", "")
	assert.True(t, models.IsNotFound(err))
}

func TestUserRepository_UpdateAvatar(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	user := createUser(t, db, "avatar")
	avatar := "data:image/webp;base64,AAAA"

	updated, err := repo.UpdateAvatar(ctx, user.ID, &avatar)
	require.NoError(t, err)
	require.NotNil(t, updated.Avatar)
	assert.Equal(t, avatar, *updated.Avatar)

	cleared, err := repo.UpdateAvatar(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.Avatar)

	reloaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Avatar)
}

func TestUserRepository_Search(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	createUser(t, db, "alexchen")
	createUser(t, db, "alfred")
	createUser(t, db, "samrivera")

	found, err := repo.Search(ctx, "al", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "alexchen", found[0].Username)
	assert.Equal(t, "alfred", found[1].Username)

	found, err = repo.Search(ctx, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = repo.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestUserRepository_GetByIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")

	got, err := repo.GetByIDs(ctx, []uint{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "b", got[b.ID].Username)

	empty, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUserRepository_GetByID_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WithArgs(1, 1).
		WillReturnError(errors.New("connection reset"))

	user, err := repo.GetByID(context.Background(), 1)
	assert.Nil(t, user)
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
