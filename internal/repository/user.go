package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/validation"

	"gorm.io/gorm"
)

var (
	// ErrEmailTaken is returned when creating a user whose email already exists.
	ErrEmailTaken = models.NewConflictError("An account with this email already exists.")
	// ErrUsernameTaken is returned when creating a user whose username already exists.
	ErrUsernameTaken = models.NewConflictError("This username is already taken.")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error)
	// GetByEmail and GetByUsername return (nil, nil) when no user matches.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetPublicByUsername(ctx context.Context, username string) (*models.PublicUser, error)
	AvailableUsername(ctx context.Context, base string) (string, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, name, bio string) (*models.User, error)
	UpdateAvatar(ctx context.Context, id uint, avatar *string) (*models.User, error)
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation. c may be nil.
func NewUserRepository(db *gorm.DB, c *cache.Cache) UserRepository {
	return &userRepository{db: db, cache: c, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOrInternal(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error) {
	out := make(map[uint]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (r *userRepository) findOne(ctx context.Context, column, value string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where(fmt.Sprintf("LOWER(%s) = ?", column), strings.ToLower(strings.TrimSpace(value))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *userRepository) GetPublicByUsername(ctx context.Context, username string) (*models.PublicUser, error) {
	return cache.Aside(ctx, r.cache, cache.ProfileKey(username), cache.ProfileTTL,
		func(ctx context.Context) (*models.PublicUser, error) {
			user, err := r.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if user == nil {
				return nil, models.NewNotFoundError("User", username)
			}
			public := user.Public()
			return &public, nil
		})
}

// AvailableUsername returns base if free, otherwise base followed by the
// smallest positive integer suffix that is free. Reserved names count as taken
// and base is capped so the suffixed name fits the username column.
func (r *userRepository) AvailableUsername(ctx context.Context, base string) (string, error) {
	base = validation.UsernameBase(strings.ToLower(base))
	var taken []string
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = ? OR LOWER(username) LIKE ? ESCAPE '\\'", base, escapeLike(base)+"%").
		Pluck("LOWER(username)", &taken).Error
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return firstFree(base, "", append(taken, validation.ReservedUsernames()...)), nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		switch {
		case violatesColumn(err, "email"):
			return ErrEmailTaken
		case violatesColumn(err, "username"):
			return ErrUsernameTaken
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogWrite(ctx, "create", "user_id", user.ID)
	return nil
}

// UpdateProfile changes name and bio and rewrites the author name on every
// post by the user in the same transaction.
func (r *userRepository) UpdateProfile(ctx context.Context, id uint, name, bio string) (*models.User, error) {
	var user models.User
	var slugs []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return notFoundOrInternal(err, "User", id)
		}

		if err := tx.Model(&user).Updates(map[string]any{"name": name, "bio": bio}).Error; err != nil {
			return models.NewInternalError(err)
		}
		user.Name, user.Bio = name, bio

		if err := tx.Model(&models.Post{}).
			Where("author_id = ?", id).
			Update("author_name", name).Error; err != nil {
			return models.NewInternalError(err)
		}

		return tx.Model(&models.Post{}).Where("author_id = ?", id).Pluck("slug", &slugs).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "update_profile")
		return nil, err
	}

	keys := make([]string, 0, len(slugs)+1)
	keys = append(keys, cache.ProfileKey(user.Username))
	for _, slug := range slugs {
		keys = append(keys, cache.PostSlugKey(slug))
	}
	r.cache.Invalidate(ctx, keys...)
	r.log.LogWrite(ctx, "update_profile", "user_id", id, "posts", len(slugs))

	return &user, nil
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id uint, avatar *string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOrInternal(err, "User", id)
	}
	if err := r.db.WithContext(ctx).Model(&user).Update("avatar", avatar).Error; err != nil {
		r.log.LogError(ctx, err, "update_avatar")
		return nil, models.NewInternalError(err)
	}
	user.Avatar = avatar
	r.cache.Invalidate(ctx, cache.ProfileKey(user.Username))
	return &user, nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var users []models.User
	if q == "" {
		return users, nil
	}
	pattern := escapeLike(q) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(name) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("username ASC").
		Limit(clampLimit(limit)).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// escapeLike escapes LIKE wildcards for use with ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

// firstFree returns base if unused, else base+sep+N for the smallest N >= 1 not in taken.
func firstFree(base, sep string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[t] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base
	}
	for n := 1; ; n++ {
		candidate := base + sep + strconv.Itoa(n)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}
