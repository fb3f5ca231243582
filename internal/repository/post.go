package repository

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/validation"

	"gorm.io/gorm"
)

// slugAttempts bounds retries when a concurrent writer claims the same slug.
const slugAttempts = 5

// PostRepository defines the interface for post data operations
type PostRepository interface {
	// Create derives slug and excerpt from title and content before inserting.
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, filter models.PostFilter, limit, offset int) ([]models.Post, error)
	Count(ctx context.Context, filter models.PostFilter) (int64, error)
	// Update returns (nil, nil) when the post is missing or not owned by authorID.
	Update(ctx context.Context, id, authorID uint, patch models.PostPatch) (*models.Post, error)
	// Delete returns false when the post is missing or not owned by authorID.
	Delete(ctx context.Context, id, authorID uint) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *observability.RepoLogger
}

// NewPostRepository creates a new post repository. c may be nil.
func NewPostRepository(db *gorm.DB, c *cache.Cache) PostRepository {
	return &postRepository{db: db, cache: c, log: observability.NewRepoLogger("posts")}
}

// uniqueSlug returns the slug for title that no other post uses. excludeID
// lets a post keep its own slug when retitled.
func uniqueSlug(tx *gorm.DB, title string, excludeID uint) (string, error) {
	base := validation.Slugify(title)

	var taken []string
	q := tx.Model(&models.Post{}).
		Where("slug = ? OR slug LIKE ? ESCAPE '\\'", base, escapeLike(base+"-")+"%")
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Pluck("slug", &taken).Error; err != nil {
		return "", err
	}
	return firstFree(base, "-", taken), nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	post.Excerpt = validation.Excerpt(post.Content)
	if post.Visibility == "" {
		post.Visibility = models.VisibilityPublic
	}

	var err error
	for range slugAttempts {
		post.Slug, err = uniqueSlug(r.db.WithContext(ctx), post.Title, 0)
		if err != nil {
			return models.NewInternalError(err)
		}
		err = r.db.WithContext(ctx).Create(post).Error
		if !violatesColumn(err, "slug") {
			break
		}
		post.ID = 0
	}
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}

	r.log.LogWrite(ctx, "create", "post_id", post.ID, "slug", post.Slug)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFoundOrInternal(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return cache.Aside(ctx, r.cache, cache.PostSlugKey(slug), cache.PostTTL,
		func(ctx context.Context) (*models.Post, error) {
			var post models.Post
			if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error; err != nil {
				return nil, notFoundOrInternal(err, "Post", slug)
			}
			return &post, nil
		})
}

func (r *postRepository) filtered(ctx context.Context, filter models.PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.Topic != "" {
		q = q.Where("topic = ?", filter.Topic)
	}
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.PublicOnly {
		q = q.Where("visibility = ?", models.VisibilityPublic)
	}
	return q
}

func (r *postRepository) List(ctx context.Context, filter models.PostFilter, limit, offset int) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.filtered(ctx, filter).
		Order("created_at DESC").
		Order("id DESC").
		Limit(clampLimit(limit)).
		Offset(max(offset, 0)).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, filter models.PostFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

var errNotOwned = errors.New("post not owned by caller")

func (r *postRepository) Update(ctx context.Context, id, authorID uint, patch models.PostPatch) (*models.Post, error) {
	var post models.Post
	var oldSlug string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		if post.AuthorID != authorID {
			return errNotOwned
		}
		oldSlug = post.Slug

		updates := map[string]any{"updated_at": time.Now()}
		if patch.Title != nil {
			slug, err := uniqueSlug(tx, *patch.Title, post.ID)
			if err != nil {
				return err
			}
			post.Title, post.Slug = *patch.Title, slug
			updates["title"], updates["slug"] = post.Title, post.Slug
		}
		if patch.Content != nil {
			post.Content, post.Excerpt = *patch.Content, validation.Excerpt(*patch.Content)
			updates["content"], updates["excerpt"] = post.Content, post.Excerpt
		}
		if patch.Topic != nil {
			post.Topic = *patch.Topic
			updates["topic"] = post.Topic
		}
		if patch.Visibility != nil {
			post.Visibility = *patch.Visibility
			updates["visibility"] = post.Visibility
		}

		return tx.Model(&models.Post{}).Where("id = ?", post.ID).Updates(updates).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, errNotOwned):
		return nil, nil
	case err != nil:
		r.log.LogError(ctx, err, "update")
		return nil, models.NewInternalError(err)
	}

	r.cache.Invalidate(ctx, cache.PostSlugKey(oldSlug), cache.PostSlugKey(post.Slug))
	r.log.LogWrite(ctx, "update", "post_id", post.ID, "slug", post.Slug)
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id, authorID uint) (bool, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Select("id", "slug").Where("id = ? AND author_id = ?", id, authorID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, models.NewInternalError(err)
	}

	res := r.db.WithContext(ctx).Where("id = ? AND author_id = ?", id, authorID).Delete(&models.Post{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return false, models.NewInternalError(res.Error)
	}

	r.cache.Invalidate(ctx, cache.PostSlugKey(post.Slug))
	r.log.LogWrite(ctx, "delete", "post_id", id)
	return res.RowsAffected > 0, nil
}
