package service

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/topics"
	"inkwell/internal/validation"
)

var errPostNotFound = models.NewNotFoundMessage("Post not found.")

type PostService struct {
	posts repository.PostRepository
	users repository.UserRepository
}

type CreatePostInput struct {
	UserID     uint
	Title      string
	Content    string
	Topic      string
	Visibility models.Visibility
}

type UpdatePostInput struct {
	UserID     uint
	PostID     uint
	Title      *string
	Content    *string
	Topic      *string
	Visibility *models.Visibility
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository) *PostService {
	return &PostService{posts: posts, users: users}
}

// withReadingTime fills the computed reading time on each post.
func withReadingTime(posts []models.Post) []models.Post {
	for i := range posts {
		posts[i].ReadingTime = validation.ReadingTime(posts[i].Content)
	}
	return posts
}

// isMember reports whether viewerID names an existing account. A token whose
// subject no longer exists reads as a guest.
func isMember(ctx context.Context, users repository.UserRepository, viewerID uint) (bool, error) {
	if viewerID == 0 {
		return false, nil
	}
	_, err := users.GetByID(ctx, viewerID)
	if models.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// visibleTo reports whether a viewer may read post.
func visibleTo(post *models.Post, member bool) bool {
	return post.Visibility == models.VisibilityPublic || member
}

// ListPosts returns the newest posts, optionally in one topic. Guests only see public posts.
func (s *PostService) ListPosts(ctx context.Context, viewerID uint, topic string, limit, offset int) ([]models.Post, error) {
	if topic != "" && !topics.Valid(topic) {
		return nil, models.NewValidationError("Unknown topic.")
	}
	member, err := isMember(ctx, s.users, viewerID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.List(ctx, models.PostFilter{Topic: topic, PublicOnly: !member}, limit, offset)
	if err != nil {
		return nil, err
	}
	return withReadingTime(posts), nil
}

// GetPostBySlug hides authenticated-only posts from guests as if they did not exist.
func (s *PostService) GetPostBySlug(ctx context.Context, viewerID uint, slug string) (*models.Post, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if models.IsNotFound(err) {
		return nil, errPostNotFound
	}
	if err != nil {
		return nil, err
	}
	member, err := isMember(ctx, s.users, viewerID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(post, member) {
		return nil, errPostNotFound
	}
	post.ReadingTime = validation.ReadingTime(post.Content)
	return post, nil
}

// GetPostByID loads a post for editing under the same visibility rule as GetPostBySlug.
func (s *PostService) GetPostByID(ctx context.Context, viewerID, id uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if models.IsNotFound(err) {
		return nil, errPostNotFound
	}
	if err != nil {
		return nil, err
	}
	member, err := isMember(ctx, s.users, viewerID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(post, member) {
		return nil, errPostNotFound
	}
	post.ReadingTime = validation.ReadingTime(post.Content)
	return post, nil
}

func (s *PostService) GetUserPosts(ctx context.Context, viewerID uint, username string) ([]models.Post, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, models.NewNotFoundMessage("User not found.")
	}
	member, err := isMember(ctx, s.users, viewerID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.List(ctx, models.PostFilter{AuthorID: author.ID, PublicOnly: !member}, 0, 0)
	if err != nil {
		return nil, err
	}
	return withReadingTime(posts), nil
}

func (s *PostService) GetMyPosts(ctx context.Context, userID uint) ([]models.Post, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("You must be logged in.")
	}
	posts, err := s.posts.List(ctx, models.PostFilter{AuthorID: userID}, 0, 0)
	if err != nil {
		return nil, err
	}
	return withReadingTime(posts), nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (_ *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost")
	defer func() { observability.EndSpan(span, err) }()

	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("You must be logged in to create a post.")
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" {
		return nil, models.NewValidationError("Please enter a title.")
	}
	if content == "" {
		return nil, models.NewValidationError("Please enter some content.")
	}
	if err := validation.ValidateTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if !topics.Valid(in.Topic) {
		return nil, models.NewValidationError("Please choose a topic.")
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, models.NewValidationError("Invalid visibility.")
	}

	author, err := s.users.GetByID(ctx, in.UserID)
	if models.IsNotFound(err) {
		return nil, models.NewUnauthorizedError("You must be logged in to create a post.")
	}
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:          title,
		Content:        content,
		Topic:          in.Topic,
		Visibility:     visibility,
		AuthorID:       author.ID,
		AuthorName:     author.Name,
		AuthorUsername: author.Username,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	observability.PostsCreated.WithLabelValues(post.Topic, string(post.Visibility)).Inc()
	post.ReadingTime = validation.ReadingTime(post.Content)
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("You must be logged in to update a post.")
	}

	patch := models.PostPatch{Topic: in.Topic, Visibility: in.Visibility}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title cannot be empty.")
		}
		if err := validation.ValidateTitle(title); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		patch.Title = &title
	}
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, models.NewValidationError("Content cannot be empty.")
		}
		if err := validation.ValidateContent(content); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		patch.Content = &content
	}
	if in.Topic != nil && !topics.Valid(*in.Topic) {
		return nil, models.NewValidationError("Please choose a topic.")
	}
	if in.Visibility != nil && !in.Visibility.Valid() {
		return nil, models.NewValidationError("Invalid visibility.")
	}

	post, err := s.posts.Update(ctx, in.PostID, in.UserID, patch)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundMessage("Post not found or you don't have permission to edit it.")
	}
	post.ReadingTime = validation.ReadingTime(post.Content)
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	if in.UserID == 0 {
		return models.NewUnauthorizedError("You must be logged in to delete a post.")
	}
	deleted, err := s.posts.Delete(ctx, in.PostID, in.UserID)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundMessage("Post not found or you don't have permission to delete it.")
	}
	return nil
}
