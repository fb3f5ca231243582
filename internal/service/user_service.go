package service

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

type UserService struct {
	users   repository.UserRepository
	posts   repository.PostRepository
	follows repository.FollowRepository
}

type UpdateProfileInput struct {
	UserID uint
	Name   string
	Bio    string
}

func NewUserService(users repository.UserRepository, posts repository.PostRepository, follows repository.FollowRepository) *UserService {
	return &UserService{users: users, posts: posts, follows: follows}
}

// GetMyProfile returns the caller's full account without the password hash.
func (s *UserService) GetMyProfile(ctx context.Context, userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("You must be logged in.")
	}
	return s.users.GetByID(ctx, userID)
}

// GetUserByUsername builds the public profile of username as seen by viewerID.
func (s *UserService) GetUserByUsername(ctx context.Context, viewerID uint, username string) (*models.Profile, error) {
	public, err := s.users.GetPublicByUsername(ctx, username)
	if models.IsNotFound(err) {
		return nil, models.NewNotFoundMessage("User not found.")
	}
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{User: *public, IsSelf: viewerID == public.ID}
	if profile.Stats.Followers, err = s.follows.FollowerCount(ctx, public.ID); err != nil {
		return nil, err
	}
	if profile.Stats.Following, err = s.follows.FollowingCount(ctx, public.ID); err != nil {
		return nil, err
	}
	member, err := isMember(ctx, s.users, viewerID)
	if err != nil {
		return nil, err
	}
	if profile.PostCount, err = s.posts.Count(ctx, models.PostFilter{AuthorID: public.ID, PublicOnly: !member}); err != nil {
		return nil, err
	}
	if viewerID != 0 && !profile.IsSelf {
		if profile.IsFollowing, err = s.follows.IsFollowing(ctx, viewerID, public.ID); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// UpdateProfile validates and stores name and bio. The new name is applied to
// the author name of every post by the user in the same transaction.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (_ *models.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "UpdateProfile")
	defer func() { observability.EndSpan(span, err) }()

	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("You must be logged in to update your profile.")
	}

	name := strings.TrimSpace(in.Name)
	bio := strings.TrimSpace(in.Bio)
	if err := validation.ValidateName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateBio(bio); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	return s.users.UpdateProfile(ctx, in.UserID, name, bio)
}

// UpdateAvatar normalizes dataURL to a WebP data URL and stores it.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, dataURL string) (_ *models.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "UpdateAvatar")
	defer func() { observability.EndSpan(span, err) }()

	if userID == 0 {
		return nil, models.NewUnauthorizedError("You must be logged in to update your avatar.")
	}

	avatar, err := NormalizeAvatar(dataURL)
	switch {
	case errors.Is(err, errAvatarTooLarge), errors.Is(err, errAvatarInvalid):
		return nil, models.NewValidationError(err.Error())
	case err != nil:
		return nil, models.NewInternalError(err)
	}

	return s.users.UpdateAvatar(ctx, userID, &avatar)
}

func (s *UserService) DeleteAvatar(ctx context.Context, userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("You must be logged in to update your avatar.")
	}
	return s.users.UpdateAvatar(ctx, userID, nil)
}

func (s *UserService) SearchUsers(ctx context.Context, query string, limit int) ([]models.PublicUser, error) {
	users, err := s.users.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return publicUsers(users), nil
}
