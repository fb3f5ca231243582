package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
}

func NewFollowService(follows repository.FollowRepository, users repository.UserRepository) *FollowService {
	return &FollowService{follows: follows, users: users}
}

func (s *FollowService) resolve(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundMessage("User not found.")
	}
	return user, nil
}

// FollowUser makes callerID follow username. Following twice reports false.
func (s *FollowService) FollowUser(ctx context.Context, callerID uint, username string) (bool, error) {
	if callerID == 0 {
		return false, models.NewUnauthorizedError("You must be logged in.")
	}
	target, err := s.resolve(ctx, username)
	if err != nil {
		return false, err
	}
	if target.ID == callerID {
		return false, models.NewValidationError("You cannot follow yourself.")
	}

	ok, err := s.follows.Follow(ctx, callerID, target.ID)
	if err == nil && ok {
		observability.FollowEvents.WithLabelValues("follow").Inc()
	}
	return ok, err
}

// UnfollowUser removes the edge. Unfollowing someone not followed reports false.
func (s *FollowService) UnfollowUser(ctx context.Context, callerID uint, username string) (bool, error) {
	if callerID == 0 {
		return false, models.NewUnauthorizedError("You must be logged in.")
	}
	target, err := s.resolve(ctx, username)
	if err != nil {
		return false, err
	}

	ok, err := s.follows.Unfollow(ctx, callerID, target.ID)
	if err == nil && ok {
		observability.FollowEvents.WithLabelValues("unfollow").Inc()
	}
	return ok, err
}

// CheckIsFollowing is false for guests.
func (s *FollowService) CheckIsFollowing(ctx context.Context, callerID uint, username string) (bool, error) {
	if callerID == 0 {
		return false, nil
	}
	target, err := s.resolve(ctx, username)
	if err != nil {
		return false, err
	}
	return s.follows.IsFollowing(ctx, callerID, target.ID)
}

func (s *FollowService) GetFollowStats(ctx context.Context, userID uint) (models.FollowStats, error) {
	var stats models.FollowStats
	var err error
	if stats.Followers, err = s.follows.FollowerCount(ctx, userID); err != nil {
		return stats, err
	}
	stats.Following, err = s.follows.FollowingCount(ctx, userID)
	return stats, err
}

func (s *FollowService) Followers(ctx context.Context, username string, limit, offset int) ([]models.PublicUser, error) {
	target, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	users, err := s.follows.Followers(ctx, target.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return publicUsers(users), nil
}

func (s *FollowService) Following(ctx context.Context, username string, limit, offset int) ([]models.PublicUser, error) {
	target, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	users, err := s.follows.Following(ctx, target.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return publicUsers(users), nil
}

func publicUsers(users []models.User) []models.PublicUser {
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}
