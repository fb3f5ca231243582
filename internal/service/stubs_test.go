package service

import (
	"context"

	"inkwell/internal/models"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn             func(context.Context, uint) (*models.User, error)
	getByIDsFn            func(context.Context, []uint) (map[uint]*models.User, error)
	getByEmailFn          func(context.Context, string) (*models.User, error)
	getByUsernameFn       func(context.Context, string) (*models.User, error)
	getPublicByUsernameFn func(context.Context, string) (*models.PublicUser, error)
	availableUsernameFn   func(context.Context, string) (string, error)
	createFn              func(context.Context, *models.User) error
	updateProfileFn       func(context.Context, uint, string, string) (*models.User, error)
	updateAvatarFn        func(context.Context, uint, *string) (*models.User, error)
	searchFn              func(context.Context, string, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetPublicByUsername(ctx context.Context, username string) (*models.PublicUser, error) {
	return s.getPublicByUsernameFn(ctx, username)
}
func (s *userRepoStub) AvailableUsername(ctx context.Context, base string) (string, error) {
	return s.availableUsernameFn(ctx, base)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, id uint, name, bio string) (*models.User, error) {
	return s.updateProfileFn(ctx, id, name, bio)
}
func (s *userRepoStub) UpdateAvatar(ctx context.Context, id uint, avatar *string) (*models.User, error) {
	return s.updateAvatarFn(ctx, id, avatar)
}
func (s *userRepoStub) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	return s.searchFn(ctx, query, limit)
}

// usersByID returns a userRepoStub answering lookups from a fixed set of users.
func usersByID(users ...*models.User) *userRepoStub {
	byID := make(map[uint]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	find := func(match func(*models.User) bool) *models.User {
		for _, u := range users {
			if match(u) {
				return u
			}
		}
		return nil
	}
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			if u, ok := byID[id]; ok {
				return u, nil
			}
			return nil, models.NewNotFoundError("User", id)
		},
		getByIDsFn: func(_ context.Context, ids []uint) (map[uint]*models.User, error) {
			out := map[uint]*models.User{}
			for _, id := range ids {
				if u, ok := byID[id]; ok {
					out[id] = u
				}
			}
			return out, nil
		},
		getByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			return find(func(u *models.User) bool { return u.Email == email }), nil
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return find(func(u *models.User) bool { return u.Username == username }), nil
		},
		getPublicByUsernameFn: func(_ context.Context, username string) (*models.PublicUser, error) {
			if u := find(func(u *models.User) bool { return u.Username == username }); u != nil {
				p := u.Public()
				return &p, nil
			}
			return nil, models.NewNotFoundError("User", username)
		},
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn    func(context.Context, *models.Post) error
	getByIDFn   func(context.Context, uint) (*models.Post, error)
	getBySlugFn func(context.Context, string) (*models.Post, error)
	listFn      func(context.Context, models.PostFilter, int, int) ([]models.Post, error)
	countFn     func(context.Context, models.PostFilter) (int64, error)
	updateFn    func(context.Context, uint, uint, models.PostPatch) (*models.Post, error)
	deleteFn    func(context.Context, uint, uint) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *postRepoStub) List(ctx context.Context, filter models.PostFilter, limit, offset int) ([]models.Post, error) {
	return s.listFn(ctx, filter, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context, filter models.PostFilter) (int64, error) {
	return s.countFn(ctx, filter)
}
func (s *postRepoStub) Update(ctx context.Context, id, authorID uint, patch models.PostPatch) (*models.Post, error) {
	return s.updateFn(ctx, id, authorID, patch)
}
func (s *postRepoStub) Delete(ctx context.Context, id, authorID uint) (bool, error) {
	return s.deleteFn(ctx, id, authorID)
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	followFn         func(context.Context, uint, uint) (bool, error)
	unfollowFn       func(context.Context, uint, uint) (bool, error)
	isFollowingFn    func(context.Context, uint, uint) (bool, error)
	followerCountFn  func(context.Context, uint) (int64, error)
	followingCountFn func(context.Context, uint) (int64, error)
	followersFn      func(context.Context, uint, int, int) ([]models.User, error)
	followingFn      func(context.Context, uint, int, int) ([]models.User, error)
}

func (s *followRepoStub) Follow(ctx context.Context, a, b uint) (bool, error) {
	return s.followFn(ctx, a, b)
}
func (s *followRepoStub) Unfollow(ctx context.Context, a, b uint) (bool, error) {
	return s.unfollowFn(ctx, a, b)
}
func (s *followRepoStub) IsFollowing(ctx context.Context, a, b uint) (bool, error) {
	return s.isFollowingFn(ctx, a, b)
}
func (s *followRepoStub) FollowerCount(ctx context.Context, id uint) (int64, error) {
	return s.followerCountFn(ctx, id)
}
func (s *followRepoStub) FollowingCount(ctx context.Context, id uint) (int64, error) {
	return s.followingCountFn(ctx, id)
}
func (s *followRepoStub) Followers(ctx context.Context, id uint, limit, offset int) ([]models.User, error) {
	return s.followersFn(ctx, id, limit, offset)
}
func (s *followRepoStub) Following(ctx context.Context, id uint, limit, offset int) ([]models.User, error) {
	return s.followingFn(ctx, id, limit, offset)
}

// conversationRepoStub is a stub for repository.ConversationRepository.
type conversationRepoStub struct {
	getOrCreateFn   func(context.Context, uint, uint) (*models.Conversation, error)
	getByIDFn       func(context.Context, uint) (*models.Conversation, error)
	listForUserFn   func(context.Context, uint) ([]models.Conversation, error)
	lastMessagesFn  func(context.Context, []uint) (map[uint]*models.Message, error)
	unreadCountsFn  func(context.Context, []uint, uint) (map[uint]int64, error)
	sendMessageFn   func(context.Context, uint, uint, string) (*models.Message, error)
	messagesFn      func(context.Context, uint) ([]models.Message, error)
	markReadFn      func(context.Context, uint, uint) (int64, error)
	unreadCountFn   func(context.Context, uint) (int64, error)
	unreadCountInFn func(context.Context, uint, uint) (int64, error)
}

func (s *conversationRepoStub) GetOrCreate(ctx context.Context, a, b uint) (*models.Conversation, error) {
	return s.getOrCreateFn(ctx, a, b)
}
func (s *conversationRepoStub) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	return s.getByIDFn(ctx, id)
}
func (s *conversationRepoStub) ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	return s.listForUserFn(ctx, userID)
}
func (s *conversationRepoStub) LastMessages(ctx context.Context, ids []uint) (map[uint]*models.Message, error) {
	return s.lastMessagesFn(ctx, ids)
}
func (s *conversationRepoStub) UnreadCounts(ctx context.Context, ids []uint, readerID uint) (map[uint]int64, error) {
	return s.unreadCountsFn(ctx, ids, readerID)
}
func (s *conversationRepoStub) SendMessage(ctx context.Context, convID, senderID uint, content string) (*models.Message, error) {
	return s.sendMessageFn(ctx, convID, senderID, content)
}
func (s *conversationRepoStub) Messages(ctx context.Context, convID uint) ([]models.Message, error) {
	return s.messagesFn(ctx, convID)
}
func (s *conversationRepoStub) MarkRead(ctx context.Context, convID, readerID uint) (int64, error) {
	return s.markReadFn(ctx, convID, readerID)
}
func (s *conversationRepoStub) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.unreadCountFn(ctx, userID)
}
func (s *conversationRepoStub) UnreadCountIn(ctx context.Context, convID, userID uint) (int64, error) {
	return s.unreadCountInFn(ctx, convID, userID)
}
