package services

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"

	"social-go/internal/apperr"
	"social-go/internal/models"
	"social-go/internal/storage"
)

// UserProfile is what one user may see of another.
type UserProfile struct {
	models.UserBasicInfo
	Birthday   *time.Time `json:"birthday,omitempty"`
	IsOnline   bool       `json:"isOnline"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	IsFriend   bool       `json:"isFriend"`
}

// UserService serves profile reads.
type UserService interface {
	GetMe(ctx context.Context, userID string) (*models.User, error)
	GetProfile(ctx context.Context, viewerID, userID string) (*UserProfile, error)
}

type userService struct {
	userRepo   storage.UserRepository
	friendRepo storage.FriendRepository
}

func NewUserService(userRepo storage.UserRepository, friendRepo storage.FriendRepository) UserService {
	return &userService{userRepo: userRepo, friendRepo: friendRepo}
}

// GetMe returns the caller's own account including its id collections.
func (s *userService) GetMe(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupErr("get current user", err, ErrUserNotFound)
	}
	user.PasswordHash = ""
	return user, nil
}

// GetProfile returns userID's public profile as seen by viewerID. The
// birthday is only shown to friends.
func (s *userService) GetProfile(ctx context.Context, viewerID, userID string) (*UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupErr("get user profile", err, ErrUserNotFound)
	}
	profile := &UserProfile{
		UserBasicInfo: *user.BasicInfo(),
		IsOnline:      user.IsOnline(),
		LastSeenAt:    user.LastSeenAt,
	}
	if viewerID == userID {
		profile.Birthday = user.Birthday
		return profile, nil
	}
	friends, err := areFriends(ctx, s.friendRepo, viewerID, userID)
	if err != nil {
		return nil, err
	}
	profile.IsFriend = friends
	if friends {
		profile.Birthday = user.Birthday
	}
	return profile, nil
}

func areFriends(ctx context.Context, friends storage.FriendRepository, a, b string) (bool, error) {
	_, err := friends.FindByPair(ctx, a, b)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return false, apperr.Internal("find friendship", err)
}

// basicInfoIndex loads the public profiles of ids keyed by user id. Unknown
// ids are absent from the map.
func basicInfoIndex(ctx context.Context, users storage.UserRepository, ids []string) (map[string]*models.UserBasicInfo, error) {
	if len(ids) == 0 {
		return map[string]*models.UserBasicInfo{}, nil
	}
	infos, err := users.GetBasicInfos(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, apperr.Internal("load user basic info", err)
	}
	return lo.KeyBy(infos, func(u *models.UserBasicInfo) string { return u.ID }), nil
}
