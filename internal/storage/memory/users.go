package memory

import (
	"context"
	"slices"
	"time"

	"social-go/internal/models"
	"social-go/internal/storage"
)

type userRepo struct{ s *state }

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, u := range r.s.users {
		if u.Username == user.Username ||
			(user.Email != "" && u.Email == user.Email) ||
			(user.Phone != "" && u.Phone == user.Phone) {
			return storage.ErrDuplicate
		}
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return email != "" && u.Email == email })
}

func (r *userRepo) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return phone != "" && u.Phone == phone })
}

func (r *userRepo) GetBasicInfo(ctx context.Context, id string) (*models.UserBasicInfo, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.BasicInfo(), nil
}

func (r *userRepo) GetBasicInfos(_ context.Context, ids []string) ([]*models.UserBasicInfo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.UserBasicInfo, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u.BasicInfo())
		}
	}
	return out, nil
}

func (r *userRepo) mutateList(userID string, field models.UserListField, fn func(list []string) []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	list := u.List(field)
	if list == nil {
		return storage.ErrNotFound
	}
	*list = fn(*list)
	return nil
}

func (r *userRepo) AddToList(_ context.Context, userID string, field models.UserListField, id string) error {
	return r.mutateList(userID, field, func(list []string) []string {
		if slices.Contains(list, id) {
			return list
		}
		return append(list, id)
	})
}

func (r *userRepo) RemoveFromList(_ context.Context, userID string, field models.UserListField, id string) error {
	return r.mutateList(userID, field, func(list []string) []string {
		return slices.DeleteFunc(list, func(v string) bool { return v == id })
	})
}

func (r *userRepo) SetList(_ context.Context, userID string, field models.UserListField, ids []string) error {
	return r.mutateList(userID, field, func([]string) []string {
		if ids == nil {
			return []string{}
		}
		return slices.Clone(ids)
	})
}

func (r *userRepo) SetLastSeenAt(_ context.Context, userID string, at *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	if at == nil {
		u.LastSeenAt = nil
	} else {
		t := *at
		u.LastSeenAt = &t
	}
	return nil
}
