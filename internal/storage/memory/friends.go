package memory

import (
	"context"

	"social-go/internal/models"
	"social-go/internal/storage"
)

type friendRequestRepo struct{ s *state }

func (r *friendRequestRepo) Create(_ context.Context, req *models.FriendRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.friendRequests[req.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, fr := range r.s.friendRequests {
		if fr.SenderID == req.SenderID && fr.ReceiverID == req.ReceiverID {
			return storage.ErrDuplicate
		}
	}
	r.s.friendRequests[req.ID] = ptrCopy(req)
	return nil
}

func (r *friendRequestRepo) GetByID(_ context.Context, id string) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	fr, ok := r.s.friendRequests[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return ptrCopy(fr), nil
}

func (r *friendRequestRepo) FindPending(_ context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, fr := range r.s.friendRequests {
		if fr.SenderID == senderID && fr.ReceiverID == receiverID {
			return ptrCopy(fr), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *friendRequestRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.friendRequests[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.s.friendRequests, id)
	return nil
}

func (r *friendRequestRepo) list(match func(*models.FriendRequest) bool) []*models.FriendRequest {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.FriendRequest{}
	for _, fr := range r.s.friendRequests {
		if match(fr) {
			out = append(out, ptrCopy(fr))
		}
	}
	return page(out, func(fr *models.FriendRequest) string { return fr.ID }, storage.Page{})
}

func (r *friendRequestRepo) ListReceived(_ context.Context, receiverID string) ([]*models.FriendRequest, error) {
	return r.list(func(fr *models.FriendRequest) bool { return fr.ReceiverID == receiverID }), nil
}

func (r *friendRequestRepo) ListSent(_ context.Context, senderID string) ([]*models.FriendRequest, error) {
	return r.list(func(fr *models.FriendRequest) bool { return fr.SenderID == senderID }), nil
}

type friendRepo struct{ s *state }

func (r *friendRepo) Create(_ context.Context, f *models.Friend) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.friends {
		if existing.ID == f.ID || existing.PairKey == f.PairKey {
			return storage.ErrDuplicate
		}
	}
	r.s.friends[f.ID] = ptrCopy(f)
	return nil
}

func (r *friendRepo) GetByID(_ context.Context, id string) (*models.Friend, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.friends[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return ptrCopy(f), nil
}

func (r *friendRepo) FindByPair(_ context.Context, userID1, userID2 string) (*models.Friend, error) {
	key := models.PairKey(userID1, userID2)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.friends {
		if f.PairKey == key {
			return ptrCopy(f), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *friendRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.friends[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.s.friends, id)
	return nil
}

func (r *friendRepo) ListByUser(_ context.Context, userID string) ([]*models.Friend, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Friend{}
	for _, f := range r.s.friends {
		if f.HasMember(userID) {
			out = append(out, ptrCopy(f))
		}
	}
	return sortByID(out, func(f *models.Friend) string { return f.ID }), nil
}

func (r *friendRepo) PageByUser(ctx context.Context, userID string, p storage.Page) ([]*models.Friend, error) {
	all, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return page(all, func(f *models.Friend) string { return f.ID }, p), nil
}
