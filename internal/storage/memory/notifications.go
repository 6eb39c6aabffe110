package memory

import (
	"context"

	"social-go/internal/models"
	"social-go/internal/storage"
)

type notificationRepo struct{ s *state }

func (r *notificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notifications[n.ID]; ok {
		return storage.ErrDuplicate
	}
	r.s.notifications[n.ID] = ptrCopy(n)
	return nil
}

func (r *notificationRepo) GetByID(_ context.Context, id string) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return ptrCopy(n), nil
}

func (r *notificationRepo) ListByRecipient(_ context.Context, recipientID string, p storage.Page) ([]*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Notification{}
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID {
			out = append(out, ptrCopy(n))
		}
	}
	return page(out, func(n *models.Notification) string { return n.ID }, p), nil
}

func (r *notificationRepo) CountUnseen(_ context.Context, recipientID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.HasBeenSeen {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepo) MarkRead(_ context.Context, recipientID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return storage.ErrNotFound
	}
	n.HasBeenRead = true
	n.HasBeenSeen = true
	return nil
}

func (r *notificationRepo) MarkAllSeen(_ context.Context, recipientID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var changed int64
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.HasBeenSeen {
			n.HasBeenSeen = true
			changed++
		}
	}
	return changed, nil
}

func (r *notificationRepo) FindByFriendRequest(_ context.Context, recipientID, friendRequestID string) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range r.s.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if p, ok := n.Payload.(models.FriendRequestReceived); ok && p.FriendRequestID == friendRequestID {
			return ptrCopy(n), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *notificationRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notifications[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.s.notifications, id)
	return nil
}
