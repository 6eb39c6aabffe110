package memory

import (
	"context"

	"social-go/internal/models"
	"social-go/internal/storage"
)

type reactionRepo struct{ s *state }

func (r *reactionRepo) Create(_ context.Context, reaction *models.Reaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.reactions {
		if existing.ID == reaction.ID ||
			(existing.UserID == reaction.UserID && existing.SourceID == reaction.SourceID) {
			return storage.ErrDuplicate
		}
	}
	r.s.reactions[reaction.ID] = ptrCopy(reaction)
	return nil
}

func (r *reactionRepo) GetByID(_ context.Context, id string) (*models.Reaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reaction, ok := r.s.reactions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return ptrCopy(reaction), nil
}

func (r *reactionRepo) FindByUserAndSource(_ context.Context, userID, sourceID string) (*models.Reaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, reaction := range r.s.reactions {
		if reaction.UserID == userID && reaction.SourceID == sourceID {
			return ptrCopy(reaction), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *reactionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reactions[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.s.reactions, id)
	return nil
}

func (r *reactionRepo) UpdateType(_ context.Context, id string, from, to models.ReactionType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reaction, ok := r.s.reactions[id]
	if !ok || reaction.Type != from {
		return storage.ErrNotFound
	}
	reaction.Type = to
	return nil
}

func (r *reactionRepo) collect(match func(*models.Reaction) bool) []*models.Reaction {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Reaction{}
	for _, reaction := range r.s.reactions {
		if match(reaction) {
			out = append(out, ptrCopy(reaction))
		}
	}
	return out
}

func reactionID(r *models.Reaction) string { return r.ID }

func (r *reactionRepo) ListBySource(_ context.Context, sourceID string, typeFilter models.ReactionType, p storage.Page) ([]*models.Reaction, error) {
	out := r.collect(func(reaction *models.Reaction) bool {
		return reaction.SourceID == sourceID && (typeFilter == "" || reaction.Type == typeFilter)
	})
	return page(out, reactionID, p), nil
}

func (r *reactionRepo) ListAllBySource(_ context.Context, sourceType models.SourceType, sourceID string) ([]*models.Reaction, error) {
	out := r.collect(func(reaction *models.Reaction) bool {
		return reaction.SourceType == sourceType && reaction.SourceID == sourceID
	})
	return sortByID(out, reactionID), nil
}

func (r *reactionRepo) ListByUser(_ context.Context, userID string) ([]*models.Reaction, error) {
	out := r.collect(func(reaction *models.Reaction) bool { return reaction.UserID == userID })
	return sortByID(out, reactionID), nil
}

type reactableRepo struct {
	s    *state
	kind models.SourceType
}

func (r *reactableRepo) Kind() models.SourceType { return r.kind }

// lookup returns the live reactable; callers hold the lock.
func (r *reactableRepo) lookup(id string) (models.Reactable, bool) {
	switch r.kind {
	case models.SourcePost:
		p, ok := r.s.posts[id]
		return p, ok
	case models.SourceComment:
		c, ok := r.s.comments[id]
		return c, ok
	case models.SourceReply:
		rp, ok := r.s.replies[id]
		return rp, ok
	}
	return nil, false
}

func (r *reactableRepo) Get(_ context.Context, id string) (models.Reactable, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.lookup(id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	switch v := item.(type) {
	case *models.Post:
		return clonePost(v), nil
	case *models.Comment:
		return cloneComment(v), nil
	case *models.Reply:
		return cloneReply(v), nil
	}
	return nil, storage.ErrNotFound
}

func (r *reactableRepo) AddReaction(_ context.Context, id string, t models.ReactionType, reactionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.lookup(id)
	if !ok {
		return storage.ErrNotFound
	}
	item.Reactions().Add(t, reactionID)
	return nil
}

func (r *reactableRepo) RemoveReaction(_ context.Context, id string, t models.ReactionType, reactionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.lookup(id)
	if !ok || !item.Reactions().Remove(t, reactionID) {
		return storage.ErrNotFound
	}
	return nil
}

func (r *reactableRepo) ReplaceState(_ context.Context, id string, st models.ReactionState) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.lookup(id)
	if !ok {
		return storage.ErrNotFound
	}
	*item.Reactions() = st.Clone()
	return nil
}
