package memory

import (
	"context"
	"slices"

	"social-go/internal/models"
	"social-go/internal/storage"
)

type contentRepo struct{ s *state }

func (r *contentRepo) CreatePost(_ context.Context, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[post.ID]; ok {
		return storage.ErrDuplicate
	}
	r.s.posts[post.ID] = clonePost(post)
	return nil
}

func (r *contentRepo) GetPost(_ context.Context, id string) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clonePost(p), nil
}

func (r *contentRepo) CreateComment(_ context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[comment.ID]; ok {
		return storage.ErrDuplicate
	}
	r.s.comments[comment.ID] = cloneComment(comment)
	return nil
}

func (r *contentRepo) GetComment(_ context.Context, id string) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneComment(c), nil
}

func (r *contentRepo) CreateReply(_ context.Context, reply *models.Reply) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.replies[reply.ID]; ok {
		return storage.ErrDuplicate
	}
	r.s.replies[reply.ID] = cloneReply(reply)
	return nil
}

func (r *contentRepo) GetReply(_ context.Context, id string) (*models.Reply, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rp, ok := r.s.replies[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneReply(rp), nil
}

func addUnique(list []string, id string) []string {
	if slices.Contains(list, id) {
		return list
	}
	return append(list, id)
}

func (r *contentRepo) AppendToPost(_ context.Context, postID, field, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[postID]
	if !ok {
		return storage.ErrNotFound
	}
	switch field {
	case storage.PostCommentsField:
		p.CommentIDs = addUnique(p.CommentIDs, id)
	case storage.PostSharesField:
		p.ShareIDs = addUnique(p.ShareIDs, id)
	default:
		return storage.ErrNotFound
	}
	return nil
}

func (r *contentRepo) AppendCommentReply(_ context.Context, commentID, replyID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[commentID]
	if !ok {
		return storage.ErrNotFound
	}
	c.ReplyIDs = addUnique(c.ReplyIDs, replyID)
	return nil
}

func (r *contentRepo) ListPosts(_ context.Context, scopes []storage.PostScope, p storage.Page) ([]*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Post{}
	for _, post := range r.s.posts {
		if slices.ContainsFunc(scopes, func(sc storage.PostScope) bool { return sc.Matches(post) }) {
			out = append(out, clonePost(post))
		}
	}
	return page(out, func(post *models.Post) string { return post.ID }, p), nil
}

func (r *contentRepo) ListComments(_ context.Context, postID string, p storage.Page) ([]*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Comment{}
	for _, c := range r.s.comments {
		if c.PostID == postID {
			out = append(out, cloneComment(c))
		}
	}
	return page(out, func(c *models.Comment) string { return c.ID }, p), nil
}

func (r *contentRepo) ListReplies(_ context.Context, commentID string, p storage.Page) ([]*models.Reply, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Reply{}
	for _, rp := range r.s.replies {
		if rp.CommentID == commentID {
			out = append(out, cloneReply(rp))
		}
	}
	return page(out, func(rp *models.Reply) string { return rp.ID }, p), nil
}
