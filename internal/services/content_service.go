package services

import (
	"context"

	"github.com/samber/lo"

	"social-go/internal/apperr"
	"social-go/internal/logging"
	"social-go/internal/models"
	"social-go/internal/storage"
)

type CreatePostInput struct {
	Content string         `json:"content" validate:"required,max=5000"`
	Privacy models.Privacy `json:"privacy" validate:"omitempty,oneof=PUBLIC FRIENDS ONLY_ME"`
}

type SharePostInput struct {
	Content string         `json:"content" validate:"max=5000"`
	Privacy models.Privacy `json:"privacy" validate:"omitempty,oneof=PUBLIC FRIENDS ONLY_ME"`
}

type CreateCommentInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// ContentService creates the reactable documents: posts, shares, comments
// and replies.
type ContentService interface {
	CreatePost(ctx context.Context, userID string, in CreatePostInput) (*models.Post, error)
	SharePost(ctx context.Context, userID, postID string, in SharePostInput) (*models.Post, error)
	CreateComment(ctx context.Context, userID, postID string, in CreateCommentInput) (*models.Comment, error)
	CreateReply(ctx context.Context, userID, commentID string, in CreateCommentInput) (*models.Reply, error)
	GetPost(ctx context.Context, viewerID, postID string) (*models.Post, error)

	// The listings below page newest first and only return what viewerID
	// may see.
	ListUserPosts(ctx context.Context, viewerID, authorID string, page storage.Page) (*PostPage, error)
	ListNewsfeed(ctx context.Context, viewerID string, page storage.Page) (*PostPage, error)
	ListComments(ctx context.Context, viewerID, postID string, page storage.Page) (*CommentPage, error)
	ListReplies(ctx context.Context, viewerID, commentID string, page storage.Page) (*ReplyPage, error)
}

var friendVisible = []models.Privacy{models.PrivacyPublic, models.PrivacyFriends}

type contentService struct {
	userRepo    storage.UserRepository
	friendRepo  storage.FriendRepository
	contentRepo storage.ContentRepository
}

func NewContentService(store *storage.Store) ContentService {
	return &contentService{
		userRepo:    store.Users,
		friendRepo:  store.Friends,
		contentRepo: store.Content,
	}
}

func (s *contentService) CreatePost(ctx context.Context, userID string, in CreatePostInput) (*models.Post, error) {
	if err := validate.Struct(in); err != nil {
		return nil, apperr.FromValidator(err)
	}
	post := models.NewPost(userID, in.Content, privacyOrDefault(in.Privacy))
	if err := s.contentRepo.CreatePost(ctx, post); err != nil {
		return nil, apperr.Internal("create post", err)
	}
	s.linkToAuthor(ctx, "create_post", userID, models.UserPosts, post.ID)
	return post, nil
}

// SharePost creates a SHARE of postID. Sharing a share shares its source,
// so every share points at an original post.
func (s *contentService) SharePost(ctx context.Context, userID, postID string, in SharePostInput) (*models.Post, error) {
	if err := validate.Struct(in); err != nil {
		return nil, apperr.FromValidator(err)
	}
	source, err := s.GetPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if source.Type == models.PostTypeShare {
		if source, err = s.GetPost(ctx, userID, source.SourceID); err != nil {
			return nil, err
		}
	}

	share := models.NewShare(userID, source.ID, in.Content, privacyOrDefault(in.Privacy))
	if err := s.contentRepo.CreatePost(ctx, share); err != nil {
		return nil, apperr.Internal("create share", err)
	}
	if err := s.contentRepo.AppendToPost(ctx, source.ID, storage.PostSharesField, share.ID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("post_id", source.ID).Str("share_id", share.ID).
			Msg("failed to link share to source post")
	}
	s.linkToAuthor(ctx, "share_post", userID, models.UserPosts, share.ID)
	return share, nil
}

func (s *contentService) CreateComment(ctx context.Context, userID, postID string, in CreateCommentInput) (*models.Comment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, apperr.FromValidator(err)
	}
	if _, err := s.GetPost(ctx, userID, postID); err != nil {
		return nil, err
	}
	comment := models.NewComment(userID, postID, in.Content)
	if err := s.contentRepo.CreateComment(ctx, comment); err != nil {
		return nil, apperr.Internal("create comment", err)
	}
	if err := s.contentRepo.AppendToPost(ctx, postID, storage.PostCommentsField, comment.ID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("post_id", postID).Str("comment_id", comment.ID).
			Msg("failed to link comment to post")
	}
	s.linkToAuthor(ctx, "create_comment", userID, models.UserComments, comment.ID)
	return comment, nil
}

func (s *contentService) CreateReply(ctx context.Context, userID, commentID string, in CreateCommentInput) (*models.Reply, error) {
	if err := validate.Struct(in); err != nil {
		return nil, apperr.FromValidator(err)
	}
	comment, err := s.contentRepo.GetComment(ctx, commentID)
	if err != nil {
		return nil, lookupErr("get comment", err, ErrCommentNotFound)
	}
	if _, err := s.GetPost(ctx, userID, comment.PostID); err != nil {
		return nil, err
	}
	reply := models.NewReply(userID, commentID, in.Content)
	if err := s.contentRepo.CreateReply(ctx, reply); err != nil {
		return nil, apperr.Internal("create reply", err)
	}
	if err := s.contentRepo.AppendCommentReply(ctx, commentID, reply.ID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("comment_id", commentID).Str("reply_id", reply.ID).
			Msg("failed to link reply to comment")
	}
	s.linkToAuthor(ctx, "create_reply", userID, models.UserReplies, reply.ID)
	return reply, nil
}

// GetPost returns postID if viewerID may see it. Posts hidden from the
// viewer are reported as not found.
func (s *contentService) GetPost(ctx context.Context, viewerID, postID string) (*models.Post, error) {
	post, err := s.contentRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, lookupErr("get post", err, ErrPostNotFound)
	}
	if post.UserID == viewerID {
		return post, nil
	}
	switch post.Privacy {
	case models.PrivacyPublic:
		return post, nil
	case models.PrivacyFriends:
		friends, err := areFriends(ctx, s.friendRepo, viewerID, post.UserID)
		if err != nil {
			return nil, err
		}
		if friends {
			return post, nil
		}
	}
	return nil, ErrPostNotFound
}

func (s *contentService) ListUserPosts(ctx context.Context, viewerID, authorID string, page storage.Page) (*PostPage, error) {
	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		return nil, lookupErr("get author", err, ErrUserNotFound)
	}
	scope := storage.PostScope{AuthorIDs: []string{authorID}}
	if viewerID != authorID {
		friends, err := areFriends(ctx, s.friendRepo, viewerID, authorID)
		if err != nil {
			return nil, err
		}
		scope.Privacies = []models.Privacy{models.PrivacyPublic}
		if friends {
			scope.Privacies = friendVisible
		}
	}
	return s.pagePosts(ctx, []storage.PostScope{scope}, page)
}

// ListNewsfeed merges the viewer's own posts with what their friends shared
// with them.
func (s *contentService) ListNewsfeed(ctx context.Context, viewerID string, page storage.Page) (*PostPage, error) {
	friends, err := s.friendRepo.ListByUser(ctx, viewerID)
	if err != nil {
		return nil, apperr.Internal("list friends for newsfeed", err)
	}
	scopes := []storage.PostScope{{AuthorIDs: []string{viewerID}}}
	if len(friends) > 0 {
		scopes = append(scopes, storage.PostScope{
			AuthorIDs: lo.Map(friends, func(f *models.Friend, _ int) string { return f.Other(viewerID) }),
			Privacies: friendVisible,
		})
	}
	return s.pagePosts(ctx, scopes, page)
}

func (s *contentService) pagePosts(ctx context.Context, scopes []storage.PostScope, page storage.Page) (*PostPage, error) {
	posts, err := s.contentRepo.ListPosts(ctx, scopes, fetchWindow(page))
	if err != nil {
		return nil, apperr.Internal("list posts", err)
	}
	posts, hasMore := trimPage(posts, page.Limit)
	return &PostPage{Posts: posts, HasMore: hasMore}, nil
}

func (s *contentService) ListComments(ctx context.Context, viewerID, postID string, page storage.Page) (*CommentPage, error) {
	if _, err := s.GetPost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	comments, err := s.contentRepo.ListComments(ctx, postID, fetchWindow(page))
	if err != nil {
		return nil, apperr.Internal("list comments", err)
	}
	comments, hasMore := trimPage(comments, page.Limit)
	return &CommentPage{Comments: comments, HasMore: hasMore}, nil
}

func (s *contentService) ListReplies(ctx context.Context, viewerID, commentID string, page storage.Page) (*ReplyPage, error) {
	comment, err := s.contentRepo.GetComment(ctx, commentID)
	if err != nil {
		return nil, lookupErr("get comment", err, ErrCommentNotFound)
	}
	if _, err := s.GetPost(ctx, viewerID, comment.PostID); err != nil {
		return nil, err
	}
	replies, err := s.contentRepo.ListReplies(ctx, commentID, fetchWindow(page))
	if err != nil {
		return nil, apperr.Internal("list replies", err)
	}
	replies, hasMore := trimPage(replies, page.Limit)
	return &ReplyPage{Replies: replies, HasMore: hasMore}, nil
}

func (s *contentService) linkToAuthor(ctx context.Context, op, userID string, field models.UserListField, id string) {
	if err := s.userRepo.AddToList(ctx, userID, field, id); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("operation", op).Str("user_id", userID).
			Str("field", string(field)).Msg("failed to link content to author")
	}
}

func privacyOrDefault(p models.Privacy) models.Privacy {
	if p == "" {
		return models.PrivacyPublic
	}
	return p
}
