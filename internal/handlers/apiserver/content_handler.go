package apiserver

import (
	"context"
	"net/http"

	"social-go/internal/config"
	"social-go/internal/middleware"
	"social-go/internal/services"
	"social-go/internal/storage"
)

// ContentHandler serves posts, shares, comments and replies.
type ContentHandler struct {
	contentService services.ContentService
	pagination     config.PaginationConfig
}

func NewContentHandler(cs services.ContentService, pagination config.PaginationConfig) *ContentHandler {
	return &ContentHandler{contentService: cs, pagination: pagination}
}

// CreatePostHandler handles POST /api/v1/posts.
func (h *ContentHandler) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	var in services.CreatePostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	post, err := h.contentService.CreatePost(r.Context(), middleware.UserIDFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, post)
}

// GetPostHandler handles GET /api/v1/posts/{postID}.
func (h *ContentHandler) GetPostHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	post, err := h.contentService.GetPost(r.Context(), middleware.UserIDFromContext(r.Context()), postID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, post)
}

// SharePostHandler handles POST /api/v1/posts/{postID}/shares.
func (h *ContentHandler) SharePostHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.SharePostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	share, err := h.contentService.SharePost(r.Context(), middleware.UserIDFromContext(r.Context()), postID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, share)
}

// CreateCommentHandler handles POST /api/v1/posts/{postID}/comments.
func (h *ContentHandler) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.CreateCommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	comment, err := h.contentService.CreateComment(r.Context(), middleware.UserIDFromContext(r.Context()), postID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, comment)
}

// CreateReplyHandler handles POST /api/v1/comments/{commentID}/replies.
func (h *ContentHandler) CreateReplyHandler(w http.ResponseWriter, r *http.Request) {
	commentID, err := pathID(r, "commentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.CreateCommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	reply, err := h.contentService.CreateReply(r.Context(), middleware.UserIDFromContext(r.Context()), commentID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, reply)
}

// ListUserPostsHandler handles GET /api/v1/users/{userID}/posts?before=&limit=.
func (h *ContentHandler) ListUserPostsHandler(w http.ResponseWriter, r *http.Request) {
	listUnder(h, w, r, "userID", h.contentService.ListUserPosts)
}

// ListCommentsHandler handles GET /api/v1/posts/{postID}/comments?before=&limit=.
func (h *ContentHandler) ListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	listUnder(h, w, r, "postID", h.contentService.ListComments)
}

// ListRepliesHandler handles GET /api/v1/comments/{commentID}/replies?before=&limit=.
func (h *ContentHandler) ListRepliesHandler(w http.ResponseWriter, r *http.Request) {
	listUnder(h, w, r, "commentID", h.contentService.ListReplies)
}

// NewsfeedHandler handles GET /api/v1/newsfeed/posts?before=&limit=.
func (h *ContentHandler) NewsfeedHandler(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r, h.pagination)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.contentService.ListNewsfeed(r.Context(), middleware.UserIDFromContext(r.Context()), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, res)
}

// listUnder serves a page of the children of the document named by the
// path variable.
func listUnder[T any](h *ContentHandler, w http.ResponseWriter, r *http.Request, pathVar string,
	list func(ctx context.Context, viewerID, parentID string, page storage.Page) (T, error)) {
	parentID, err := pathID(r, pathVar)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageFromQuery(r, h.pagination)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := list(r.Context(), middleware.UserIDFromContext(r.Context()), parentID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, res)
}
