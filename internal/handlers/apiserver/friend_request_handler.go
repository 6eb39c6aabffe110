package apiserver

import (
	"context"
	"net/http"

	"social-go/internal/config"
	"social-go/internal/middleware"
	"social-go/internal/models"
	"social-go/internal/services"
)

// OnlineFriends lists the friends of a user that hold a live connection.
type OnlineFriends interface {
	OnlineFriendIDs(ctx context.Context, userID string) ([]string, error)
}

// FriendRequestHandler serves friend requests and the friends list.
type FriendRequestHandler struct {
	friendService services.FriendService
	online        OnlineFriends
	pagination    config.PaginationConfig
}

func NewFriendRequestHandler(fs services.FriendService, online OnlineFriends, pagination config.PaginationConfig) *FriendRequestHandler {
	return &FriendRequestHandler{friendService: fs, online: online, pagination: pagination}
}

// SendFriendRequestHandler handles POST /api/v1/users/{userID}/friend-requests.
func (h *FriendRequestHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	receiverID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.friendService.CreateFriendRequest(r.Context(), middleware.UserIDFromContext(r.Context()), receiverID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, req)
}

// CancelFriendRequestHandler handles DELETE /api/v1/friend-requests/{requestID}.
func (h *FriendRequestHandler) CancelFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.friendService.CancelFriendRequest)
}

// AcceptFriendRequestHandler handles POST /api/v1/friend-requests/{requestID}/accept.
func (h *FriendRequestHandler) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "requestID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	friend, err := h.friendService.AcceptFriendRequest(r.Context(), middleware.UserIDFromContext(r.Context()), requestID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, friend)
}

// RejectFriendRequestHandler handles POST /api/v1/friend-requests/{requestID}/reject.
func (h *FriendRequestHandler) RejectFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.friendService.RejectFriendRequest)
}

func (h *FriendRequestHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actorID, requestID string) error) {
	requestID, err := pathID(r, "requestID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := fn(r.Context(), middleware.UserIDFromContext(r.Context()), requestID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListReceivedRequestsHandler handles GET /api/v1/friend-requests/received.
func (h *FriendRequestHandler) ListReceivedRequestsHandler(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.friendService.ListReceivedRequests(r.Context(), middleware.UserIDFromContext(r.Context()))
	h.writeSummaries(w, r, reqs, err)
}

// ListSentRequestsHandler handles GET /api/v1/friend-requests/sent.
func (h *FriendRequestHandler) ListSentRequestsHandler(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.friendService.ListSentRequests(r.Context(), middleware.UserIDFromContext(r.Context()))
	h.writeSummaries(w, r, reqs, err)
}

func (h *FriendRequestHandler) writeSummaries(w http.ResponseWriter, r *http.Request, reqs []*models.FriendRequestSummary, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reqs == nil {
		reqs = []*models.FriendRequestSummary{}
	}
	writeJSONResponse(w, http.StatusOK, reqs)
}

// ListFriendsHandler handles GET /api/v1/friends.
func (h *FriendRequestHandler) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	friends, err := h.friendService.GetFriendsList(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if friends == nil {
		friends = []*services.FriendView{}
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// ListUserFriendsHandler handles GET /api/v1/users/{userID}/friends?before=&limit=.
func (h *FriendRequestHandler) ListUserFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageFromQuery(r, h.pagination)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.friendService.ListUserFriends(r.Context(), middleware.UserIDFromContext(r.Context()), userID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, res)
}

// ListOnlineFriendsHandler handles GET /api/v1/friends/online.
func (h *FriendRequestHandler) ListOnlineFriendsHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := h.online.OnlineFriendIDs(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string][]string{"userIds": ids})
}

// UnfriendHandler handles DELETE /api/v1/friends/{friendID}.
func (h *FriendRequestHandler) UnfriendHandler(w http.ResponseWriter, r *http.Request) {
	friendID, err := pathID(r, "friendID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.friendService.Unfriend(r.Context(), middleware.UserIDFromContext(r.Context()), friendID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
