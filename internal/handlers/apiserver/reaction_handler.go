package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"

	"social-go/internal/apperr"
	"social-go/internal/config"
	"social-go/internal/middleware"
	"social-go/internal/models"
	"social-go/internal/services"
)

// ReactionHandler serves /api/v1/{kind}/{id}/reactions for posts, comments and replies.
type ReactionHandler struct {
	engagement services.EngagementService
	pagination config.PaginationConfig
}

func NewReactionHandler(es services.EngagementService, pagination config.PaginationConfig) *ReactionHandler {
	return &ReactionHandler{engagement: es, pagination: pagination}
}

type UpsertReactionRequest struct {
	Type models.ReactionType `json:"type"`
}

func target(r *http.Request) (services.TargetRef, error) {
	kind, err := models.ParseSourceType(mux.Vars(r)["kind"])
	if err != nil {
		return services.TargetRef{}, apperr.NotFound("unknown reactable kind")
	}
	id, err := pathID(r, "id")
	if err != nil {
		return services.TargetRef{}, err
	}
	return services.TargetRef{Kind: kind, ID: id}, nil
}

// ListReactionsHandler handles GET /api/v1/{kind}/{id}/reactions?type=&before=&limit=.
func (h *ReactionHandler) ListReactionsHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := target(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageFromQuery(r, h.pagination)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.engagement.ListReactions(r.Context(), ref, models.ReactionType(r.URL.Query().Get("type")), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, res)
}

// UpsertReactionHandler handles PUT /api/v1/{kind}/{id}/reactions.
func (h *ReactionHandler) UpsertReactionHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := target(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req UpsertReactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.engagement.UpsertReaction(r.Context(), middleware.UserIDFromContext(r.Context()), ref, req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"reactionId": id})
}

// RemoveReactionHandler handles DELETE /api/v1/{kind}/{id}/reactions.
func (h *ReactionHandler) RemoveReactionHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := target(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.engagement.RemoveReaction(r.Context(), middleware.UserIDFromContext(r.Context()), ref); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
