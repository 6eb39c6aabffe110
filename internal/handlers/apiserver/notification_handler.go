package apiserver

import (
	"net/http"

	"social-go/internal/config"
	"social-go/internal/middleware"
	"social-go/internal/services"
)

type NotificationHandler struct {
	notifications services.NotificationService
	pagination    config.PaginationConfig
}

func NewNotificationHandler(ns services.NotificationService, pagination config.PaginationConfig) *NotificationHandler {
	return &NotificationHandler{notifications: ns, pagination: pagination}
}

// ListHandler handles GET /api/v1/notifications?before=&limit=.
func (h *NotificationHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r, h.pagination)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.notifications.List(r.Context(), middleware.UserIDFromContext(r.Context()), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, res)
}

// NewCountHandler handles GET /api/v1/notifications/new-count.
func (h *NotificationHandler) NewCountHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.CountUnseen(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]int64{"count": n})
}

// MarkReadHandler handles POST /api/v1/notifications/{notificationID}/read.
func (h *NotificationHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "notificationID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.notifications.MarkRead(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllSeenHandler handles POST /api/v1/notifications/seen.
func (h *NotificationHandler) MarkAllSeenHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkAllSeen(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]int64{"updated": n})
}
