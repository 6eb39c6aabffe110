package apiserver

import (
	"net/http"

	"social-go/internal/config"
	"social-go/internal/middleware"
	"social-go/internal/services"
)

// ConversationHandler serves private threads and their messages.
type ConversationHandler struct {
	conversationService services.ConversationService
	pagination          config.PaginationConfig
}

func NewConversationHandler(cs services.ConversationService, pagination config.PaginationConfig) *ConversationHandler {
	return &ConversationHandler{conversationService: cs, pagination: pagination}
}

// GetOrCreateWithUserHandler handles GET /api/v1/conversations/with/{userID}.
func (h *ConversationHandler) GetOrCreateWithUserHandler(w http.ResponseWriter, r *http.Request) {
	otherID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	conv, err := h.conversationService.GetOrCreateWithUser(r.Context(), middleware.UserIDFromContext(r.Context()), otherID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, conv)
}

// GetConversationMessagesHandler handles GET /api/v1/conversations/{conversationID}/messages.
func (h *ConversationHandler) GetConversationMessagesHandler(w http.ResponseWriter, r *http.Request) {
	convID, err := pathID(r, "conversationID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageFromQuery(r, h.pagination)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.conversationService.ListMessages(r.Context(), middleware.UserIDFromContext(r.Context()), convID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, res)
}

// SendMessageHandler handles POST /api/v1/conversations/{conversationID}/messages.
func (h *ConversationHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	convID, err := pathID(r, "conversationID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.CreateMessageInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.conversationService.CreateMessage(r.Context(), middleware.UserIDFromContext(r.Context()), convID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, msg)
}
