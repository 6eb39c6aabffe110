package chatserver

import (
	"context"
	"net/http"
	"time"

	"social-go/internal/apperr"
	"social-go/internal/config"
	"social-go/internal/logging"
	"social-go/internal/middleware"
	"social-go/internal/services"
	ws "social-go/internal/websocket"

	"github.com/goccy/go-json"
)

// disconnectTimeout bounds the offline bookkeeping that runs after the
// request context is already gone.
const disconnectTimeout = 5 * time.Second

// WebSocketHandler authenticates push connections and ties each one to the
// user's presence.
type WebSocketHandler struct {
	hub      *ws.Hub
	authn    middleware.Authenticator
	presence services.PresenceService
	cfg      config.WebSocketConfig
}

func NewWebSocketHandler(hub *ws.Hub, authn middleware.Authenticator, presence services.PresenceService, cfg config.WebSocketConfig) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, authn: authn, presence: presence, cfg: cfg}
}

// ServeWS upgrades an authenticated request. Browsers cannot set headers on
// a websocket handshake, so the token may also come from ?token=.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		reject(w, apperr.Unauthorized("missing token"))
		return
	}
	user, _, err := h.authn.Authenticate(r.Context(), token)
	if err != nil {
		logging.Ctx(r.Context()).Info().Err(err).Msg("websocket authentication failed")
		reject(w, err)
		return
	}

	ctx := logging.ContextWithUserID(r.Context(), user.ID)
	ws.ServeWs(h.hub, user.ID, w, r.WithContext(ctx), h.cfg, ws.Hooks{
		OnOpen: func(c *ws.Client) error {
			return h.presence.Connect(ctx, c.UserID, c.ID)
		},
		OnClose: func(c *ws.Client) {
			dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
			defer cancel()
			if err := h.presence.Disconnect(dctx, c.UserID, c.ID); err != nil {
				logging.Ctx(dctx).Error().Err(err).Str("conn_id", c.ID).Msg("presence disconnect failed")
			}
		},
	})
}

func reject(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": apperr.PublicMessage(err)})
}
