package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"

	"social-go/internal/config"
	"social-go/internal/metrics"
	"social-go/internal/middleware"
	"social-go/internal/services"
)

// Services is everything the REST surface calls into.
type Services struct {
	Auth          services.AuthService
	Users         services.UserService
	Friends       services.FriendService
	Online        OnlineFriends
	Content       services.ContentService
	Engagement    services.EngagementService
	Notifications services.NotificationService
	Conversations services.ConversationService
}

// NewRouter registers every API route on a fresh router.
func NewRouter(svc Services, cfg config.Config) *mux.Router {
	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users)
	friendReqHandler := NewFriendRequestHandler(svc.Friends, svc.Online, cfg.Pagination)
	contentHandler := NewContentHandler(svc.Content, cfg.Pagination)
	reactionHandler := NewReactionHandler(svc.Engagement, cfg.Pagination)
	notificationHandler := NewNotificationHandler(svc.Notifications, cfg.Pagination)
	convoHandler := NewConversationHandler(svc.Conversations, cfg.Pagination)

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.AccessLog)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metrics.Handler()).Methods(http.MethodGet)
	}

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.Auth(svc.Auth))

	apiRouter.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	apiRouter.HandleFunc("/users/me", userHandler.GetMe).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/{userID}", userHandler.GetProfile).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/{userID}/friend-requests", friendReqHandler.SendFriendRequestHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/users/{userID}/friends", friendReqHandler.ListUserFriendsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/{userID}/posts", contentHandler.ListUserPostsHandler).Methods(http.MethodGet)

	friendRequestRouter := apiRouter.PathPrefix("/friend-requests").Subrouter()
	friendRequestRouter.HandleFunc("/received", friendReqHandler.ListReceivedRequestsHandler).Methods(http.MethodGet)
	friendRequestRouter.HandleFunc("/sent", friendReqHandler.ListSentRequestsHandler).Methods(http.MethodGet)
	friendRequestRouter.HandleFunc("/{requestID}/accept", friendReqHandler.AcceptFriendRequestHandler).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/{requestID}/reject", friendReqHandler.RejectFriendRequestHandler).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/{requestID}", friendReqHandler.CancelFriendRequestHandler).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/friends", friendReqHandler.ListFriendsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/friends/online", friendReqHandler.ListOnlineFriendsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/friends/{friendID}", friendReqHandler.UnfriendHandler).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/posts", contentHandler.CreatePostHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/posts/{postID}", contentHandler.GetPostHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/posts/{postID}/shares", contentHandler.SharePostHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/posts/{postID}/comments", contentHandler.ListCommentsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/posts/{postID}/comments", contentHandler.CreateCommentHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/comments/{commentID}/replies", contentHandler.ListRepliesHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/comments/{commentID}/replies", contentHandler.CreateReplyHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/newsfeed/posts", contentHandler.NewsfeedHandler).Methods(http.MethodGet)

	reactions := "/{kind:posts|comments|replies}/{id}/reactions"
	apiRouter.HandleFunc(reactions, reactionHandler.ListReactionsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc(reactions, reactionHandler.UpsertReactionHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc(reactions, reactionHandler.RemoveReactionHandler).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/notifications", notificationHandler.ListHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/notifications/new-count", notificationHandler.NewCountHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/notifications/seen", notificationHandler.MarkAllSeenHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/notifications/{notificationID}/read", notificationHandler.MarkReadHandler).Methods(http.MethodPost)

	apiRouter.HandleFunc("/conversations/with/{userID}", convoHandler.GetOrCreateWithUserHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/conversations/{conversationID}/messages", convoHandler.GetConversationMessagesHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/conversations/{conversationID}/messages", convoHandler.SendMessageHandler).Methods(http.MethodPost)

	return r
}
