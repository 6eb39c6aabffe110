package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"

	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/events"
	"social-go/internal/handlers/apiserver"
	"social-go/internal/handlers/chatserver"
	appKafka "social-go/internal/kafka"
	"social-go/internal/logging"
	"social-go/internal/presence"
	"social-go/internal/realtime"
	appRedis "social-go/internal/redis"
	"social-go/internal/services"
	"social-go/internal/storage"
	"social-go/internal/storage/memory"
	"social-go/internal/websocket"
)

const blacklistPrefix = "blacklist:jti:"

// remoteRooms stands in for the hub when connections live on chat servers.
// The API server only reads presence, it never accepts connections.
type remoteRooms struct{}

func (remoteRooms) JoinRoom(string, string) error {
	return errors.New("connections are served by the chat servers")
}

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Caller: cfg.Log.Caller})
	log := logging.WithComponent("apiserver")
	log.Info().Str("version", cfg.AppVersion).Msg("API server configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Open the document store and repair journal
	store, err := storage.Open(rootCtx, cfg, memory.NewStore)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	// 3. Redis backs the token blacklist and the shared presence sets
	var (
		blacklist   auth.TokenBlacklist = auth.NewMemoryBlacklist()
		presenceSet presence.Set        = presence.NewMemorySet()
		redisClient *redisDriver.Client
	)
	if cfg.Presence.Type == "redis" {
		redisClient, err = appRedis.NewClient(rootCtx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		blacklist = appRedis.NewRedisTokenBlacklist(redisClient, blacklistPrefix)
		presenceSet = appRedis.NewPresenceSet(redisClient, cfg.Presence.KeyPrefix)
	} else {
		log.Warn().Msg("presence and token blacklist are process-local")
	}

	// 4. Realtime: relay through Kafka to the chat servers, or serve
	// websockets from this process when Kafka is off.
	var (
		emitter  realtime.Emitter
		rooms    services.RoomJoiner = remoteRooms{}
		hub      *websocket.Hub
		producer appKafka.MessageProducer
	)
	if cfg.Kafka.Enabled {
		producer, err = appKafka.NewConfluentKafkaProducer(cfg.Kafka)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		emitter = realtime.NewBreakerEmitter(
			realtime.NewKafkaEmitter(producer, cfg.Kafka.RealtimeTopic, cfg.Realtime.EmitTimeout),
			cfg.Realtime.BreakerFailures, cfg.Realtime.BreakerTimeout,
		)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.RealtimeTopic).Msg("realtime events relayed through kafka")
	} else {
		hub = websocket.NewHub(cfg.WebSocket.HubQueueSize)
		go hub.Run(rootCtx)
		emitter, rooms = hub, hub
		log.Info().Msg("kafka disabled, serving websockets in-process")
	}

	// 5. Services and their event subscriptions
	bus := events.NewAsyncBus(cfg.Events.Workers, cfg.Events.QueueSize)

	authService := services.NewAuthService(store.Users, blacklist, cfg.Auth)
	notificationService := services.NewNotificationService(store, emitter)
	notificationService.Register(bus)
	conversationService := services.NewConversationService(store, bus, emitter)
	conversationService.Register(bus)
	presenceService := services.NewPresenceService(store, presenceSet, rooms, emitter)

	r := apiserver.NewRouter(apiserver.Services{
		Auth:          authService,
		Users:         services.NewUserService(store.Users, store.Friends),
		Friends:       services.NewFriendService(store, bus),
		Online:        presenceService,
		Content:       services.NewContentService(store),
		Engagement:    services.NewEngagementService(store, services.NewTargetResolver(store)),
		Notifications: notificationService,
		Conversations: conversationService,
	}, cfg)
	if hub != nil {
		wsHandler := chatserver.NewWebSocketHandler(hub, authService, presenceService, cfg.WebSocket)
		r.HandleFunc(cfg.Server.WebSocketPath, wsHandler.ServeWS)
	}

	// 6. Start the HTTP server with CORS
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port),
		Handler:      withCORS(r, cfg.APIServer.CORS),
		ReadTimeout:  cfg.APIServer.ReadTimeout,
		WriteTimeout: cfg.APIServer.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutdown signal received, stopping API server")

	// 7. Drain in dependency order: HTTP, side effects, then connections
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server forced to close")
	}
	if err := bus.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("event bus did not drain")
	}
	if producer != nil {
		producer.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("store did not close cleanly")
	}
	log.Info().Msg("API server stopped")
}

func withCORS(r *mux.Router, c config.CORSConfig) http.Handler {
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(c.AllowedOrigins),
		handlers.AllowedMethods(c.AllowedMethods),
		handlers.AllowedHeaders(c.AllowedHeaders),
		handlers.ExposedHeaders(c.ExposedHeaders),
		handlers.MaxAge(c.MaxAge),
	}
	if c.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	return handlers.CORS(corsOptions...)(r)
}
