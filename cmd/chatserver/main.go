package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	redisDriver "github.com/redis/go-redis/v9"

	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/handlers/chatserver"
	appKafka "social-go/internal/kafka"
	"social-go/internal/logging"
	"social-go/internal/metrics"
	"social-go/internal/presence"
	"social-go/internal/realtime"
	appRedis "social-go/internal/redis"
	"social-go/internal/services"
	"social-go/internal/storage"
	"social-go/internal/storage/memory"
	"social-go/internal/websocket"
)

const blacklistPrefix = "blacklist:jti:"

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Caller: cfg.Log.Caller})
	instanceID := uuid.NewString()
	log := logging.WithComponent("chatserver").With().Str("instance", instanceID).Logger()
	log.Info().Msg("chat server configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Store: presence reads friend lists and writes lastSeenAt
	store, err := storage.Open(rootCtx, cfg, memory.NewStore)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	// 3. Redis holds the connection sets shared by every chat server
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
	}

	// 4. Hub
	hub := websocket.NewHub(cfg.WebSocket.HubQueueSize)
	go hub.Run(rootCtx)

	// Presence announcements go through the relay so friends connected to
	// other instances hear them too.
	var emitter realtime.Emitter = hub
	var producer appKafka.MessageProducer
	if cfg.Kafka.Enabled {
		producer, err = appKafka.NewConfluentKafkaProducer(cfg.Kafka)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		emitter = realtime.NewBreakerEmitter(
			realtime.NewKafkaEmitter(producer, cfg.Kafka.RealtimeTopic, cfg.Realtime.EmitTimeout),
			cfg.Realtime.BreakerFailures, cfg.Realtime.BreakerTimeout,
		)
	}

	authService := services.NewAuthService(store.Users, blacklist, cfg.Auth)
	presenceService := services.NewPresenceService(store, presenceSet, hub, emitter)
	wsHandler := chatserver.NewWebSocketHandler(hub, authService, presenceService, cfg.WebSocket)

	// 5. Relay consumer: every instance needs every envelope, so each one
	// joins its own consumer group.
	var consumers sync.WaitGroup
	var consumer appKafka.MessageConsumer
	if cfg.Kafka.Enabled {
		consumer, err = appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka consumer")
		}
		relay := realtime.NewRelay(hub)
		groupID := cfg.Kafka.ConsumerGroup + "-" + instanceID
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			log.Info().Str("topic", cfg.Kafka.RealtimeTopic).Str("group", groupID).Msg("relay consumer started")
			if err := consumer.Consume(rootCtx, []string{cfg.Kafka.RealtimeTopic}, groupID, relay.Handle); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("relay consumer stopped with error")
			}
		}()
	}

	// 6. HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Server.WebSocketPath, wsHandler.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	httpServer := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        mux,
		ReadTimeout:    cfg.Server.ReadTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("path", cfg.Server.WebSocketPath).Msg("chat server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("chat server failed")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutdown signal received, stopping chat server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("chat server forced to close")
	}
	consumers.Wait()
	if consumer != nil {
		consumer.Close()
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
	log.Info().Msg("chat server stopped")
}
