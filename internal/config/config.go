package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// APIServerConfig holds settings for the REST API process.
type APIServerConfig struct {
	Host         string        `mapstructure:"HOST"`
	Port         string        `mapstructure:"PORT"`
	ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
	CORS         CORSConfig    `mapstructure:"CORS"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// RedisConfig holds configuration for Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// Config holds all configuration for both servers and the admin tool.
// Values come from defaults, an optional YAML file, a .env file and the environment.
type Config struct {
	AppName    string           `mapstructure:"APP_NAME"`
	AppVersion string           `mapstructure:"APP_VERSION"`
	Log        LogConfig        `mapstructure:"LOG"`
	Server     ServerConfig     `mapstructure:"SERVER"` // chat server
	APIServer  APIServerConfig  `mapstructure:"API_SERVER"`
	Kafka      KafkaConfig      `mapstructure:"KAFKA"`
	Mongo      MongoConfig      `mapstructure:"MONGO"`
	Store      StoreConfig      `mapstructure:"STORE"`
	Database   DatabaseConfig   `mapstructure:"DATABASE"`
	Redis      RedisConfig      `mapstructure:"REDIS"`
	Presence   PresenceConfig   `mapstructure:"PRESENCE"`
	Auth       AuthConfig       `mapstructure:"AUTH"`
	WebSocket  WebSocketConfig  `mapstructure:"WEBSOCKET"`
	Events     EventsConfig     `mapstructure:"EVENTS"`
	Realtime   RealtimeConfig   `mapstructure:"REALTIME"`
	Metrics    MetricsConfig    `mapstructure:"METRICS"`
	Pagination PaginationConfig `mapstructure:"PAGINATION"`
}

type LogConfig struct {
	Level  string `mapstructure:"LEVEL"`
	Format string `mapstructure:"FORMAT"`
	Caller bool   `mapstructure:"CALLER"`
}

// ServerConfig holds configuration for the chat (websocket) server.
type ServerConfig struct {
	Host           string        `mapstructure:"HOST"`
	Port           string        `mapstructure:"PORT"`
	WebSocketPath  string        `mapstructure:"WEBSOCKET_PATH"`
	ReadTimeout    time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"WRITE_TIMEOUT"`
	MaxHeaderBytes int           `mapstructure:"MAX_HEADER_BYTES"`
}

// KafkaConfig holds configuration for Kafka.
type KafkaConfig struct {
	Enabled       bool     `mapstructure:"ENABLED"`
	Brokers       []string `mapstructure:"BROKERS"`
	ClientID      string   `mapstructure:"CLIENT_ID"`
	Protocol      string   `mapstructure:"PROTOCOL"`
	RealtimeTopic string   `mapstructure:"REALTIME_TOPIC"` // envelopes from the API server to every chat server
	ConsumerGroup string   `mapstructure:"CONSUMER_GROUP"` // prefix; each chat server appends its instance id
}

type MongoConfig struct {
	URI            string        `mapstructure:"URI"`
	Database       string        `mapstructure:"DATABASE"`
	ConnectTimeout time.Duration `mapstructure:"CONNECT_TIMEOUT"`
}

// StoreConfig selects the document store backend: "mongo" or "memory".
type StoreConfig struct {
	Type string `mapstructure:"TYPE"`
}

// DatabaseConfig configures the relational repair journal. TYPE "none" disables it.
type DatabaseConfig struct {
	Type     string `mapstructure:"TYPE"`
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"SSL_MODE"`
}

// PresenceConfig selects where connection sets live: "redis" or "memory".
type PresenceConfig struct {
	Type      string `mapstructure:"TYPE"`
	KeyPrefix string `mapstructure:"KEY_PREFIX"`
}

// AuthConfig holds configuration for authentication (e.g., JWT).
type AuthConfig struct {
	JWTSecretKey string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpiry    time.Duration `mapstructure:"JWT_EXPIRY"`
	JWTIssuer    string        `mapstructure:"JWT_ISSUER"`
}

// WebSocketConfig holds configuration for WebSocket connections.
type WebSocketConfig struct {
	WriteWaitSeconds    int `mapstructure:"WRITE_WAIT_SECONDS"`
	PongWaitSeconds     int `mapstructure:"PONG_WAIT_SECONDS"`
	PingPeriodSeconds   int `mapstructure:"PING_PERIOD_SECONDS"`
	MaxMessageSizeBytes int `mapstructure:"MAX_MESSAGE_SIZE_BYTES"`
	// SendBufferSize is the per-connection outbound buffer.
	SendBufferSize int `mapstructure:"SEND_BUFFER_SIZE"`
	// HubQueueSize is the hub-wide queue of frames awaiting fan-out.
	HubQueueSize int `mapstructure:"HUB_QUEUE_SIZE"`
}

// EventsConfig sizes the in-process side-effect queue.
type EventsConfig struct {
	Workers   int `mapstructure:"WORKERS"`
	QueueSize int `mapstructure:"QUEUE_SIZE"`
}

// RealtimeConfig tunes the circuit breaker in front of the realtime relay.
type RealtimeConfig struct {
	BreakerFailures uint32        `mapstructure:"BREAKER_FAILURES"`
	BreakerTimeout  time.Duration `mapstructure:"BREAKER_TIMEOUT"`
	EmitTimeout     time.Duration `mapstructure:"EMIT_TIMEOUT"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"ENABLED"`
	Path    string `mapstructure:"PATH"`
}

type PaginationConfig struct {
	DefaultLimit int `mapstructure:"DEFAULT_LIMIT"`
	MaxLimit     int `mapstructure:"MAX_LIMIT"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// SERVER_PORT overrides Server.Port, API_SERVER_CORS_MAX_AGE overrides APIServer.CORS.MaxAge.
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("reading config: %w", err)
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decoding config: %w", err)
	}
	return config, config.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "social-go")
	v.SetDefault("APP_VERSION", "0.1.0")

	v.SetDefault("LOG.LEVEL", "info")
	v.SetDefault("LOG.FORMAT", "json")
	v.SetDefault("LOG.CALLER", false)

	v.SetDefault("SERVER.HOST", "0.0.0.0")
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.WEBSOCKET_PATH", "/ws")
	v.SetDefault("SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER.MAX_HEADER_BYTES", 1<<20)

	v.SetDefault("API_SERVER.HOST", "0.0.0.0")
	v.SetDefault("API_SERVER.PORT", "8081")
	v.SetDefault("API_SERVER.READ_TIMEOUT", 15*time.Second)
	v.SetDefault("API_SERVER.WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("API_SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("API_SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length", "X-Request-ID"})
	v.SetDefault("API_SERVER.CORS.ALLOW_CREDENTIALS", true)
	v.SetDefault("API_SERVER.CORS.MAX_AGE", 300)

	v.SetDefault("KAFKA.ENABLED", true)
	v.SetDefault("KAFKA.BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA.CLIENT_ID", "social-go")
	v.SetDefault("KAFKA.PROTOCOL", "plaintext")
	v.SetDefault("KAFKA.REALTIME_TOPIC", "social-realtime")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "social-chatserver")

	v.SetDefault("MONGO.URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO.DATABASE", "social")
	v.SetDefault("MONGO.CONNECT_TIMEOUT", 10*time.Second)

	v.SetDefault("STORE.TYPE", "mongo")

	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "password")
	v.SetDefault("DATABASE.DB_NAME", "social_repair")
	v.SetDefault("DATABASE.SSL_MODE", "disable")

	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	v.SetDefault("PRESENCE.TYPE", "redis")
	v.SetDefault("PRESENCE.KEY_PREFIX", "presence:user:")

	v.SetDefault("AUTH.JWT_SECRET_KEY", "a_very_secret_key_that_should_be_changed")
	v.SetDefault("AUTH.JWT_EXPIRY", 24*time.Hour)
	v.SetDefault("AUTH.JWT_ISSUER", "social-go")

	v.SetDefault("WEBSOCKET.WRITE_WAIT_SECONDS", 10)
	v.SetDefault("WEBSOCKET.PONG_WAIT_SECONDS", 60)
	v.SetDefault("WEBSOCKET.PING_PERIOD_SECONDS", 54) // (60 * 9) / 10
	v.SetDefault("WEBSOCKET.MAX_MESSAGE_SIZE_BYTES", 4096)
	v.SetDefault("WEBSOCKET.SEND_BUFFER_SIZE", 256)
	v.SetDefault("WEBSOCKET.HUB_QUEUE_SIZE", 4096)

	v.SetDefault("EVENTS.WORKERS", 4)
	v.SetDefault("EVENTS.QUEUE_SIZE", 1024)

	v.SetDefault("REALTIME.BREAKER_FAILURES", 5)
	v.SetDefault("REALTIME.BREAKER_TIMEOUT", 30*time.Second)
	v.SetDefault("REALTIME.EMIT_TIMEOUT", 5*time.Second)

	v.SetDefault("METRICS.ENABLED", true)
	v.SetDefault("METRICS.PATH", "/metrics")

	v.SetDefault("PAGINATION.DEFAULT_LIMIT", 20)
	v.SetDefault("PAGINATION.MAX_LIMIT", 50)
}

// Validate rejects settings the servers cannot start with.
func (c Config) Validate() error {
	switch c.Store.Type {
	case "mongo", "memory":
	default:
		return fmt.Errorf("unsupported store type %q", c.Store.Type)
	}
	switch c.Presence.Type {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported presence type %q", c.Presence.Type)
	}
	switch c.Database.Type {
	case "postgres", "none":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Auth.JWTSecretKey == "" {
		return errors.New("AUTH.JWT_SECRET_KEY must be set")
	}
	if c.WebSocket.SendBufferSize <= 0 || c.WebSocket.HubQueueSize <= 0 {
		return errors.New("WEBSOCKET.SEND_BUFFER_SIZE and WEBSOCKET.HUB_QUEUE_SIZE must be positive")
	}
	if c.Events.Workers <= 0 || c.Events.QueueSize <= 0 {
		return errors.New("EVENTS.WORKERS and EVENTS.QUEUE_SIZE must be positive")
	}
	if c.Pagination.DefaultLimit <= 0 || c.Pagination.MaxLimit < c.Pagination.DefaultLimit {
		return errors.New("PAGINATION limits are inconsistent")
	}
	return nil
}

// ClampLimit applies the pagination defaults to a requested page size.
func (p PaginationConfig) ClampLimit(requested int) int {
	if requested <= 0 {
		return p.DefaultLimit
	}
	if requested > p.MaxLimit {
		return p.MaxLimit
	}
	return requested
}
