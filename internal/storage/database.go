package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"social-go/internal/config"
	"social-go/internal/logging"
	"social-go/internal/models"
)

// InitDB opens the relational database that holds the repair journal.
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "postgres":
		dsnParts := []string{
			fmt.Sprintf("host=%s", cfg.Host),
			fmt.Sprintf("port=%d", cfg.Port),
			fmt.Sprintf("user=%s", cfg.User),
			fmt.Sprintf("dbname=%s", cfg.DBName),
		}
		if cfg.Password != "" {
			dsnParts = append(dsnParts, fmt.Sprintf("password=%s", cfg.Password))
		}
		dsnParts = append(dsnParts, fmt.Sprintf("sslmode=%s", cfg.SSLMode))
		dialector = postgres.Open(strings.Join(dsnParts, " "))
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	gormLogger := logger.New(
		gormWriter{log: logging.WithComponent("gorm")},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// AutoMigrateTables creates or updates the journal table.
func AutoMigrateTables(db *gorm.DB) error {
	log := logging.WithComponent("storage")
	log.Info().Msg("migrating repair journal schema")
	if err := db.AutoMigrate(&models.RepairEntry{}); err != nil {
		log.Error().Err(err).Msg("repair journal migration failed")
		return fmt.Errorf("repair journal migration failed: %w", err)
	}
	return nil
}

// gormWriter routes gorm's printf-style logger into zerolog.
type gormWriter struct {
	log *zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn().Msgf(format, args...)
}
