package storage

import (
	"context"
	"fmt"

	"social-go/internal/config"
	"social-go/internal/logging"
	"social-go/internal/models"
)

// Store bundles the repositories a process needs.
type Store struct {
	Users          UserRepository
	FriendRequests FriendRequestRepository
	Friends        FriendRepository
	Notifications  NotificationRepository
	Reactions      ReactionRepository
	Reactables     map[models.SourceType]ReactableRepository
	Content        ContentRepository
	Conversations  ConversationRepository
	Messages       MessageRepository
	Journal        RepairJournal

	closers []func(context.Context) error
}

// Reactable returns the repository for kind.
func (s *Store) Reactable(kind models.SourceType) (ReactableRepository, error) {
	repo, ok := s.Reactables[kind]
	if !ok {
		return nil, fmt.Errorf("no repository for reactable kind %q", kind)
	}
	return repo, nil
}

// OnClose registers fn to run when the store is closed.
func (s *Store) OnClose(fn func(context.Context) error) {
	s.closers = append(s.closers, fn)
}

// Close releases the underlying connections in reverse registration order.
func (s *Store) Close(ctx context.Context) error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			logging.WithComponent("storage").Error().Err(err).Msg("error closing store resource")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Open builds the Store selected by cfg. The memory backend is provided by
// the caller via newMemory so this package does not import its own fake.
func Open(ctx context.Context, cfg config.Config, newMemory func(RepairJournal) *Store) (*Store, error) {
	var journal RepairJournal = NewMemoryRepairJournal()
	var closeJournal func(context.Context) error

	if cfg.Database.Type == "postgres" {
		db, err := InitDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := AutoMigrateTables(db); err != nil {
			return nil, err
		}
		journal = NewGormRepairJournal(db)
		closeJournal = func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
	}

	var store *Store
	switch cfg.Store.Type {
	case "memory":
		store = newMemory(journal)
	case "mongo":
		client, err := InitMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		store = NewMongoStore(db, journal)
		store.OnClose(client.Disconnect)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
	}
	if closeJournal != nil {
		store.OnClose(closeJournal)
	}
	return store, nil
}
