package storage

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when a document is missing or a conditional
	// update matched nothing.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("storage: duplicate key")
)

// mapMongoErr translates driver errors into the storage sentinels.
func mapMongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}
