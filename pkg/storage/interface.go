package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("object not found")

// Storage is a bucket of publicly readable objects.
type Storage interface {
	// Write stores content from the reader with the given key.
	// size is the expected content size (-1 if unknown).
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Delete removes the object with the given key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// PublicURL returns the URL clients use to fetch the object.
	PublicURL(key string) string
}

// Config selects and configures the storage driver.
type Config struct {
	Driver string      `mapstructure:"driver"` // "s3" or "local"
	S3     S3Config    `mapstructure:"s3"`
	Local  LocalConfig `mapstructure:"local"`
}

// New builds the Storage selected by cfg.Driver.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		s, err := NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "local", "":
		s, err := NewLocalStorage(cfg.Local)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.New("unsupported storage driver: " + cfg.Driver)
	}
}
