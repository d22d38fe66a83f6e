package storage

import (
	"context"
	"errors"
)

var (
	ErrNotInteger = errors.New("value is not an integer or out of range")
	ErrInvalidKey = errors.New("invalid key")
)

// Store is the keyspace behind the test server. Values are UTF-8 text.
type Store interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Del(ctx context.Context, keys ...string) (int, error)
	Exists(ctx context.Context, keys ...string) (int, error)
	Incr(ctx context.Context, key string) (int64, error)
	Keys(ctx context.Context) ([]string, error)

	Restore(snapshot []byte) error
	Backup() ([]byte, error)

	Close() error
}
