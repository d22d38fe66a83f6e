package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// InmemoryStore keeps the whole keyspace as a single JSON object, which
// doubles as its snapshot format.
type InmemoryStore struct {
	mu     sync.RWMutex
	values []byte
}

func NewInmemoryStore() *InmemoryStore {
	return &InmemoryStore{values: []byte("{}")}
}

func (i *InmemoryStore) Close() error {
	return nil
}

func (i *InmemoryStore) Set(ctx context.Context, key string, value []byte) (err error) {
	if key == "" {
		return ErrInvalidKey
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.values, err = sjson.SetBytes(i.values, escapeKey(key), string(value))
	return err
}

func (i *InmemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	result := i.lookup(key)
	if !result.Exists() {
		return nil, false, nil
	}

	return []byte(result.String()), true, nil
}

func (i *InmemoryStore) Del(ctx context.Context, keys ...string) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	deleted := 0
	for _, key := range keys {
		if !i.lookup(key).Exists() {
			continue
		}

		values, err := sjson.DeleteBytes(i.values, escapeKey(key))
		if err != nil {
			return deleted, err
		}

		i.values = values
		deleted++
	}

	return deleted, nil
}

func (i *InmemoryStore) Exists(ctx context.Context, keys ...string) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	found := 0
	for _, key := range keys {
		if i.lookup(key).Exists() {
			found++
		}
	}

	return found, nil
}

func (i *InmemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, ErrInvalidKey
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	var n int64
	if result := i.lookup(key); result.Exists() {
		parsed, err := strconv.ParseInt(result.String(), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		n = parsed
	}

	if n == 1<<63-1 {
		return 0, fmt.Errorf("increment would overflow: %w", ErrNotInteger)
	}
	n++

	values, err := sjson.SetBytes(i.values, escapeKey(key), strconv.FormatInt(n, 10))
	if err != nil {
		return 0, err
	}
	i.values = values

	return n, nil
}

func (i *InmemoryStore) Keys(ctx context.Context) ([]string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	keys := make([]string, 0)
	gjson.ParseBytes(i.values).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})

	return keys, nil
}

func (i *InmemoryStore) Restore(snapshot []byte) error {
	if !gjson.ValidBytes(snapshot) || !gjson.ParseBytes(snapshot).IsObject() {
		return fmt.Errorf("snapshot is not a JSON object")
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.values = append([]byte(nil), snapshot...)
	return nil
}

func (i *InmemoryStore) Backup() ([]byte, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return append([]byte(nil), i.values...), nil
}

func (i *InmemoryStore) lookup(key string) gjson.Result {
	if key == "" {
		return gjson.Result{}
	}
	return gjson.GetBytes(i.values, escapeKey(key))
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
	`!`, `\!`,
)

// escapeKey turns a key into a single-component gjson/sjson path
func escapeKey(key string) string {
	return pathEscaper.Replace(key)
}

var _ Store = (*InmemoryStore)(nil)
