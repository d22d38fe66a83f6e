package client

import (
	"context"
	"sync"

	"github.com/luma/picoredis/protocol"
)

// Locked shares one Client between goroutines. The lock is held for a whole
// request and reply.
type Locked struct {
	mu     sync.Mutex
	client *Client
}

func NewLocked(c *Client) *Locked {
	return &Locked{client: c}
}

func (l *Locked) Command(ctx context.Context, name string, args ...protocol.Arg) (protocol.Value, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.client.Command(ctx, name, args...)
}

// Do runs fn with exclusive use of the client, for sequences of commands
// that must not interleave with other callers.
func (l *Locked) Do(fn func(c *Client) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return fn(l.client)
}

func (l *Locked) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.client.State()
}

func (l *Locked) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.client.Close()
}
