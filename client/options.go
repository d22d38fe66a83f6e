package client

import (
	"time"

	"go.uber.org/zap"

	"github.com/luma/picoredis/transport"
)

// DefaultTimeout is the per-command reply budget.
const DefaultTimeout = 3000 * time.Millisecond

type Option func(*Client)

// WithTimeout sets the budget for reading one complete reply.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger enables SEND/RECV tracing at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		c.log = log.Named("client")
	}
}

func WithDialer(dialer transport.Dialer) Option {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// WithPoller replaces transport.NewPoller. A new poller is made per Connect.
func WithPoller(newPoller func() (transport.Poller, error)) Option {
	return func(c *Client) {
		c.newPoller = newPoller
	}
}
