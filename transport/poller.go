package transport

import (
	"errors"
	"time"
)

var (
	ErrPollerUnsupported = errors.New("readiness polling is not supported on this platform")
	ErrPollerClosed      = errors.New("poller is closed")
)

// Event is the readiness of one registered descriptor.
type Event struct {
	Fd       int
	Readable bool
	Hangup   bool
	Error    bool
}

// Poller waits for registered descriptors to become readable.
type Poller interface {
	Register(fd int) error
	Deregister(fd int) error

	// Wait blocks until at least one registered descriptor is ready or the
	// timeout elapses. No events and a nil error means the timeout elapsed.
	Wait(timeout time.Duration) ([]Event, error)

	Close() error
}
