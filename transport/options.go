package transport

import (
	"github.com/luma/picoredis/storage"
	"go.uber.org/zap"
)

type Options struct {
	// Host to listen on
	Host string

	// Port to listen on, 0 picks a free port (see Server.Addr)
	Port int

	// Reuseport controls setting SO_REUSEPORT, needed for NumListeners > 1
	Reuseport bool

	// NumListeners is the number of accept loops. Defaults to 1.
	NumListeners int

	// Password, when set, must be presented with AUTH before other commands
	Password string

	// Trace logs every request and reply at debug level. This is only useful in local debugging
	Trace bool

	Store storage.Store

	// Metrics is optional
	Metrics *Metrics

	Log *zap.Logger
}
