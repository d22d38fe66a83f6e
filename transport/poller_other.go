//go:build !linux

package transport

// NewPoller is only implemented on Linux.
func NewPoller() (Poller, error) {
	return nil, ErrPollerUnsupported
}
