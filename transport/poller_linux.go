//go:build linux

package transport

import (
	"math"
	"syscall"
	"time"
)

// epollPoller is a level-triggered epoll instance. It is not safe for
// concurrent use.
type epollPoller struct {
	fd     int
	closed bool
	events []syscall.EpollEvent
}

// NewPoller opens an epoll instance.
func NewPoller() (Poller, error) {
	// https://man7.org/linux/man-pages/man2/epoll_create.2.html
	fd, err := syscall.EpollCreate1(syscall.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	return &epollPoller{
		fd:     fd,
		events: make([]syscall.EpollEvent, 8),
	}, nil
}

// Register watches fd for reads. Hang-ups and errors are always reported.
func (p *epollPoller) Register(fd int) error {
	if p.closed {
		return ErrPollerClosed
	}

	// https://man7.org/linux/man-pages/man2/epoll_ctl.2.html
	event := &syscall.EpollEvent{Fd: int32(fd), Events: syscall.EPOLLIN}
	return syscall.EpollCtl(p.fd, syscall.EPOLL_CTL_ADD, fd, event)
}

func (p *epollPoller) Deregister(fd int) error {
	if p.closed {
		return ErrPollerClosed
	}

	// Kernels before 2.6.9 require a non-nil event even for EPOLL_CTL_DEL
	return syscall.EpollCtl(p.fd, syscall.EPOLL_CTL_DEL, fd, &syscall.EpollEvent{})
}

func (p *epollPoller) Wait(timeout time.Duration) ([]Event, error) {
	if p.closed {
		return nil, ErrPollerClosed
	}

	deadline := time.Now().Add(timeout)

	for {
		n, err := syscall.EpollWait(p.fd, p.events, waitMillis(time.Until(deadline)))
		if err == syscall.EINTR {
			// The Go runtime preempts with signals, so EINTR is routine
			if time.Until(deadline) <= 0 {
				return nil, nil
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if n == 0 {
			return nil, nil
		}

		ready := make([]Event, 0, n)
		for _, e := range p.events[:n] {
			ready = append(ready, Event{
				Fd:       int(e.Fd),
				Readable: e.Events&syscall.EPOLLIN != 0,
				Hangup:   e.Events&(syscall.EPOLLHUP|syscall.EPOLLRDHUP) != 0,
				Error:    e.Events&syscall.EPOLLERR != 0,
			})
		}

		return ready, nil
	}
}

func (p *epollPoller) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	return syscall.Close(p.fd)
}

// waitMillis rounds d up to whole milliseconds so a short remaining budget
// never turns into a busy poll.
func waitMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}

	ms := (d + time.Millisecond - 1) / time.Millisecond
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}

	return int(ms)
}
