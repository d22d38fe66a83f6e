package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"syscall"
	"time"
)

var ErrNoDescriptor = errors.New("stream has no file descriptor")

// Stream is a duplex byte stream that can be watched by a Poller.
type Stream interface {
	io.ReadWriteCloser

	// Fd returns the descriptor to register with a Poller
	Fd() (int, error)
}

// Dialer opens Streams.
type Dialer interface {
	Dial(ctx context.Context, host string, port int) (Stream, error)
}

// DialerFunc adapts a function to a Dialer.
type DialerFunc func(ctx context.Context, host string, port int) (Stream, error)

func (f DialerFunc) Dial(ctx context.Context, host string, port int) (Stream, error) {
	return f(ctx, host, port)
}

// TCPDialer dials plain TCP connections.
type TCPDialer struct {
	// Timeout bounds connection establishment, zero means no limit beyond ctx
	Timeout time.Duration

	// KeepAlive is the TCP keep-alive period, zero uses the net package default
	KeepAlive time.Duration
}

func (d TCPDialer) Dial(ctx context.Context, host string, port int) (Stream, error) {
	nd := net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}

	conn, err := nd.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}

	return NewStream(conn), nil
}

// NewStream wraps a net.Conn as a Stream.
func NewStream(conn net.Conn) Stream {
	return &netStream{Conn: conn}
}

type netStream struct {
	net.Conn
}

func (s *netStream) Fd() (int, error) {
	sc, ok := s.Conn.(syscall.Conn)
	if !ok {
		return -1, ErrNoDescriptor
	}

	raw, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}

	fd := -1
	if err := raw.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return -1, err
	}

	return fd, nil
}

var _ Dialer = TCPDialer{}
var _ Stream = (*netStream)(nil)
