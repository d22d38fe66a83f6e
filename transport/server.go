package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"runtime"
	"strconv"
	"sync"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/picoredis/protocol"
)

// Server is a small RESP server over a storage.Store. It speaks enough of the
// Redis command set to act as the peer for the client and for compatibility
// tests with other Redis clients.
type Server struct {
	cancel     context.CancelFunc
	stopWaiter sync.WaitGroup

	addr string

	reuseport    bool
	numListeners int
	listeners    []*Listener

	handler *handler

	mu     sync.Mutex
	closed bool

	log *zap.Logger
}

func NewServer(options Options) *Server {
	numListeners := options.NumListeners

	if numListeners < 1 {
		numListeners = 1
		if options.Reuseport {
			numListeners = runtime.NumCPU()
		}
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Server{
		addr:         net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		reuseport:    options.Reuseport,
		numListeners: numListeners,
		listeners:    make([]*Listener, 0, numListeners),
		handler:      newHandler(options),
		log:          log,
	}
}

// Start binds every listener before returning, then accepts in the
// background until ctx is cancelled or Close is called.
func (s *Server) Start(parentCtx context.Context) (err error) {
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel

	s.log.Info("Starting listeners", zap.Int("count", s.numListeners), zap.String("addr", s.addr))

	lns := make([]net.Listener, 0, s.numListeners)
	defer func() {
		if err != nil {
			cancel()
			for _, ln := range lns {
				err = multierr.Append(err, ln.Close())
			}
		}
	}()

	addr := s.addr
	for i := 0; i < s.numListeners; i++ {
		ln, err := s.listen(addr)
		if err != nil {
			return err
		}
		lns = append(lns, ln)

		// With port 0 every further listener has to share the port the
		// first one was given
		if i == 0 {
			addr = ln.Addr().String()
		}
	}

	for _, ln := range lns {
		s.startListener(ctx, ln)
	}

	return nil
}

func (s *Server) listen(addr string) (net.Listener, error) {
	if s.reuseport {
		return reuseport.Listen("tcp", addr)
	}
	return net.Listen("tcp", addr)
}

func (s *Server) startListener(ctx context.Context, ln net.Listener) {
	listener := newListener(
		ctx,
		ln,
		s.handler,
		s.log.Named("listener").With(zap.Int("listener", len(s.listeners))),
	)

	s.listeners = append(s.listeners, listener)
	s.stopWaiter.Add(1)

	go func() {
		defer s.stopWaiter.Done()

		if err := listener.Listen(); err != nil {
			s.log.Error("Listener stopped unexpectedly", zap.Error(err))
		}
	}()
}

// Addr returns the bound address of the first listener, nil before Start.
func (s *Server) Addr() net.Addr {
	if len(s.listeners) == 0 {
		return nil
	}
	return s.listeners[0].ln.Addr()
}

// Close immediately closes all listeners and client connections and waits
// for their goroutines to exit.
func (s *Server) Close() (err error) {
	s.mu.Lock()
	if s.closed || s.cancel == nil {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.log.Info("Stopping server")
	s.cancel()

	for _, listener := range s.listeners {
		err = multierr.Append(err, listener.Close())
	}

	s.stopWaiter.Wait()
	s.log.Info("Listeners stopped")

	return err
}

type Listener struct {
	ctx context.Context

	ln      net.Listener
	handler *handler
	log     *zap.Logger

	mu          sync.Mutex
	closed      bool
	activeConns map[*Conn]struct{}
	connWaiter  sync.WaitGroup
}

func newListener(ctx context.Context, ln net.Listener, h *handler, log *zap.Logger) *Listener {
	return &Listener{
		ctx:         ctx,
		ln:          ln,
		handler:     h,
		log:         log,
		activeConns: make(map[*Conn]struct{}),
	}
}

// Close stops accepting and closes every active connection.
func (l *Listener) Close() (err error) {
	err = ignoreClosed(l.ln.Close())

	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	for conn := range l.activeConns {
		err = multierr.Append(err, conn.Close())
	}

	return err
}

// Listen accepts until the listener is closed. It returns nil on a clean
// shutdown, after every connection goroutine has exited.
func (l *Listener) Listen() error {
	defer l.connWaiter.Wait()

	go func() {
		<-l.ctx.Done()

		if err := ignoreClosed(l.ln.Close()); err != nil {
			l.log.Warn("Listener did not close cleanly", zap.Error(err))
		}
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				l.log.Info("Stopped accepting new connections")
				return nil
			}

			return err
		}

		l.handler.metrics.connectionAccepted()

		c := newConn(conn, l.handler, l.log.Named("conn").With(zap.Stringer("remote", conn.RemoteAddr())))
		if !l.addConn(c) {
			// Close raced with Accept
			_ = c.Close()
			continue
		}
		l.connWaiter.Add(1)

		go func() {
			defer l.connWaiter.Done()
			defer l.removeConn(c)

			c.Serve(l.ctx)
		}()
	}
}

func (l *Listener) addConn(conn *Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}

	l.activeConns[conn] = struct{}{}
	return true
}

func (l *Listener) removeConn(conn *Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.activeConns, conn)
}

// Conn is one client session. Requests are handled strictly in order and
// replies are flushed once no further pipelined request is buffered.
type Conn struct {
	conn    net.Conn
	reader  *protocol.Reader
	writer  *bufio.Writer
	session session

	handler *handler
	log     *zap.Logger
}

func newConn(conn net.Conn, h *handler, log *zap.Logger) *Conn {
	return &Conn{
		conn:    conn,
		reader:  protocol.NewReader(conn),
		writer:  bufio.NewWriter(conn),
		handler: h,
		log:     log,
	}
}

func (c *Conn) Close() error {
	return ignoreClosed(c.conn.Close())
}

func (c *Conn) Serve(ctx context.Context) {
	defer func() {
		if err := c.Close(); err != nil {
			c.log.Warn("Connection did not close cleanly", zap.Error(err))
		}
	}()

	for {
		req, err := c.reader.ReadValue()
		if err != nil {
			c.readFailed(err)
			return
		}

		args, err := requestArgs(req)
		if err != nil {
			c.readFailed(err)
			return
		}

		reply, quit := c.handler.dispatch(ctx, &c.session, args)

		if c.handler.trace {
			c.log.Debug("Handled request", zap.Stringer("request", req), zap.Stringer("reply", reply))
		}

		if err := protocol.WriteValue(c.writer, reply); err != nil {
			c.log.Warn("Failed to write reply", zap.Error(err))
			return
		}

		if quit || c.reader.Buffered() == 0 {
			if err := c.writer.Flush(); err != nil {
				c.log.Warn("Failed to flush replies", zap.Error(err))
				return
			}
		}

		if quit {
			c.log.Debug("Client QUIT")
			return
		}
	}
}

func (c *Conn) readFailed(err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		return

	case errors.Is(err, protocol.ErrProtocol):
		c.handler.metrics.protocolError()
		c.log.Info("Closing connection after malformed request", zap.Error(err))

		reply := protocol.MakeError("ERR", "Protocol error: "+protocolReason(err))
		if werr := protocol.WriteValue(c.writer, reply); werr == nil {
			_ = c.writer.Flush()
		}

	default:
		c.log.Warn("Failed to read client request", zap.Error(err))
	}
}

// requestArgs checks req is a non-empty array of bulk strings and returns
// their payloads.
func requestArgs(req protocol.Value) ([][]byte, error) {
	if req.Kind != protocol.KindArray || req.IsNull() || len(req.Array) == 0 {
		return nil, &protocol.ProtocolError{Reason: "expected a non-empty array of bulk strings"}
	}

	args := make([][]byte, len(req.Array))
	for i, v := range req.Array {
		if v.Kind != protocol.KindBulkString || v.IsNull() {
			return nil, &protocol.ProtocolError{Reason: "expected a non-empty array of bulk strings"}
		}
		args[i] = v.Str
	}

	return args, nil
}

func protocolReason(err error) string {
	var perr *protocol.ProtocolError
	if errors.As(err, &perr) {
		return perr.Reason
	}
	return err.Error()
}

func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
