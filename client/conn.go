package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/picoredis/protocol"
	"github.com/luma/picoredis/transport"
)

// Client is a synchronous connection to a RESP server. One command is in
// flight at a time and its whole reply is read before Command returns.
//
// A Client is not safe for concurrent use, wrap it with Locked to share it.
type Client struct {
	timeout   time.Duration
	dialer    transport.Dialer
	newPoller func() (transport.Poller, error)

	state  State
	stream transport.Stream
	poller transport.Poller
	fd     int
	reader *replyReader

	log *zap.Logger
}

func New(opts ...Option) *Client {
	c := &Client{
		timeout:   DefaultTimeout,
		dialer:    transport.TCPDialer{},
		newPoller: transport.NewPoller,
		state:     Disconnected,
		fd:        -1,
		log:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return c.state
}

// Connect opens the stream and registers it for readiness polling. ctx
// bounds connection establishment only.
func (c *Client) Connect(ctx context.Context, host string, port int) (err error) {
	switch c.state {
	case Disconnected:
	case Closed:
		return &ConnectionError{Op: "connect", Err: ErrNotConnected}
	default:
		return &ConnectionError{Op: "connect", Err: errors.New("already connected")}
	}

	stream, err := c.dialer.Dial(ctx, host, port)
	if err != nil {
		return &ConnectionError{Op: "connect", Err: err}
	}

	var poller transport.Poller
	defer func() {
		if err == nil {
			return
		}

		if poller != nil {
			err = multierr.Append(err, poller.Close())
		}
		err = multierr.Append(err, stream.Close())
	}()

	fd, err := stream.Fd()
	if err != nil {
		return &ConnectionError{Op: "connect", Err: err}
	}

	if poller, err = c.newPoller(); err != nil {
		return &ConnectionError{Op: "connect", Err: err}
	}

	if err = poller.Register(fd); err != nil {
		return &ConnectionError{Op: "connect", Err: err}
	}

	c.stream = stream
	c.poller = poller
	c.fd = fd
	c.reader = newReplyReader(stream, poller)
	c.state = Connected

	c.log.Debug("Connected", zap.String("host", host), zap.Int("port", port))

	return nil
}

// Command sends name and args as one request and reads one reply.
//
// An error reply is returned as *ServerError. The reply budget is the
// configured timeout, or less if ctx has an earlier deadline. After a
// *TimeoutError or *protocol.ProtocolError the client is Failed and must be
// closed; after a *ConnectionError from I/O it has already closed itself.
func (c *Client) Command(ctx context.Context, name string, args ...protocol.Arg) (protocol.Value, error) {
	switch c.state {
	case Connected:
	case Failed:
		return protocol.Value{}, &ConnectionError{Op: "command", Err: ErrUnusable}
	default:
		return protocol.Value{}, &ConnectionError{Op: "command", Err: ErrNotConnected}
	}

	if err := ctx.Err(); err != nil {
		return protocol.Value{}, err
	}

	budget := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < budget {
			budget = until
		}
	}

	req := make([]protocol.Arg, 0, len(args)+1)
	req = append(req, protocol.String(name))
	req = append(req, args...)

	c.state = Sending
	c.reader.begin(budget)

	if ce := c.log.Check(zap.DebugLevel, "SEND"); ce != nil {
		ce.Write(zap.String("command", name), zap.Int("args", len(args)))
	}

	if err := c.write(protocol.EncodeRequest(req...)); err != nil {
		return protocol.Value{}, c.fail(err)
	}

	c.state = AwaitingResponse

	reply, err := protocol.ReadValue(c.reader)
	if err != nil {
		return protocol.Value{}, c.fail(err)
	}

	c.state = Connected

	if ce := c.log.Check(zap.DebugLevel, "RECV"); ce != nil {
		ce.Write(zap.String("command", name), zap.Stringer("reply", reply))
	}

	if reply.Kind == protocol.KindError {
		return protocol.Value{}, &ServerError{Kind: reply.ErrKind, Message: reply.ErrMessage}
	}

	return reply, nil
}

// write sends the whole request, bounded by the reply deadline when the
// stream supports write deadlines.
func (c *Client) write(req []byte) error {
	if wd, ok := c.stream.(interface{ SetWriteDeadline(time.Time) error }); ok {
		if err := wd.SetWriteDeadline(c.reader.deadline); err != nil {
			return &ConnectionError{Op: "write", Err: err}
		}
	}

	if _, err := c.stream.Write(req); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return &TimeoutError{Budget: c.reader.budget}
		}
		return &ConnectionError{Op: "write", Err: err}
	}

	return nil
}

// fail moves the client to Failed or Closed according to err and returns it.
func (c *Client) fail(err error) error {
	var connErr *ConnectionError

	if errors.As(err, &connErr) {
		c.log.Debug("Closing after connection failure", zap.Error(err))

		if cerr := c.Close(); cerr != nil {
			c.log.Debug("Close after connection failure was not clean", zap.Error(cerr))
		}
		return err
	}

	c.log.Debug("Command failed, connection unusable", zap.Error(err))
	c.state = Failed

	return err
}

// Close deregisters the stream from the poller, then closes the poller and
// the stream. It is idempotent.
func (c *Client) Close() (err error) {
	if c.state == Closed {
		return nil
	}
	c.state = Closed

	if c.poller != nil {
		err = multierr.Append(err, c.poller.Deregister(c.fd))
		err = multierr.Append(err, c.poller.Close())
	}

	if c.stream != nil {
		err = multierr.Append(err, c.stream.Close())
	}

	c.stream = nil
	c.poller = nil
	c.reader = nil
	c.fd = -1

	return err
}

// CommandFunc runs one named command.
type CommandFunc func(ctx context.Context, args ...protocol.Arg) (protocol.Value, error)

// Method returns a CommandFunc for name, upper cased. name must be purely
// alphabetic, anything else is ErrUnknownMember.
func (c *Client) Method(name string) (CommandFunc, error) {
	if !isAlpha(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMember, name)
	}

	command := strings.ToUpper(name)

	return func(ctx context.Context, args ...protocol.Arg) (protocol.Value, error) {
		return c.Command(ctx, command, args...)
	}, nil
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}

	return true
}
