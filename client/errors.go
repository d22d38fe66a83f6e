package client

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotConnected    = errors.New("not connected")
	ErrUnusable        = errors.New("connection left in an unknown state by a failed command, Close it")
	ErrHangup          = errors.New("peer hung up")
	ErrPollFailure     = errors.New("poller reported an error condition")
	ErrUnknownMember   = errors.New("unknown member")
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// ServerError is an error reply sent by the server, e.g. "-ERR unknown command".
type ServerError struct {
	Kind    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return e.Kind
	}
	return e.Kind + " " + e.Message
}

// TimeoutError means no complete reply arrived within Budget. The reply may
// still be in flight, so the connection can't be reused.
type TimeoutError struct {
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no reply within %s", e.Budget)
}

// Timeout lets callers match TimeoutError through interface{ Timeout() bool }
// the way they would a net.Error.
func (e *TimeoutError) Timeout() bool {
	return true
}

// ConnectionError is a failure of the underlying stream. Op names the step
// that failed: connect, write, poll, read or command.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
