package client

import (
	"bytes"
	"time"

	"github.com/luma/picoredis/protocol"
	"github.com/luma/picoredis/transport"
)

// readChunk is the most read from the stream per readiness event
const readChunk = 4096

// replyReader accumulates bytes from a polled stream until a line or a
// fixed count is complete. The whole reply shares one deadline, set by
// begin, so nested reads of an array spend from the same budget.
type replyReader struct {
	stream transport.Stream
	poller transport.Poller

	budget   time.Duration
	deadline time.Time

	// pending holds bytes read but not yet handed out
	pending []byte
	chunk   []byte
}

func newReplyReader(stream transport.Stream, poller transport.Poller) *replyReader {
	return &replyReader{
		stream: stream,
		poller: poller,
		chunk:  make([]byte, readChunk),
	}
}

func (r *replyReader) begin(budget time.Duration) {
	r.budget = budget
	r.deadline = time.Now().Add(budget)
}

// ReadLine is the suffix predicate: it stops once the accumulator ends with CRLF.
func (r *replyReader) ReadLine() ([]byte, error) {
	for {
		if i := bytes.Index(r.pending, protocol.Terminal); i >= 0 {
			return r.consume(i + len(protocol.Terminal)), nil
		}

		if err := r.fill(); err != nil {
			return nil, err
		}
	}
}

// ReadCount is the count predicate: it stops once exactly n bytes are available.
func (r *replyReader) ReadCount(n int) ([]byte, error) {
	for len(r.pending) < n {
		if err := r.fill(); err != nil {
			return nil, err
		}
	}

	return r.consume(n), nil
}

func (r *replyReader) consume(n int) []byte {
	out := make([]byte, n)
	copy(out, r.pending[:n])

	r.pending = r.pending[n:]
	if len(r.pending) == 0 {
		r.pending = nil
	}

	return out
}

// fill waits for the stream to become readable within the remaining budget
// and appends whatever one read returns.
func (r *replyReader) fill() error {
	remaining := time.Until(r.deadline)
	if remaining <= 0 {
		return &TimeoutError{Budget: r.budget}
	}

	events, err := r.poller.Wait(remaining)
	if err != nil {
		return &ConnectionError{Op: "poll", Err: err}
	}

	if len(events) == 0 {
		return &TimeoutError{Budget: r.budget}
	}

	readable := false
	for _, e := range events {
		switch {
		case e.Hangup:
			return &ConnectionError{Op: "poll", Err: ErrHangup}
		case e.Error:
			return &ConnectionError{Op: "poll", Err: ErrPollFailure}
		case e.Readable:
			readable = true
		}
	}

	if !readable {
		return nil
	}

	n, err := r.stream.Read(r.chunk)
	if n > 0 {
		r.pending = append(r.pending, r.chunk[:n]...)
	}

	switch {
	case err != nil:
		return &ConnectionError{Op: "read", Err: err}
	case n == 0:
		return &ConnectionError{Op: "read", Err: ErrHangup}
	}

	return nil
}

var _ protocol.Source = (*replyReader)(nil)
