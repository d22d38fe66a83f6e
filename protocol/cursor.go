package protocol

import "bytes"

// cursor is an immutable (buffer, offset) pair. Every read returns a new
// cursor further along the buffer, or an error instead of indexing past its end.
type cursor struct {
	buf []byte
	off int
}

func (c cursor) remaining() int {
	return len(c.buf) - c.off
}

func (c cursor) peek() (byte, error) {
	if c.off < 0 || c.off >= len(c.buf) {
		return 0, protocolErrorf(c.off, "unexpected end of buffer")
	}
	return c.buf[c.off], nil
}

func (c cursor) advance(n int) (cursor, error) {
	if n < 0 || n > c.remaining() {
		return c, protocolErrorf(c.off, "cannot advance %d bytes, %d remain", n, c.remaining())
	}
	return cursor{buf: c.buf, off: c.off + n}, nil
}

// line returns the bytes up to the next CRLF (exclusive) and a cursor just past it.
// ok is false when no CRLF follows.
func (c cursor) line() (line []byte, next cursor, ok bool) {
	if c.off < 0 || c.off > len(c.buf) {
		return nil, c, false
	}

	i := bytes.Index(c.buf[c.off:], Terminal)
	if i < 0 {
		return nil, c, false
	}

	return c.buf[c.off : c.off+i], cursor{buf: c.buf, off: c.off + i + len(Terminal)}, true
}

// take returns the next n bytes and a cursor just past them.
func (c cursor) take(n int) ([]byte, cursor, error) {
	if n < 0 || n > c.remaining() {
		return nil, c, protocolErrorf(c.off, "truncated payload: want %d bytes, %d remain", n, c.remaining())
	}
	return c.buf[c.off : c.off+n], cursor{buf: c.buf, off: c.off + n}, nil
}
