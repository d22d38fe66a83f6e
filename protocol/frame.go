package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// Source yields the bytes of a stream incrementally.
type Source interface {
	// ReadLine returns the bytes up to and including the next CRLF
	ReadLine() ([]byte, error)

	// ReadCount returns exactly the next n bytes
	ReadCount(n int) ([]byte, error)
}

// ReadFrame reads exactly the bytes of one wire value from src: one line for
// simple strings, errors and integers, a header line plus length+2 bytes for
// bulk strings, and a header line plus one frame per element for arrays.
//
// io.EOF is only returned if src is exhausted before the first byte of the
// frame; running out later is io.ErrUnexpectedEOF. Header defects are
// reported as *ProtocolError with offsets relative to the frame start.
func ReadFrame(src Source) ([]byte, error) {
	return appendFrame(nil, src, 0)
}

// ReadValue reads one frame from src and decodes it.
func ReadValue(src Source) (Value, error) {
	frame, err := ReadFrame(src)
	if err != nil {
		return Value{}, err
	}

	v, _, err := Decode(frame, 0)
	return v, err
}

func appendFrame(dst []byte, src Source, depth int) ([]byte, error) {
	line, err := src.ReadLine()
	if err != nil {
		return dst, midFrame(err, depth > 0)
	}

	start := len(dst)
	dst = append(dst, line...)

	if len(line) <= len(Terminal) || !bytes.HasSuffix(line, Terminal) {
		return dst, protocolErrorf(start, "malformed header line %q", line)
	}
	field := line[1 : len(line)-len(Terminal)]

	switch Kind(line[0]) {
	case KindSimpleString, KindError, KindInteger:
		return dst, nil

	case KindBulkString:
		n, err := ParseLength(field, start+1, KindBulkString)
		if err != nil || n == -1 {
			return dst, err
		}

		payload, err := src.ReadCount(n + len(Terminal))
		if err != nil {
			return dst, midFrame(err, true)
		}
		return append(dst, payload...), nil

	case KindArray:
		if depth >= MaxDepth {
			return dst, protocolErrorf(start, "arrays nested deeper than %d", MaxDepth)
		}

		n, err := ParseLength(field, start+1, KindArray)
		if err != nil {
			return dst, err
		}

		for i := 0; i < n; i++ {
			if dst, err = appendFrame(dst, src, depth+1); err != nil {
				return dst, err
			}
		}
		return dst, nil

	default:
		return dst, protocolErrorf(start, "invalid leading byte %q", line[0])
	}
}

// midFrame turns a bare io.EOF after the frame has started into
// io.ErrUnexpectedEOF. Wrapped EOFs belong to the source and pass through.
func midFrame(err error, started bool) error {
	if started && err == io.EOF { //nolint:errorlint
		return io.ErrUnexpectedEOF
	}
	return err
}

// Reader is a Source over an io.Reader, buffered with bufio.
type Reader struct {
	rd *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{rd: bufio.NewReader(r)}
}

// ReadLine reads through the next CRLF. A bare '\n' does not end a line.
func (r *Reader) ReadLine() ([]byte, error) {
	var line []byte

	for {
		chunk, err := r.rd.ReadSlice('\n')
		line = append(line, chunk...)

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue

		case err != nil:
			if err == io.EOF && len(line) > 0 { //nolint:errorlint
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err

		case bytes.HasSuffix(line, Terminal):
			return line, nil
		}
	}
}

// readCountChunk bounds how far ReadCount allocates ahead of the data
const readCountChunk = 64 * 1024

// ReadCount reads exactly n bytes. The buffer grows as data arrives, so a
// large declared length costs nothing until the bytes are sent.
func (r *Reader) ReadCount(n int) ([]byte, error) {
	buf := make([]byte, 0, min(n, readCountChunk))

	for len(buf) < n {
		step := min(n-len(buf), readCountChunk)
		if cap(buf)-len(buf) < step {
			buf = append(buf, make([]byte, step)...)[:len(buf)]
		}

		start := len(buf)
		buf = buf[:start+step]

		if _, err := io.ReadFull(r.rd, buf[start:]); err != nil {
			if err == io.EOF && start > 0 { //nolint:errorlint
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}

	return buf, nil
}

// ReadValue reads and decodes the next value.
func (r *Reader) ReadValue() (Value, error) {
	return ReadValue(r)
}

// Buffered returns the number of bytes already read from the underlying
// reader but not yet consumed.
func (r *Reader) Buffered() int {
	return r.rd.Buffered()
}

var _ Source = (*Reader)(nil)
