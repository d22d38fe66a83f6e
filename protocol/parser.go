package protocol

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"unicode"
)

const (
	// MaxBulkLength is the largest bulk string length accepted, as in Redis
	MaxBulkLength = 512 * 1024 * 1024

	// MaxArrayLength is the largest array element count accepted
	MaxArrayLength = math.MaxInt32

	// MaxDepth bounds array nesting
	MaxDepth = 512
)

// Decode decodes the value starting at buf[offset] and returns it along with
// the offset of the first byte after it. Payloads are copied, the returned
// Value never aliases buf.
//
// An error reply is returned as a Value of KindError, not as a Go error; the
// error result is always a *ProtocolError.
func Decode(buf []byte, offset int) (Value, int, error) {
	if offset < 0 || offset > len(buf) {
		return Value{}, offset, protocolErrorf(offset, "offset out of range [0, %d]", len(buf))
	}

	v, next, err := decodeAt(cursor{buf: buf, off: offset}, 0)
	if err != nil {
		return Value{}, offset, err
	}

	return v, next.off, nil
}

func decodeAt(c cursor, depth int) (Value, cursor, error) {
	prefix, err := c.peek()
	if err != nil {
		return Value{}, c, err
	}

	// peek succeeded, so there is at least one byte to step over
	body, _ := c.advance(1)

	switch Kind(prefix) {
	case KindSimpleString:
		line, next, ok := body.line()
		if !ok {
			return Value{}, c, protocolErrorf(body.off, "unterminated simple string")
		}
		return Value{Kind: KindSimpleString, Str: clone(line)}, next, nil

	case KindError:
		line, next, ok := body.line()
		if !ok {
			return Value{}, c, protocolErrorf(body.off, "unterminated error string")
		}
		kind, message := SplitError(string(line))
		return MakeError(kind, message), next, nil

	case KindInteger:
		line, next, ok := body.line()
		if !ok {
			return Value{}, c, protocolErrorf(body.off, "unterminated integer")
		}
		n, err := parseInt(line, body.off, "integer")
		if err != nil {
			return Value{}, c, err
		}
		return MakeInteger(n), next, nil

	case KindBulkString:
		return decodeBulkString(body)

	case KindArray:
		return decodeArray(body, depth)

	default:
		return Value{}, c, protocolErrorf(c.off, "invalid leading byte %q", prefix)
	}
}

func decodeBulkString(body cursor) (Value, cursor, error) {
	field, next, ok := body.line()
	if !ok {
		return Value{}, body, protocolErrorf(body.off, "unterminated bulk string length")
	}

	n, err := ParseLength(field, body.off, KindBulkString)
	if err != nil {
		return Value{}, body, err
	}

	if n == -1 {
		return MakeNullBulkString(), next, nil
	}

	payload, next, err := next.take(n)
	if err != nil {
		return Value{}, body, protocolErrorf(next.off, "truncated bulk string: want %d bytes, %d remain", n, next.remaining())
	}

	term, after, err := next.take(len(Terminal))
	if err != nil || !bytes.Equal(term, Terminal) {
		return Value{}, body, protocolErrorf(next.off, "bulk string payload not terminated by CRLF")
	}

	return Value{Kind: KindBulkString, Str: clone(payload)}, after, nil
}

func decodeArray(body cursor, depth int) (Value, cursor, error) {
	if depth >= MaxDepth {
		return Value{}, body, protocolErrorf(body.off, "arrays nested deeper than %d", MaxDepth)
	}

	field, next, ok := body.line()
	if !ok {
		return Value{}, body, protocolErrorf(body.off, "unterminated array element count")
	}

	n, err := ParseLength(field, body.off, KindArray)
	if err != nil {
		return Value{}, body, err
	}

	if n == -1 {
		return MakeNullArray(), next, nil
	}

	// The smallest value, "+\r\n", is 3 bytes. Don't trust the declared count
	// for the allocation.
	capacity := n
	if most := next.remaining() / 3; capacity > most {
		capacity = most
	}

	values := make([]Value, 0, capacity)
	for i := 0; i < n; i++ {
		if next.remaining() <= 0 {
			return Value{}, body, protocolErrorf(next.off, "truncated array: decoded %d of %d elements", i, n)
		}

		v, after, err := decodeAt(next, depth+1)
		if err != nil {
			return Value{}, body, err
		}

		values = append(values, v)
		next = after
	}

	return Value{Kind: KindArray, Array: values}, next, nil
}

// ParseLength parses the length or count field of a bulk string or array
// header. offset is where field starts and is reported in errors. -1 (null)
// is returned as is; any other negative or oversized value is an error.
func ParseLength(field []byte, offset int, k Kind) (int, error) {
	what := "bulk string length"
	limit := int64(MaxBulkLength)
	if k == KindArray {
		what = "array element count"
		limit = MaxArrayLength
	}

	n, err := parseInt(field, offset, what)
	if err != nil {
		return 0, err
	}

	switch {
	case n == -1:
		return -1, nil
	case n < -1:
		return 0, protocolErrorf(offset, "negative %s %d", what, n)
	case n > limit:
		return 0, protocolErrorf(offset, "%s %d exceeds limit %d", what, n, limit)
	}

	return int(n), nil
}

// SplitError splits an error line on its first run of whitespace into the
// error kind and the (possibly empty) message.
func SplitError(line string) (kind, message string) {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)

	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}

	return line[:i], strings.TrimLeftFunc(line[i:], unicode.IsSpace)
}

func parseInt(field []byte, offset int, what string) (int64, error) {
	n, err := strconv.ParseInt(string(field), 10, 64)
	if err != nil {
		return 0, protocolErrorf(offset, "invalid %s %q", what, field)
	}
	return n, nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
