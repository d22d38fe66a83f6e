package protocol

import (
	"io"
	"strconv"
)

var (
	Terminal      = []byte("\r\n")
	NullBulkBytes = []byte("$-1\r\n")
	NullArrBytes  = []byte("*-1\r\n")
)

// EncodeRequest packs args into an array of bulk strings. The command name is
// expected to be args[0]; with no args the result is the empty array "*0\r\n".
func EncodeRequest(args ...Arg) []byte {
	size := 16
	for _, a := range args {
		size += len(a.data) + 16
	}
	return AppendRequest(make([]byte, 0, size), args...)
}

// AppendRequest is EncodeRequest appending to dst.
func AppendRequest(dst []byte, args ...Arg) []byte {
	dst = appendHeader(dst, KindArray, int64(len(args)))

	for _, a := range args {
		if a.null {
			dst = append(dst, NullBulkBytes...)
			continue
		}
		dst = appendHeader(dst, KindBulkString, int64(len(a.data)))
		dst = append(dst, a.data...)
		dst = append(dst, Terminal...)
	}

	return dst
}

// WriteRequest encodes args and writes them to w in a single Write.
func WriteRequest(w io.Writer, args ...Arg) error {
	_, err := w.Write(EncodeRequest(args...))
	return err
}

// AppendValue appends the wire form of any Value to dst.
func AppendValue(dst []byte, v Value) []byte {
	switch v.Kind {
	case KindSimpleString:
		dst = append(dst, byte(KindSimpleString))
		dst = append(dst, v.Str...)
		dst = append(dst, Terminal...)

	case KindError:
		dst = append(dst, byte(KindError))
		dst = append(dst, v.ErrKind...)
		if v.ErrMessage != "" {
			dst = append(dst, ' ')
			dst = append(dst, v.ErrMessage...)
		}
		dst = append(dst, Terminal...)

	case KindInteger:
		dst = appendHeader(dst, KindInteger, v.Int)

	case KindBulkString:
		if v.Null {
			return append(dst, NullBulkBytes...)
		}
		dst = appendHeader(dst, KindBulkString, int64(len(v.Str)))
		dst = append(dst, v.Str...)
		dst = append(dst, Terminal...)

	case KindArray:
		if v.Null {
			return append(dst, NullArrBytes...)
		}
		dst = appendHeader(dst, KindArray, int64(len(v.Array)))
		for _, el := range v.Array {
			dst = AppendValue(dst, el)
		}
	}

	return dst
}

// WriteValue writes the wire form of v to w.
func WriteValue(w io.Writer, v Value) error {
	_, err := w.Write(AppendValue(nil, v))
	return err
}

// appendHeader writes the type prefix, a base-10 number and CRLF
func appendHeader(dst []byte, k Kind, n int64) []byte {
	dst = append(dst, byte(k))
	dst = strconv.AppendInt(dst, n, 10)
	return append(dst, Terminal...)
}
