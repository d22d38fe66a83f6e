package protocol

import (
	"bytes"
	"strconv"
	"strings"
)

// Kind is the type prefix byte of a wire value.
type Kind byte

const (
	KindSimpleString Kind = '+'
	KindError        Kind = '-'
	KindInteger      Kind = ':'
	KindBulkString   Kind = '$'
	KindArray        Kind = '*'
)

func (k Kind) String() string {
	switch k {
	case KindSimpleString:
		return "simple string"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulkString:
		return "bulk string"
	case KindArray:
		return "array"
	default:
		return "unknown(" + strconv.QuoteRune(rune(k)) + ")"
	}
}

// Value is one decoded unit of the protocol.
//
// Null is only meaningful for bulk strings and arrays, and a null value is
// never equal to an empty one.
type Value struct {
	Kind Kind

	// Str holds the text of a simple string or the payload of a bulk string
	Str []byte

	// ErrKind is the first word of an error line, ErrMessage the rest (may be empty)
	ErrKind    string
	ErrMessage string

	Int   int64
	Array []Value
	Null  bool
}

// MakeSimpleString constructs a SimpleString Value
func MakeSimpleString(s string) Value {
	return Value{Kind: KindSimpleString, Str: []byte(s)}
}

// MakeError constructs an Error Value
func MakeError(kind, message string) Value {
	return Value{Kind: KindError, ErrKind: kind, ErrMessage: message}
}

// MakeInteger constructs an Integer Value
func MakeInteger(n int64) Value {
	return Value{Kind: KindInteger, Int: n}
}

// MakeBulkString constructs a non-null BulkString Value. A nil b is treated as empty.
func MakeBulkString(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{Kind: KindBulkString, Str: b}
}

// MakeNullBulkString constructs the null BulkString
func MakeNullBulkString() Value {
	return Value{Kind: KindBulkString, Null: true}
}

// MakeArray constructs a non-null Array Value. With no elements it is the empty array.
func MakeArray(values ...Value) Value {
	if values == nil {
		values = []Value{}
	}
	return Value{Kind: KindArray, Array: values}
}

// MakeNullArray constructs the null Array
func MakeNullArray() Value {
	return Value{Kind: KindArray, Null: true}
}

// Text returns the simple string text or bulk string payload as a string.
func (v Value) Text() string {
	return string(v.Str)
}

// IsNull reports whether v is the null bulk string or the null array.
func (v Value) IsNull() bool {
	return v.Null && (v.Kind == KindBulkString || v.Kind == KindArray)
}

// Equal reports whether v and o are structurally identical.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case KindSimpleString:
		return bytes.Equal(v.Str, o.Str)
	case KindError:
		return v.ErrKind == o.ErrKind && v.ErrMessage == o.ErrMessage
	case KindInteger:
		return v.Int == o.Int
	case KindBulkString:
		if v.Null || o.Null {
			return v.Null == o.Null
		}
		return bytes.Equal(v.Str, o.Str)
	case KindArray:
		if v.Null || o.Null {
			return v.Null == o.Null
		}
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	}

	return false
}

// String renders v the way redis-cli prints replies.
func (v Value) String() string {
	var sb strings.Builder
	v.render(&sb, 0)
	return sb.String()
}

func (v Value) render(sb *strings.Builder, indent int) {
	switch v.Kind {
	case KindSimpleString:
		sb.Write(v.Str)

	case KindError:
		sb.WriteString("(error) ")
		sb.WriteString(v.ErrKind)
		if v.ErrMessage != "" {
			sb.WriteByte(' ')
			sb.WriteString(v.ErrMessage)
		}

	case KindInteger:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatInt(v.Int, 10))

	case KindBulkString:
		if v.Null {
			sb.WriteString("(nil)")
			return
		}
		sb.WriteString(strconv.Quote(string(v.Str)))

	case KindArray:
		if v.Null {
			sb.WriteString("(nil)")
			return
		}
		if len(v.Array) == 0 {
			sb.WriteString("(empty array)")
			return
		}

		width := len(strconv.Itoa(len(v.Array)))
		for i, el := range v.Array {
			if i > 0 {
				sb.WriteByte('\n')
				sb.WriteString(strings.Repeat(" ", indent))
			}
			n := strconv.Itoa(i + 1)
			sb.WriteString(strings.Repeat(" ", width-len(n)))
			sb.WriteString(n)
			sb.WriteString(") ")
			el.render(sb, indent+width+2)
		}

	default:
		sb.WriteString("(unknown)")
	}
}
