package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var ErrUnsupportedArg = errors.New("unsupported argument type")

// Arg is one request argument in its canonical wire form. The zero Arg is an
// empty byte string.
type Arg struct {
	data []byte
	null bool
}

// Bytes makes an argument from raw bytes. The slice is not copied.
func Bytes(b []byte) Arg {
	return Arg{data: b}
}

// String makes an argument from text.
func String(s string) Arg {
	return Arg{data: []byte(s)}
}

// Int makes an argument from an integer, sent as base-10 text.
func Int(n int64) Arg {
	return Arg{data: strconv.AppendInt(nil, n, 10)}
}

// Uint makes an argument from an unsigned integer, sent as base-10 text.
func Uint(n uint64) Arg {
	return Arg{data: strconv.AppendUint(nil, n, 10)}
}

// Float makes an argument from a float64.
//
// Floats are formatted with strconv 'g' and the shortest precision that
// round-trips, always with '.' as the decimal separator: 3.141 is "3.141",
// 1e21 is "1e+21", 100 is "100". Infinities are "+Inf" and "-Inf".
func Float(f float64) Arg {
	return Arg{data: formatFloat(f, 64)}
}

// Float32 is Float for float32 values, shortest precision at 32 bits.
func Float32(f float32) Arg {
	return Arg{data: formatFloat(float64(f), 32)}
}

// Null makes the null argument, sent as the null bulk string.
func Null() Arg {
	return Arg{null: true}
}

// Strings makes one argument per string.
func Strings(ss ...string) []Arg {
	args := make([]Arg, len(ss))
	for i, s := range ss {
		args[i] = String(s)
	}
	return args
}

// ArgOf converts a dynamically typed value into an argument. Supported are
// nil, Arg, []byte, string, all integer and float widths and bool (sent as
// "1" or "0").
func ArgOf(v interface{}) (Arg, error) {
	switch a := v.(type) {
	case nil:
		return Null(), nil
	case Arg:
		return a, nil
	case []byte:
		return Bytes(a), nil
	case string:
		return String(a), nil
	case int:
		return Int(int64(a)), nil
	case int8:
		return Int(int64(a)), nil
	case int16:
		return Int(int64(a)), nil
	case int32:
		return Int(int64(a)), nil
	case int64:
		return Int(a), nil
	case uint:
		return Uint(uint64(a)), nil
	case uint8:
		return Uint(uint64(a)), nil
	case uint16:
		return Uint(uint64(a)), nil
	case uint32:
		return Uint(uint64(a)), nil
	case uint64:
		return Uint(a), nil
	case float32:
		return Float32(a), nil
	case float64:
		return Float(a), nil
	case bool:
		if a {
			return String("1"), nil
		}
		return String("0"), nil
	default:
		return Arg{}, fmt.Errorf("%w: %T", ErrUnsupportedArg, v)
	}
}

// Args converts every value with ArgOf, failing on the first unsupported one.
func Args(vs ...interface{}) ([]Arg, error) {
	args := make([]Arg, 0, len(vs))
	for i, v := range vs {
		arg, err := ArgOf(v)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args = append(args, arg)
	}
	return args, nil
}

// IsNull reports whether a is the null argument.
func (a Arg) IsNull() bool {
	return a.null
}

// Payload returns the argument's wire payload, nil for the null argument.
func (a Arg) Payload() []byte {
	if a.null {
		return nil
	}
	return a.data
}

func formatFloat(f float64, bitSize int) []byte {
	switch {
	case math.IsInf(f, 1):
		return []byte("+Inf")
	case math.IsInf(f, -1):
		return []byte("-Inf")
	}
	return strconv.AppendFloat(nil, f, 'g', -1, bitSize)
}
