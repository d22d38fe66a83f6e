package protocol

// Scanner lazily decodes consecutive values from one complete buffer, in the
// style of bufio.Scanner:
//
//	s := protocol.NewScanner(buf)
//	for s.Scan() {
//		use(s.Value(), s.Offset())
//	}
//	if err := s.Err(); err != nil {
//		...
//	}
//
// Scanning stops at the end of the buffer or at the first decode error. A
// Scanner cannot be resumed with more bytes; values split across buffers
// belong to ReadFrame.
type Scanner struct {
	buf    []byte
	offset int
	value  Value
	err    error
}

func NewScanner(buf []byte) *Scanner {
	return &Scanner{buf: buf}
}

// Scan decodes the next value. It returns false at the end of the buffer or
// on error.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.offset >= len(s.buf) {
		return false
	}

	v, next, err := Decode(s.buf, s.offset)
	if err != nil {
		s.err = err
		s.value = Value{}
		return false
	}

	s.value = v
	s.offset = next
	return true
}

// Value returns the most recently decoded value.
func (s *Scanner) Value() Value {
	return s.value
}

// Offset returns the offset of the first byte after the most recent value.
func (s *Scanner) Offset() int {
	return s.offset
}

// Err returns the decode error that stopped the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}

// ParseStream decodes every value in buf. On failure it returns the values
// decoded before the defect together with the error.
func ParseStream(buf []byte) ([]Value, error) {
	var values []Value

	s := NewScanner(buf)
	for s.Scan() {
		values = append(values, s.Value())
	}

	return values, s.Err()
}
