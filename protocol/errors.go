package protocol

import (
	"errors"
	"fmt"
)

// ErrProtocol matches every *ProtocolError with errors.Is.
var ErrProtocol = errors.New("protocol error")

// ProtocolError reports malformed wire data. Offset is the byte offset, within
// the buffer or frame being decoded, at which the defect was detected.
type ProtocolError struct {
	Offset int
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error at offset %d: %s", e.Offset, e.Reason)
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

func protocolErrorf(offset int, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
