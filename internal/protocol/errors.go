package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated           = errors.New("protocol: truncated data")
	ErrInvalidOpcode       = errors.New("protocol: invalid opcode")
	ErrInvalidDiscriminant = errors.New("protocol: invalid enum discriminant")
	ErrFieldRange          = errors.New("protocol: field out of range")
	ErrUnknownMessage      = errors.New("protocol: unknown message type")
)

// OpcodeError reports an opcode byte that maps to no message family.
type OpcodeError struct {
	Opcode byte
	Offset int
}

func (e OpcodeError) Error() string {
	return fmt.Sprintf("protocol: invalid opcode 0b%08b at offset %d", e.Opcode, e.Offset)
}

func (e OpcodeError) Is(target error) bool {
	return target == ErrInvalidOpcode
}

// RangeError reports a message field that cannot be represented on the wire.
type RangeError struct {
	Kind  Kind
	Field string
	Value int64
}

func (e RangeError) Error() string {
	return fmt.Sprintf("protocol: %s.%s=%d out of range", e.Kind, e.Field, e.Value)
}

func (e RangeError) Is(target error) bool {
	return target == ErrFieldRange
}
