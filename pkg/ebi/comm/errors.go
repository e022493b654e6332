package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameTooLarge indicates the payload doesn't fit into a single frame.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrMalformedLength indicates the length prefix is out of range.
	// The parser drops the buffered bytes and resumes with the next chunk.
	ErrMalformedLength = errors.New("malformed length")
	// ErrChecksumMismatch indicates a frame with a bad checksum.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrIDMismatch indicates the response id differs from the expected one.
	ErrIDMismatch = errors.New("response id mismatch")
	// ErrTimeout indicates no response received within the timeout.
	ErrTimeout = errors.New("no response")
	// ErrClosed indicates the client is no longer accepting commands.
	ErrClosed = errors.New("closed")
)

// MalformedLengthError reports the offending length prefix.
type MalformedLengthError struct {
	Length int
}

// Error implements error.
func (e *MalformedLengthError) Error() string {
	return fmt.Sprintf("malformed length %d", e.Length)
}

// Unwrap returns ErrMalformedLength.
func (e *MalformedLengthError) Unwrap() error {
	return ErrMalformedLength
}

// IDMismatchError reports a response which doesn't belong to the
// oldest pending command.
type IDMismatchError struct {
	Expected byte
	Received byte
}

// Error implements error.
func (e *IDMismatchError) Error() string {
	return fmt.Sprintf("response id mismatch: expect 0x%02x, got 0x%02x", e.Expected, e.Received)
}

// Unwrap returns ErrIDMismatch.
func (e *IDMismatchError) Unwrap() error {
	return ErrIDMismatch
}

// ErrNoStatus indicates a response without the expected execution status byte.
var ErrNoStatus = errors.New("missing execution status")
