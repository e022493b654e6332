package comm

import (
	"encoding/binary"
	"io"
)

// Frame size limits.
const (
	// FrameOverhead is the number of bytes besides the payload:
	// 2 bytes length, 1 byte id and 1 byte checksum.
	FrameOverhead = 4
	// MinFrameLen is the shortest frame accepted from the module.
	MinFrameLen = FrameOverhead + 1
	// MaxFrameLen is the longest valid frame.
	MaxFrameLen = 512
	// MaxPayloadLen is the longest payload fitting in a frame.
	MaxPayloadLen = MaxFrameLen - FrameOverhead
)

// ResponseFlag is set in the id of a frame sent by the module.
const ResponseFlag byte = 0x80

// NotificationDataReceived is the id of the asynchronous notification
// carrying a received telegram.
const NotificationDataReceived byte = 0xe0

// Frame is a decoded EBI frame.
type Frame struct {
	ID      byte
	Payload []byte
}

// IsResponse tells if the frame is sent by the module.
func (f *Frame) IsResponse() bool {
	return f.ID&ResponseFlag != 0
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() ([]byte, error) {
	return EncodeFrame(f.ID, f.Payload)
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// EncodeFrame builds the wire representation of a frame.
func EncodeFrame(id byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, ErrFrameTooLarge
	}
	b := make([]byte, len(payload)+FrameOverhead)
	binary.BigEndian.PutUint16(b, uint16(len(b)))
	b[2] = id
	copy(b[3:], payload)
	b[len(b)-1] = Checksum(b)
	return b, nil
}

// DecodeFrame validates a complete raw frame and splits it.
// Unlike Parser, it accepts frames without payload as built by EncodeFrame.
// The returned payload shares memory with raw.
func DecodeFrame(raw []byte) (*Frame, error) {
	if len(raw) < FrameOverhead || len(raw) > MaxFrameLen {
		return nil, &MalformedLengthError{Length: len(raw)}
	}
	if l := int(binary.BigEndian.Uint16(raw)); l != len(raw) {
		return nil, &MalformedLengthError{Length: l}
	}
	if !ValidChecksum(raw) {
		return nil, ErrChecksumMismatch
	}
	return &Frame{ID: raw[2], Payload: raw[3 : len(raw)-1]}, nil
}

// Checksum calculates the checksum of a frame. The last byte is the
// checksum slot and doesn't contribute.
func Checksum(frame []byte) byte {
	var sum byte
	if len(frame) == 0 {
		return sum
	}
	for _, b := range frame[:len(frame)-1] {
		sum += b
	}
	return sum
}

// ValidChecksum verifies the last byte of the frame.
func ValidChecksum(frame []byte) bool {
	return len(frame) > 0 && Checksum(frame) == frame[len(frame)-1]
}
