package comm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeFrame(t *testing.T) {
	testCases := []struct {
		name    string
		id      byte
		payload []byte
		expect  []byte
	}{
		{"no payload", 0x01, nil, []byte{0x00, 0x04, 0x01, 0x05}},
		{"one byte", 0x10, []byte{0x0f}, []byte{0x00, 0x05, 0x10, 0x0f, 0x24}},
		{"two bytes", 0x13, []byte{0x00, 0x00}, []byte{0x00, 0x06, 0x13, 0x00, 0x00, 0x19}},
		{"checksum wraps", 0x7f, []byte{0xff, 0xff}, []byte{0x00, 0x06, 0x7f, 0xff, 0xff, 0x83}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := EncodeFrame(tc.id, tc.payload)
			require.NoError(t, err)
			require.Equal(t, tc.expect, b)
			require.True(t, ValidChecksum(b))

			var buf bytes.Buffer
			frame := &Frame{ID: tc.id, Payload: tc.payload}
			n, err := frame.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, int64(len(tc.expect)), n)
			require.Equal(t, tc.expect, buf.Bytes())
		})
	}
}

func TestEncodeFrameLengthPrefix(t *testing.T) {
	b, err := EncodeFrame(0x50, make([]byte, 253))
	require.NoError(t, err)
	require.Len(t, b, 257)
	require.Equal(t, []byte{0x01, 0x01}, b[:2])
}

func TestEncodeFrameTooLarge(t *testing.T) {
	_, err := EncodeFrame(0x50, make([]byte, MaxPayloadLen))
	require.NoError(t, err)
	_, err = EncodeFrame(0x50, make([]byte, MaxPayloadLen+1))
	require.Equal(t, ErrFrameTooLarge, err)
}

func TestFrameRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 2, 7, 100, 252, 253, 255, 256, MaxPayloadLen} {
		for _, id := range []byte{0x00, 0x01, 0x40, 0x7f} {
			payload := make([]byte, size)
			for i := range payload {
				payload[i] = byte(i*7 + int(id))
			}
			b, err := EncodeFrame(id, payload)
			require.NoError(t, err)
			frame, err := DecodeFrame(b)
			require.NoErrorf(t, err, "id=%x size=%d", id, size)
			require.Equal(t, id, frame.ID)
			require.Equal(t, payload, frame.Payload)
		}
	}
}

func TestDecodeFrameBitFlip(t *testing.T) {
	b, err := EncodeFrame(0x11, []byte{0x19, 0x42, 0x00, 0xa5})
	require.NoError(t, err)
	for i := 2; i < len(b)-1; i++ {
		for bit := uint(0); bit < 8; bit++ {
			corrupted := append([]byte(nil), b...)
			corrupted[i] ^= 1 << bit
			_, err := DecodeFrame(corrupted)
			require.Equalf(t, ErrChecksumMismatch, err, "byte %d bit %d", i, bit)
		}
	}
}

func TestDecodeFrameMalformed(t *testing.T) {
	_, err := DecodeFrame([]byte{0x00, 0x03, 0x01})
	require.True(t, isMalformedLength(err))
	_, err = DecodeFrame([]byte{0x00, 0x09, 0x01, 0x00, 0x0a})
	require.True(t, isMalformedLength(err))
}

func TestFrameIsResponse(t *testing.T) {
	require.False(t, (&Frame{ID: 0x01}).IsResponse())
	require.True(t, (&Frame{ID: 0x81}).IsResponse())
	require.True(t, (&Frame{ID: NotificationDataReceived}).IsResponse())
}
