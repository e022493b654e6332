// Package telegram decodes wireless M-Bus telegrams reported by the
// module in "data received" notifications.
package telegram

import (
	"errors"
	"fmt"
	"time"
)

// FrameType is the wireless M-Bus frame format.
type FrameType byte

// Frame formats.
const (
	FrameTypeA FrameType = 'A'
	FrameTypeB FrameType = 'B'
)

// String implements fmt.Stringer.
func (t FrameType) String() string {
	return string(rune(t))
}

// Option mask bits of a data received notification.
const (
	OptRSSI      uint16 = 1 << 15
	OptFrameB    uint16 = 1 << 4
	OptTimestamp uint16 = 1 << 3
	OptLField    uint16 = 1 << 2
	OptCField    uint16 = 1 << 1
	OptAddress   uint16 = 1 << 0
)

// TicksPerSecond is the resolution of notification timestamps.
const TicksPerSecond = 32768

var (
	// ErrTruncated indicates the payload is shorter than the option mask declares.
	ErrTruncated = errors.New("truncated telegram")
	// ErrNoOptions indicates the notification payload misses the option mask.
	ErrNoOptions = errors.New("missing option mask")
)

// Telegram is a decoded wireless M-Bus telegram.
// Optional fields are nil when not reported by the module.
type Telegram struct {
	Options   uint16
	FrameType FrameType
	// RSSI in dBm.
	RSSI *int8
	// Timestamp in seconds since module power on.
	Timestamp *float64
	LField    *byte
	CField    *byte
	// Manufacturer is the 3-letter manufacturer code.
	Manufacturer string
	// DeviceID is the hex rendering of the device identification number.
	DeviceID   string
	Version    *byte
	DeviceType *byte
	// LinkLayer holds all bytes following the RSSI/timestamp block.
	LinkLayer []byte
	// Payload is the application data following the link layer fields.
	Payload []byte
	// Incomplete is set if any of L, C or address fields is missing.
	Incomplete bool
}

// Event is a telegram received by a receiver.
type Event struct {
	*Telegram
	Receiver   string
	ReceivedAt time.Time
}

// HasAddress tells if the address block is present.
func (t *Telegram) HasAddress() bool {
	return t.Manufacturer != ""
}

// String implements fmt.Stringer.
func (t *Telegram) String() string {
	s := fmt.Sprintf("%s %s/%s", t.FrameType, t.Manufacturer, t.DeviceID)
	if t.Version != nil && t.DeviceType != nil {
		s += fmt.Sprintf(" ver=%d type=0x%02x", *t.Version, *t.DeviceType)
	}
	if t.RSSI != nil {
		s += fmt.Sprintf(" rssi=%d", *t.RSSI)
	}
	if t.Timestamp != nil {
		s += fmt.Sprintf(" ts=%.3f", *t.Timestamp)
	}
	return s + fmt.Sprintf(" payload=%x", t.Payload)
}

// ManufacturerCode converts the 2-byte manufacturer field into 3 letters.
func ManufacturerCode(m uint16) string {
	return string([]byte{
		byte((m>>10)&0x1f) + 64,
		byte((m>>5)&0x1f) + 64,
		byte(m&0x1f) + 64,
	})
}

// ManufacturerField is the reverse of ManufacturerCode.
func ManufacturerField(code string) (uint16, error) {
	if len(code) != 3 {
		return 0, fmt.Errorf("invalid manufacturer code %q", code)
	}
	var m uint16
	for i := 0; i < 3; i++ {
		c := code[i]
		if c < 64 || c > 64+0x1f {
			return 0, fmt.Errorf("invalid manufacturer code %q", code)
		}
		m = m<<5 | uint16(c-64)
	}
	return m, nil
}
