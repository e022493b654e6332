package telegram

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/glog"
)

type field struct {
	name string
	bit  uint16
	size int
	// linkLayer marks the first field of the link layer region.
	linkLayer bool
	decode    func(t *Telegram, b []byte)
}

// layout lists the optional fields in the order they appear on the wire.
var layout = []field{
	{
		name: "rssi", bit: OptRSSI, size: 1,
		decode: func(t *Telegram, b []byte) {
			v := int8(b[0])
			t.RSSI = &v
		},
	},
	{
		name: "frame type", bit: OptFrameB,
		decode: func(t *Telegram, b []byte) { t.FrameType = FrameTypeB },
	},
	{
		name: "timestamp", bit: OptTimestamp, size: 4,
		decode: func(t *Telegram, b []byte) {
			v := float64(binary.BigEndian.Uint32(b)) / TicksPerSecond
			t.Timestamp = &v
		},
	},
	{
		name: "L field", bit: OptLField, size: 1, linkLayer: true,
		decode: func(t *Telegram, b []byte) {
			v := b[0]
			t.LField = &v
		},
	},
	{
		name: "C field", bit: OptCField, size: 1,
		decode: func(t *Telegram, b []byte) {
			v := b[0]
			t.CField = &v
		},
	},
	{
		name: "address", bit: OptAddress, size: 8,
		decode: func(t *Telegram, b []byte) {
			t.Manufacturer = ManufacturerCode(binary.LittleEndian.Uint16(b))
			t.DeviceID = fmt.Sprintf("%08x", binary.LittleEndian.Uint32(b[2:]))
			ver, typ := b[6], b[7]
			t.Version, t.DeviceType = &ver, &typ
		},
	},
}

// Decode decodes the notification payload following the option mask.
func Decode(options uint16, data []byte) (*Telegram, error) {
	t := &Telegram{Options: options, FrameType: FrameTypeA}
	off, linkOff := 0, -1
	for _, f := range layout {
		if f.linkLayer {
			linkOff = off
		}
		if options&f.bit == 0 {
			continue
		}
		if off+f.size > len(data) {
			return nil, fmt.Errorf("%w: %s at offset %d", ErrTruncated, f.name, off)
		}
		f.decode(t, data[off:off+f.size])
		off += f.size
	}
	t.LinkLayer, t.Payload = data[linkOff:], data[off:]
	const linkFields = OptLField | OptCField | OptAddress
	if t.Incomplete = options&linkFields != linkFields; t.Incomplete {
		glog.Warningf("telegram with incomplete data link layer (options 0x%04x)", options)
	}
	return t, nil
}

// DecodeNotification decodes the payload of a data received notification
// which starts with a 2-byte (big-endian) option mask.
func DecodeNotification(payload []byte) (*Telegram, error) {
	if len(payload) < 2 {
		return nil, ErrNoOptions
	}
	return Decode(binary.BigEndian.Uint16(payload), payload[2:])
}
