// Package msgs defines the messages published for received telegrams.
package msgs

import (
	"encoding/json"
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/wmbus.go/pkg/wmbus/telegram"
)

// TelegramMsg is a received telegram. Presence of optional fields is
// indicated by the bits in Options.
type TelegramMsg struct {
	Receiver     string  `protobuf:"bytes,1,opt,name=receiver,proto3" json:"receiver,omitempty"`
	Options      uint32  `protobuf:"varint,2,opt,name=options,proto3" json:"options,omitempty"`
	FrameType    string  `protobuf:"bytes,3,opt,name=frame_type,proto3" json:"frame_type,omitempty"`
	Rssi         int32   `protobuf:"zigzag32,4,opt,name=rssi,proto3" json:"rssi,omitempty"`
	Timestamp    float64 `protobuf:"fixed64,5,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	LField       uint32  `protobuf:"varint,6,opt,name=l_field,proto3" json:"l_field,omitempty"`
	CField       uint32  `protobuf:"varint,7,opt,name=c_field,proto3" json:"c_field,omitempty"`
	Manufacturer string  `protobuf:"bytes,8,opt,name=manufacturer,proto3" json:"manufacturer,omitempty"`
	DeviceID     string  `protobuf:"bytes,9,opt,name=device_id,proto3" json:"device_id,omitempty"`
	Version      uint32  `protobuf:"varint,10,opt,name=version,proto3" json:"version,omitempty"`
	DeviceType   uint32  `protobuf:"varint,11,opt,name=device_type,proto3" json:"device_type,omitempty"`
	LinkLayer    []byte  `protobuf:"bytes,12,opt,name=link_layer,proto3" json:"link_layer,omitempty"`
	Payload      []byte  `protobuf:"bytes,13,opt,name=payload,proto3" json:"payload,omitempty"`
	ReceivedAt   int64   `protobuf:"varint,14,opt,name=received_at,proto3" json:"received_at,omitempty"`
	Incomplete   bool    `protobuf:"varint,15,opt,name=incomplete,proto3" json:"incomplete,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *TelegramMsg) ProtoMessage() {}

// Reset implements proto.Message.
func (m *TelegramMsg) Reset() { *m = TelegramMsg{} }

// String implements proto.Message.
func (m *TelegramMsg) String() string { return proto.CompactTextString(m) }

// FromEvent converts a received telegram.
func FromEvent(ev *telegram.Event) *TelegramMsg {
	t := ev.Telegram
	m := &TelegramMsg{
		Receiver:     ev.Receiver,
		Options:      uint32(t.Options),
		FrameType:    t.FrameType.String(),
		Manufacturer: t.Manufacturer,
		DeviceID:     t.DeviceID,
		LinkLayer:    t.LinkLayer,
		Payload:      t.Payload,
		ReceivedAt:   ev.ReceivedAt.UnixNano(),
		Incomplete:   t.Incomplete,
	}
	if t.RSSI != nil {
		m.Rssi = int32(*t.RSSI)
	}
	if t.Timestamp != nil {
		m.Timestamp = *t.Timestamp
	}
	if t.LField != nil {
		m.LField = uint32(*t.LField)
	}
	if t.CField != nil {
		m.CField = uint32(*t.CField)
	}
	if t.Version != nil {
		m.Version = uint32(*t.Version)
	}
	if t.DeviceType != nil {
		m.DeviceType = uint32(*t.DeviceType)
	}
	return m
}

// Time returns the receiving time.
func (m *TelegramMsg) Time() time.Time {
	return time.Unix(0, m.ReceivedAt)
}

// Has tells if the option bit is set.
func (m *TelegramMsg) Has(opt uint16) bool {
	return m.Options&uint32(opt) != 0
}

// Encode serializes the message as protobuf or JSON.
func Encode(m *TelegramMsg, asJSON bool) ([]byte, error) {
	if asJSON {
		return json.Marshal(m)
	}
	return proto.Marshal(m)
}

// Decode parses a message, JSON is detected by the leading brace.
func Decode(data []byte) (*TelegramMsg, error) {
	m := &TelegramMsg{}
	if len(data) > 0 && data[0] == '{' {
		return m, json.Unmarshal(data, m)
	}
	return m, proto.Unmarshal(data, m)
}
