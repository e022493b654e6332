package device

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/robotalks/wmbus.go/pkg/ebi/comm"
)

// flag binds a bit of a mask to a boolean field.
type flag[T any] struct {
	bit   uint
	field func(*T) *bool
}

func packFlags[T any](v *T, layout []flag[T]) (mask uint16) {
	for _, f := range layout {
		if *f.field(v) {
			mask |= 1 << f.bit
		}
	}
	return
}

func unpackFlags[T any](mask uint16, v *T, layout []flag[T]) {
	for _, f := range layout {
		*f.field(v) = mask&(1<<f.bit) != 0
	}
}

// AutomatedSettings are the network automated settings.
type AutomatedSettings struct {
	// NetworkCreation starts the network automatically after power on.
	NetworkCreation bool
}

var automatedSettingsLayout = []flag[AutomatedSettings]{
	{15, func(s *AutomatedSettings) *bool { return &s.NetworkCreation }},
}

// Bytes encodes the settings.
func (s AutomatedSettings) Bytes() []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, packFlags(&s, automatedSettingsLayout))
	return b
}

// ParseAutomatedSettings decodes the settings.
func ParseAutomatedSettings(b []byte) (s AutomatedSettings) {
	if len(b) >= 2 {
		unpackFlags(binary.BigEndian.Uint16(b), &s, automatedSettingsLayout)
	}
	return
}

// SecuritySettings configures network security.
type SecuritySettings struct {
	Enable     bool
	KeyShared  bool
	Encryption bool
	// UpdateKey replaces the network key with Key.
	UpdateKey bool
	Key       []byte
}

var securityLayout = []flag[SecuritySettings]{
	{7, func(s *SecuritySettings) *bool { return &s.Enable }},
	{6, func(s *SecuritySettings) *bool { return &s.KeyShared }},
	{5, func(s *SecuritySettings) *bool { return &s.Encryption }},
	{0, func(s *SecuritySettings) *bool { return &s.UpdateKey }},
}

// Bytes encodes the settings.
func (s SecuritySettings) Bytes() []byte {
	b := []byte{byte(packFlags(&s, securityLayout))}
	if s.UpdateKey {
		b = append(b, s.Key...)
	}
	return b
}

// SendDataRequest is the request of send data command.
// Nil fields are not sent.
type SendDataRequest struct {
	Data        []byte
	Channel     *Channel
	OutputPower *int8
	Slow        bool
	FrameB      bool
	Timing      *byte
	LField      *byte
	CField      *byte
	// Address is the 8-byte address block (manufacturer, id, version, type).
	Address []byte
	// Options carries additional option bits.
	Options uint16
}

type sendDataField struct {
	bit    uint
	encode func(r *SendDataRequest) ([]byte, bool)
}

func optByte(b *byte) ([]byte, bool) {
	if b == nil {
		return nil, false
	}
	return []byte{*b}, true
}

func optFlag(v bool) ([]byte, bool) {
	return nil, v
}

// sendDataLayout lists the optional fields in wire order.
var sendDataLayout = []sendDataField{
	{15, func(r *SendDataRequest) ([]byte, bool) {
		if r.Channel == nil {
			return nil, false
		}
		return []byte{byte(*r.Channel)}, true
	}},
	{14, func(r *SendDataRequest) ([]byte, bool) {
		if r.OutputPower == nil {
			return nil, false
		}
		return []byte{byte(*r.OutputPower)}, true
	}},
	{6, func(r *SendDataRequest) ([]byte, bool) { return optFlag(r.Slow) }},
	{5, func(r *SendDataRequest) ([]byte, bool) { return optFlag(r.FrameB) }},
	{4, func(r *SendDataRequest) ([]byte, bool) { return optByte(r.Timing) }},
	{2, func(r *SendDataRequest) ([]byte, bool) { return optByte(r.LField) }},
	{1, func(r *SendDataRequest) ([]byte, bool) { return optByte(r.CField) }},
	{0, func(r *SendDataRequest) ([]byte, bool) { return r.Address, r.Address != nil }},
}

// AddressLen is the size of the address block.
const AddressLen = 8

var errAddressLen = errors.New("address block must be 8 bytes")

// Bytes encodes the request payload.
func (r *SendDataRequest) Bytes() ([]byte, error) {
	if r.Address != nil && len(r.Address) != AddressLen {
		return nil, errAddressLen
	}
	mask := r.Options
	var fields []byte
	for _, f := range sendDataLayout {
		if b, ok := f.encode(r); ok {
			mask |= 1 << f.bit
			fields = append(fields, b...)
		}
	}
	payload := make([]byte, 2, 2+len(fields)+len(r.Data))
	binary.BigEndian.PutUint16(payload, mask)
	payload = append(payload, fields...)
	payload = append(payload, r.Data...)
	if len(payload) > comm.MaxPayloadLen {
		return nil, fmt.Errorf("send data payload too large: %d bytes", len(payload))
	}
	return payload, nil
}
