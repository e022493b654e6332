package device

import "fmt"

// Channel is the operating channel code.
type Channel byte

// ChannelInfo describes a channel.
type ChannelInfo struct {
	FrequencyMHz float64
	RateKbps     float64
}

// String implements fmt.Stringer.
func (i ChannelInfo) String() string {
	return fmt.Sprintf("%.5g[MHz] @%g[kbps]", i.FrequencyMHz, i.RateKbps)
}

// Channels lists the supported channels.
var Channels = map[Channel]ChannelInfo{
	0x01: {169.40625, 4.8},
	0x02: {169.41875, 4.8},
	0x03: {169.43125, 2.4},
	0x04: {169.44375, 2.4},
	0x05: {169.45625, 4.8},
	0x06: {169.46875, 4.8},
	0x07: {169.43750, 19.2},
	0x0d: {868.030, 4.8},
	0x0e: {868.090, 4.8},
	0x0f: {868.150, 4.8},
	0x10: {868.210, 4.8},
	0x11: {868.270, 4.8},
	0x12: {868.330, 4.8},
	0x13: {868.390, 4.8},
	0x14: {868.450, 4.8},
	0x15: {868.510, 4.8},
	0x16: {868.570, 4.8},
	0x17: {868.300, 16.384},
	0x18: {868.300, 16.384},
	0x19: {868.950, 66.666},
	0x1a: {868.300, 16.384},
	0x1b: {868.030, 2.4},
	0x1c: {868.090, 2.4},
	0x1d: {868.150, 2.4},
	0x1e: {868.210, 2.4},
	0x1f: {868.270, 2.4},
	0x20: {868.330, 2.4},
	0x21: {868.390, 2.4},
	0x22: {868.450, 2.4},
	0x23: {868.510, 2.4},
	0x24: {868.570, 2.4},
	0x25: {868.950, 100},
	0x26: {869.525, 50},
}

// String implements fmt.Stringer.
func (c Channel) String() string {
	if info, ok := Channels[c]; ok {
		return fmt.Sprintf("%d %s", byte(c), info)
	}
	return fmt.Sprintf("%d unknown", byte(c))
}

// Mode is the wireless M-Bus receive mode.
type Mode string

// Receive modes.
const (
	ModeT Mode = "T"
	ModeS Mode = "S"
	ModeC Mode = "C"
)

// ModeChannels maps receive modes to channels.
var ModeChannels = map[Mode]Channel{
	ModeT: 0x19,
	ModeS: 0x18,
	ModeC: 0x25,
}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if _, ok := ModeChannels[m]; !ok {
		return m, fmt.Errorf("unknown mode %q: use T, S or C", s)
	}
	return m, nil
}

// Channel returns the channel for the mode, T-mode if unknown.
func (m Mode) Channel() Channel {
	if ch, ok := ModeChannels[m]; ok {
		return ch
	}
	return ModeChannels[ModeT]
}
