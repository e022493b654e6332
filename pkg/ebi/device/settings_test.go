package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAutomatedSettings(t *testing.T) {
	require.Equal(t, []byte{0x80, 0x00}, AutomatedSettings{NetworkCreation: true}.Bytes())
	require.Equal(t, []byte{0x00, 0x00}, AutomatedSettings{}.Bytes())
	require.True(t, ParseAutomatedSettings([]byte{0x80, 0x00}).NetworkCreation)
	require.False(t, ParseAutomatedSettings([]byte{0x7f, 0xff}).NetworkCreation)
	require.False(t, ParseAutomatedSettings(nil).NetworkCreation)
}

func TestSecuritySettings(t *testing.T) {
	require.Equal(t, []byte{0xe0}, SecuritySettings{Enable: true, KeyShared: true, Encryption: true}.Bytes())
	require.Equal(t, []byte{0x81, 0x01, 0x02},
		SecuritySettings{Enable: true, UpdateKey: true, Key: []byte{0x01, 0x02}}.Bytes())
	require.Equal(t, []byte{0x00}, SecuritySettings{Key: []byte{0x01}}.Bytes())
}

func TestSendDataRequest(t *testing.T) {
	ch, power, timing, l, c := Channel(0x19), int8(-1), byte(0x05), byte(0x44), byte(0x46)
	cases := []struct {
		name string
		req  SendDataRequest
		data []byte
	}{
		{"data only", SendDataRequest{Data: []byte{0x01, 0x02}}, []byte{0x00, 0x00, 0x01, 0x02}},
		{"flags", SendDataRequest{Slow: true, FrameB: true}, []byte{0x00, 0x60}},
		{"all", SendDataRequest{
			Channel:     &ch,
			OutputPower: &power,
			Timing:      &timing,
			LField:      &l,
			CField:      &c,
			Address:     []byte{1, 2, 3, 4, 5, 6, 7, 8},
			Data:        []byte{0xaa},
		}, []byte{0xc0, 0x17, 0x19, 0xff, 0x05, 0x44, 0x46, 1, 2, 3, 4, 5, 6, 7, 8, 0xaa}},
		{"extra options", SendDataRequest{Options: 0x0100}, []byte{0x01, 0x00}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := tc.req.Bytes()
			require.NoError(t, err)
			require.Equal(t, tc.data, data)
		})
	}

	_, err := (&SendDataRequest{Address: []byte{1, 2}}).Bytes()
	require.Error(t, err)
	_, err = (&SendDataRequest{Data: make([]byte, 507)}).Bytes()
	require.Error(t, err)
}

func TestMode(t *testing.T) {
	for mode, ch := range map[string]Channel{"T": 0x19, "S": 0x18, "C": 0x25} {
		m, err := ParseMode(mode)
		require.NoError(t, err)
		require.Equal(t, ch, m.Channel())
		_, ok := Channels[ch]
		require.True(t, ok)
	}
	_, err := ParseMode("X")
	require.Error(t, err)
	require.Equal(t, Channel(0x19), Mode("").Channel())
}
