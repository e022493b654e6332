package telegram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeLinkLayer(t *testing.T) {
	data := []byte{
		0x2e, 0x44, // L, C
		0x2d, 0x2c, // KAM
		0x78, 0x56, 0x34, 0x12, // id
		0x1b, 0x16, // version, type
		0x7a, 0x01, 0x02,
	}
	tg, err := Decode(0x0007, data)
	require.NoError(t, err)
	require.Equal(t, FrameTypeA, tg.FrameType)
	require.Nil(t, tg.RSSI)
	require.Nil(t, tg.Timestamp)
	require.Equal(t, byte(0x2e), *tg.LField)
	require.Equal(t, byte(0x44), *tg.CField)
	require.Equal(t, "KAM", tg.Manufacturer)
	require.Equal(t, "12345678", tg.DeviceID)
	require.Equal(t, byte(0x1b), *tg.Version)
	require.Equal(t, byte(0x16), *tg.DeviceType)
	require.Equal(t, []byte{0x7a, 0x01, 0x02}, tg.Payload)
	require.Equal(t, data, tg.LinkLayer)
	require.False(t, tg.Incomplete)
	require.True(t, tg.HasAddress())
}

func TestDecodeNotification(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
		check   func(*testing.T, *Telegram)
	}{
		{
			name: "rssi timestamp and type B",
			payload: []byte{
				0x80, 0x1f,
				0xb5,                   // rssi
				0x00, 0x01, 0x00, 0x00, // timestamp
				0x0b, 0x44,
				0x2d, 0x2c, 0x01, 0x00, 0x00, 0x00, 0x01, 0x07,
				0xaa,
			},
			check: func(t *testing.T, tg *Telegram) {
				require.Equal(t, FrameTypeB, tg.FrameType)
				require.Equal(t, int8(-75), *tg.RSSI)
				require.Equal(t, 2.0, *tg.Timestamp)
				require.Equal(t, byte(0x0b), *tg.LField)
				require.Equal(t, "00000001", tg.DeviceID)
				require.Equal(t, []byte{0xaa}, tg.Payload)
				require.Equal(t, []byte{0x0b, 0x44, 0x2d, 0x2c, 0x01, 0x00, 0x00, 0x00, 0x01, 0x07, 0xaa}, tg.LinkLayer)
				require.False(t, tg.Incomplete)
			},
		},
		{
			name:    "no options",
			payload: []byte{0x00, 0x00, 0x01, 0x02},
			check: func(t *testing.T, tg *Telegram) {
				require.Equal(t, FrameTypeA, tg.FrameType)
				require.True(t, tg.Incomplete)
				require.False(t, tg.HasAddress())
				require.Equal(t, []byte{0x01, 0x02}, tg.Payload)
				require.Equal(t, []byte{0x01, 0x02}, tg.LinkLayer)
			},
		},
		{
			name:    "missing address",
			payload: []byte{0x80, 0x06, 0xc4, 0x0a, 0x44, 0x55},
			check: func(t *testing.T, tg *Telegram) {
				require.Equal(t, int8(-60), *tg.RSSI)
				require.True(t, tg.Incomplete)
				require.Nil(t, tg.Version)
				require.Empty(t, tg.Manufacturer)
				require.Equal(t, []byte{0x55}, tg.Payload)
				require.Equal(t, []byte{0x0a, 0x44, 0x55}, tg.LinkLayer)
			},
		},
		{
			name:    "fields only",
			payload: []byte{0x00, 0x07, 0x09, 0x44, 0x2d, 0x2c, 0x78, 0x56, 0x34, 0x12, 0x1b, 0x16},
			check: func(t *testing.T, tg *Telegram) {
				require.Empty(t, tg.Payload)
				require.Len(t, tg.LinkLayer, 10)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tg, err := DecodeNotification(tc.payload)
			require.NoError(t, err)
			tc.check(t, tg)
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	testCases := []struct {
		name    string
		options uint16
		data    []byte
	}{
		{"rssi", OptRSSI, nil},
		{"timestamp", OptTimestamp, []byte{0x00, 0x01}},
		{"address", OptLField | OptCField | OptAddress, []byte{0x2e, 0x44, 0x2d, 0x2c, 0x78}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.options, tc.data)
			require.True(t, errors.Is(err, ErrTruncated))
		})
	}

	_, err := DecodeNotification([]byte{0x00})
	require.Equal(t, ErrNoOptions, err)
}

func TestManufacturerCode(t *testing.T) {
	for _, code := range []string{"KAM", "ELS", "TCH", "QDS", "@@@", "ZZZ"} {
		m, err := ManufacturerField(code)
		require.NoError(t, err)
		require.Equal(t, code, ManufacturerCode(m))
	}
	require.Equal(t, "KAM", ManufacturerCode(0x2c2d))
	_, err := ManufacturerField("KA")
	require.Error(t, err)
	_, err = ManufacturerField("ka1")
	require.Error(t, err)
}
