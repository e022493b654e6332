package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/wmbus.go/pkg/wmbus/telegram"
)

func event(t *testing.T, at time.Time, notification ...byte) *telegram.Event {
	tg, err := telegram.DecodeNotification(notification)
	require.NoError(t, err)
	return &telegram.Event{Telegram: tg, Receiver: "rx", ReceivedAt: at}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "telegrams.db"))
	require.NoError(t, err)
	defer s.Close()

	base := time.Now().Truncate(time.Millisecond)
	kam := []byte{0x80, 0x07, 0xc4, 0x2e, 0x44, 0x2d, 0x2c, 0x78, 0x56, 0x34, 0x12, 0x01, 0x07, 0xaa}
	other := []byte{0x00, 0x07, 0x2e, 0x44, 0x2d, 0x2c, 0x01, 0x00, 0x00, 0x00, 0x02, 0x03}
	for i, n := range [][]byte{kam, other, kam} {
		id, err := s.Insert(ctx, event(t, base.Add(time.Duration(i)*time.Second), n...))
		require.NoError(t, err)
		require.Equal(t, int64(i+1), id)
	}

	recs, err := s.ListRecent(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, int64(1), recs[0].ID)
	require.Equal(t, "00000001", recs[1].DeviceID)
	require.Nil(t, recs[1].RSSI)

	recs, err = s.ListRecent(ctx, Filter{Manufacturer: "KAM", DeviceID: "12345678", Limit: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	r := recs[0]
	require.Equal(t, int64(3), r.ID)
	require.Equal(t, "rx", r.Receiver)
	require.True(t, base.Add(2*time.Second).Equal(r.ReceivedAt))
	require.Equal(t, uint16(0x8007), r.Options)
	require.Equal(t, "A", r.FrameType)
	require.Equal(t, int8(-60), *r.RSSI)
	require.Nil(t, r.Timestamp)
	require.Equal(t, byte(0x01), *r.Version)
	require.Equal(t, byte(0x07), *r.DeviceType)
	require.Equal(t, []byte{0xaa}, r.Payload)
	require.False(t, r.Incomplete)
}
