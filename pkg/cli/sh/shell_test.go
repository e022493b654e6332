package sh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	b, err := ParseHex("0102", "ff")
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0xff}, b)
	b, err = ParseHex()
	require.NoError(t, err)
	require.Empty(t, b)
	_, err = ParseHex("0g")
	require.Error(t, err)
}

func TestParseByte(t *testing.T) {
	for s, v := range map[string]byte{"0x25": 0x25, "25": 25, "0": 0} {
		b, err := ParseByte(s)
		require.NoError(t, err)
		require.Equal(t, v, b)
	}
	_, err := ParseByte("256")
	require.Error(t, err)
}
