package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexBytesJSONRoundTrip(t *testing.T) {
	hb := HexBytes{0xde, 0xad, 0xbe, 0xef}
	raw, err := json.Marshal(hb)
	require.NoError(t, err)
	require.Equal(t, `"0xdeadbeef"`, string(raw))

	var back HexBytes
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, hb, back)
}

func TestHexBytesRejectsGarbage(t *testing.T) {
	var hb HexBytes
	require.Error(t, json.Unmarshal([]byte(`"0xzz"`), &hb))
	require.Error(t, json.Unmarshal([]byte(`42`), &hb))
}

func TestHexToBytes(t *testing.T) {
	b, err := HexToBytes("0x0102ff")
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0xff}, b)

	b, err = HexToBytes("0102ff")
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0xff}, b)

	_, err = HexToBytes("zz")
	require.Error(t, err)
}
