package snapshot_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koderoot/arraycache/codec"
	"github.com/koderoot/arraycache/envelope"
	"github.com/koderoot/arraycache/shape"
	"github.com/koderoot/arraycache/snapshot"
	"github.com/koderoot/arraycache/store"
)

func populated(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New([]int{8, 8}, 16, codec.NewQuantized())
	require.NoError(t, err)

	src := make([]float64, 64)
	for i := range src {
		src[i] = float64(i) * 0.5
	}
	require.NoError(t, s.Encode(0, src, 0, shape.Coord{1, 8}))

	return s
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, algo := range []envelope.Algorithm{envelope.None, envelope.Zstd, envelope.S2, envelope.LZ4} {
		s := populated(t)

		var buf bytes.Buffer
		require.NoError(t, snapshot.Write(&buf, s, algo))

		got, err := snapshot.Read(&buf, codec.NewQuantized())
		require.NoError(t, err)

		require.Equal(t, s.CompressedData(), got.CompressedData())
		require.Equal(t, s.Dims(), got.Dims())
		require.InDelta(t, s.Rate(), got.Rate(), 0.01)
	}
}

func TestReadDetectsCorruption(t *testing.T) {
	s := populated(t)

	var buf bytes.Buffer
	require.NoError(t, snapshot.Write(&buf, s, envelope.None))

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF

	_, err := snapshot.Read(bytes.NewReader(corrupted), codec.NewQuantized())
	require.Error(t, err)
}

func TestReadTruncatedHeaderErrors(t *testing.T) {
	_, err := snapshot.Read(bytes.NewReader([]byte{1, 2, 3}), codec.NewQuantized())
	require.Error(t, err)
}
