package shape_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koderoot/arraycache/shape"
)

func TestOfInteriorBlockIsFull(t *testing.T) {
	dims := shape.Coord{8, 8}
	s := shape.Of(2, dims, shape.Coord{0, 0})
	require.True(t, s.IsFull())
	require.Equal(t, shape.Full, s)
}

func TestOfBorderBlockDeficit(t *testing.T) {
	// 6 columns: block 1 along axis 0 covers lanes 4..7, only 2 valid.
	dims := shape.Coord{6, 8}
	s := shape.Of(2, dims, shape.Coord{1, 0})
	require.False(t, s.IsFull())
	require.Equal(t, 2, s.ValidLanes(0))
	require.Equal(t, 4, s.ValidLanes(1))
	require.Equal(t, 2, s.Deficit(0))
	require.Equal(t, 0, s.Deficit(1))
}

func TestOfBorderBlockBothAxes(t *testing.T) {
	dims := shape.Coord{5, 3}
	s := shape.Of(2, dims, shape.Coord{1, 0})
	require.Equal(t, 1, s.ValidLanes(0))
	require.Equal(t, 3, s.ValidLanes(1))
}

func TestIsValidLocalFullShape(t *testing.T) {
	for li := 0; li < 16; li++ {
		require.True(t, shape.IsValidLocal(2, shape.Full, li))
	}
}

func TestIsValidLocalPartialShape(t *testing.T) {
	dims := shape.Coord{6, 8}
	s := shape.Of(2, dims, shape.Coord{1, 0})

	// Local indices 0,1 -> (0,0),(1,0): valid. Local indices 2,3 -> (2,0),(3,0):
	// past the 2 valid lanes on axis 0.
	require.True(t, shape.IsValidLocal(2, s, 0))
	require.True(t, shape.IsValidLocal(2, s, 1))
	require.False(t, shape.IsValidLocal(2, s, 2))
	require.False(t, shape.IsValidLocal(2, s, 3))
}

func TestVolume(t *testing.T) {
	require.Equal(t, 4, shape.Volume(1))
	require.Equal(t, 16, shape.Volume(2))
	require.Equal(t, 64, shape.Volume(3))
	require.Equal(t, 256, shape.Volume(4))
}

func TestForEachValidFullCountsAll(t *testing.T) {
	count := 0
	shape.ForEachValid(2, shape.Full, 16, func(li int) { count++ })
	require.Equal(t, 16, count)
}

func TestForEachValidPartialCountsOnlyValid(t *testing.T) {
	dims := shape.Coord{6, 8}
	s := shape.Of(2, dims, shape.Coord{1, 0})

	count := 0
	shape.ForEachValid(2, s, 16, func(li int) { count++ })
	// 2 valid lanes on axis0 * 4 on axis1 = 8
	require.Equal(t, 8, count)
}
