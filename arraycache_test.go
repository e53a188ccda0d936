package arraycache_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koderoot/arraycache"
	"github.com/koderoot/arraycache/internal/hash"
)

func fill(n int) []float64 {
	src := make([]float64, n)
	for i := range src {
		src[i] = math.Sin(float64(i) * 0.1)
	}

	return src
}

// S1: a freshly constructed array with no writes decodes to all zeros.
func TestFreshArrayIsZero(t *testing.T) {
	a, err := arraycache.New([]int{16, 16}, 16)
	require.NoError(t, err)

	v, err := a.Get(3, 5)
	require.NoError(t, err)
	require.Equal(t, 0.0, v)
}

// S2: lowering the rate after construction shrinks the compressed size.
func TestSetRateShrinksCompressedSize(t *testing.T) {
	a, err := arraycache.New([]int{32, 32}, 32)
	require.NoError(t, err)
	before := a.CompressedSize()

	actual, err := a.SetRate(4)
	require.NoError(t, err)
	require.Less(t, actual, 32.0)
	require.Less(t, a.CompressedSize(), before)
}

// S3: writes are only visible in CompressedData after an (implicit or
// explicit) flush.
func TestWritesRequireFlushToPersist(t *testing.T) {
	a, err := arraycache.New([]int{8, 8}, 16)
	require.NoError(t, err)

	before, err := a.CompressedData()
	require.NoError(t, err)
	beforeSum := hash.Buffer(before)

	require.NoError(t, a.Set(99, 1, 1))

	after, err := a.CompressedData()
	require.NoError(t, err)
	require.NotEqual(t, beforeSum, hash.Buffer(after))
}

// S4: a deep copy is fully independent of its source.
func TestDeepCopyIsIndependent(t *testing.T) {
	a, err := arraycache.New([]int{8, 8}, 16)
	require.NoError(t, err)
	require.NoError(t, a.Set(7, 0, 0))
	require.NoError(t, a.FlushCache())

	b, err := a.DeepCopy()
	require.NoError(t, err)

	require.NoError(t, a.Set(11, 1, 1))
	require.NoError(t, a.FlushCache())

	av, err := a.Get(1, 1)
	require.NoError(t, err)
	bv, err := b.Get(1, 1)
	require.NoError(t, err)
	require.NotEqual(t, av, bv)
}

// Bulk round trip: a source written via WithSource (WriteAll) reads back
// through ReadAll within the codec's quantization error.
func TestBulkRoundTrip(t *testing.T) {
	dims := []int{12, 9}
	src := fill(dims[0] * dims[1])

	a, err := arraycache.New(dims, 32, arraycache.WithSource(src))
	require.NoError(t, err)

	dst := make([]float64, dims[0]*dims[1])
	require.NoError(t, a.ReadAll(dst))

	for i := range src {
		require.InDelta(t, src[i], dst[i], 0.05)
	}
}

// S6: resizing with clear=true zeroes the whole array, discarding prior
// contents regardless of overlap.
func TestResizeWithClearZeroesArray(t *testing.T) {
	a, err := arraycache.New([]int{8, 8}, 16)
	require.NoError(t, err)
	require.NoError(t, a.Set(5, 0, 0))
	require.NoError(t, a.FlushCache())

	require.NoError(t, a.Resize([]int{8, 8}, true))

	v, err := a.Get(0, 0)
	require.NoError(t, err)
	require.Equal(t, 0.0, v)
}

func TestRefReadWrite(t *testing.T) {
	a, err := arraycache.New([]int{8, 8}, 16)
	require.NoError(t, err)

	ref, err := a.Ref(2, 2)
	require.NoError(t, err)
	ref.Write(3.25)
	require.Equal(t, 3.25, ref.Read())

	v, err := a.Get(2, 2)
	require.NoError(t, err)
	require.Equal(t, 3.25, v)
}

func TestSizeAndSizeAxis(t *testing.T) {
	a, err := arraycache.New([]int{10, 5, 2}, 16)
	require.NoError(t, err)

	require.Equal(t, 100, a.Size())
	require.Equal(t, 10, a.SizeAxis(0))
	require.Equal(t, 5, a.SizeAxis(1))
	require.Equal(t, 2, a.SizeAxis(2))
}

func TestOutOfRangeCoordErrors(t *testing.T) {
	a, err := arraycache.New([]int{8, 8}, 16)
	require.NoError(t, err)

	_, err = a.Get(100, 0)
	require.Error(t, err)

	_, err = a.Get(0)
	require.Error(t, err)
}

func TestCacheBudgetOption(t *testing.T) {
	a, err := arraycache.New([]int{64, 64}, 16, arraycache.WithCacheBudget(4096))
	require.NoError(t, err)
	require.Greater(t, a.CacheSize(), 0)
}
