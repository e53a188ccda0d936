// Package arraycache is a thin, N-dimensional array façade over the
// store/cache/codec core: a minimal illustrative wrapper that exercises
// the core end-to-end (construction, scalar access, bulk transfer, flush,
// resize, deep copy) without itself being the focus of the module.
package arraycache

import (
	"fmt"

	"github.com/koderoot/arraycache/cache"
	"github.com/koderoot/arraycache/codec"
	"github.com/koderoot/arraycache/internal/errs"
	"github.com/koderoot/arraycache/internal/options"
	"github.com/koderoot/arraycache/shape"
	"github.com/koderoot/arraycache/store"
)

// Array is a bounded-memory, N-dimensional (1-4 axes) array of float64
// scalars backed by a compressed block store and a write-back block cache.
type Array struct {
	st      *store.Store
	c       *cache.Cache
	numAxes int
}

// config collects constructor options applied via internal/options.
type config struct {
	cacheBudget int
	cacheWays   int
	source      []float64
}

// Opt configures New.
type Opt = options.Option[*config]

// WithCacheBudget sizes the cache to a byte budget instead of the default
// O(sqrt(blocksTotal)) sizing.
func WithCacheBudget(bytes int) Opt {
	return options.NoError(func(cfg *config) { cfg.cacheBudget = bytes })
}

// WithCacheWays selects a small-way associative cache instead of the
// default direct-mapped scheme.
func WithCacheWays(ways int) Opt {
	return options.NoError(func(cfg *config) { cfg.cacheWays = ways })
}

// WithSource seeds the array with an initial contiguous row-major scalar
// buffer, written via WriteAll immediately after construction.
func WithSource(src []float64) Opt {
	return options.NoError(func(cfg *config) { cfg.source = src })
}

// New constructs an Array over dims (1-4 axes) at the given target rate in
// bits per scalar.
func New(dims []int, rate float64, opts ...Opt) (*Array, error) {
	cfg := &config{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	st, err := store.New(dims, rate, codec.NewQuantized())
	if err != nil {
		return nil, err
	}

	var cacheOpts []cache.Option
	if cfg.cacheBudget > 0 {
		cacheOpts = append(cacheOpts, cache.WithByteBudget(cfg.cacheBudget))
	}
	if cfg.cacheWays > 0 {
		cacheOpts = append(cacheOpts, cache.WithWays(cfg.cacheWays))
	}

	c, err := cache.New(st, cacheOpts...)
	if err != nil {
		return nil, err
	}

	a := &Array{st: st, c: c, numAxes: st.NumAxes()}

	if cfg.source != nil {
		if err := a.WriteAll(cfg.source); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Size returns the total number of scalars across all axes.
func (a *Array) Size() int {
	dims := a.st.Dims()
	n := 1
	for axis := 0; axis < a.numAxes; axis++ {
		n *= dims[axis]
	}

	return n
}

// SizeAxis returns the scalar extent along axis.
func (a *Array) SizeAxis(axis int) int {
	return a.st.Dims()[axis]
}

// Rate returns the current achieved bits-per-scalar rate.
func (a *Array) Rate() float64 {
	return a.st.Rate()
}

// CompressedSize returns the byte length of the underlying bitstream.
func (a *Array) CompressedSize() int {
	return a.st.CompressedSize()
}

// CacheSize returns the number of cache lines, empty or not.
func (a *Array) CacheSize() int {
	return a.c.LineCount()
}

// Resize changes the array's scalar extents. If clear, the new store
// contents decode to all zeros; otherwise the store's deterministic
// overlap-preserving resize policy applies (see store.Store.Resize). Either
// way the block grid underneath any resident cache line has changed, so the
// cache is cleared (not merely flushed) once the new buffer is in place.
func (a *Array) Resize(dims []int, clear bool) error {
	if err := a.c.Flush(); err != nil {
		return err
	}

	if err := a.st.Resize(dims, clear); err != nil {
		return err
	}

	a.c.Clear()

	return nil
}

// SetRate changes the target rate and returns the actual achieved rate.
func (a *Array) SetRate(r float64) (float64, error) {
	return a.c.SetRate(r)
}

// SetCacheSize changes the cache's byte budget.
func (a *Array) SetCacheSize(bytes int) error {
	return a.c.Resize(bytes)
}

func (a *Array) coordOf(coords ...int) (shape.Coord, error) {
	var c shape.Coord
	if len(coords) != a.numAxes {
		return c, fmt.Errorf("%w: expected %d coordinates, got %d", errs.ErrCoordOutOfRange, a.numAxes, len(coords))
	}

	dims := a.st.Dims()
	for axis, v := range coords {
		if v < 0 || v >= dims[axis] {
			return c, fmt.Errorf("%w: axis %d coord %d out of [0,%d)", errs.ErrCoordOutOfRange, axis, v, dims[axis])
		}
		c[axis] = v
	}

	return c, nil
}

// Get returns the scalar at coords.
func (a *Array) Get(coords ...int) (float64, error) {
	c, err := a.coordOf(coords...)
	if err != nil {
		return 0, err
	}

	return a.c.Get(c)
}

// Set writes v at coords.
func (a *Array) Set(v float64, coords ...int) error {
	c, err := a.coordOf(coords...)
	if err != nil {
		return err
	}

	return a.c.Set(c, v)
}

// Ref pins the cache line holding coords for a read-write binding valid
// only until the next cache-mutating call.
func (a *Array) Ref(coords ...int) (*Ref, error) {
	c, err := a.coordOf(coords...)
	if err != nil {
		return nil, err
	}

	line, err := a.c.Ref(c)
	if err != nil {
		return nil, err
	}

	return &Ref{array: a, coord: c, line: line}, nil
}

// Ref is a weak, l-value-like handle into a resident cache line. It is
// invalidated by any subsequent Array operation that may evict its line.
type Ref struct {
	array *Array
	coord shape.Coord
	line  interface {
		Get(numAxes int, coord shape.Coord) float64
		Set(numAxes int, coord shape.Coord, v float64)
	}
}

// Read returns the scalar the ref is bound to.
func (r *Ref) Read() float64 {
	return r.line.Get(r.array.numAxes, r.coord)
}

// Write stores v at the ref's coordinate.
func (r *Ref) Write(v float64) {
	r.line.Set(r.array.numAxes, r.coord, v)
}

// ReadAll reads the whole array into a contiguous row-major dst buffer,
// traversing block-by-block via the cache's bulk GetBlock.
func (a *Array) ReadAll(dst []float64) error {
	return a.bulk(dst, a.c.GetBlock)
}

// WriteAll writes a contiguous row-major src buffer into the whole array,
// traversing block-by-block via the cache's bulk PutBlock.
func (a *Array) WriteAll(src []float64) error {
	return a.bulk(src, func(b int, buf []float64, offset int, strides shape.Coord) error {
		return a.c.PutBlock(b, buf, offset, strides)
	})
}

func (a *Array) bulk(buf []float64, op func(b int, buf []float64, offset int, strides shape.Coord) error) error {
	dims := a.st.Dims()

	var strides shape.Coord
	mult := 1
	for axis := 0; axis < a.numAxes; axis++ {
		strides[axis] = mult
		mult *= dims[axis]
	}

	for b := 0; b < a.st.BlocksTotal(); b++ {
		offset := blockOffset(a.numAxes, a.st, b, strides)
		if err := op(b, buf, offset, strides); err != nil {
			return err
		}
	}

	return nil
}

func blockOffset(numAxes int, st *store.Store, b int, strides shape.Coord) int {
	off := 0
	blockDims := st.BlockGridDims()
	rem := b
	for axis := 0; axis < numAxes; axis++ {
		bc := rem % blockDims[axis]
		rem /= blockDims[axis]
		off += (bc * shape.LaneWidth) * strides[axis]
	}

	return off
}

// FlushCache encodes every dirty cache line into the store.
func (a *Array) FlushCache() error {
	return a.c.Flush()
}

// ClearCache drops all cache lines without encoding, discarding pending
// writes.
func (a *Array) ClearCache() {
	a.c.Clear()
}

// CompressedData returns the raw persistent bitstream, implicitly flushing
// the cache first.
func (a *Array) CompressedData() ([]byte, error) {
	if err := a.c.Flush(); err != nil {
		return nil, err
	}

	return a.st.CompressedData(), nil
}

// DeepCopy returns an independent copy of a: its own store, cache, and
// codec bindings, with the same dims, rate, compressed bytes, and cache
// contents as of the call.
func (a *Array) DeepCopy() (*Array, error) {
	dstStore, err := a.st.DeepCopy(codec.NewQuantized())
	if err != nil {
		return nil, err
	}

	dstCache, err := cache.New(dstStore)
	if err != nil {
		return nil, err
	}
	if err := dstCache.DeepCopy(a.c); err != nil {
		return nil, err
	}

	return &Array{st: dstStore, c: dstCache, numAxes: a.numAxes}, nil
}
