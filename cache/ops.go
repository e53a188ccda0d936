package cache

import (
	"fmt"

	"github.com/koderoot/arraycache/cacheline"
	"github.com/koderoot/arraycache/shape"
)

// Get returns the scalar at coord, bringing its block into residence on a
// miss.
func (c *Cache) Get(coord shape.Coord) (float64, error) {
	b := c.st.BlockIndex(coord)
	line, _, err := c.Access(b, false)
	if err != nil {
		return 0, err
	}

	return line.Get(c.numAxes, coord), nil
}

// Set writes v at coord, marking the owning line dirty. The write becomes
// visible to a subsequent Get immediately (read-your-writes via the
// cache); it reaches compressed_data() only after Flush.
func (c *Cache) Set(coord shape.Coord, v float64) error {
	b := c.st.BlockIndex(coord)
	line, _, err := c.Access(b, true)
	if err != nil {
		return err
	}

	line.Set(c.numAxes, coord, v)

	return nil
}

// Ref pins the line holding coord for a read-write binding; the caller must
// not invoke any other cache operation before using the returned line, since
// that operation may evict it.
func (c *Cache) Ref(coord shape.Coord) (*cacheline.Line, error) {
	b := c.st.BlockIndex(coord)
	line, _, err := c.Access(b, true)

	return line, err
}

// GetBlock copies block b's valid lanes into a strided external buffer. If
// b is resident, it copies directly from the line; otherwise it bypasses
// the cache and decodes straight from the store, since bulk transfers touch
// each element once and caching would only pollute the working set.
func (c *Cache) GetBlock(b int, dst []float64, offset int, strides shape.Coord) error {
	line, resident, err := c.Lookup(b, false)
	if err != nil {
		return err
	}

	shp := c.st.BlockShapeAt(b)
	if resident {
		line.GetStrided(c.numAxes, dst, offset, strides, shp)
		return nil
	}

	return c.st.Decode(b, dst, offset, strides)
}

// PutBlock writes a strided external buffer's valid lanes into block b. If
// b is resident, it copies directly into the line (marking it dirty);
// otherwise it bypasses the cache and encodes straight into the store.
func (c *Cache) PutBlock(b int, src []float64, offset int, strides shape.Coord) error {
	line, resident, err := c.Lookup(b, false)
	if err != nil {
		return err
	}

	shp := c.st.BlockShapeAt(b)
	if resident {
		line.PutStrided(c.numAxes, src, offset, strides, shp)
		return nil
	}

	return c.st.Encode(b, src, offset, strides)
}

// Flush encodes every tagged, dirty line into the store and clears its
// dirty bit; tagged non-dirty lines are left resident. On an encode
// failure, lines already flushed stay clean and the remainder keep their
// dirty bit (partial-progress contract), and the error names the first
// block index that failed.
func (c *Cache) Flush() error {
	for _, line := range c.lines {
		t := line.Tag()
		if t.Empty() || !t.Dirty() {
			continue
		}

		if err := c.st.EncodeContiguous(t.BlockIndex(), line.Data); err != nil {
			return fmt.Errorf("cache: flush failed at block %d: %w", t.BlockIndex(), err)
		}

		line.SetTag(cacheline.TagFor(t.BlockIndex(), false))
	}

	return nil
}

// Clear drops every tag without encoding. All writes since the last Flush
// are discarded; this is the only way to discard modifications without
// paying the encode cost.
func (c *Cache) Clear() {
	for _, line := range c.lines {
		line.SetTag(cacheline.EmptyTag)
	}
}

// Resize flushes, then changes the line count to satisfy a new byte
// budget using the same sizing rule as construction.
func (c *Cache) Resize(budgetBytes int) error {
	if err := c.Flush(); err != nil {
		return err
	}

	lineCount := lineCountForBudget(budgetBytes, lineBytes(c.volume))
	c.allocate(lineCount)

	return nil
}

// SetRate clears (not flushes — the codec binding is about to change, so
// pending writes have nowhere valid to land) and reallocates the store's
// slots via the store's SetRate, which rebinds the store's own codec against
// the new buffer.
func (c *Cache) SetRate(r float64) (float64, error) {
	c.Clear()

	return c.st.SetRate(r)
}

// DeepCopy replaces this cache's lines and tags with src's (verbatim). The
// store (and its codec binding) is never shared between caches — the caller
// is responsible for giving this cache its own store.Store, already bound,
// before calling DeepCopy.
func (c *Cache) DeepCopy(src *Cache) error {
	c.ways = src.ways
	c.sets = src.sets
	c.victim = append([]int(nil), src.victim...)

	c.lines = make([]*cacheline.Line, len(src.lines))
	for i, sl := range src.lines {
		nl := cacheline.New(c.volume)
		copy(nl.Data, sl.Data)
		nl.SetTag(sl.Tag())
		c.lines[i] = nl
	}

	return nil
}
