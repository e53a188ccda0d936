// Package cache implements the bounded, write-back block cache that
// mediates all scalar-granularity access to a store.Store: decode-on-miss,
// encode-on-eviction, with an explicit lower-level Access boundary between
// write-back and fetch so both halves of an eviction are independently
// testable.
package cache

import (
	"github.com/koderoot/arraycache/cacheline"
	"github.com/koderoot/arraycache/internal/hash"
	"github.com/koderoot/arraycache/store"
)

// Cache is a bounded, write-back cache of decompressed blocks bound to a
// store.Store. All encoding/decoding is delegated to st's own codec binding
// — the cache owns only residency and dirty-tracking, never a codec of its
// own. Replacement is direct-mapped by default, or small-way associative
// when constructed with WithWays.
type Cache struct {
	st      *store.Store
	lines   []*cacheline.Line
	ways    int
	sets    int
	victim  []int
	volume  int
	numAxes int
	closed  bool

	pendingBudget int
}

// Option configures a Cache at construction.
type Option func(*Cache)

// WithWays selects a small-way associative replacement scheme instead of
// the default direct-mapped (ways=1) scheme. Grounded on the two-way
// "line + shadow" probing the original zfp cache2 implementation uses on
// dirty eviction.
func WithWays(ways int) Option {
	return func(c *Cache) {
		if ways > 0 {
			c.ways = ways
		}
	}
}

// WithByteBudget sizes the cache to the largest line count that fits
// within budget bytes, instead of the default O(sqrt(blocksTotal)) sizing.
func WithByteBudget(budget int) Option {
	return func(c *Cache) {
		c.pendingBudget = budget
	}
}

// New constructs a Cache bound to st. st's codec must already be bound; the
// cache never binds or rebinds a codec of its own.
func New(st *store.Store, opts ...Option) (*Cache, error) {
	cc := &Cache{
		st:      st,
		ways:    1,
		volume:  st.Volume(),
		numAxes: st.NumAxes(),
	}

	for _, opt := range opts {
		opt(cc)
	}

	lineCount := defaultLineCount(st.BlocksTotal())
	if cc.pendingBudget > 0 {
		lineCount = lineCountForBudget(cc.pendingBudget, lineBytes(cc.volume))
	}

	cc.allocate(lineCount)

	return cc, nil
}

func (c *Cache) allocate(lineCount int) {
	if c.ways < 1 {
		c.ways = 1
	}

	sets := lineCount / c.ways
	if sets < 1 {
		sets = 1
	}
	total := sets * c.ways

	c.sets = sets
	c.lines = make([]*cacheline.Line, total)
	for i := range c.lines {
		c.lines[i] = cacheline.New(c.volume)
	}
	c.victim = make([]int, sets)
}

func defaultLineCount(blocksTotal int) int {
	n := 1
	for n*n < blocksTotal {
		n *= 2
	}
	if n < 1 {
		n = 1
	}

	return n
}

func lineBytes(volume int) int {
	return volume * 8 // float64 payload, ignoring tag overhead
}

func lineCountForBudget(budget, lineSize int) int {
	if lineSize <= 0 {
		return 1
	}
	n := budget / lineSize
	if n < 1 {
		n = 1
	}

	return n
}

// LineCount reports the number of lines the cache holds, empty or not (its
// capacity in blocks).
func (c *Cache) LineCount() int {
	return len(c.lines)
}

// Close tears down the cache. Dirty lines are not auto-flushed — callers
// that need durability must call Flush first. After Close, Access and Lookup,
// and the Get/Set/Ref/GetBlock/PutBlock operations built on them, return
// errs.ErrCacheClosed; Flush, Clear, Resize, SetRate and DeepCopy do not
// check for a closed cache.
func (c *Cache) Close() {
	c.closed = true
	c.lines = nil
}

// slotSet deterministically maps a block index to a set index. For a
// power-of-two set count this is a cheap mask; otherwise it falls back to
// an xxhash-based modulo so non-power-of-two way configurations stay
// uniform.
func (c *Cache) slotSet(b int) int {
	if c.sets&(c.sets-1) == 0 {
		return b & (c.sets - 1)
	}

	return int(hash.Block(b) % uint64(c.sets))
}

// findInSet returns the line index within the set that currently tags b, or
// -1 if none does.
func (c *Cache) findInSet(set, b int) int {
	base := set * c.ways
	for w := 0; w < c.ways; w++ {
		li := base + w
		t := c.lines[li].Tag()
		if !t.Empty() && t.BlockIndex() == b {
			return li
		}
	}

	return -1
}

// pickVictim selects a line index within the set to evict, round-robin.
func (c *Cache) pickVictim(set int) int {
	w := c.victim[set]
	c.victim[set] = (w + 1) % c.ways

	return set*c.ways + w
}
