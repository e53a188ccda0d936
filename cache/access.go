package cache

import (
	"fmt"

	"github.com/koderoot/arraycache/cacheline"
	"github.com/koderoot/arraycache/internal/errs"
)

// writeBack encodes line's payload into the store if it is dirty and
// tagged, then clears its tag to empty.
func (c *Cache) writeBack(line *cacheline.Line) error {
	t := line.Tag()
	if t.Empty() {
		return nil
	}

	if t.Dirty() {
		if err := c.st.EncodeContiguous(t.BlockIndex(), line.Data); err != nil {
			return fmt.Errorf("cache: write-back of block %d failed: %w", t.BlockIndex(), err)
		}
	}

	line.SetTag(cacheline.EmptyTag)

	return nil
}

// fetch decodes block b from the store into line and tags it clean.
func (c *Cache) fetch(b int, line *cacheline.Line) error {
	if err := c.st.DecodeContiguous(b, line.Data); err != nil {
		return fmt.Errorf("cache: fetch of block %d failed: %w", b, err)
	}

	line.SetTag(cacheline.TagFor(b, false))

	return nil
}

// Access is the low-level eviction boundary: it selects the line assigned
// to b, writes back a displaced dirty line if one occupies that slot,
// fetches b if it isn't already resident, and marks the tag for the
// requested access mode. It returns the line and the tag the line held on
// entry (before Access's own mutation), so callers can observe exactly
// what was evicted.
func (c *Cache) Access(b int, write bool) (*cacheline.Line, cacheline.Tag, error) {
	if c.closed {
		return nil, cacheline.Tag{}, errs.ErrCacheClosed
	}

	set := c.slotSet(b)
	li := c.findInSet(set, b)
	if li < 0 {
		li = c.pickVictim(set)
	}

	line := c.lines[li]
	priorTag := line.Tag()

	if priorTag.Empty() || priorTag.BlockIndex() != b {
		if err := c.writeBack(line); err != nil {
			return nil, priorTag, err
		}
		if err := c.fetch(b, line); err != nil {
			return nil, priorTag, err
		}
	}

	dirty := write || line.Tag().Dirty()
	line.SetTag(cacheline.TagFor(b, dirty))

	return line, priorTag, nil
}

// Lookup probes for block b without decoding. With create=false it returns
// the resident line iff b is currently tagged and non-empty. With
// create=true it selects (allocating/evicting as needed) a line for b,
// performing any required write-back of a displaced dirty line, but never
// decodes b's contents — the caller must fully overwrite the line's data
// before relying on it. This is what GetBlock/PutBlock use to avoid paying
// for a decode or encode they don't need.
func (c *Cache) Lookup(b int, create bool) (*cacheline.Line, bool, error) {
	if c.closed {
		return nil, false, errs.ErrCacheClosed
	}

	set := c.slotSet(b)
	li := c.findInSet(set, b)
	if li >= 0 {
		return c.lines[li], true, nil
	}

	if !create {
		return nil, false, nil
	}

	li = c.pickVictim(set)
	line := c.lines[li]
	if err := c.writeBack(line); err != nil {
		return nil, false, err
	}
	line.SetTag(cacheline.TagFor(b, false))

	return line, false, nil
}
