// Package cacheline holds one decompressed block plus its tag: the
// sentinel-biased block index and dirty flag that drive the block cache's
// write-back state machine.
package cacheline

import (
	"github.com/koderoot/arraycache/shape"
	"github.com/koderoot/arraycache/tile"
)

// Tag identifies which block (if any) a cache line currently holds, and
// whether its contents have been written since the last encode. The block
// index is stored biased by one so the zero value means empty.
type Tag struct {
	indexPlus1 int
	dirty      bool
}

// EmptyTag is the tag of a line that holds no block.
var EmptyTag = Tag{}

// Empty reports whether the tag refers to no block.
func (t Tag) Empty() bool {
	return t.indexPlus1 == 0
}

// Index returns the raw, one-biased stored value (0 means empty). Exposed
// primarily for tests; callers wanting a block index should use BlockIndex.
func (t Tag) Index() int {
	return t.indexPlus1
}

// BlockIndex returns the block index this tag refers to. Only meaningful
// when !Empty().
func (t Tag) BlockIndex() int {
	return t.indexPlus1 - 1
}

// Dirty reports whether the line's payload has been written since the
// block was last encoded into the store.
func (t Tag) Dirty() bool {
	return t.dirty
}

// TagFor builds a non-empty tag for blockIndex with the given dirty state.
func TagFor(blockIndex int, dirty bool) Tag {
	return Tag{indexPlus1: blockIndex + 1, dirty: dirty}
}

// Line holds one decompressed block's scalars in row-major local order
// (axis 0 fastest), plus its tag.
type Line struct {
	Data []float64
	tag  Tag
}

// New allocates a Line sized for blockVolume scalars, initially empty.
func New(blockVolume int) *Line {
	return &Line{Data: make([]float64, blockVolume)}
}

// Tag returns the line's current tag.
func (l *Line) Tag() Tag {
	return l.tag
}

// SetTag replaces the line's tag.
func (l *Line) SetTag(t Tag) {
	l.tag = t
}

// localIndex maps a coordinate's low two bits per axis to a row-major local
// tile index.
func localIndex(numAxes int, coord shape.Coord) int {
	idx := 0
	mult := 1
	for axis := 0; axis < numAxes; axis++ {
		idx += (coord[axis] & 0x3) * mult
		mult *= shape.LaneWidth
	}

	return idx
}

// Get reads the scalar at coord (block-local low bits only).
func (l *Line) Get(numAxes int, coord shape.Coord) float64 {
	return l.Data[localIndex(numAxes, coord)]
}

// Set writes the scalar at coord (block-local low bits only) and marks the
// line dirty.
func (l *Line) Set(numAxes int, coord shape.Coord, v float64) {
	l.Data[localIndex(numAxes, coord)] = v
	l.tag.dirty = true
}

// GetStrided copies the line's valid lanes into an external strided buffer.
func (l *Line) GetStrided(numAxes int, dst []float64, offset int, strides shape.Coord, shp shape.BlockShape) {
	tile.Scatter(numAxes, l.Data, dst, offset, strides, shp)
}

// PutStrided copies an external strided buffer's valid lanes into the line
// and marks it dirty.
func (l *Line) PutStrided(numAxes int, src []float64, offset int, strides shape.Coord, shp shape.BlockShape) {
	tile.Gather(numAxes, src, offset, strides, l.Data, shp)
	l.tag.dirty = true
}
