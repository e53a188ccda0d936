// Package tile moves scalars between a block's contiguous local storage
// (row-major, axis 0 fastest, laid out the way shape.IsValidLocal expects)
// and an external strided buffer addressed by per-axis strides. Gather
// reads valid lanes out of the external buffer into a contiguous tile;
// Scatter writes a contiguous tile's valid lanes back out.
package tile

import "github.com/koderoot/arraycache/shape"

// Gather copies the valid lanes of a block into dst (length shape.Volume(numAxes)),
// reading from src at offset with per-axis strides. Invalid lanes of dst are
// left untouched.
func Gather(numAxes int, src []float64, offset int, strides shape.Coord, dst []float64, shp shape.BlockShape) {
	total := shape.Volume(numAxes)
	shape.ForEachValid(numAxes, shp, total, func(li int) {
		dst[li] = src[offset+localOffset(numAxes, li, strides)]
	})
}

// Scatter copies the valid lanes of src (length shape.Volume(numAxes)) into
// dst at offset with per-axis strides. Invalid lanes of dst are left
// untouched.
func Scatter(numAxes int, src []float64, dst []float64, offset int, strides shape.Coord, shp shape.BlockShape) {
	total := shape.Volume(numAxes)
	shape.ForEachValid(numAxes, shp, total, func(li int) {
		dst[offset+localOffset(numAxes, li, strides)] = src[li]
	})
}

// localOffset decomposes row-major local tile index li (axis 0 fastest)
// into per-axis local coordinates and projects them through strides.
func localOffset(numAxes int, li int, strides shape.Coord) int {
	off := 0
	for axis := 0; axis < numAxes; axis++ {
		off += (li % shape.LaneWidth) * strides[axis]
		li /= shape.LaneWidth
	}

	return off
}
