// Package geom implements the pixel-space Window used to describe reads
// against a raster, including boundless reads that extend past its edges.
package geom

import (
	"math"

	"github.com/maprender/maprender/internal/affine"
)

// Window is a half-open pixel rectangle. ColOff/RowOff are signed: a window
// may start before the raster origin or extend past its far edge, encoding
// "read beyond the edge, fill the rest".
type Window struct {
	ColOff, RowOff int
	Width, Height  int
}

// IsZero reports whether the window has zero area.
func (w Window) IsZero() bool {
	return w.Width == 0 || w.Height == 0
}

// ToRanges returns [colStart, colEnd) and [rowStart, rowEnd).
func (w Window) ToRanges() (colStart, colEnd, rowStart, rowEnd int) {
	return w.ColOff, w.ColOff + w.Width, w.RowOff, w.RowOff + w.Height
}

// Intersects reports whether w and other overlap.
func (w Window) Intersects(other Window) bool {
	return !pairwiseIntersection(w, other).IsZero()
}

// pairwiseIntersection computes the intersection of two windows. Yields an
// all-zero window when they are disjoint or either is empty.
func pairwiseIntersection(a, b Window) Window {
	if a.IsZero() || b.IsZero() {
		return Window{}
	}
	aCol0, aCol1, aRow0, aRow1 := a.ToRanges()
	bCol0, bCol1, bRow0, bRow1 := b.ToRanges()

	col0 := max(aCol0, bCol0)
	col1 := min(aCol1, bCol1)
	row0 := max(aRow0, bRow0)
	row1 := min(aRow1, bRow1)

	if col1 <= col0 || row1 <= row0 {
		return Window{}
	}
	return Window{ColOff: col0, RowOff: row0, Width: col1 - col0, Height: row1 - row0}
}

// Intersection folds pairwise intersection across a list of windows. Returns
// false (absent) when the set of windows has empty intersection.
func Intersection(windows ...Window) (Window, bool) {
	if len(windows) == 0 {
		return Window{}, false
	}
	acc := windows[0]
	for _, w := range windows[1:] {
		acc = pairwiseIntersection(acc, w)
		if acc.IsZero() {
			return Window{}, false
		}
	}
	return acc, true
}

// Bounds applies geo to each corner and returns (left, top, right, bottom).
func (w Window) Bounds(geo affine.GeoTransform) (left, top, right, bottom float64) {
	colStart, colEnd, rowStart, rowEnd := w.ToRanges()
	x0, y0 := geo.Apply(float64(colStart), float64(rowStart))
	x1, y1 := geo.Apply(float64(colEnd), float64(rowEnd))
	left = math.Min(x0, x1)
	right = math.Max(x0, x1)
	top = math.Max(y0, y1)
	bottom = math.Min(y0, y1)
	return
}

// GeoTransform returns a new geotransform translated so that the window's
// (col_off, row_off) becomes the origin, preserving pixel size and skew.
func (w Window) GeoTransform(geo affine.GeoTransform) affine.GeoTransform {
	origin := affine.Translation(float64(w.ColOff), float64(w.RowOff))
	return geo.Compose(origin)
}

// Mul scales the window by a positive scalar k, inflating its size by
// (ceil(k*w), ceil(k*h)) about its centre.
//
// This reproduces a documented quirk of the reference implementation: the
// row shift reuses the *width* delta instead of the height delta. That is
// not a mistake in this port — it is replicated literally for bit
// compatibility with the system being modeled. See TestMulRowShiftQuirk in
// window_test.go for the exact documented case.
func (w Window) Mul(k float64) Window {
	newWidth := int(math.Ceil(float64(w.Width) * k))
	newHeight := int(math.Ceil(float64(w.Height) * k))
	widthDelta := newWidth - w.Width
	colShift := widthDelta / 2
	rowShift := widthDelta / 2 // quirk: width delta reused for the row axis
	return Window{
		ColOff: w.ColOff - colShift,
		RowOff: w.RowOff - rowShift,
		Width:  newWidth,
		Height: newHeight,
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
