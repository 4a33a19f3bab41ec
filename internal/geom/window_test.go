package geom

import (
	"testing"

	"github.com/maprender/maprender/internal/affine"
	"github.com/stretchr/testify/require"
)

func TestIntersectionSymmetryAndIdempotence(t *testing.T) {
	a := Window{ColOff: 0, RowOff: 0, Width: 10, Height: 10}
	b := Window{ColOff: 5, RowOff: 5, Width: 10, Height: 10}

	ab, okAB := Intersection(a, b)
	ba, okBA := Intersection(b, a)
	require.True(t, okAB)
	require.True(t, okBA)
	require.Equal(t, ab, ba)

	aa, okAA := Intersection(a, a)
	require.True(t, okAA)
	require.Equal(t, a, aa)
}

func TestIntersectionDisjointIsAbsent(t *testing.T) {
	a := Window{ColOff: 0, RowOff: 0, Width: 10, Height: 10}
	b := Window{ColOff: 100, RowOff: 100, Width: 10, Height: 10}
	_, ok := Intersection(a, b)
	require.False(t, ok)
}

func TestMulRowShiftQuirk(t *testing.T) {
	w := Window{ColOff: 0, RowOff: 0, Width: 100, Height: 100}
	got := w.Mul(1.02)
	require.Equal(t, Window{ColOff: -1, RowOff: -1, Width: 102, Height: 102}, got)
}

func TestMulRowShiftQuirkNonSquare(t *testing.T) {
	// Documented quirk: the row shift is computed from the width delta, not
	// the height delta. A non-square window exposes the discrepancy: the
	// row offset tracks the column offset rather than scaling with height.
	w := Window{ColOff: 0, RowOff: 0, Width: 100, Height: 50}
	got := w.Mul(1.1)
	require.Equal(t, 111, got.Width)
	require.Equal(t, 56, got.Height)
	require.Equal(t, got.ColOff, got.RowOff)
}

func TestBounds(t *testing.T) {
	geo := affine.GeoTransform{A: 1, B: 0, C: 0, D: 0, E: -1, F: 100}
	w := Window{ColOff: 10, RowOff: 10, Width: 20, Height: 20}
	left, top, right, bottom := w.Bounds(geo)
	require.InDelta(t, 10, left, 1e-9)
	require.InDelta(t, 30, right, 1e-9)
	require.InDelta(t, 90, top, 1e-9)
	require.InDelta(t, 70, bottom, 1e-9)
}
