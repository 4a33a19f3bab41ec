// Package affine implements the 2x3 affine transform between pixel (col,row)
// and world (x,y) coordinates used throughout the tile rendering pipeline.
package affine

import "math"

// rowcolEpsilon nudges on-boundary world coordinates into the expected pixel
// cell before flooring. Matches the reference implementation's bias exactly.
const rowcolEpsilon = 2.220446049250313e-16

// GeoTransform maps pixel (col, row) to world (x, y) via
//
//	x = a*col + b*row + c
//	y = d*col + e*row + f
type GeoTransform struct {
	A, B, C float64
	D, E, F float64
}

// FromGDAL builds a GeoTransform from GDAL's native ordering
// [c, a, b, f, d, e].
func FromGDAL(g [6]float64) GeoTransform {
	return GeoTransform{
		C: g[0], A: g[1], B: g[2],
		F: g[3], D: g[4], E: g[5],
	}
}

// ToGDAL returns the transform in GDAL's [c, a, b, f, d, e] ordering.
func (g GeoTransform) ToGDAL() [6]float64 {
	return [6]float64{g.C, g.A, g.B, g.F, g.D, g.E}
}

// Translation returns a pure-translation transform to (x, y).
func Translation(x, y float64) GeoTransform {
	return GeoTransform{A: 1, B: 0, C: x, D: 0, E: 1, F: y}
}

// Scale returns a pure-scale transform.
func Scale(sx, sy float64) GeoTransform {
	return GeoTransform{A: sx, B: 0, C: 0, D: 0, E: sy, F: 0}
}

// Shear returns a shear transform; angles are in degrees.
func Shear(xDeg, yDeg float64) GeoTransform {
	return GeoTransform{
		A: 1, B: math.Tan(xDeg * math.Pi / 180), C: 0,
		D: math.Tan(yDeg * math.Pi / 180), E: 1, F: 0,
	}
}

// Determinant returns a*e - b*d.
func (g GeoTransform) Determinant() float64 {
	return g.A*g.E - g.B*g.D
}

// AffineError reports a singular transform on inversion.
type AffineError struct{ msg string }

func (e *AffineError) Error() string { return e.msg }

// Inverse returns the inverse transform. Fails iff the determinant is
// exactly 0.0.
func (g GeoTransform) Inverse() (GeoTransform, error) {
	det := g.Determinant()
	if det == 0.0 {
		return GeoTransform{}, &AffineError{"Determinant is zero"}
	}
	ia := g.E / det
	ib := -g.B / det
	id := -g.D / det
	ie := g.A / det
	ic := -(ia*g.C + ib*g.F)
	if_ := -(id*g.C + ie*g.F)
	return GeoTransform{A: ia, B: ib, C: ic, D: id, E: ie, F: if_}, nil
}

// Compose returns the matrix product self ∘ other: applying the result to a
// point is equivalent to applying other, then self.
func (g GeoTransform) Compose(other GeoTransform) GeoTransform {
	return GeoTransform{
		A: g.A*other.A + g.B*other.D,
		B: g.A*other.B + g.B*other.E,
		C: g.A*other.C + g.B*other.F + g.C,
		D: g.D*other.A + g.E*other.D,
		E: g.D*other.B + g.E*other.E,
		F: g.D*other.C + g.E*other.F + g.F,
	}
}

// Apply maps a pixel-space point to world coordinates.
func (g GeoTransform) Apply(col, row float64) (x, y float64) {
	return g.A*col + g.B*row + g.C, g.D*col + g.E*row + g.F
}

// XY returns the centre-of-pixel world coordinate for (row, col).
func (g GeoTransform) XY(row, col int) (x, y float64) {
	return g.Apply(float64(col)+0.5, float64(row)+0.5)
}

// RowCol returns the signed integer pixel cell containing world point
// (x, y), biasing on-boundary coordinates with a tiny epsilon before
// flooring.
func (g GeoTransform) RowCol(x, y float64) (row, col int, err error) {
	inv, err := g.Inverse()
	if err != nil {
		return 0, 0, err
	}
	col64, row64 := inv.Apply(x+rowcolEpsilon, y+rowcolEpsilon)
	return int(math.Floor(row64)), int(math.Floor(col64)), nil
}
