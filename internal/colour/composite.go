package colour

import (
	"fmt"
	"math"
)

// Kind discriminates the ColourDefinition variants.
type Kind int

const (
	Discrete Kind = iota
	Colours
	ColoursAndBreaks
	RGB
)

// DiscreteEntry is a (key, colour) pair for the Discrete variant.
type DiscreteEntry struct {
	Key    int
	Colour Colour
}

// Composite is the materialised styling object. It is immutable once built.
type Composite struct {
	kind Kind

	// Discrete
	discrete map[int]Colour

	// Colours / ColoursAndBreaks
	gradient Gradient

	// RGB
	vminRGB, vmaxRGB [3]float64

	// Bands declares how many input bands Get expects.
	Bands int
}

// NewDiscretePalette builds a Discrete composite. Unknown keys map to fully
// transparent black.
func NewDiscretePalette(entries []DiscreteEntry) Composite {
	m := make(map[int]Colour, len(entries))
	for _, e := range entries {
		m[e.Key] = e.Colour
	}
	return Composite{kind: Discrete, discrete: m, Bands: 1}
}

// NewGradient places colours at n equally spaced stops in [vmin, vmax].
func NewGradient(colours []Colour, vmin, vmax float64) Composite {
	return Composite{kind: Colours, gradient: MakeGradient(colours, vmin, vmax), Bands: 1}
}

// NewCustomGradient is an alias for NewGradient kept for parity with the
// reference implementation's named constructor for user-supplied colour
// lists (as opposed to the built-in viridis/inferno palettes).
func NewCustomGradient(colours []Colour, vmin, vmax float64) Composite {
	return NewGradient(colours, vmin, vmax)
}

// NewGradientWithBreaks builds a ColoursAndBreaks composite from explicit
// (value, colour) stops.
func NewGradientWithBreaks(breaks []float64, colours []Colour) Composite {
	return Composite{kind: ColoursAndBreaks, gradient: MakeGradientWithBreaks(breaks, colours), Bands: 1}
}

// NewRGB builds an RGB composite clamping each of 3 input bands linearly to
// [0, 1] using the given per-band (vmin, vmax).
func NewRGB(vmin, vmax [3]float64) Composite {
	return Composite{kind: RGB, vminRGB: vmin, vmaxRGB: vmax, Bands: 3}
}

// IsContiguous reports whether the composite operates on a single numeric
// band (true for everything except RGB).
func (c Composite) IsContiguous() bool { return c.kind != RGB }

// noDataEpsilon matches Rust's f64::EPSILON (the gap between 1.0 and the
// next representable f64), which cmap.rs's gradient_handle compares against
// literally; spec.md §4.7 only requires "< epsilon" without pinning a value.
const noDataEpsilon = 2.220446049250313e-16

// Get produces [4]uint8 RGBA from the pixel lane `values`. noData, when
// non-nil, must match the band count for the variant or Get panics — this
// mirrors the reference implementation's fatal-on-programmer-error policy.
func (c Composite) Get(values []float64, noData []float64) [4]uint8 {
	switch c.kind {
	case Discrete:
		k := int(math.Trunc(values[0]))
		col, ok := c.discrete[k]
		if !ok {
			return [4]uint8{0, 0, 0, 0}
		}
		return col.Bytes()

	case Colours, ColoursAndBreaks:
		if noData != nil {
			if len(noData) != 1 {
				panic(fmt.Sprintf("To use a %s style you need to provide 1 no_data value(s)", kindName(c.kind)))
			}
		}
		col := c.gradient.Get(values[0])
		b := col.Bytes()
		if noData != nil && math.Abs(values[0]-noData[0]) < noDataEpsilon {
			b[3] = 0
		}
		return b

	case RGB:
		if noData != nil && len(noData) != 3 {
			panic("To use a RGB style you need to provide 3 no_data value(s)")
		}
		var out [4]uint8
		allNoData := noData != nil
		for i := 0; i < 3; i++ {
			v := values[i]
			lo, hi := c.vminRGB[i], c.vmaxRGB[i]
			t := (v - lo) / (hi - lo)
			if t < 0 {
				t = 0
			}
			if t > 1 {
				t = 1
			}
			out[i] = toByte(t)
			if noData == nil || v != noData[i] {
				allNoData = false
			}
		}
		if allNoData {
			out[3] = 0
		} else {
			out[3] = 255
		}
		return out
	}
	panic("colour: unreachable composite kind")
}

func kindName(k Kind) string {
	switch k {
	case Discrete:
		return "Discrete"
	case Colours:
		return "Colours"
	case ColoursAndBreaks:
		return "ColoursAndBreaks"
	case RGB:
		return "RGB"
	default:
		return "unknown"
	}
}
