package colour

import "sort"

// Gradient linearly interpolates Colour between ordered stops, clamping at
// the endpoints.
type Gradient struct {
	stops  []float64
	colors []Colour
}

// Get returns the interpolated colour at v, clamped to the gradient's range.
func (g Gradient) Get(v float64) Colour {
	if len(g.stops) == 0 {
		return Colour{}
	}
	if v <= g.stops[0] {
		return g.colors[0]
	}
	last := len(g.stops) - 1
	if v >= g.stops[last] {
		return g.colors[last]
	}
	i := sort.SearchFloat64s(g.stops, v)
	if i == 0 {
		return g.colors[0]
	}
	lo, hi := g.stops[i-1], g.stops[i]
	t := (v - lo) / (hi - lo)
	c0, c1 := g.colors[i-1], g.colors[i]
	return Colour{
		R: lerp(c0.R, c1.R, t),
		G: lerp(c0.G, c1.G, t),
		B: lerp(c0.B, c1.B, t),
		A: lerp(c0.A, c1.A, t),
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// MakeGradient places colours at n equally spaced stops in [vmin, vmax].
func MakeGradient(colours []Colour, vmin, vmax float64) Gradient {
	n := len(colours)
	stops := make([]float64, n)
	if n == 1 {
		stops[0] = vmin
	} else {
		for i := 0; i < n; i++ {
			stops[i] = vmin + (vmax-vmin)*float64(i)/float64(n-1)
		}
	}
	return Gradient{stops: stops, colors: append([]Colour(nil), colours...)}
}

// MakeGradientWithBreaks builds a gradient from explicit (value, colour)
// pairs, ordered along the value axis.
func MakeGradientWithBreaks(breaks []float64, colours []Colour) Gradient {
	stops := append([]float64(nil), breaks...)
	colors := append([]Colour(nil), colours...)
	idx := make([]int, len(stops))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return stops[idx[i]] < stops[idx[j]] })
	sortedStops := make([]float64, len(stops))
	sortedColors := make([]Colour, len(colors))
	for i, j := range idx {
		sortedStops[i] = stops[j]
		sortedColors[i] = colors[j]
	}
	return Gradient{stops: sortedStops, colors: sortedColors}
}

// VIRIDIS7 and INFERNO7 are the named 7-stop perceptually-uniform palettes
// offered as built-in gradient names at map registration.
var VIRIDIS7 = []Colour{
	{0.267004, 0.004874, 0.329415, 1},
	{0.267968, 0.223549, 0.512008, 1},
	{0.190631, 0.407061, 0.556089, 1},
	{0.127568, 0.566949, 0.550556, 1},
	{0.20803, 0.718701, 0.472873, 1},
	{0.565498, 0.84243, 0.262877, 1},
	{0.993248, 0.906157, 0.143936, 1},
}

var INFERNO7 = []Colour{
	{0.001462, 0.000466, 0.013866, 1},
	{0.197297, 0.0384, 0.367535, 1},
	{0.472328, 0.110547, 0.428334, 1},
	{0.735683, 0.215906, 0.330245, 1},
	{0.929644, 0.411479, 0.145367, 1},
	{0.986175, 0.713153, 0.103863, 1},
	{0.988362, 0.998364, 0.644924, 1},
}
