package registry

import (
	"fmt"

	"github.com/maprender/maprender/internal/colour"
)

// DiscreteEntry is the wire form of one (key, colour) pair for a Discrete
// ColourDefinition.
type DiscreteEntry struct {
	Key    int           `json:"key"`
	Colour colour.Colour `json:"colour"`
}

// ColourDefinition is the wire representation of one of the four Composite
// variants a registered style may select (spec.md §3 ColourDefinition):
// a named built-in gradient (Name), an explicit equal-spaced gradient
// (Colours), a gradient with explicit value breaks (Colours + Breaks), a
// discrete palette (Discrete), or a 3-band RGB composite (RGBMin/RGBMax).
// Exactly one of these combinations should be set; toComposite resolves
// ambiguity by priority, mirroring style.rs's match order.
type ColourDefinition struct {
	Colours  []colour.Colour `json:"colours,omitempty"`
	Breaks   []float64       `json:"breaks,omitempty"`
	Discrete []DiscreteEntry `json:"discrete,omitempty"`
	RGBMin   *[3]float64     `json:"rgb_min,omitempty"`
	RGBMax   *[3]float64     `json:"rgb_max,omitempty"`
}

// isRGB reports whether this definition selects the RGB variant.
func (cd *ColourDefinition) isRGB() bool {
	return cd != nil && cd.RGBMin != nil && cd.RGBMax != nil
}

// Style is the registration-time style definition, mirroring style.rs's
// Style struct: a named built-in gradient, or an explicit ColourDefinition,
// plus the vmin/vmax/bands shared by every continuous variant. All fields
// are optional; the registry fills defaults per spec.md §4.9 step 6.
type Style struct {
	Name    *string           `json:"name,omitempty"`
	Colours *ColourDefinition `json:"colours,omitempty"`
	Vmin    *float64          `json:"vmin,omitempty"`
	Vmax    *float64          `json:"vmax,omitempty"`
	Bands   []int             `json:"bands,omitempty"`
}

// defaultStyle mirrors style.rs's Default impl: an equal-spaced
// black-to-white gradient over band 1 in [0, 1].
func defaultStyle() Style {
	vmin, vmax := 0.0, 1.0
	return Style{
		Colours: &ColourDefinition{Colours: []colour.Colour{{R: 0, G: 0, B: 0, A: 1}, {R: 1, G: 1, B: 1, A: 1}}},
		Vmin:    &vmin,
		Vmax:    &vmax,
		Bands:   []int{1},
	}
}

// viridisStyle is the default style assigned at registration when no style
// was supplied and the raster has fewer than 3 bands (spec.md §4.9 step 3).
func viridisStyle() Style {
	vmin, vmax := 0.0, 1.0
	name := "viridis"
	return Style{Name: &name, Vmin: &vmin, Vmax: &vmax, Bands: []int{1}}
}

// rgbStyle is the default style assigned at registration when no style was
// supplied and the raster has 3 or more bands (spec.md §4.9 step 3).
func rgbStyle(mins, maxs [3]float64) Style {
	vmin, vmax := 0.0, 1.0
	return Style{
		Colours: &ColourDefinition{RGBMin: &mins, RGBMax: &maxs},
		Vmin:    &vmin,
		Vmax:    &vmax,
		Bands:   []int{1, 2, 3},
	}
}

// isRGB reports whether s selects the RGB composite variant.
func (s Style) isRGB() bool { return s.Colours.isRGB() }

// hasColours reports whether an explicit ColourDefinition was supplied.
// A named built-in gradient (s.Name) does not count: validateBands only
// checks the explicit-colours path, matching state.rs's validate_bands
// match, which dispatches on `Style { colours: Some(_), .. }` and leaves a
// name-only style unvalidated.
func (s Style) hasColours() bool { return s.Colours != nil }

// toComposite materialises s into its Composite, mirroring style.rs's
// `impl From<&Style> for Composite`. s must already have defaults filled in
// (see fillStyle) for Vmin/Vmax/Bands to be meaningful.
func (s Style) toComposite() (colour.Composite, error) {
	vmin, vmax := 0.0, 1.0
	if s.Vmin != nil {
		vmin = *s.Vmin
	}
	if s.Vmax != nil {
		vmax = *s.Vmax
	}

	if s.Name != nil {
		switch *s.Name {
		case "inferno":
			return colour.NewGradient(colour.INFERNO7, vmin, vmax), nil
		default:
			return colour.NewGradient(colour.VIRIDIS7, vmin, vmax), nil
		}
	}

	if s.Colours == nil {
		return colour.NewGradient(colour.VIRIDIS7, vmin, vmax), nil
	}

	cd := s.Colours
	switch {
	case cd.isRGB():
		return colour.NewRGB(*cd.RGBMin, *cd.RGBMax), nil
	case len(cd.Breaks) > 0:
		if len(cd.Breaks) != len(cd.Colours) {
			return colour.Composite{}, fmt.Errorf("registry: colours_and_breaks style needs one colour per break")
		}
		return colour.NewGradientWithBreaks(cd.Breaks, cd.Colours), nil
	case len(cd.Discrete) > 0:
		entries := make([]colour.DiscreteEntry, len(cd.Discrete))
		for i, e := range cd.Discrete {
			entries[i] = colour.DiscreteEntry{Key: e.Key, Colour: e.Colour}
		}
		return colour.NewDiscretePalette(entries), nil
	case len(cd.Colours) > 0:
		return colour.NewCustomGradient(cd.Colours, vmin, vmax), nil
	default:
		return colour.NewGradient(colour.VIRIDIS7, vmin, vmax), nil
	}
}
