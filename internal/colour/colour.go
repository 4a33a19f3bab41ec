// Package colour implements the pixel-to-RGBA styling engine: Colour
// construction, the four ColourDefinition variants, gradients, and the
// materialised Composite used to style a pixel lane.
package colour

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Colour is an RGBA quadruple with channels in [0, 1].
type Colour struct {
	R, G, B, A float64
}

// toByte truncates toward zero, matching the reference implementation's
// `as u8` narrowing-cast semantics (including saturation at the bounds).
func toByte(v float64) uint8 {
	v = v * 255.0
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Trunc(v))
}

// Bytes returns the colour as a truncated [4]uint8.
func (c Colour) Bytes() [4]uint8 {
	return [4]uint8{toByte(c.R), toByte(c.G), toByte(c.B), toByte(c.A)}
}

// FromInts builds a Colour from an integer RGBA quadruple in [0, 255].
func FromInts(r, g, b, a int) Colour {
	return Colour{float64(r) / 255.0, float64(g) / 255.0, float64(b) / 255.0, float64(a) / 255.0}
}

// FromHex parses "#rrggbb" or "#rrggbbaa" (case-insensitive, '#' optional).
// Missing alpha defaults to opaque.
func FromHex(s string) (Colour, error) {
	s = strings.TrimPrefix(s, "#")
	var r, g, b, a uint64
	var err error
	switch len(s) {
	case 6:
		a = 255
	case 8:
	default:
		return Colour{}, fmt.Errorf("colour: invalid hex string %q", s)
	}
	if r, err = strconv.ParseUint(s[0:2], 16, 8); err != nil {
		return Colour{}, fmt.Errorf("colour: invalid hex string %q: %w", s, err)
	}
	if g, err = strconv.ParseUint(s[2:4], 16, 8); err != nil {
		return Colour{}, fmt.Errorf("colour: invalid hex string %q: %w", s, err)
	}
	if b, err = strconv.ParseUint(s[4:6], 16, 8); err != nil {
		return Colour{}, fmt.Errorf("colour: invalid hex string %q: %w", s, err)
	}
	if len(s) == 8 {
		if a, err = strconv.ParseUint(s[6:8], 16, 8); err != nil {
			return Colour{}, fmt.Errorf("colour: invalid hex string %q: %w", s, err)
		}
	}
	return FromInts(int(r), int(g), int(b), int(a)), nil
}

// UnmarshalJSON accepts a hex string, a 4-element float array in [0,1], or a
// 4-element integer array in [0,255] (auto-detected by range).
func (c *Colour) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		parsed, err := FromHex(asString)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var quad [4]float64
	if err := json.Unmarshal(data, &quad); err != nil {
		return fmt.Errorf("colour: expected hex string or 4-element array: %w", err)
	}
	allWhole := true
	anyAboveOne := false
	for _, v := range quad {
		if v != math.Trunc(v) {
			allWhole = false
		}
		if v > 1.0 {
			anyAboveOne = true
		}
	}
	if allWhole && anyAboveOne {
		*c = FromInts(int(quad[0]), int(quad[1]), int(quad[2]), int(quad[3]))
		return nil
	}
	*c = Colour{quad[0], quad[1], quad[2], quad[3]}
	return nil
}

// MarshalJSON emits the 4-element [0,1] float form.
func (c Colour) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{c.R, c.G, c.B, c.A})
}
