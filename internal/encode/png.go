// Package encode serialises a styled tile image to its wire format.
package encode

import (
	"bytes"
	"image"
	"image/png"
)

// PNGEncoder encodes tiles as PNG.
type PNGEncoder struct{}

// Encode writes img as an 8-bit PNG, favouring encode speed over size since
// tiles are generated on every request rather than once per archive.
func (e *PNGEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *PNGEncoder) Format() string        { return "png" }
func (e *PNGEncoder) FileExtension() string { return ".png" }
