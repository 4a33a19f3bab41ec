// Command debug dumps a Cloud-Optimized GeoTIFF's structure for manual
// inspection: georeferencing, the IFD/overview pyramid, and a sample tile
// read at each level. It supersedes the former separate cmd/coginfo tool,
// whose output this folds in under the same flag.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/maprender/maprender/internal/cog"
)

func main() {
	deep := flag.Bool("deep", false, "also dump raw IFD metadata and a band-window float read")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: debug [-deep] <file.tif>\n")
		os.Exit(1)
	}
	path := flag.Arg(0)

	r, err := cog.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", path, err)
		os.Exit(1)
	}
	defer r.Close()

	fmt.Printf("File: %s\n", path)
	fmt.Printf("IsFloat: %v\n", r.IsFloat())
	fmt.Printf("EPSG: %d\n", r.EPSG())
	fmt.Printf("NoData: %q\n", r.NoData())
	fmt.Printf("Full-res size: %d x %d\n", r.Width(), r.Height())
	fmt.Printf("Pixel size (CRS units): %f\n", r.PixelSize())
	fmt.Printf("IFD count: %d (1 full-res + %d overviews)\n", r.IFDCount(), r.NumOverviews())

	geo := r.GeoInfo()
	fmt.Printf("Origin: X=%f, Y=%f\n", geo.OriginX, geo.OriginY)

	minX, minY, maxX, maxY := r.BoundsInCRS()
	fmt.Printf("Bounds (CRS): X=[%f, %f], Y=[%f, %f]\n", minX, maxX, minY, maxY)

	for level := 0; level < r.IFDCount(); level++ {
		ts := r.IFDTileSize(level)
		w := r.IFDWidth(level)
		h := r.IFDHeight(level)
		ps := r.IFDPixelSize(level)
		fmt.Printf("\n  IFD %d: %dx%d, tile %dx%d, pixel size=%f\n", level, w, h, ts[0], ts[1], ps)

		if *deep {
			info := r.DebugIFD(level)
			fmt.Printf("  compression=%d, spp=%d, bps=%v, sampleFormat=%v, predictor=%d\n",
				info.Compression, info.SamplesPerPixel, info.BitsPerSample, info.SampleFormat, info.Predictor)
			fmt.Printf("  tiles: %d (offsets), %d (bytecounts)\n", len(info.TileOffsets), len(info.TileByteCounts))
		}

		tile, err := r.ReadTile(level, 0, 0)
		if err != nil {
			fmt.Printf("  ReadTile(level=%d, 0, 0): ERROR: %v\n", level, err)
			continue
		}
		bounds := tile.Bounds()
		fmt.Printf("  ReadTile(level=%d, 0, 0): OK, image: %dx%d, type: %T\n", level, bounds.Dx(), bounds.Dy(), tile)
		if level == 0 {
			samplePixels(tile, 5)
		}
	}

	if *deep {
		fmt.Println("\n--- Band window float read (level 0, band 0, 0,0, 16x16) ---")
		data, w, h, err := r.ReadBandWindowF64(0, 0, 0, 0, 16, 16)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
		} else {
			fmt.Printf("Read %dx%d, %d values, first=%v\n", w, h, len(data), data[:min(4, len(data))])
		}
	}
}

func samplePixels(img image.Image, count int) {
	b := img.Bounds()
	step := b.Dx() / (count + 1)
	if step < 1 {
		step = 1
	}
	fmt.Printf("  Sample pixels (diagonal):\n")
	for i := 0; i < count; i++ {
		x := b.Min.X + (i+1)*step
		y := b.Min.Y + (i+1)*step
		if x >= b.Max.X || y >= b.Max.Y {
			break
		}
		rr, g, bb, a := img.At(x, y).RGBA()
		fmt.Printf("    (%d,%d): R=%d G=%d B=%d A=%d\n", x, y, rr>>8, g>>8, bb>>8, a>>8)
	}
}
