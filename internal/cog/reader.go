// Package cog implements a pure-Go reader for Cloud-Optimized GeoTIFF and
// plain GeoTIFF files: IFD parsing, tile/strip decode, LZW/Deflate/JPEG
// decompression, predictor undo, and memory-mapped concurrent access. It is
// the decode engine behind the geotiff raster-access provider.
package cog

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"
	"os"
)

// Reader provides tile-level access to a COG/GeoTIFF file. The file is
// memory-mapped for lock-free concurrent access; callers must not share a
// single Reader's Close lifecycle across goroutines that still read from it.
type Reader struct {
	data  []byte // memory-mapped file contents
	bo    binary.ByteOrder
	ifds  []IFD
	geo   GeoInfo
	path  string
	strip *stripLayout // non-nil for strip-based TIFFs promoted to virtual tiles
}

// stripLayout stores the original strip layout for strip-based TIFFs.
// Virtual tiles are composed from multiple strips at read time.
type stripLayout struct {
	offsets       []uint64
	byteCounts    []uint64
	rowsPerStrip  uint32
	stripsPerTile int
}

// Open opens a COG/GeoTIFF file by memory-mapping it and parsing its
// structure. If a TFW (TIFF World File) sidecar is found, it is used for
// georeferencing when the TIFF lacks embedded GeoTIFF tags. Strip-based
// TIFFs are supported by converting the strip layout into a virtual tile
// layout.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	size := fi.Size()
	if size == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	data, err := mmapFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	ifds, bo, err := parseTIFF(bytes.NewReader(data))
	if err != nil {
		munmapFile(data)
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if len(ifds) == 0 {
		munmapFile(data)
		return nil, fmt.Errorf("%s: no IFDs found", path)
	}

	first := &ifds[0]

	var sl *stripLayout
	if first.TileWidth == 0 || first.TileHeight == 0 {
		if len(first.StripOffsets) > 0 {
			sl = promoteStripsToTiles(first)
		} else {
			munmapFile(data)
			return nil, fmt.Errorf("%s: no tile or strip layout found", path)
		}
	}

	switch first.Compression {
	case 1, 5, 7, 8, 32946:
		// Supported: None, LZW, JPEG, Deflate
	default:
		munmapFile(data)
		return nil, fmt.Errorf("%s: unsupported compression type %d", path, first.Compression)
	}

	geo := parseGeoInfo(first)

	if geo.PixelSizeX == 0 && geo.PixelSizeY == 0 {
		if tfwPath := findTFW(path); tfwPath != "" {
			tfw, err := parseTFW(tfwPath)
			if err != nil {
				munmapFile(data)
				return nil, err
			}
			geo = tfw.toGeoInfo()
		}
	}

	if geo.EPSG == 0 && geo.PixelSizeX > 0 {
		geo.EPSG = inferEPSG(geo, first.Width, first.Height)
	}

	return &Reader{
		data:  data,
		bo:    bo,
		ifds:  ifds,
		geo:   geo,
		path:  path,
		strip: sl,
	}, nil
}

// promoteStripsToTiles converts a strip-based IFD into a virtual tile
// layout. Small strips are grouped into larger virtual tiles (>= 256 rows)
// so that resampling kernels never span more than 2 tiles.
func promoteStripsToTiles(ifd *IFD) *stripLayout {
	rps := ifd.RowsPerStrip
	if rps == 0 {
		rps = ifd.Height
	}

	const minTileHeight = 256
	stripsPerTile := 1
	if rps < minTileHeight {
		stripsPerTile = int((minTileHeight + rps - 1) / rps)
	}
	virtualTileH := rps * uint32(stripsPerTile)

	totalStrips := len(ifd.StripOffsets)
	numVirtualTiles := (totalStrips + stripsPerTile - 1) / stripsPerTile

	virtualOffsets := make([]uint64, numVirtualTiles)
	virtualByteCounts := make([]uint64, numVirtualTiles)
	for i := 0; i < numVirtualTiles; i++ {
		startStrip := i * stripsPerTile
		virtualOffsets[i] = ifd.StripOffsets[startStrip]
		var totalBytes uint64
		endStrip := startStrip + stripsPerTile
		if endStrip > totalStrips {
			endStrip = totalStrips
		}
		for s := startStrip; s < endStrip; s++ {
			totalBytes += ifd.StripByteCounts[s]
		}
		virtualByteCounts[i] = totalBytes
	}

	sl := &stripLayout{
		offsets:       ifd.StripOffsets,
		byteCounts:    ifd.StripByteCounts,
		rowsPerStrip:  rps,
		stripsPerTile: stripsPerTile,
	}

	ifd.TileWidth = ifd.Width
	ifd.TileHeight = virtualTileH
	ifd.TileOffsets = virtualOffsets
	ifd.TileByteCounts = virtualByteCounts

	return sl
}

// Close unmaps the memory-mapped file.
func (r *Reader) Close() error {
	if r.data != nil {
		err := munmapFile(r.data)
		r.data = nil
		return err
	}
	return nil
}

// Path returns the file path.
func (r *Reader) Path() string { return r.path }

// GeoInfo returns the parsed geographic metadata.
func (r *Reader) GeoInfo() GeoInfo { return r.geo }

// Width returns the full-resolution image width.
func (r *Reader) Width() int { return int(r.ifds[0].Width) }

// Height returns the full-resolution image height.
func (r *Reader) Height() int { return int(r.ifds[0].Height) }

// BandCount returns the number of samples per pixel.
func (r *Reader) BandCount() int { return int(r.ifds[0].SamplesPerPixel) }

// PixelSize returns the pixel size in CRS units (from the first IFD).
func (r *Reader) PixelSize() float64 { return r.geo.PixelSizeX }

// NumOverviews returns the number of overview levels (IFDs beyond the first).
func (r *Reader) NumOverviews() int { return len(r.ifds) - 1 }

// IFDCount returns the total number of IFDs.
func (r *Reader) IFDCount() int { return len(r.ifds) }

// BoundsInCRS returns the bounding box in the source CRS.
func (r *Reader) BoundsInCRS() (minX, minY, maxX, maxY float64) {
	ifd := &r.ifds[0]
	minX = r.geo.OriginX
	maxY = r.geo.OriginY
	maxX = minX + float64(ifd.Width)*r.geo.PixelSizeX
	minY = maxY - float64(ifd.Height)*r.geo.PixelSizeY
	return
}

// EPSG returns the detected EPSG code.
func (r *Reader) EPSG() int { return r.geo.EPSG }

// readTileRaw reads and decompresses raw tile bytes at the given column and
// row, undoing the horizontal-differencing predictor if present. Returns
// the raw (decompressed, de-predicted) bytes and the IFD for that level.
func (r *Reader) readTileRaw(level, col, row int) ([]byte, *IFD, error) {
	if level < 0 || level >= len(r.ifds) {
		return nil, nil, fmt.Errorf("invalid IFD level %d (have %d)", level, len(r.ifds))
	}

	ifd := &r.ifds[level]
	tilesAcross := ifd.TilesAcross()
	tilesDown := ifd.TilesDown()

	if col < 0 || col >= tilesAcross || row < 0 || row >= tilesDown {
		return nil, nil, fmt.Errorf("tile (%d,%d) out of range (%dx%d)", col, row, tilesAcross, tilesDown)
	}

	if r.strip != nil && level == 0 {
		return r.readStripTileRaw(ifd, row)
	}

	tileIdx := row*tilesAcross + col
	if tileIdx >= len(ifd.TileOffsets) || tileIdx >= len(ifd.TileByteCounts) {
		return nil, nil, fmt.Errorf("tile index %d out of range", tileIdx)
	}

	offset := ifd.TileOffsets[tileIdx]
	size := ifd.TileByteCounts[tileIdx]

	if size == 0 {
		return nil, ifd, nil // empty tile
	}

	end := offset + size
	if end > uint64(len(r.data)) {
		return nil, nil, fmt.Errorf("tile data [%d:%d] exceeds file size %d", offset, end, len(r.data))
	}

	data := r.data[offset:end]

	var decompressed []byte
	switch ifd.Compression {
	case 7: // JPEG — decoded separately by decodeJPEGTile
		return data, ifd, nil
	case 1:
		decompressed = data
	case 8, 32946:
		dec, err := decompressDeflate(data)
		if err != nil {
			return nil, nil, fmt.Errorf("decompressing deflate tile: %w", err)
		}
		decompressed = dec
	case 5:
		dec, err := decompressLZW(data)
		if err != nil {
			return nil, nil, fmt.Errorf("decompressing LZW tile: %w", err)
		}
		decompressed = dec
	default:
		return nil, nil, fmt.Errorf("unsupported compression: %d", ifd.Compression)
	}

	if ifd.Predictor == 2 {
		undoHorizontalDifferencing(decompressed, int(ifd.TileWidth), int(ifd.SamplesPerPixel))
	}
	return decompressed, ifd, nil
}

// readStripTileRaw reads the strips that compose a virtual tile row and
// returns the concatenated, decompressed bytes.
func (r *Reader) readStripTileRaw(ifd *IFD, tileRow int) ([]byte, *IFD, error) {
	sl := r.strip
	startStrip := tileRow * sl.stripsPerTile
	endStrip := startStrip + sl.stripsPerTile
	if endStrip > len(sl.offsets) {
		endStrip = len(sl.offsets)
	}

	var combined []byte

	for s := startStrip; s < endStrip; s++ {
		offset := sl.offsets[s]
		size := sl.byteCounts[s]
		if size == 0 {
			continue
		}
		end := offset + size
		if end > uint64(len(r.data)) {
			return nil, nil, fmt.Errorf("strip %d data [%d:%d] exceeds file size %d", s, offset, end, len(r.data))
		}

		chunk := r.data[offset:end]

		switch ifd.Compression {
		case 1, 7:
			combined = append(combined, chunk...)
		case 8, 32946:
			dec, err := decompressDeflate(chunk)
			if err != nil {
				return nil, nil, fmt.Errorf("decompressing deflate strip %d: %w", s, err)
			}
			combined = append(combined, dec...)
		case 5:
			dec, err := decompressLZW(chunk)
			if err != nil {
				return nil, nil, fmt.Errorf("decompressing LZW strip %d: %w", s, err)
			}
			combined = append(combined, dec...)
		default:
			return nil, nil, fmt.Errorf("unsupported compression: %d", ifd.Compression)
		}
	}

	if len(combined) == 0 {
		return nil, ifd, nil
	}

	if ifd.Predictor == 2 {
		undoHorizontalDifferencing(combined, int(ifd.Width), int(ifd.SamplesPerPixel))
	}
	return combined, ifd, nil
}

// undoHorizontalDifferencing reverses TIFF predictor=2 (horizontal
// differencing): each sample is stored as the difference from the previous
// sample in the same row, so this accumulates the deltas back.
func undoHorizontalDifferencing(data []byte, width, samplesPerPixel int) {
	rowBytes := width * samplesPerPixel
	for off := 0; off+rowBytes <= len(data); off += rowBytes {
		row := data[off : off+rowBytes]
		for x := samplesPerPixel; x < rowBytes; x++ {
			row[x] += row[x-samplesPerPixel]
		}
	}
}

func decompressDeflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err == nil {
		defer r.Close()
		result, err := io.ReadAll(r)
		if err == nil {
			return result, nil
		}
	}
	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()
	return io.ReadAll(fr)
}

func decompressLZW(data []byte) ([]byte, error) {
	return decompressTIFFLZW(data)
}

// decodeJPEGTile decodes a JPEG-compressed tile, optionally prepending
// shared JPEG tables (quantization/Huffman tables factored out of each tile
// by the encoder).
func (r *Reader) decodeJPEGTile(ifd *IFD, data []byte) (image.Image, error) {
	var jpegData []byte

	if len(ifd.JPEGTables) > 0 {
		tables := ifd.JPEGTables
		if len(tables) >= 2 && tables[len(tables)-2] == 0xFF && tables[len(tables)-1] == 0xD9 {
			tables = tables[:len(tables)-2]
		}
		tileData := data
		if len(tileData) >= 2 && tileData[0] == 0xFF && tileData[1] == 0xD8 {
			tileData = tileData[2:]
		}
		jpegData = make([]byte, len(tables)+len(tileData))
		copy(jpegData, tables)
		copy(jpegData[len(tables):], tileData)
	} else {
		jpegData = data
	}

	img, err := jpeg.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return nil, fmt.Errorf("decoding JPEG tile: %w", err)
	}
	return img, nil
}

// sampleValue extracts the float64 value of the sample at byte offset off
// for the given bits-per-sample / sample-format (1 = unsigned int, 2 =
// signed int, 3 = IEEE float).
func (r *Reader) sampleValue(data []byte, off, bps, sampleFormat int) float64 {
	switch bps {
	case 8:
		v := data[off]
		if sampleFormat == 2 {
			return float64(int8(v))
		}
		return float64(v)
	case 16:
		u := r.bo.Uint16(data[off : off+2])
		if sampleFormat == 2 {
			return float64(int16(u))
		}
		return float64(u)
	case 32:
		u := r.bo.Uint32(data[off : off+4])
		if sampleFormat == 3 {
			return float64(math.Float32frombits(u))
		}
		if sampleFormat == 2 {
			return float64(int32(u))
		}
		return float64(u)
	case 64:
		u := r.bo.Uint64(data[off : off+8])
		if sampleFormat == 3 {
			return math.Float64frombits(u)
		}
		if sampleFormat == 2 {
			return float64(int64(u))
		}
		return float64(u)
	default:
		return 0
	}
}

// ReadBandWindowF64 reads band `band` (0-indexed) of the window
// (colOff, rowOff, width, height) at IFD level `level`, clamped to the
// raster's bounds at that level, and returns it as row-major float64 with
// the actually-read width/height (which may be smaller than requested if
// the window extends past the raster — callers are expected to have already
// intersected against raster bounds, but this clamps defensively).
func (r *Reader) ReadBandWindowF64(level, band, colOff, rowOff, width, height int) ([]float64, int, int, error) {
	if level < 0 || level >= len(r.ifds) {
		return nil, 0, 0, fmt.Errorf("invalid IFD level %d (have %d)", level, len(r.ifds))
	}
	ifd := &r.ifds[level]
	imgW, imgH := int(ifd.Width), int(ifd.Height)

	col0, row0 := colOff, rowOff
	col1, row1 := colOff+width, rowOff+height
	if col0 < 0 {
		col0 = 0
	}
	if row0 < 0 {
		row0 = 0
	}
	if col1 > imgW {
		col1 = imgW
	}
	if row1 > imgH {
		row1 = imgH
	}
	if col1 <= col0 || row1 <= row0 {
		return nil, 0, 0, nil
	}
	outW := col1 - col0
	outH := row1 - row0

	spp := int(ifd.SamplesPerPixel)
	if band < 0 || band >= spp {
		return nil, 0, 0, fmt.Errorf("band %d out of range (raster has %d bands)", band, spp)
	}
	bps := 8
	if len(ifd.BitsPerSample) > band {
		bps = int(ifd.BitsPerSample[band])
	} else if len(ifd.BitsPerSample) > 0 {
		bps = int(ifd.BitsPerSample[0])
	}
	sampleFormat := 1
	if len(ifd.SampleFormat) > band {
		sampleFormat = int(ifd.SampleFormat[band])
	} else if len(ifd.SampleFormat) > 0 {
		sampleFormat = int(ifd.SampleFormat[0])
	}
	bytesPerSample := bps / 8

	tw, th := int(ifd.TileWidth), int(ifd.TileHeight)
	out := make([]float64, outW*outH)

	tileColStart, tileColEnd := col0/tw, (col1-1)/tw
	tileRowStart, tileRowEnd := row0/th, (row1-1)/th

	for trow := tileRowStart; trow <= tileRowEnd; trow++ {
		for tcol := tileColStart; tcol <= tileColEnd; tcol++ {
			raw, tileIFD, err := r.readTileRaw(level, tcol, trow)
			if err != nil {
				return nil, 0, 0, err
			}
			if raw == nil || tileIFD.Compression == 7 {
				// Empty tile, or JPEG (unsupported for generic numeric
				// band extraction — JPEG-compressed rasters are always
				// 8-bit RGB imagery consumed through ReadTile instead).
				continue
			}
			tileMinCol, tileMinRow := tcol*tw, trow*th
			srcColStart := max2(col0, tileMinCol) - tileMinCol
			srcRowStart := max2(row0, tileMinRow) - tileMinRow
			srcColEnd := min2(col1, tileMinCol+tw) - tileMinCol
			srcRowEnd := min2(row1, tileMinRow+th) - tileMinRow

			for y := srcRowStart; y < srcRowEnd; y++ {
				for x := srcColStart; x < srcColEnd; x++ {
					pixelIdx := y*tw + x
					off := pixelIdx*spp*bytesPerSample + band*bytesPerSample
					if off+bytesPerSample > len(raw) {
						continue
					}
					v := r.sampleValue(raw, off, bps, sampleFormat)
					dstX := tileMinCol + x - col0
					dstY := tileMinRow + y - row0
					out[dstY*outW+dstX] = v
				}
			}
		}
	}
	return out, outW, outH, nil
}

// ReadTile reads and decodes a single tile as an RGBA image. Used for the
// JPEG/8-bit-imagery path where samples are directly colour channels.
func (r *Reader) ReadTile(level, col, row int) (image.Image, error) {
	if level < 0 || level >= len(r.ifds) {
		return nil, fmt.Errorf("invalid IFD level %d (have %d)", level, len(r.ifds))
	}

	ifd := &r.ifds[level]
	tilesAcross := ifd.TilesAcross()
	tilesDown := ifd.TilesDown()
	if col < 0 || col >= tilesAcross || row < 0 || row >= tilesDown {
		return nil, fmt.Errorf("tile (%d,%d) out of range (%dx%d)", col, row, tilesAcross, tilesDown)
	}

	raw, tileIFD, err := r.readTileRaw(level, col, row)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return image.NewRGBA(image.Rect(0, 0, int(ifd.TileWidth), int(ifd.TileHeight))), nil
	}
	if tileIFD.Compression == 7 {
		return r.decodeJPEGTile(tileIFD, raw)
	}
	return r.decodeRawTile(tileIFD, raw)
}

func (r *Reader) decodeRawTile(ifd *IFD, data []byte) (image.Image, error) {
	w := int(ifd.TileWidth)
	h := int(ifd.TileHeight)
	spp := int(ifd.SamplesPerPixel)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := (y*w + x) * spp
			if idx+spp > len(data) {
				break
			}
			var c color.RGBA
			switch {
			case spp == 1:
				v := data[idx]
				c = color.RGBA{R: v, G: v, B: v, A: 255}
			case spp == 2:
				v := data[idx]
				c = color.RGBA{R: v, G: v, B: v, A: data[idx+1]}
			default:
				c.R = data[idx]
				if spp > 1 {
					c.G = data[idx+1]
				}
				if spp > 2 {
					c.B = data[idx+2]
				}
				if spp > 3 {
					c.A = data[idx+3]
				} else {
					c.A = 255
				}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

// OverviewForZoom returns the best IFD level for the given output pixel
// size (in the same CRS units as the source, e.g. metres for metric
// projections, degrees for EPSG:4326).
func (r *Reader) OverviewForZoom(outputPixelSizeCRS float64) int {
	bestLevel := 0
	bestRatio := math.Inf(1)
	for i, ifd := range r.ifds {
		levelPixelSize := r.geo.PixelSizeX * float64(r.ifds[0].Width) / float64(ifd.Width)
		ratio := math.Abs(levelPixelSize/outputPixelSizeCRS - 1)
		if ratio < bestRatio {
			bestRatio = ratio
			bestLevel = i
		}
	}
	return bestLevel
}

func (r *Reader) IFDPixelSize(level int) float64 {
	return r.geo.PixelSizeX * float64(r.ifds[0].Width) / float64(r.ifds[level].Width)
}

func (r *Reader) IFDWidth(level int) int  { return int(r.ifds[level].Width) }
func (r *Reader) IFDHeight(level int) int { return int(r.ifds[level].Height) }

// IFDTileSize returns [tileWidth, tileHeight] for the given IFD level.
func (r *Reader) IFDTileSize(level int) [2]int {
	return [2]int{int(r.ifds[level].TileWidth), int(r.ifds[level].TileHeight)}
}

// FormatDescription returns a human-readable summary, e.g. "LZW, 3x uint8".
func (r *Reader) FormatDescription() string {
	ifd := &r.ifds[0]
	comp := "unknown"
	switch ifd.Compression {
	case 1:
		comp = "uncompressed"
	case 5:
		comp = "LZW"
	case 7:
		comp = "JPEG"
	case 8, 32946:
		comp = "Deflate"
	}
	spp := int(ifd.SamplesPerPixel)
	bps := 8
	if len(ifd.BitsPerSample) > 0 {
		bps = int(ifd.BitsPerSample[0])
	}
	sampleType := "uint"
	if r.IsFloat() {
		sampleType = "float"
	}
	return fmt.Sprintf("%s, %dx %s%d", comp, spp, sampleType, bps)
}

// IsFloat returns true if band 0 is IEEE floating point.
func (r *Reader) IsFloat() bool {
	ifd := &r.ifds[0]
	return len(ifd.SampleFormat) > 0 && ifd.SampleFormat[0] == 3
}

// NoData returns the GDAL nodata string for band 0, or "" if not set.
func (r *Reader) NoData() string { return r.ifds[0].NoData }

// DebugIFD returns the raw IFD for debugging purposes.
func (r *Reader) DebugIFD(level int) IFD { return r.ifds[level] }

func max2(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}
