package cog

// TIFF-compatible LZW decoder.
//
// TIFF's LZW variant differs from the GIF/PDF format Go's compress/lzw
// decodes: TIFF increments the code width one code earlier than GIF does
// (the "early change" convention: the width grows as soon as the next code
// to be assigned would reach 2^width - 1). That
// difference alone makes compress/lzw reject TIFF LZW streams as invalid
// codes, so the tile/strip decompression path this package's IFD reader
// drives (see reader.go's decompressLZW) needs its own decoder.
//
// Implements the TIFF 6.0 specification's LZW algorithm.

import (
	"errors"
	"io"
)

const (
	lzwMaxCodeWidth = 12
	lzwClearCode    = 256
	lzwEOICode      = 257
	lzwFirstCode    = 258
	lzwTableSize    = 1 << lzwMaxCodeWidth
)

// lzwTableEntry is one string in the code table: the trailing byte it adds
// to its prefix entry, and the prefix entry's table index (-1 for the 256
// single-byte seed entries).
type lzwTableEntry struct {
	prefix int
	suffix byte
	length int
}

// decompressTIFFLZW decompresses one strip/tile's worth of TIFF-style LZW
// data (MSB-first bit packing).
func decompressTIFFLZW(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return (&tiffLZWReader{src: data}).decode()
}

// tiffLZWReader walks one LZW-compressed byte stream, maintaining the
// growing code table and the decompressed output accumulated so far.
type tiffLZWReader struct {
	src    []byte
	bitPos int

	table    [lzwTableSize + 1]lzwTableEntry
	nextCode int
	width    int
	output   []byte
	scratch  []byte // reused by resolve to avoid reallocating per code
}

// readBits reads the next n bits from src, most-significant-bit first.
func (d *tiffLZWReader) readBits(n int) (int, error) {
	if n <= 0 || n > 16 {
		return 0, errors.New("lzw: invalid bit count")
	}
	v := 0
	for i := 0; i < n; i++ {
		bytePos := d.bitPos / 8
		bitOff := 7 - (d.bitPos % 8)
		if bytePos >= len(d.src) {
			return 0, io.ErrUnexpectedEOF
		}
		v = (v << 1) | (int(d.src[bytePos])>>bitOff)&1
		d.bitPos++
	}
	return v, nil
}

// resolve expands code into its full byte string by walking prefix links
// back to a single-byte seed entry, writing the result in forward order
// into the reused scratch buffer.
func (d *tiffLZWReader) resolve(code int) []byte {
	entry := &d.table[code]
	d.scratch = d.scratch[:entry.length]
	idx := entry.length - 1
	for code >= 0 {
		e := &d.table[code]
		d.scratch[idx] = e.suffix
		idx--
		code = e.prefix
	}
	return d.scratch
}

// reset seeds the code table with the 256 single-byte entries and rewinds
// nextCode/width, run both at decode start and on every in-stream clear
// code.
func (d *tiffLZWReader) reset() {
	for i := 0; i < 256; i++ {
		d.table[i] = lzwTableEntry{prefix: -1, suffix: byte(i), length: 1}
	}
	d.nextCode = lzwFirstCode
	d.width = 9
}

// addEntry appends a new code-table entry built from prevCode's string plus
// one trailing byte, once table capacity allows it.
func (d *tiffLZWReader) addEntry(prevCode int, suffix byte) {
	if d.nextCode >= len(d.table) {
		return
	}
	d.table[d.nextCode] = lzwTableEntry{
		prefix: prevCode,
		suffix: suffix,
		length: d.table[prevCode].length + 1,
	}
	d.nextCode++
}

func (d *tiffLZWReader) decode() ([]byte, error) {
	d.reset()

	code, err := d.readBits(d.width)
	if err != nil {
		return nil, err
	}
	if code != lzwClearCode {
		return nil, errors.New("lzw: first code is not clear code")
	}

	prevCode := -1
	for {
		code, err := d.readBits(d.width)
		if err != nil {
			if err == io.ErrUnexpectedEOF {
				return d.output, nil
			}
			return nil, err
		}

		switch {
		case code == lzwEOICode:
			return d.output, nil

		case code == lzwClearCode:
			d.reset()
			prevCode = -1
			continue

		case prevCode == -1:
			// First code after a clear must be a literal byte.
			if code >= 256 {
				return nil, errors.New("lzw: first code after clear is not literal")
			}
			d.output = append(d.output, byte(code))
			prevCode = code
			continue

		case code < d.nextCode:
			str := d.resolve(code)
			d.output = append(d.output, str...)
			d.addEntry(prevCode, str[0])

		case code == d.nextCode:
			// KwKwK case: the code is one past the table's current end, so
			// its string is prevCode's string plus prevCode's own first byte.
			prev := d.resolve(prevCode)
			first := prev[0]
			d.output = append(d.output, prev...)
			d.output = append(d.output, first)
			d.addEntry(prevCode, first)

		default:
			return nil, errors.New("lzw: invalid code")
		}

		if d.nextCode+1 >= (1<<d.width) && d.width < lzwMaxCodeWidth {
			d.width++
		}
		prevCode = code
	}
}
