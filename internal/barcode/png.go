package barcode

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type PNGOptions struct {
	ModulePx       int
	QuietModules   int
	TopMarginPx    int
	BarHeightPx    int
	BottomMarginPx int
}

func DefaultPNGOptions() PNGOptions {
	return PNGOptions{
		ModulePx:       4,
		QuietModules:   12,
		TopMarginPx:    12,
		BarHeightPx:    180,
		BottomMarginPx: 28,
	}
}

func (o PNGOptions) normalized() PNGOptions {
	def := DefaultPNGOptions()
	if o == (PNGOptions{}) {
		return def
	}
	if o.ModulePx < 1 {
		o.ModulePx = def.ModulePx
	}
	if o.QuietModules < 0 {
		o.QuietModules = def.QuietModules
	}
	if o.TopMarginPx < 0 {
		o.TopMarginPx = def.TopMarginPx
	}
	if o.BarHeightPx < 1 {
		o.BarHeightPx = def.BarHeightPx
	}
	if o.BottomMarginPx < 0 {
		o.BottomMarginPx = def.BottomMarginPx
	}
	return o
}

func RenderPNG(code string, opts PNGOptions) ([]byte, error) {
	pattern, err := Encode(code)
	if err != nil {
		return nil, err
	}

	opts = opts.normalized()
	width := (PatternBits + 2*opts.QuietModules) * opts.ModulePx
	height := opts.TopMarginPx + opts.BarHeightPx + opts.BottomMarginPx

	barRow := make([]byte, 1+width*3)
	blankRow := make([]byte, 1+width*3)
	for i := 1; i < len(barRow); i++ {
		barRow[i] = 0xff
		blankRow[i] = 0xff
	}
	for i, bit := range pattern {
		if bit != 1 {
			continue
		}
		x0 := (opts.QuietModules + i) * opts.ModulePx
		for x := x0; x < x0+opts.ModulePx; x++ {
			off := 1 + x*3
			barRow[off] = 0
			barRow[off+1] = 0
			barRow[off+2] = 0
		}
	}

	var raw bytes.Buffer
	raw.Grow(height * len(barRow))
	barTop := opts.TopMarginPx
	barBottom := opts.TopMarginPx + opts.BarHeightPx
	for y := 0; y < height; y++ {
		if y >= barTop && y < barBottom {
			raw.Write(barRow)
		} else {
			raw.Write(blankRow)
		}
	}

	var idat bytes.Buffer
	zw, err := zlib.NewWriterLevel(&idat, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("init zlib writer: %w", err)
	}
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress scanlines: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("flush zlib writer: %w", err)
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = 8
	ihdr[9] = 2
	ihdr[10] = 0
	ihdr[11] = 0
	ihdr[12] = 0

	var out bytes.Buffer
	out.Grow(len(pngSignature) + idat.Len() + 64)
	out.Write(pngSignature)
	writeChunk(&out, "IHDR", ihdr)
	writeChunk(&out, "IDAT", idat.Bytes())
	writeChunk(&out, "IEND", nil)
	return out.Bytes(), nil
}

func writeChunk(out *bytes.Buffer, chunkType string, payload []byte) {
	var header [8]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(payload)))
	copy(header[4:8], chunkType)
	out.Write(header[:])
	out.Write(payload)

	crc := crc32.NewIEEE()
	crc.Write(header[4:8])
	crc.Write(payload)

	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], crc.Sum32())
	out.Write(trailer[:])
}
