package barcode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/png"
	"testing"
)

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode failed: %v", err)
	}
	return img
}

func rgbAt(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func assertPixel(t *testing.T, img image.Image, x, y int, black bool) {
	t.Helper()
	r, g, b := rgbAt(img, x, y)
	if black && (r != 0 || g != 0 || b != 0) {
		t.Errorf("pixel (%d,%d) = #%02x%02x%02x, want black", x, y, r, g, b)
	}
	if !black && (r != 0xff || g != 0xff || b != 0xff) {
		t.Errorf("pixel (%d,%d) = #%02x%02x%02x, want white", x, y, r, g, b)
	}
}

func TestRenderPNGDefaultGeometry(t *testing.T) {
	t.Parallel()

	code := "2900000000421"
	data, err := RenderPNG(code, PNGOptions{})
	if err != nil {
		t.Fatalf("RenderPNG returned error: %v", err)
	}

	img := decodePNG(t, data)
	bounds := img.Bounds()
	wantWidth := (PatternBits + 2*12) * 4
	wantHeight := 12 + 180 + 28
	if bounds.Dx() != wantWidth || bounds.Dy() != wantHeight {
		t.Fatalf("image is %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), wantWidth, wantHeight)
	}

	midBar := 12 + 90

	assertPixel(t, img, 0, 0, false)
	assertPixel(t, img, 10, midBar, false)
	assertPixel(t, img, 48, midBar, true)
	assertPixel(t, img, 48, 5, false)
	assertPixel(t, img, 48, 215, false)

	assertPixel(t, img, (12+45)*4, midBar, false)
	assertPixel(t, img, (12+46)*4, midBar, true)

	assertPixel(t, img, (12+94)*4, midBar, true)
	assertPixel(t, img, (12+95)*4, midBar, false)
}

func TestRenderPNGPixelGrid(t *testing.T) {
	t.Parallel()

	code := "4006381333931"
	opts := PNGOptions{ModulePx: 1, QuietModules: 2, TopMarginPx: 1, BarHeightPx: 2, BottomMarginPx: 1}
	data, err := RenderPNG(code, opts)
	if err != nil {
		t.Fatalf("RenderPNG returned error: %v", err)
	}

	pattern, err := Encode(code)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	img := decodePNG(t, data)
	bounds := img.Bounds()
	if bounds.Dx() != PatternBits+4 || bounds.Dy() != 4 {
		t.Fatalf("image is %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), PatternBits+4, 4)
	}

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			black := false
			if y >= 1 && y < 3 && x >= 2 && x < 2+PatternBits {
				black = pattern[x-2] == 1
			}
			assertPixel(t, img, x, y, black)
		}
	}
}

func TestRenderPNGChunkLayout(t *testing.T) {
	t.Parallel()

	data, err := RenderPNG("2900000000421", DefaultPNGOptions())
	if err != nil {
		t.Fatalf("RenderPNG returned error: %v", err)
	}

	signature := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if !bytes.Equal(data[:8], signature) {
		t.Fatalf("signature = % x, want % x", data[:8], signature)
	}

	if got := binary.BigEndian.Uint32(data[8:12]); got != 13 {
		t.Fatalf("IHDR length = %d, want 13", got)
	}
	if string(data[12:16]) != "IHDR" {
		t.Fatalf("first chunk type = %q, want IHDR", data[12:16])
	}

	ihdr := data[16:29]
	if w := binary.BigEndian.Uint32(ihdr[0:4]); w != uint32((PatternBits+24)*4) {
		t.Errorf("IHDR width = %d, want %d", w, (PatternBits+24)*4)
	}
	if h := binary.BigEndian.Uint32(ihdr[4:8]); h != 220 {
		t.Errorf("IHDR height = %d, want 220", h)
	}
	if ihdr[8] != 8 || ihdr[9] != 2 || ihdr[10] != 0 || ihdr[11] != 0 || ihdr[12] != 0 {
		t.Errorf("IHDR tail = % x, want 08 02 00 00 00", ihdr[8:])
	}

	wantCRC := crc32.ChecksumIEEE(data[12:29])
	if got := binary.BigEndian.Uint32(data[29:33]); got != wantCRC {
		t.Errorf("IHDR crc = %08x, want %08x", got, wantCRC)
	}

	iend := data[len(data)-12:]
	if binary.BigEndian.Uint32(iend[0:4]) != 0 || string(iend[4:8]) != "IEND" {
		t.Fatalf("trailer chunk = % x, want empty IEND", iend)
	}
	if got := binary.BigEndian.Uint32(iend[8:12]); got != crc32.ChecksumIEEE(iend[4:8]) {
		t.Errorf("IEND crc = %08x, want %08x", got, crc32.ChecksumIEEE(iend[4:8]))
	}
}

func TestRenderPNGRejectsInvalidCode(t *testing.T) {
	t.Parallel()

	if _, err := RenderPNG("2900000000422", DefaultPNGOptions()); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("RenderPNG error = %v, want ErrInvalidCode", err)
	}
	if _, err := RenderPNG("", DefaultPNGOptions()); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("RenderPNG(\"\") error = %v, want ErrInvalidCode", err)
	}
}
