package barcode

import (
	"fmt"
	"html"
	"strings"
)

type SVGOptions struct {
	ModulePx      int
	QuietModules  int
	BarHeightPx   int
	CaptionBandPx int
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		ModulePx:      2,
		QuietModules:  10,
		BarHeightPx:   96,
		CaptionBandPx: 18,
	}
}

func (o SVGOptions) normalized() SVGOptions {
	def := DefaultSVGOptions()
	if o == (SVGOptions{}) {
		return def
	}
	if o.ModulePx < 1 {
		o.ModulePx = def.ModulePx
	}
	if o.QuietModules < 0 {
		o.QuietModules = def.QuietModules
	}
	if o.BarHeightPx < 1 {
		o.BarHeightPx = def.BarHeightPx
	}
	if o.CaptionBandPx < 0 {
		o.CaptionBandPx = def.CaptionBandPx
	}
	return o
}

func RenderSVG(code string, opts SVGOptions) (string, error) {
	pattern, err := Encode(code)
	if err != nil {
		return "", err
	}

	opts = opts.normalized()
	width := (PatternBits + 2*opts.QuietModules) * opts.ModulePx
	height := opts.BarHeightPx + opts.CaptionBandPx

	var b strings.Builder
	b.Grow(PatternBits * 48)
	fmt.Fprintf(&b,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		width, height, width, height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#fff"/>`, width, height)

	for i, bit := range pattern {
		if bit != 1 {
			continue
		}
		x := (opts.QuietModules + i) * opts.ModulePx
		fmt.Fprintf(&b, `<rect x="%d" y="0" width="%d" height="%d" fill="#000"/>`,
			x, opts.ModulePx, opts.BarHeightPx)
	}

	fmt.Fprintf(&b,
		`<text x="%d" y="%d" font-family="monospace" font-size="14" text-anchor="middle" fill="#000">%s</text>`,
		width/2, opts.BarHeightPx+14, html.EscapeString(code))
	b.WriteString("</svg>")
	return b.String(), nil
}
