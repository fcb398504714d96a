// Package render bakes meme captions into the base image for download.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"memegenius/internal/domain"
)

// PreviewWidth is the canvas width font sizes are expressed against.
const PreviewWidth = 600

// maxOutline caps the stroke radius in pixels.
const maxOutline = 12

// Overlay is the caption styling applied by Compose.
type Overlay struct {
	TopText    string
	BottomText string
	FontSize   int
	Color      string
}

var (
	boldFont = mustParse(gobold.TTF)
	upper    = cases.Upper(language.Und)
)

func mustParse(ttf []byte) *opentype.Font {
	f, err := opentype.Parse(ttf)
	if err != nil {
		panic(fmt.Sprintf("render: parse embedded font: %v", err))
	}
	return f
}

// Compose draws the overlay onto the image and encodes a PNG.
func Compose(base domain.Payload, o Overlay) (domain.Payload, error) {
	src, err := decode(base)
	if err != nil {
		return domain.Payload{}, err
	}
	dst := imaging.Clone(src)
	width, height := dst.Bounds().Dx(), dst.Bounds().Dy()

	fill, err := ParseHexColor(o.Color)
	if err != nil {
		return domain.Payload{}, err
	}

	size := float64(o.FontSize) * float64(width) / PreviewWidth
	if size < 1 {
		size = 1
	}
	face, err := opentype.NewFace(boldFont, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return domain.Payload{}, fmt.Errorf("%w: font face: %v", domain.ErrEncoding, err)
	}
	defer face.Close()

	margin := int(size * 0.4)
	maxWidth := width - 2*margin
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	outline := min(maxOutline, max(1, int(size/16)))

	top := wrap(face, upper.String(strings.TrimSpace(o.TopText)), maxWidth)
	bottom := wrap(face, upper.String(strings.TrimSpace(o.BottomText)), maxWidth)
	if len(top) == 0 && len(bottom) == 0 {
		return encodePNG(dst)
	}

	canvas := image.NewRGBA(dst.Bounds())
	draw.Draw(canvas, canvas.Bounds(), dst, dst.Bounds().Min, draw.Src)

	y := margin + metrics.Ascent.Ceil()
	for _, line := range top {
		drawOutlined(canvas, face, line, width, y, fill, outline)
		y += lineHeight
	}

	y = height - margin - metrics.Descent.Ceil() - (len(bottom)-1)*lineHeight
	for _, line := range bottom {
		drawOutlined(canvas, face, line, width, y, fill, outline)
		y += lineHeight
	}

	return encodePNG(canvas)
}

// ToPNG re-encodes the image as PNG without any overlay.
func ToPNG(base domain.Payload) (domain.Payload, error) {
	src, err := decode(base)
	if err != nil {
		return domain.Payload{}, err
	}
	return encodePNG(imaging.Clone(src))
}

// ParseHexColor parses #rrggbb.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: colour %q", domain.ErrInvalidInput, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: colour %q", domain.ErrInvalidInput, s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func decode(p domain.Payload) (image.Image, error) {
	if p.IsZero() {
		return nil, fmt.Errorf("%w: no image", domain.ErrEncoding)
	}
	img, err := imaging.Decode(bytes.NewReader(p.Bytes()), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrEncoding, p.MIMEType(), err)
	}
	return img, nil
}

func encodePNG(img image.Image) (domain.Payload, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return domain.Payload{}, fmt.Errorf("%w: encode png: %v", domain.ErrEncoding, err)
	}
	return domain.NewPayload("image/png", buf.Bytes()), nil
}

// wrap breaks text into lines no wider than maxWidth. A single word wider
// than maxWidth gets a line of its own.
func wrap(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = w
	}
	return append(lines, current)
}

// drawOutlined rasterizes line once into an alpha mask, stamps the mask in
// black at outlineOffsets, then draws it in fill on top.
func drawOutlined(dst *image.RGBA, face font.Face, line string, width, baseline int, fill color.NRGBA, outline int) {
	advance := font.MeasureString(face, line).Ceil()
	x := (width - advance) / 2
	metrics := face.Metrics()
	area := image.Rect(x, baseline-metrics.Ascent.Ceil(), x+advance, baseline+metrics.Descent.Ceil()).Inset(-outline)

	mask := image.NewAlpha(area)
	d := &font.Drawer{Dst: mask, Src: image.Opaque, Face: face, Dot: fixed.P(x, baseline)}
	d.DrawString(line)

	black := image.NewUniform(color.Black)
	for _, off := range outlineOffsets(outline) {
		draw.DrawMask(dst, area.Add(off), black, image.Point{}, mask, area.Min, draw.Over)
	}
	draw.DrawMask(dst, area, image.NewUniform(fill), image.Point{}, mask, area.Min, draw.Over)
}

// outlineOffsets returns eight directions at the full radius and at half the
// radius when that is at least one pixel.
func outlineOffsets(radius int) []image.Point {
	var out []image.Point
	for _, r := range []int{radius, radius / 2} {
		if r < 1 {
			continue
		}
		diag := max(1, r*7/10)
		out = append(out,
			image.Pt(r, 0), image.Pt(-r, 0), image.Pt(0, r), image.Pt(0, -r),
			image.Pt(diag, diag), image.Pt(-diag, diag), image.Pt(diag, -diag), image.Pt(-diag, -diag),
		)
	}
	return out
}
