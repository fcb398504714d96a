// Package offline implements the caption and edit contracts without network
// access. Captions come from a fixed pool picked by image hash and edits are
// local imaging filters chosen from keywords in the instruction.
package offline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"

	"memegenius/internal/domain"
	"memegenius/internal/infra"
)

var captionPool = []domain.CaptionSuggestion{
	{Text: "Me explaining why the PR is ready", Explanation: "classic overconfidence pose"},
	{Text: "It works on my machine", Explanation: "the universal developer defence"},
	{Text: "When the standup runs 45 minutes", Explanation: "visible loss of will to live"},
	{Text: "Nobody: Absolutely nobody: Me at 3am", Explanation: "unprompted chaos energy"},
	{Text: "Just one more quick fix", Explanation: "famous last words before a long night"},
	{Text: "When the tests pass on the first try", Explanation: "suspicious joy"},
	{Text: "Me pretending to understand the legacy code", Explanation: "confident face, panicking inside"},
	{Text: "This is fine", Explanation: "calm acceptance of obvious disaster"},
}

type filter struct {
	keywords []string
	apply    func(image.Image) *image.NRGBA
}

var filters = []filter{
	{keywords: []string{"black and white", "grayscale", "greyscale", "gray", "grey", "noir"}, apply: func(img image.Image) *image.NRGBA { return imaging.Grayscale(img) }},
	{keywords: []string{"sepia", "vintage", "retro"}, apply: sepia},
	{keywords: []string{"invert", "negative"}, apply: func(img image.Image) *image.NRGBA { return imaging.Invert(img) }},
	{keywords: []string{"blur", "soft", "dream"}, apply: func(img image.Image) *image.NRGBA { return imaging.Blur(img, 3) }},
	{keywords: []string{"sharpen", "sharp", "crisp"}, apply: func(img image.Image) *image.NRGBA { return imaging.Sharpen(img, 2) }},
	{keywords: []string{"bright", "lighter", "sunny"}, apply: func(img image.Image) *image.NRGBA { return imaging.AdjustBrightness(img, 20) }},
	{keywords: []string{"dark", "night", "moody"}, apply: func(img image.Image) *image.NRGBA { return imaging.AdjustBrightness(img, -25) }},
	{keywords: []string{"contrast", "dramatic"}, apply: func(img image.Image) *image.NRGBA { return imaging.AdjustContrast(img, 30) }},
	{keywords: []string{"saturat", "vivid", "colorful", "colourful"}, apply: func(img image.Image) *image.NRGBA { return imaging.AdjustSaturation(img, 50) }},
	{keywords: []string{"mirror", "flip"}, apply: func(img image.Image) *image.NRGBA { return imaging.FlipH(img) }},
	{keywords: []string{"upside down"}, apply: func(img image.Image) *image.NRGBA { return imaging.FlipV(img) }},
	{keywords: []string{"rotate"}, apply: func(img image.Image) *image.NRGBA { return imaging.Rotate90(img) }},
}

// Provider is a deterministic stand-in for the hosted AI service.
type Provider struct {
	logger *infra.Logger
}

// New returns an offline provider.
func New(logger *infra.Logger) *Provider {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Provider{logger: logger}
}

// SuggestCaptions returns count captions from the pool, rotated by a hash of
// the image so different images get different lists.
func (p *Provider) SuggestCaptions(ctx context.Context, img domain.Payload, count int) ([]domain.CaptionSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSuggestion, err)
	}
	if img.IsZero() {
		return nil, fmt.Errorf("%w: no image", domain.ErrSuggestion)
	}
	if count <= 0 || count > len(captionPool) {
		count = min(5, len(captionPool))
	}
	offset := int(seed(img.Bytes()) % uint64(len(captionPool)))
	out := make([]domain.CaptionSuggestion, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, captionPool[(offset+i)%len(captionPool)])
	}
	p.logger.Debug().Int("suggestions", len(out)).Msg("offline: captions generated")
	return out, nil
}

// EditImage applies every filter whose keyword appears in the instruction.
// When none matches a mild saturation and contrast boost is applied.
func (p *Provider) EditImage(ctx context.Context, img domain.Payload, instruction string) (domain.Payload, error) {
	if err := ctx.Err(); err != nil {
		return domain.Payload{}, fmt.Errorf("%w: %v", domain.ErrEdit, err)
	}
	instruction = strings.ToLower(strings.TrimSpace(instruction))
	if instruction == "" {
		return domain.Payload{}, fmt.Errorf("%w: empty instruction", domain.ErrEdit)
	}

	src, err := imaging.Decode(bytes.NewReader(img.Bytes()), imaging.AutoOrientation(true))
	if err != nil {
		return domain.Payload{}, fmt.Errorf("%w: decode image: %v", domain.ErrEdit, err)
	}

	out := imaging.Clone(src)
	var applied []string
	for _, f := range filters {
		if kw, ok := matchKeyword(instruction, f.keywords); ok {
			out = f.apply(out)
			applied = append(applied, kw)
		}
	}
	if len(applied) == 0 {
		out = imaging.AdjustContrast(imaging.AdjustSaturation(out, 25), 10)
		applied = append(applied, "default")
	}

	format, mime := imaging.PNG, "image/png"
	if img.MIMEType() == "image/jpeg" {
		format, mime = imaging.JPEG, "image/jpeg"
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, format); err != nil {
		return domain.Payload{}, fmt.Errorf("%w: encode image: %v", domain.ErrEdit, err)
	}

	p.logger.Debug().Strs("filters", applied).Str("mime", mime).Msg("offline: image edited")
	return domain.NewPayload(mime, buf.Bytes()), nil
}

func matchKeyword(instruction string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(instruction, kw) {
			return kw, true
		}
	}
	return "", false
}

func sepia(img image.Image) *image.NRGBA {
	return imaging.AdjustFunc(imaging.Grayscale(img), func(c color.NRGBA) color.NRGBA {
		r := clamp(float64(c.R)*1.07 + 20)
		g := clamp(float64(c.G)*0.95 + 8)
		b := clamp(float64(c.B)*0.80 - 5)
		return color.NRGBA{R: r, G: g, B: b, A: c.A}
	})
}

func clamp(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

func seed(data []byte) uint64 {
	sum := sha256.Sum256(data)
	return binary.BigEndian.Uint64(sum[:8])
}
