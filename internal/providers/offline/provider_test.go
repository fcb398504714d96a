package offline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"

	"memegenius/internal/domain"
)

func testPNG(t *testing.T) domain.Payload {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return domain.NewPayload("image/png", buf.Bytes())
}

func TestSuggestCaptionsDeterministic(t *testing.T) {
	p := New(nil)
	img := testPNG(t)

	first, err := p.SuggestCaptions(context.Background(), img, 5)
	if err != nil {
		t.Fatalf("SuggestCaptions returned error: %v", err)
	}
	second, _ := p.SuggestCaptions(context.Background(), img, 5)
	if len(first) != 5 {
		t.Fatalf("len = %d, want 5", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("suggestion %d differs between calls", i)
		}
		if first[i].Text == "" || first[i].Explanation == "" {
			t.Fatalf("suggestion %d incomplete: %+v", i, first[i])
		}
	}
}

func TestSuggestCaptionsWithoutImage(t *testing.T) {
	if _, err := New(nil).SuggestCaptions(context.Background(), domain.Payload{}, 5); !errors.Is(err, domain.ErrSuggestion) {
		t.Fatalf("err = %v, want ErrSuggestion", err)
	}
}

func TestEditImageGrayscale(t *testing.T) {
	p := New(nil)
	out, err := p.EditImage(context.Background(), testPNG(t), "make it black and white")
	if err != nil {
		t.Fatalf("EditImage returned error: %v", err)
	}
	if out.MIMEType() != "image/png" {
		t.Fatalf("MIMEType = %q", out.MIMEType())
	}
	img, err := imaging.Decode(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	r, g, b, _ := img.At(1, 1).RGBA()
	if r != g || g != b {
		t.Fatalf("pixel not gray: %d %d %d", r, g, b)
	}
}

func TestEditImageRotateChangesBounds(t *testing.T) {
	out, err := New(nil).EditImage(context.Background(), testPNG(t), "Rotate it")
	if err != nil {
		t.Fatalf("EditImage returned error: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 8 {
		t.Fatalf("bounds = %v, want 4x8", img.Bounds())
	}
}

func TestEditImageFailures(t *testing.T) {
	p := New(nil)
	if _, err := p.EditImage(context.Background(), testPNG(t), "   "); !errors.Is(err, domain.ErrEdit) {
		t.Fatalf("blank instruction err = %v", err)
	}
	junk := domain.NewPayload("image/png", []byte("not an image"))
	if _, err := p.EditImage(context.Background(), junk, "blur"); !errors.Is(err, domain.ErrEdit) {
		t.Fatalf("undecodable image err = %v", err)
	}
}
