package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
)

func TestParseVariant(t *testing.T) {
	for _, v := range Variants() {
		got, err := ParseVariant(v.String())
		if err != nil {
			t.Fatalf("ParseVariant(%q) error = %v", v, err)
		}
		if got != v {
			t.Fatalf("ParseVariant(%q) = %q", v, got)
		}
		if v.Description() == "" {
			t.Fatalf("variant %q has no description", v)
		}
	}
	if _, err := ParseVariant("abbyy"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestInputFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	in, err := InputFromImage(img, 4, WithLanguages("eng", "deu"), WithDPI(300), WithTesseractPSM(6))
	if err != nil {
		t.Fatalf("InputFromImage() error = %v", err)
	}
	if in.ID != "page-4" {
		t.Fatalf("unexpected input id: %s", in.ID)
	}
	if in.Format != ImageFormatPNG {
		t.Fatalf("unexpected format: %s", in.Format)
	}
	if len(in.Languages) != 2 || in.Languages[0] != "eng" {
		t.Fatalf("unexpected languages: %v", in.Languages)
	}
	if in.DPI != 300 {
		t.Fatalf("unexpected dpi: %d", in.DPI)
	}
	if in.Metadata["tessedit_pageseg_mode"] != "6" {
		t.Fatalf("unexpected metadata: %v", in.Metadata)
	}
	decoded, err := png.Decode(bytes.NewReader(in.Image))
	if err != nil {
		t.Fatalf("decode input image: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Fatalf("bounds changed: %v", decoded.Bounds())
	}
}

func TestWithRegionClearsEmpty(t *testing.T) {
	var in Input
	WithRegion(Region{X: 1, Y: 2, Width: 10, Height: 5})(&in)
	if in.Region == nil || in.Region.Width != 10 {
		t.Fatalf("region not set: %+v", in.Region)
	}
	WithRegion(Region{})(&in)
	if in.Region != nil {
		t.Fatalf("empty region should clear: %+v", in.Region)
	}
}

func encodeTestImage(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCropToRegion(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	// Black square in the top-left quadrant.
	draw.Draw(img, image.Rect(10, 10, 30, 30), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	data := encodeTestImage(t, img)

	cropped, err := CropToRegion(data, &Region{X: 0, Y: 0, Width: 50, Height: 50})
	if err != nil {
		t.Fatalf("CropToRegion() error = %v", err)
	}
	out, err := png.Decode(bytes.NewReader(cropped))
	if err != nil {
		t.Fatalf("decode cropped: %v", err)
	}
	if out.Bounds().Dx() != 50 || out.Bounds().Dy() != 50 {
		t.Fatalf("unexpected cropped bounds: %v", out.Bounds())
	}

	// Nil and empty regions pass the data through untouched.
	same, err := CropToRegion(data, nil)
	if err != nil {
		t.Fatalf("CropToRegion(nil) error = %v", err)
	}
	if !bytes.Equal(same, data) {
		t.Fatal("nil region should not modify data")
	}

	if _, err := CropToRegion(data, &Region{X: 500, Y: 500, Width: 10, Height: 10}); err == nil {
		t.Fatal("expected error for out-of-bounds region")
	}
}

type stubEngine struct {
	name string
	err  error
}

func (s stubEngine) Name() string     { return s.name }
func (s stubEngine) Available() error { return s.err }
func (s stubEngine) Recognize(context.Context, Input) (Result, error) {
	return Result{Engine: s.name}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(VariantTesseract, stubEngine{name: "tesseract"})
	r.Register(VariantNeural, stubEngine{name: "neural", err: ErrEngineUnavailable})

	e, err := r.Engine(VariantTesseract)
	if err != nil {
		t.Fatalf("Engine() error = %v", err)
	}
	if e.Name() != "tesseract" {
		t.Fatalf("unexpected engine: %s", e.Name())
	}

	if _, err := r.Engine(VariantNative); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant for unregistered variant, got %v", err)
	}

	avail := r.Available()
	if len(avail) != 1 || avail[0] != VariantTesseract {
		t.Fatalf("unexpected available variants: %v", avail)
	}
}
