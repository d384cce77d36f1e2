// Package native provides the OCR engine built into the host operating
// system: the Vision framework on macOS and Windows.Media.Ocr on Windows.
// Other platforms report ErrPlatformUnsupported.
package native

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/pdfocr/ocr"
)

// Engine implements ocr.Engine by shelling out to the platform OCR facility.
type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return ocr.VariantNative.String() }

// Available reports whether the host platform exposes a usable OCR facility.
func (e *Engine) Available() error {
	return platformAvailable()
}

// Recognize writes the (optionally cropped) image to a temporary file and
// invokes the platform recognizer on it. Native engines return plain text
// only; no word geometry is available.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := platformAvailable(); err != nil {
		return ocr.Result{}, err
	}
	data, err := ocr.CropToRegion(in.Image, in.Region)
	if err != nil {
		return ocr.Result{}, err
	}

	dir, err := os.MkdirTemp("", "pdfocr-native-")
	if err != nil {
		return ocr.Result{}, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)
	imgPath := filepath.Join(dir, "input.png")
	if err := os.WriteFile(imgPath, data, 0o600); err != nil {
		return ocr.Result{}, fmt.Errorf("write temp image: %w", err)
	}

	text, err := platformRecognize(ctx, imgPath, in.Languages)
	if err != nil {
		return ocr.Result{}, err
	}
	plain := strings.TrimSpace(text)

	return ocr.Result{
		InputID:   in.ID,
		PlainText: plain,
		Blocks:    []ocr.TextBlock{{Text: plain, Lines: []ocr.TextLine{{Text: plain}}}},
		Language:  firstLanguage(in.Languages),
		Engine:    e.Name(),
	}, nil
}

func firstLanguage(langs []string) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}
