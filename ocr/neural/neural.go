// Package neural provides the deep-learning OCR engine backed by PaddleOCR
// ONNX models through the pogo pipeline.
package neural

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/wudi/pdfocr/ocr"
)

// line is one recognized text line from the model, in image coordinates.
type line struct {
	Text       string
	Bounds     ocr.Region
	Confidence float64
}

// recognizer abstracts the loaded model pipeline so tests can substitute a
// fake without ONNX runtime assets.
type recognizer interface {
	RecognizeImage(img image.Image) ([]line, error)
	Close() error
}

// Engine implements ocr.Engine on top of a PaddleOCR detection/recognition
// pipeline. Model weights are loaded lazily on first use and kept for the
// lifetime of the engine; a load failure is sticky.
type Engine struct {
	modelsDir string

	once    sync.Once
	initErr error
	rec     recognizer

	// The pipeline is not safe for concurrent inference.
	mu sync.Mutex

	buildRecognizer func(modelsDir string) (recognizer, error)
}

// New constructs the deep-learning engine. modelsDir points at the directory
// holding the ONNX detection and recognition models; empty means the pipeline
// default.
func New(modelsDir string) *Engine {
	return &Engine{
		modelsDir:       modelsDir,
		buildRecognizer: newPogoRecognizer,
	}
}

func (e *Engine) Name() string { return ocr.VariantNeural.String() }

// Available reports whether the model assets are present. It does not load
// the models; that happens on the first Recognize call. Once initialization
// has been attempted, its outcome is authoritative.
func (e *Engine) Available() error {
	e.mu.Lock()
	attempted := e.rec != nil || e.initErr != nil
	initErr := e.initErr
	e.mu.Unlock()
	if attempted {
		if initErr != nil {
			return fmt.Errorf("%w: %v", ocr.ErrEngineUnavailable, initErr)
		}
		return nil
	}
	if e.modelsDir == "" {
		return nil
	}
	if _, err := os.Stat(e.modelsDir); err != nil {
		return fmt.Errorf("%w: models dir: %v", ocr.ErrEngineUnavailable, err)
	}
	return nil
}

func (e *Engine) ensureInit() error {
	e.once.Do(func() {
		rec, err := e.buildRecognizer(e.modelsDir)
		e.mu.Lock()
		defer e.mu.Unlock()
		if err != nil {
			e.initErr = err
			return
		}
		e.rec = rec
	})
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initErr != nil {
		return fmt.Errorf("%w: %v", ocr.ErrEngineUnavailable, e.initErr)
	}
	return nil
}

// Recognize runs detection and recognition on the input image. Calls are
// serialized; the underlying pipeline holds mutable inference state.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := e.ensureInit(); err != nil {
		return ocr.Result{}, err
	}
	select {
	case <-ctx.Done():
		return ocr.Result{}, ctx.Err()
	default:
	}
	data, err := ocr.CropToRegion(in.Image, in.Region)
	if err != nil {
		return ocr.Result{}, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ocr.Result{}, fmt.Errorf("decode input image: %w", err)
	}

	e.mu.Lock()
	rec := e.rec
	if rec == nil {
		e.mu.Unlock()
		return ocr.Result{}, fmt.Errorf("%w: engine closed", ocr.ErrEngineUnavailable)
	}
	lines, err := rec.RecognizeImage(img)
	e.mu.Unlock()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("neural inference: %w", err)
	}

	return assemble(in, lines, e.Name()), nil
}

// Close releases the loaded models, if any.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec == nil {
		return nil
	}
	err := e.rec.Close()
	e.rec = nil
	return err
}

// assemble orders detected lines top-to-bottom then left-to-right and joins
// them into the plain-text result.
func assemble(in ocr.Input, lines []line, engine string) ocr.Result {
	sorted := append([]line(nil), lines...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Bounds, sorted[j].Bounds
		// Lines whose vertical extents overlap belong to the same row.
		if a.Y+a.Height > b.Y && b.Y+b.Height > a.Y {
			return a.X < b.X
		}
		return a.Y < b.Y
	})

	texts := make([]string, 0, len(sorted))
	ocrLines := make([]ocr.TextLine, 0, len(sorted))
	var sum float64
	for _, l := range sorted {
		if strings.TrimSpace(l.Text) == "" {
			continue
		}
		texts = append(texts, l.Text)
		sum += l.Confidence
		ocrLines = append(ocrLines, ocr.TextLine{
			Text:       l.Text,
			Bounds:     l.Bounds,
			Confidence: l.Confidence,
		})
	}
	plain := strings.Join(texts, "\n")

	var avg float64
	if len(ocrLines) > 0 {
		avg = sum / float64(len(ocrLines))
	}
	block := ocr.TextBlock{
		Text:       plain,
		Lines:      ocrLines,
		Confidence: avg,
	}
	if len(ocrLines) > 0 {
		block.Bounds = boundsUnion(ocrLines)
	}

	return ocr.Result{
		InputID:   in.ID,
		PlainText: plain,
		Blocks:    []ocr.TextBlock{block},
		Language:  firstLanguage(in.Languages),
		Engine:    engine,
	}
}

func boundsUnion(lines []ocr.TextLine) ocr.Region {
	b := lines[0].Bounds
	minX, minY := b.X, b.Y
	maxX, maxY := b.X+b.Width, b.Y+b.Height
	for _, l := range lines[1:] {
		if l.Bounds.X < minX {
			minX = l.Bounds.X
		}
		if l.Bounds.Y < minY {
			minY = l.Bounds.Y
		}
		if x := l.Bounds.X + l.Bounds.Width; x > maxX {
			maxX = x
		}
		if y := l.Bounds.Y + l.Bounds.Height; y > maxY {
			maxY = y
		}
	}
	return ocr.Region{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func firstLanguage(langs []string) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}
