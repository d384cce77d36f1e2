package neural

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/pogo/pkg/pipeline"

	"github.com/wudi/pdfocr/ocr"
)

func ocrRegion(x, y, w, h int) ocr.Region {
	return ocr.Region{X: float64(x), Y: float64(y), Width: float64(w), Height: float64(h)}
}

// pogoRecognizer wraps the pogo PaddleOCR pipeline.
type pogoRecognizer struct {
	pipe *pipeline.Pipeline
}

func newPogoRecognizer(modelsDir string) (recognizer, error) {
	b := pipeline.NewBuilder()
	if modelsDir != "" {
		b = b.WithModelsDir(modelsDir)
	}
	p, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build ocr pipeline: %w", err)
	}
	return &pogoRecognizer{pipe: p}, nil
}

func (r *pogoRecognizer) RecognizeImage(img image.Image) ([]line, error) {
	res, err := r.pipe.ProcessImage(img)
	if err != nil {
		return nil, err
	}
	lines := make([]line, 0, len(res.Regions))
	for _, reg := range res.Regions {
		lines = append(lines, line{
			Text: reg.Text,
			Bounds: ocrRegion(
				reg.Box.X, reg.Box.Y,
				reg.Box.W, reg.Box.H,
			),
			Confidence: reg.RecConfidence,
		})
	}
	return lines, nil
}

func (r *pogoRecognizer) Close() error {
	return r.pipe.Close()
}
