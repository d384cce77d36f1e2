package render

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// fitzDocument wraps a MuPDF document. MuPDF contexts are not safe for
// concurrent use, so every call takes the mutex.
type fitzDocument struct {
	mu    sync.Mutex
	doc   *fitz.Document
	pages int
}

// Open loads the PDF at path via MuPDF.
func Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDocumentLoad, path, err)
	}
	return &fitzDocument{doc: doc, pages: doc.NumPage()}, nil
}

func (d *fitzDocument) PageCount() int { return d.pages }

func (d *fitzDocument) checkPage(page int) error {
	if page < 0 || page >= d.pages {
		return fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, d.pages)
	}
	return nil
}

func (d *fitzDocument) Render(ctx context.Context, page int, zoom float64) (image.Image, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	if zoom <= 0 {
		return nil, fmt.Errorf("%w: non-positive zoom %v", ErrRender, zoom)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	d.mu.Lock()
	img, err := d.doc.ImageDPI(page, BaseDPI*ScaleForZoom(zoom))
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrRender, page, err)
	}
	return img, nil
}

func (d *fitzDocument) Text(page int) (string, error) {
	if err := d.checkPage(page); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	text, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("extract text: page %d: %w", page, err)
	}
	return text, nil
}

func (d *fitzDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Close()
}
