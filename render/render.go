// Package render turns PDF pages into raster images for display and OCR.
package render

import (
	"context"
	"errors"
	"image"
)

// BaseScale is the render scale applied at zoom 1.0. Pages are rasterized at
// 1.5x their nominal size so text stays legible on screen and OCR gets
// enough pixels to work with.
const BaseScale = 1.5

// BaseDPI is the PDF point resolution; rendering at zoom z uses
// BaseDPI * BaseScale * z dots per inch.
const BaseDPI = 72.0

var (
	// ErrDocumentLoad indicates the file could not be opened as a PDF.
	ErrDocumentLoad = errors.New("document load failed")
	// ErrRender indicates a page could not be rasterized.
	ErrRender = errors.New("page render failed")
	// ErrPageOutOfRange indicates a page index outside the document.
	ErrPageOutOfRange = errors.New("page out of range")
)

// Document is an open PDF. Implementations must be safe for concurrent use;
// the viewer renders on the UI path while OCR renders in the background.
type Document interface {
	// PageCount reports the number of pages.
	PageCount() int
	// Render rasterizes the zero-based page at the given zoom factor.
	Render(ctx context.Context, page int, zoom float64) (image.Image, error)
	// Text returns the embedded text layer of the page, if any.
	Text(page int) (string, error)
	// Close releases the document resources.
	Close() error
}

// Opener opens a PDF file. The app layer takes an Opener so tests can
// substitute in-memory documents.
type Opener func(path string) (Document, error)

// ScaleForZoom returns the pixel scale applied to page points at a zoom level.
func ScaleForZoom(zoom float64) float64 { return BaseScale * zoom }
