// Package selection maps drag rectangles drawn on the rendered page view onto
// regions of the page image handed to OCR.
package selection

import (
	"errors"
	"fmt"
	"math"

	"github.com/wudi/pdfocr/ocr"
)

// ErrInvalidSelection marks selections too small or entirely outside the page.
var ErrInvalidSelection = errors.New("invalid selection")

// MinSize is the minimum selection edge length in view pixels. Smaller drags
// are treated as accidental clicks.
const MinSize = 5.0

// Rect is a drag rectangle in view coordinates. The corner order is
// whatever the drag produced; Normalized sorts it.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Normalized returns r with (X0,Y0) as the top-left corner.
func (r Rect) Normalized() Rect {
	return Rect{
		X0: math.Min(r.X0, r.X1),
		Y0: math.Min(r.Y0, r.Y1),
		X1: math.Max(r.X0, r.X1),
		Y1: math.Max(r.Y0, r.Y1),
	}
}

func (r Rect) Width() float64  { return math.Abs(r.X1 - r.X0) }
func (r Rect) Height() float64 { return math.Abs(r.Y1 - r.Y0) }

// View describes how the page image is placed in the viewport: the image is
// offset by (OffsetX, OffsetY) view pixels from the viewport origin. Render
// scale is already baked into the image, so view and image pixels coincide.
type View struct {
	OffsetX float64
	OffsetY float64
	// ImageWidth and ImageHeight bound the rendered page image in pixels.
	ImageWidth  int
	ImageHeight int
}

func (v View) viewToImage() Matrix {
	return Translate(-v.OffsetX, -v.OffsetY)
}

func (v View) imageToView() Matrix {
	return Translate(v.OffsetX, v.OffsetY)
}

// ToImagePoint maps a viewport point onto page-image pixel coordinates.
func (v View) ToImagePoint(p Point) Point {
	return v.viewToImage().Transform(p)
}

// ToViewPoint maps a page-image point back into viewport coordinates.
func (v View) ToViewPoint(p Point) Point {
	return v.imageToView().Transform(p)
}

// Region converts a drag rectangle into an OCR region on the page image.
// It normalizes the corners, rejects degenerate drags, and clips to the image
// bounds; a selection entirely outside the image is invalid.
func (v View) Region(r Rect) (ocr.Region, error) {
	n := r.Normalized()
	if n.Width() < MinSize || n.Height() < MinSize {
		return ocr.Region{}, fmt.Errorf("%w: %.0fx%.0f below minimum", ErrInvalidSelection, n.Width(), n.Height())
	}
	tl := v.ToImagePoint(Point{X: n.X0, Y: n.Y0})
	br := v.ToImagePoint(Point{X: n.X1, Y: n.Y1})

	x0 := math.Max(tl.X, 0)
	y0 := math.Max(tl.Y, 0)
	x1 := math.Min(br.X, float64(v.ImageWidth))
	y1 := math.Min(br.Y, float64(v.ImageHeight))
	if x1-x0 <= 0 || y1-y0 <= 0 {
		return ocr.Region{}, fmt.Errorf("%w: outside page", ErrInvalidSelection)
	}
	return ocr.Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, nil
}

// PageRegion converts an image-space OCR region into page points (1/72 inch)
// given the scale the image was rendered at. Selections are stored in page
// points so they stay valid across zoom changes.
func PageRegion(r ocr.Region, renderScale float64) (ocr.Region, error) {
	if renderScale <= 0 {
		return ocr.Region{}, fmt.Errorf("%w: non-positive render scale", ErrInvalidSelection)
	}
	inv, err := Scale(renderScale, renderScale).Inverse()
	if err != nil {
		return ocr.Region{}, err
	}
	tl := inv.Transform(Point{X: r.X, Y: r.Y})
	br := inv.Transform(Point{X: r.X + r.Width, Y: r.Y + r.Height})
	return ocr.Region{X: tl.X, Y: tl.Y, Width: br.X - tl.X, Height: br.Y - tl.Y}, nil
}

// ImageRegion is the inverse of PageRegion: it maps a page-point region onto
// image pixels for a given render scale.
func ImageRegion(r ocr.Region, renderScale float64) (ocr.Region, error) {
	if renderScale <= 0 {
		return ocr.Region{}, fmt.Errorf("%w: non-positive render scale", ErrInvalidSelection)
	}
	m := Scale(renderScale, renderScale)
	tl := m.Transform(Point{X: r.X, Y: r.Y})
	br := m.Transform(Point{X: r.X + r.Width, Y: r.Y + r.Height})
	return ocr.Region{X: tl.X, Y: tl.Y, Width: br.X - tl.X, Height: br.Y - tl.Y}, nil
}
