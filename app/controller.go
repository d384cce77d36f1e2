// Package app wires the document, session, and OCR engines together and runs
// recognition jobs on a background worker.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"strings"
	"sync"

	"github.com/wudi/pdfocr/observability"
	"github.com/wudi/pdfocr/ocr"
	"github.com/wudi/pdfocr/render"
	"github.com/wudi/pdfocr/selection"
	"github.com/wudi/pdfocr/session"
)

var (
	// ErrWrite indicates the recognized text could not be written to disk.
	ErrWrite = errors.New("write text failed")
	// ErrNoText indicates there is nothing in the output log to save.
	ErrNoText = errors.New("no text to save")
	// ErrNoSelection indicates selection OCR was requested without an
	// active selection.
	ErrNoSelection = errors.New("no active selection")
	// ErrQueueFull indicates the OCR worker is backed up.
	ErrQueueFull = errors.New("ocr queue full")
)

// Controller owns the open document and the OCR job queue. All methods are
// safe for concurrent use; recognition runs on a single background worker so
// jobs complete in submission order.
type Controller struct {
	opener    render.Opener
	registry  *ocr.Registry
	state     *session.State
	log       observability.Logger
	languages []string
	events    *hub

	mu         sync.Mutex
	doc        render.Document
	imgW, imgH int

	jobs      chan job
	cancel    context.CancelFunc
	workerDn  chan struct{}
	closeOnce sync.Once
}

// Option configures the controller.
type Option func(*Controller)

// WithLanguages sets the OCR language hints passed to every job.
func WithLanguages(langs ...string) Option {
	return func(c *Controller) { c.languages = append([]string(nil), langs...) }
}

// WithQueueDepth bounds the number of pending OCR jobs.
func WithQueueDepth(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.jobs = make(chan job, n)
		}
	}
}

// New builds a controller and starts its OCR worker.
func New(opener render.Opener, registry *ocr.Registry, logger observability.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	c := &Controller{
		opener:   opener,
		registry: registry,
		state:    session.New(),
		log:      logger,
		events:   newHub(),
		jobs:     make(chan job, 16),
		workerDn: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.worker(ctx)
	return c
}

// Close stops the worker and releases the open document.
func (c *Controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		<-c.workerDn
		c.events.close()
		c.mu.Lock()
		if c.doc != nil {
			err = c.doc.Close()
			c.doc = nil
		}
		c.mu.Unlock()
	})
	return err
}

// Subscribe returns a channel of controller events and a cancel function.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.events.subscribe()
}

func (c *Controller) Snapshot() session.Snapshot { return c.state.Snapshot() }

// Log returns output log entries with sequence numbers greater than afterSeq.
func (c *Controller) Log(afterSeq int) []session.Entry { return c.state.Log(afterSeq) }

func (c *Controller) publishState() {
	snap := c.state.Snapshot()
	c.events.publish(Event{Type: EventState, Snapshot: &snap})
}

func (c *Controller) appendLog(kind session.EntryKind, text string) {
	e := c.state.AppendLog(kind, text)
	c.events.publish(Event{Type: EventLog, Entry: &e})
}

// OpenDocument loads the PDF at path, replacing any open document. The
// previous document is closed only after the new one opened successfully.
func (c *Controller) OpenDocument(path string) (session.Snapshot, error) {
	doc, err := c.opener(path)
	if err != nil {
		c.log.Error("open document failed", observability.String("path", path), observability.Error("error", err))
		return session.Snapshot{}, err
	}

	c.mu.Lock()
	old := c.doc
	c.doc = doc
	c.imgW, c.imgH = 0, 0
	c.mu.Unlock()
	if old != nil {
		old.Close()
	}

	c.state.Load(path, doc.PageCount())
	c.log.Info("document opened",
		observability.String("path", path),
		observability.Int("pages", doc.PageCount()))
	c.appendLog(session.EntryInfo, fmt.Sprintf("Opened %s (%d pages)", path, doc.PageCount()))
	c.publishState()
	return c.state.Snapshot(), nil
}

func (c *Controller) currentDoc() (render.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return nil, session.ErrNoDocument
	}
	return c.doc, nil
}

// RenderPage rasterizes the current page at the current zoom and returns it
// PNG-encoded. The rendered size is remembered for selection mapping.
func (c *Controller) RenderPage(ctx context.Context) ([]byte, error) {
	doc, err := c.currentDoc()
	if err != nil {
		return nil, err
	}
	img, err := doc.Render(ctx, c.state.Page(), c.state.Zoom())
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.imgW = img.Bounds().Dx()
	c.imgH = img.Bounds().Dy()
	c.mu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", render.ErrRender, err)
	}
	return buf.Bytes(), nil
}

// PageText returns the embedded text layer of the current page, if the
// document carries one. It never substitutes for OCR.
func (c *Controller) PageText() (string, error) {
	doc, err := c.currentDoc()
	if err != nil {
		return "", err
	}
	return doc.Text(c.state.Page())
}

func (c *Controller) NextPage() (session.Snapshot, error) {
	if _, err := c.state.NextPage(); err != nil {
		return session.Snapshot{}, err
	}
	c.publishState()
	return c.state.Snapshot(), nil
}

func (c *Controller) PrevPage() (session.Snapshot, error) {
	if _, err := c.state.PrevPage(); err != nil {
		return session.Snapshot{}, err
	}
	c.publishState()
	return c.state.Snapshot(), nil
}

func (c *Controller) SetPage(page int) (session.Snapshot, error) {
	if _, err := c.state.SetPage(page); err != nil {
		return session.Snapshot{}, err
	}
	c.publishState()
	return c.state.Snapshot(), nil
}

func (c *Controller) SetZoom(zoom float64) session.Snapshot {
	c.state.SetZoom(zoom)
	c.publishState()
	return c.state.Snapshot()
}

func (c *Controller) ZoomIn() session.Snapshot  { return c.SetZoom(c.state.Zoom() + session.ZoomStep) }
func (c *Controller) ZoomOut() session.Snapshot { return c.SetZoom(c.state.Zoom() - session.ZoomStep) }

// SetSelection maps a drag rectangle in view coordinates onto the rendered
// page image and stores it, converted to page points, as the active
// selection. Page points keep the selection valid across zoom changes.
func (c *Controller) SetSelection(rect selection.Rect, offsetX, offsetY float64) (session.Snapshot, error) {
	c.mu.Lock()
	view := selection.View{
		OffsetX:     offsetX,
		OffsetY:     offsetY,
		ImageWidth:  c.imgW,
		ImageHeight: c.imgH,
	}
	c.mu.Unlock()
	if view.ImageWidth == 0 || view.ImageHeight == 0 {
		return session.Snapshot{}, session.ErrNoDocument
	}
	region, err := view.Region(rect)
	if err != nil {
		return session.Snapshot{}, err
	}
	pageRegion, err := selection.PageRegion(region, render.ScaleForZoom(c.state.Zoom()))
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := c.state.SetSelection(pageRegion); err != nil {
		return session.Snapshot{}, err
	}
	c.publishState()
	return c.state.Snapshot(), nil
}

func (c *Controller) ClearSelection() session.Snapshot {
	c.state.ClearSelection()
	c.publishState()
	return c.state.Snapshot()
}

// SetEngine switches the active OCR engine. Jobs already queued keep the
// engine they were submitted with. An unavailable engine can still be
// selected; its jobs will fail with log entries until it becomes usable.
func (c *Controller) SetEngine(name string) (session.Snapshot, error) {
	v, err := ocr.ParseVariant(name)
	if err != nil {
		return session.Snapshot{}, err
	}
	if _, err := c.registry.Engine(v); err != nil {
		return session.Snapshot{}, err
	}
	c.state.SetEngine(v)
	c.appendLog(session.EntryInfo, fmt.Sprintf("Engine: %s (%s)", v, v.Description()))
	c.publishState()
	return c.state.Snapshot(), nil
}

// SaveText writes the output log to path as plain text.
func (c *Controller) SaveText(path string) error {
	text := c.state.Text()
	if strings.TrimSpace(text) == "" {
		return ErrNoText
	}
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	c.appendLog(session.EntryInfo, fmt.Sprintf("Saved text to %s", path))
	c.log.Info("text saved", observability.String("path", path))
	return nil
}

// ClearLog empties the output log.
func (c *Controller) ClearLog() {
	c.state.ClearLog()
	c.publishState()
}
