package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wudi/pdfocr/observability"
	"github.com/wudi/pdfocr/ocr"
	"github.com/wudi/pdfocr/render"
	"github.com/wudi/pdfocr/selection"
	"github.com/wudi/pdfocr/session"
)

type jobKind string

const (
	jobPage      jobKind = "page"
	jobSelection jobKind = "selection"
	jobDocument  jobKind = "document"
)

// job captures everything a recognition run needs at submission time. The
// engine variant is frozen here so switching engines never affects jobs
// already in the queue.
type job struct {
	id         string
	kind       jobKind
	engine     ocr.Variant
	page       int
	zoom       float64
	region     *ocr.Region
	generation uint64
}

// OCRPage queues recognition of the current page at the current zoom.
func (c *Controller) OCRPage() (string, error) {
	if !c.state.Loaded() {
		return "", session.ErrNoDocument
	}
	j := job{
		id:         uuid.NewString(),
		kind:       jobPage,
		engine:     c.state.Engine(),
		page:       c.state.Page(),
		zoom:       c.state.Zoom(),
		generation: c.state.Generation(),
	}
	return c.enqueue(j)
}

// OCRSelection queues recognition of the active selection. The stored
// page-point selection is mapped to pixels of the render the job will use.
func (c *Controller) OCRSelection() (string, error) {
	if !c.state.Loaded() {
		return "", session.ErrNoDocument
	}
	region := c.state.Selection()
	if region == nil {
		return "", ErrNoSelection
	}
	zoom := c.state.Zoom()
	imgRegion, err := selection.ImageRegion(*region, render.ScaleForZoom(zoom))
	if err != nil {
		return "", err
	}
	j := job{
		id:         uuid.NewString(),
		kind:       jobSelection,
		engine:     c.state.Engine(),
		page:       c.state.Page(),
		zoom:       zoom,
		region:     &imgRegion,
		generation: c.state.Generation(),
	}
	return c.enqueue(j)
}

// OCRDocument queues recognition of every page. Pages are processed in order
// at zoom 1.0 regardless of the view zoom.
func (c *Controller) OCRDocument() (string, error) {
	if !c.state.Loaded() {
		return "", session.ErrNoDocument
	}
	j := job{
		id:         uuid.NewString(),
		kind:       jobDocument,
		engine:     c.state.Engine(),
		zoom:       session.DefaultZoom,
		generation: c.state.Generation(),
	}
	return c.enqueue(j)
}

func (c *Controller) enqueue(j job) (string, error) {
	select {
	case c.jobs <- j:
	default:
		return "", ErrQueueFull
	}
	c.events.publish(Event{Type: EventJob, JobID: j.id, JobPhase: "queued"})
	c.log.Debug("ocr job queued",
		observability.String("job", j.id),
		observability.String("kind", string(j.kind)),
		observability.String("engine", j.engine.String()))
	return j.id, nil
}

// worker drains the job queue one job at a time, preserving submission order.
func (c *Controller) worker(ctx context.Context) {
	defer close(c.workerDn)
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-c.jobs:
			c.runJob(ctx, j)
		}
	}
}

func (c *Controller) runJob(ctx context.Context, j job) {
	if j.generation != c.state.Generation() {
		c.discard(j)
		return
	}
	c.events.publish(Event{Type: EventJob, JobID: j.id, JobPhase: "running"})

	engine, err := c.registry.Engine(j.engine)
	if err != nil {
		c.finishWithError(j, err)
		return
	}
	if err := engine.Available(); err != nil {
		c.finishWithError(j, err)
		return
	}

	switch j.kind {
	case jobDocument:
		c.runDocumentJob(ctx, j, engine)
	default:
		c.runPageJob(ctx, j, engine)
	}
}

// runPageJob handles both single-page and selection jobs; the only
// difference is the recognition region.
func (c *Controller) runPageJob(ctx context.Context, j job, engine ocr.Engine) {
	text, err := c.recognize(ctx, engine, j.page, j.zoom, j.region)

	// The document may have been replaced while recognition ran.
	if j.generation != c.state.Generation() {
		c.discard(j)
		return
	}
	if err != nil {
		c.finishWithError(j, err)
		return
	}

	label := fmt.Sprintf("--- Page %d (%s) ---", j.page+1, engine.Name())
	if j.kind == jobSelection {
		label = fmt.Sprintf("--- Selection, page %d (%s) ---", j.page+1, engine.Name())
	}
	c.appendLog(session.EntryInfo, label)
	c.appendLog(session.EntryText, text)
	c.finish(j)
}

// runDocumentJob recognizes every page in order. A failing page is recorded
// as an error entry and processing continues with the next page.
func (c *Controller) runDocumentJob(ctx context.Context, j job, engine ocr.Engine) {
	doc, err := c.currentDoc()
	if err != nil {
		c.finishWithError(j, err)
		return
	}
	pages := doc.PageCount()
	c.appendLog(session.EntryInfo, fmt.Sprintf("OCR of all %d pages (%s)", pages, engine.Name()))

	for page := 0; page < pages; page++ {
		select {
		case <-ctx.Done():
			c.discard(j)
			return
		default:
		}
		if j.generation != c.state.Generation() {
			c.discard(j)
			return
		}
		text, err := c.recognize(ctx, engine, page, j.zoom, nil)
		if j.generation != c.state.Generation() {
			c.discard(j)
			return
		}
		c.appendLog(session.EntryInfo, fmt.Sprintf("--- Page %d ---", page+1))
		if err != nil {
			c.appendLog(session.EntryError, fmt.Sprintf("Page %d failed: %v", page+1, err))
			c.log.Warn("page ocr failed",
				observability.String("job", j.id),
				observability.Int("page", page),
				observability.Error("error", err))
			continue
		}
		c.appendLog(session.EntryText, text)
	}
	c.finish(j)
}

func (c *Controller) recognize(ctx context.Context, engine ocr.Engine, page int, zoom float64, region *ocr.Region) (string, error) {
	doc, err := c.currentDoc()
	if err != nil {
		return "", err
	}
	img, err := doc.Render(ctx, page, zoom)
	if err != nil {
		return "", err
	}
	opts := []ocr.InputOption{
		ocr.WithDPI(int(render.BaseDPI * render.ScaleForZoom(zoom))),
	}
	if len(c.languages) > 0 {
		opts = append(opts, ocr.WithLanguages(c.languages...))
	}
	if region != nil {
		opts = append(opts, ocr.WithRegion(*region))
	}
	in, err := ocr.InputFromImage(img, page, opts...)
	if err != nil {
		return "", err
	}
	res, err := engine.Recognize(ctx, in)
	if err != nil {
		return "", err
	}
	return res.PlainText, nil
}

func (c *Controller) finish(j job) {
	c.events.publish(Event{Type: EventJob, JobID: j.id, JobPhase: "done"})
	c.log.Debug("ocr job done", observability.String("job", j.id))
}

func (c *Controller) finishWithError(j job, err error) {
	c.appendLog(session.EntryError, fmt.Sprintf("OCR failed: %v", err))
	c.events.publish(Event{Type: EventJob, JobID: j.id, JobPhase: "failed"})
	c.log.Warn("ocr job failed",
		observability.String("job", j.id),
		observability.String("kind", string(j.kind)),
		observability.Error("error", err))
}

func (c *Controller) discard(j job) {
	c.events.publish(Event{Type: EventJob, JobID: j.id, JobPhase: "discarded"})
	c.log.Debug("ocr job discarded, document changed",
		observability.String("job", j.id))
}
