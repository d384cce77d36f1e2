// Package session holds the mutable viewer state: the open document, the
// current page and zoom, the active selection, and the output log.
package session

import (
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/wudi/pdfocr/ocr"
)

// Zoom limits. Zoom moves in quarter steps between one quarter and three
// times the base size.
const (
	MinZoom     = 0.25
	MaxZoom     = 3.0
	ZoomStep    = 0.25
	DefaultZoom = 1.0
)

// ErrNoDocument marks operations that need an open document.
var ErrNoDocument = errors.New("no document loaded")

// EntryKind classifies output log entries.
type EntryKind string

const (
	EntryInfo  EntryKind = "info"
	EntryText  EntryKind = "text"
	EntryError EntryKind = "error"
)

// Entry is one line of the output log. The log is append-only; entries are
// never mutated after being added.
type Entry struct {
	Seq  int       `json:"seq"`
	Time time.Time `json:"time"`
	Kind EntryKind `json:"kind"`
	Text string    `json:"text"`
}

// Snapshot is an immutable copy of the viewer state.
type Snapshot struct {
	Loaded     bool        `json:"loaded"`
	Path       string      `json:"path"`
	PageCount  int         `json:"page_count"`
	Page       int         `json:"page"`
	Zoom       float64     `json:"zoom"`
	Engine     ocr.Variant `json:"engine"`
	Selection  *ocr.Region `json:"selection,omitempty"`
	Generation uint64      `json:"generation"`
}

// State is the viewer session. The zero value is an empty session with
// default zoom; use New.
type State struct {
	mu         sync.Mutex
	path       string
	pageCount  int
	page       int
	zoom       float64
	engine     ocr.Variant
	selection  *ocr.Region
	generation uint64
	log        []Entry
}

func New() *State {
	return &State{zoom: DefaultZoom, engine: ocr.DefaultVariant}
}

// Load installs a newly opened document, resetting page, zoom, and selection.
// The generation counter advances so results from the previous document can
// be told apart and discarded.
func (s *State) Load(path string, pageCount int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.pageCount = pageCount
	s.page = 0
	s.zoom = DefaultZoom
	s.selection = nil
	s.generation++
	return s.generation
}

func (s *State) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageCount > 0
}

func (s *State) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// SetPage clamps the requested page into the document and clears the
// selection, which belonged to the old page.
func (s *State) SetPage(page int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pageCount == 0 {
		return 0, ErrNoDocument
	}
	if page < 0 {
		page = 0
	}
	if page >= s.pageCount {
		page = s.pageCount - 1
	}
	if page != s.page {
		s.selection = nil
	}
	s.page = page
	return s.page, nil
}

func (s *State) NextPage() (int, error) {
	s.mu.Lock()
	page := s.page + 1
	s.mu.Unlock()
	return s.SetPage(page)
}

func (s *State) PrevPage() (int, error) {
	s.mu.Lock()
	page := s.page - 1
	s.mu.Unlock()
	return s.SetPage(page)
}

func (s *State) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// SetZoom clamps zoom into [MinZoom, MaxZoom] and snaps it to the step grid.
// The selection is kept: it is stored in page points, which zoom does not
// affect.
func (s *State) SetZoom(zoom float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	zoom = math.Round(zoom/ZoomStep) * ZoomStep
	if zoom < MinZoom {
		zoom = MinZoom
	}
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	s.zoom = zoom
	return s.zoom
}

func (s *State) ZoomIn() float64  { return s.SetZoom(s.Zoom() + ZoomStep) }
func (s *State) ZoomOut() float64 { return s.SetZoom(s.Zoom() - ZoomStep) }

func (s *State) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// SetEngine records the active OCR engine variant. Switching engines leaves
// page, zoom, selection, and the log untouched.
func (s *State) SetEngine(v ocr.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = v
}

func (s *State) Engine() ocr.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// SetSelection stores the active selection in page points.
func (s *State) SetSelection(region ocr.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pageCount == 0 {
		return ErrNoDocument
	}
	r := region
	s.selection = &r
	return nil
}

func (s *State) Selection() *ocr.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return nil
	}
	r := *s.selection
	return &r
}

func (s *State) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
}

// AppendLog adds an entry to the output log and returns it.
func (s *State) AppendLog(kind EntryKind, text string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := Entry{Seq: len(s.log), Time: time.Now(), Kind: kind, Text: text}
	s.log = append(s.log, e)
	return e
}

// Log returns a copy of the output log, optionally starting after seq.
func (s *State) Log(afterSeq int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := afterSeq + 1
	if start < 0 {
		start = 0
	}
	if start >= len(s.log) {
		return nil
	}
	out := make([]Entry, len(s.log)-start)
	copy(out, s.log[start:])
	return out
}

func (s *State) ClearLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
}

// Text renders the output log as the savable plain-text document.
func (s *State) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	parts := make([]string, 0, len(s.log))
	for _, e := range s.log {
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, "\n")
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Loaded:     s.pageCount > 0,
		Path:       s.path,
		PageCount:  s.pageCount,
		Page:       s.page,
		Zoom:       s.zoom,
		Engine:     s.engine,
		Generation: s.generation,
	}
	if s.selection != nil {
		r := *s.selection
		snap.Selection = &r
	}
	return snap
}
