package session

import (
	"errors"
	"testing"

	"github.com/wudi/pdfocr/ocr"
)

func TestEmptySession(t *testing.T) {
	s := New()
	if s.Loaded() {
		t.Fatal("empty session reports loaded")
	}
	if s.Zoom() != DefaultZoom {
		t.Fatalf("Zoom() = %v, want %v", s.Zoom(), DefaultZoom)
	}
	if s.Engine() != ocr.DefaultVariant {
		t.Fatalf("Engine() = %v", s.Engine())
	}
	if _, err := s.SetPage(0); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("SetPage on empty session = %v, want ErrNoDocument", err)
	}
	if err := s.SetSelection(ocr.Region{Width: 10, Height: 10}); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("SetSelection on empty session = %v, want ErrNoDocument", err)
	}
}

func TestLoadResetsState(t *testing.T) {
	s := New()
	gen1 := s.Load("/tmp/a.pdf", 10)
	if !s.Loaded() {
		t.Fatal("session not loaded")
	}
	if _, err := s.SetPage(7); err != nil {
		t.Fatalf("SetPage error = %v", err)
	}
	s.SetZoom(2.0)
	if err := s.SetSelection(ocr.Region{Width: 50, Height: 50}); err != nil {
		t.Fatalf("SetSelection error = %v", err)
	}

	gen2 := s.Load("/tmp/b.pdf", 3)
	if gen2 != gen1+1 {
		t.Fatalf("generation did not advance: %d -> %d", gen1, gen2)
	}
	if s.Page() != 0 || s.Zoom() != DefaultZoom || s.Selection() != nil {
		t.Fatalf("load did not reset state: page=%d zoom=%v sel=%v", s.Page(), s.Zoom(), s.Selection())
	}
}

func TestPageNavigationClamps(t *testing.T) {
	s := New()
	s.Load("/tmp/a.pdf", 3)

	if p, _ := s.PrevPage(); p != 0 {
		t.Fatalf("PrevPage at first page = %d, want 0", p)
	}
	if p, _ := s.NextPage(); p != 1 {
		t.Fatalf("NextPage = %d, want 1", p)
	}
	if p, _ := s.SetPage(99); p != 2 {
		t.Fatalf("SetPage(99) = %d, want 2", p)
	}
	if p, _ := s.NextPage(); p != 2 {
		t.Fatalf("NextPage at last page = %d, want 2", p)
	}
	if p, _ := s.SetPage(-5); p != 0 {
		t.Fatalf("SetPage(-5) = %d, want 0", p)
	}
}

func TestZoomClampAndSnap(t *testing.T) {
	s := New()
	s.Load("/tmp/a.pdf", 1)

	if z := s.SetZoom(10); z != MaxZoom {
		t.Fatalf("SetZoom(10) = %v, want %v", z, MaxZoom)
	}
	if z := s.SetZoom(0.01); z != MinZoom {
		t.Fatalf("SetZoom(0.01) = %v, want %v", z, MinZoom)
	}
	if z := s.SetZoom(1.1); z != 1.0 {
		t.Fatalf("SetZoom(1.1) = %v, want snap to 1.0", z)
	}

	s.SetZoom(1.0)
	if z := s.ZoomIn(); z != 1.25 {
		t.Fatalf("ZoomIn() = %v, want 1.25", z)
	}
	if z := s.ZoomOut(); z != 1.0 {
		t.Fatalf("ZoomOut() = %v, want 1.0", z)
	}
	s.SetZoom(MaxZoom)
	if z := s.ZoomIn(); z != MaxZoom {
		t.Fatalf("ZoomIn past max = %v, want %v", z, MaxZoom)
	}
	s.SetZoom(MinZoom)
	if z := s.ZoomOut(); z != MinZoom {
		t.Fatalf("ZoomOut past min = %v, want %v", z, MinZoom)
	}
}

func TestSelectionLifecycle(t *testing.T) {
	s := New()
	s.Load("/tmp/a.pdf", 5)
	sel := ocr.Region{X: 1, Y: 2, Width: 30, Height: 40}

	if err := s.SetSelection(sel); err != nil {
		t.Fatalf("SetSelection error = %v", err)
	}
	if got := s.Selection(); got == nil || *got != sel {
		t.Fatalf("Selection() = %v", got)
	}

	// Page points are zoom independent, so zoom keeps the selection.
	s.SetZoom(2.0)
	if s.Selection() == nil {
		t.Fatal("selection did not survive zoom change")
	}

	// The selection belongs to the page; navigation clears it.
	s.NextPage()
	if s.Selection() != nil {
		t.Fatal("selection survived page change")
	}

	s.SetSelection(sel)
	s.SetPage(s.Page())
	if s.Selection() == nil {
		t.Fatal("selection dropped without a page change")
	}

	s.SetSelection(sel)
	s.ClearSelection()
	if s.Selection() != nil {
		t.Fatal("ClearSelection left a selection")
	}
}

func TestEngineSwitchLeavesStateAlone(t *testing.T) {
	s := New()
	s.Load("/tmp/a.pdf", 5)
	s.SetPage(2)
	s.SetZoom(1.5)
	s.SetSelection(ocr.Region{Width: 20, Height: 20})
	s.AppendLog(EntryText, "hello")

	s.SetEngine(ocr.VariantNeural)

	if s.Engine() != ocr.VariantNeural {
		t.Fatalf("Engine() = %v", s.Engine())
	}
	if s.Page() != 2 || s.Zoom() != 1.5 || s.Selection() == nil {
		t.Fatal("engine switch disturbed viewer state")
	}
	if s.Text() != "hello" {
		t.Fatalf("engine switch disturbed log: %q", s.Text())
	}
}

func TestLogAppendOnly(t *testing.T) {
	s := New()
	e0 := s.AppendLog(EntryInfo, "opened")
	e1 := s.AppendLog(EntryText, "result one")
	e2 := s.AppendLog(EntryError, "engine failed")

	if e0.Seq != 0 || e1.Seq != 1 || e2.Seq != 2 {
		t.Fatalf("unexpected sequence numbers: %d %d %d", e0.Seq, e1.Seq, e2.Seq)
	}

	all := s.Log(-1)
	if len(all) != 3 {
		t.Fatalf("Log(-1) returned %d entries", len(all))
	}
	tail := s.Log(1)
	if len(tail) != 1 || tail[0].Seq != 2 {
		t.Fatalf("Log(1) = %+v", tail)
	}
	if s.Log(5) != nil {
		t.Fatal("Log past end should be empty")
	}

	want := "opened\nresult one\nengine failed"
	if s.Text() != want {
		t.Fatalf("Text() = %q, want %q", s.Text(), want)
	}

	s.ClearLog()
	if s.Text() != "" || s.Log(-1) != nil {
		t.Fatal("ClearLog left entries behind")
	}
}

func TestSnapshot(t *testing.T) {
	s := New()
	s.Load("/tmp/a.pdf", 4)
	s.SetPage(1)
	s.SetZoom(0.5)
	s.SetEngine(ocr.VariantNative)
	s.SetSelection(ocr.Region{X: 5, Y: 6, Width: 7, Height: 8})

	snap := s.Snapshot()
	if !snap.Loaded || snap.Path != "/tmp/a.pdf" || snap.PageCount != 4 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Page != 1 || snap.Zoom != 0.5 || snap.Engine != ocr.VariantNative {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Selection == nil || snap.Selection.Width != 7 {
		t.Fatalf("snapshot selection: %+v", snap.Selection)
	}

	// Mutating the snapshot's selection does not touch the session.
	snap.Selection.Width = 999
	if s.Selection().Width != 7 {
		t.Fatal("snapshot aliases session selection")
	}
}
