package pdfkit

import (
	"strings"
	"testing"
)

type flowHarness struct {
	rec    *Recorder
	flow   *FlowController
	cursor *Cursor
	events []string
}

func newFlowHarness() *flowHarness {
	h := &flowHarness{rec: NewRecorder(NewFPDFSurface(A4, false))}
	h.cursor = NewCursor(A4, 40)
	h.flow = NewFlowController(h.rec, func(c *Cursor) {
		h.events = append(h.events, "footer")
	})
	return h
}

func (h *flowHarness) header(c *Cursor) {
	h.events = append(h.events, "header")
	c.Advance(50)
}

func TestFlow_OpenPageDrawsHeader(t *testing.T) {
	h := newFlowHarness()
	h.flow.OpenPage(h.cursor, h.header)

	if h.cursor.PageNumber != 1 || h.rec.PageCount() != 1 {
		t.Fatalf("expected one page, cursor=%d surface=%d", h.cursor.PageNumber, h.rec.PageCount())
	}
	if h.cursor.Y != 90 {
		t.Errorf("expected body to start below header at 90, got %v", h.cursor.Y)
	}
	if !h.cursor.AtBodyTop() {
		t.Error("expected body top marked after header")
	}
}

func TestFlow_EnsureSpaceFits(t *testing.T) {
	h := newFlowHarness()
	h.flow.OpenPage(h.cursor, h.header)
	h.cursor.Advance(100)

	if h.flow.EnsureSpace(h.cursor, 200, h.header) {
		t.Error("expected no page break when the block fits")
	}
	if h.flow.Breaks() != 0 {
		t.Errorf("expected no breaks, got %d", h.flow.Breaks())
	}
}

func TestFlow_EnsureSpaceBreakSequence(t *testing.T) {
	h := newFlowHarness()
	h.flow.OpenPage(h.cursor, h.header)
	h.cursor.Advance(600)
	h.events = nil

	if !h.flow.EnsureSpace(h.cursor, 200, h.header) {
		t.Fatal("expected a page break")
	}
	if got := strings.Join(h.events, ","); got != "footer,header" {
		t.Errorf("expected footer then header, got %s", got)
	}
	if h.cursor.PageNumber != 2 || h.rec.PageCount() != 2 {
		t.Errorf("expected page 2, cursor=%d surface=%d", h.cursor.PageNumber, h.rec.PageCount())
	}
	if h.cursor.Y != 90 {
		t.Errorf("expected cursor below the redrawn header, got %v", h.cursor.Y)
	}
}

func TestFlow_NoBreakOnEmptyPage(t *testing.T) {
	h := newFlowHarness()
	h.flow.OpenPage(h.cursor, h.header)

	if h.flow.EnsureSpace(h.cursor, 5000, h.header) {
		t.Error("a block taller than a page must not break an empty page")
	}
	if h.rec.PageCount() != 1 {
		t.Errorf("expected 1 page, got %d", h.rec.PageCount())
	}
}

func TestFlow_CloseDrawsFinalFooter(t *testing.T) {
	h := newFlowHarness()
	h.flow.OpenPage(h.cursor, h.header)
	h.flow.BreakPage(h.cursor, h.header)
	h.flow.Close(h.cursor)

	footers := 0
	for _, e := range h.events {
		if e == "footer" {
			footers++
		}
	}
	if footers != 2 {
		t.Errorf("expected one footer per page, got %d", footers)
	}
}
