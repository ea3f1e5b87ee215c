package pdfkit

import "testing"

func TestCursor_AdvanceAndRemaining(t *testing.T) {
	c := NewCursor(A4, 40)
	if c.Y != 40 {
		t.Fatalf("expected cursor at top margin, got %v", c.Y)
	}
	if c.PageNumber != 0 {
		t.Errorf("expected page 0 before the first page, got %d", c.PageNumber)
	}

	c.Advance(100)
	if c.Y != 140 {
		t.Errorf("expected y=140, got %v", c.Y)
	}
	if got := c.Remaining(); got != 842-40-140 {
		t.Errorf("unexpected remaining space %v", got)
	}
	if c.ContentWidth() != 515 {
		t.Errorf("expected content width 515, got %v", c.ContentWidth())
	}
}

func TestCursor_ResetForNewPage(t *testing.T) {
	c := NewCursor(Letter, 36)
	c.ResetForNewPage()
	c.Advance(300)
	c.ResetForNewPage()
	if c.PageNumber != 2 {
		t.Errorf("expected page 2, got %d", c.PageNumber)
	}
	if c.Y != 36 {
		t.Errorf("expected y reset to margin, got %v", c.Y)
	}
}

func TestCursor_RewindKeepsPage(t *testing.T) {
	c := NewCursor(A4, 40)
	c.ResetForNewPage()
	c.Advance(50)
	origin := c.Y
	c.Advance(80)
	c.RewindTo(origin)
	if c.Y != origin || c.PageNumber != 1 {
		t.Errorf("rewind changed state: y=%v page=%d", c.Y, c.PageNumber)
	}
}

func TestCursor_BodyTop(t *testing.T) {
	c := NewCursor(A4, 40)
	c.ResetForNewPage()
	c.Advance(60)
	c.MarkBodyTop()
	if !c.AtBodyTop() {
		t.Error("expected cursor at body top")
	}
	if c.BodyHeight() != 842-40-100 {
		t.Errorf("unexpected body height %v", c.BodyHeight())
	}
	c.Advance(1)
	if c.AtBodyTop() {
		t.Error("expected cursor below body top after advancing")
	}
}

func TestCursor_OverflowPages(t *testing.T) {
	c := NewCursor(A4, 40)
	c.ResetForNewPage()
	c.Advance(762)
	if c.OverflowPages() != 0 {
		t.Error("reaching the bottom margin exactly is not an overflow")
	}
	c.Advance(1)
	if c.OverflowPages() != 1 {
		t.Errorf("expected 1 overflow page, got %d", c.OverflowPages())
	}
	c.ResetForNewPage()
	c.Advance(10)
	if c.OverflowPages() != 1 {
		t.Errorf("expected overflow count to persist, got %d", c.OverflowPages())
	}
}

func TestCursor_GapNeverOverflows(t *testing.T) {
	c := NewCursor(A4, 40)
	c.ResetForNewPage()
	c.Advance(755)
	c.Gap(20)
	if c.Y != c.Bottom() {
		t.Errorf("expected gap clamped to bottom %v, got %v", c.Bottom(), c.Y)
	}
	if c.OverflowPages() != 0 {
		t.Errorf("expected no overflow from a trailing gap, got %d", c.OverflowPages())
	}
	c.Gap(5)
	if c.Y != c.Bottom() || c.Remaining() != 0 {
		t.Errorf("expected gap at the bottom to be a no-op, got y=%v", c.Y)
	}

	c.ResetForNewPage()
	c.Gap(8)
	if c.Y != c.Margin+8 {
		t.Errorf("expected full gap with room left, got y=%v", c.Y)
	}
}
