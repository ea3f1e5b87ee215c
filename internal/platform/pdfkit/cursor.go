package pdfkit

// Cursor tracks the vertical write position on the current page. It does no
// overflow checking of its own; callers consult Remaining (directly or via
// FlowController) before drawing.
type Cursor struct {
	PageWidth  float64
	PageHeight float64
	Margin     float64
	Y          float64
	PageNumber int

	bodyTop       float64
	overflowed    bool
	overflowPages int
}

// NewCursor returns a cursor for pages of the given size. PageNumber is zero
// until the first ResetForNewPage.
func NewCursor(size PageSize, margin float64) *Cursor {
	return &Cursor{
		PageWidth:  size.Width,
		PageHeight: size.Height,
		Margin:     margin,
		Y:          margin,
		bodyTop:    margin,
	}
}

// Advance moves the cursor down by h.
func (c *Cursor) Advance(h float64) {
	c.Y += h
	if c.Y > c.Bottom() {
		c.overflowed = true
	}
}

// Gap adds blank space below the last drawn line. A gap never runs past
// the bottom margin, so trailing space alone cannot overflow a page.
func (c *Cursor) Gap(h float64) {
	c.Y += min(h, max(0, c.Remaining()))
}

// Remaining is the vertical space left above the bottom margin.
func (c *Cursor) Remaining() float64 {
	return c.PageHeight - c.Margin - c.Y
}

// ResetForNewPage moves to the top margin of the next page.
func (c *Cursor) ResetForNewPage() {
	if c.overflowed {
		c.overflowPages++
	}
	c.overflowed = false
	c.Y = c.Margin
	c.bodyTop = c.Margin
	c.PageNumber++
}

// RewindTo moves the cursor back up to y on the same page. Only the
// checklist's two-column layout uses it, to start the right column at the
// left column's origin; the page number never changes.
func (c *Cursor) RewindTo(y float64) {
	c.Y = y
}

// MarkBodyTop records the current position as the first body line of the page,
// after the running header.
func (c *Cursor) MarkBodyTop() {
	c.bodyTop = c.Y
}

// AtBodyTop reports whether nothing has been drawn below the header yet.
func (c *Cursor) AtBodyTop() bool {
	return c.Y <= c.bodyTop
}

// BodyHeight is the usable height of a fresh page below the header.
func (c *Cursor) BodyHeight() float64 {
	return c.Bottom() - c.bodyTop
}

func (c *Cursor) Left() float64 { return c.Margin }

func (c *Cursor) Right() float64 { return c.PageWidth - c.Margin }

func (c *Cursor) Bottom() float64 { return c.PageHeight - c.Margin }

// ContentWidth is the page width between the side margins.
func (c *Cursor) ContentWidth() float64 {
	return c.PageWidth - 2*c.Margin
}

// OverflowPages counts closed or current pages on which content was advanced
// past the bottom margin.
func (c *Cursor) OverflowPages() int {
	if c.overflowed {
		return c.overflowPages + 1
	}
	return c.overflowPages
}
