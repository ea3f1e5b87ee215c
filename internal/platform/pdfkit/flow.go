package pdfkit

// PageHook draws page furniture (running header or footer) at the cursor.
type PageHook func(c *Cursor)

// FlowController owns the page-break policy. A break always runs the same
// sequence: footer for the closing page, page flush, new page, cursor reset,
// header redraw.
type FlowController struct {
	surface Surface
	footer  PageHook
	breaks  int
}

// NewFlowController returns a controller that draws footer on every page it
// closes.
func NewFlowController(s Surface, footer PageHook) *FlowController {
	return &FlowController{surface: s, footer: footer}
}

// OpenPage starts a new page buffer, resets the cursor and draws the header.
func (f *FlowController) OpenPage(c *Cursor, header PageHook) {
	f.surface.AddPage()
	c.ResetForNewPage()
	if header != nil {
		header(c)
	}
	c.MarkBodyTop()
}

// EnsureSpace breaks to a new page when fewer than needed points remain and
// reports whether it did. A page with nothing below its header is never
// broken: a block taller than a whole page is drawn from there and allowed
// to run past the bottom margin.
func (f *FlowController) EnsureSpace(c *Cursor, needed float64, onPageBreak PageHook) bool {
	if c.Remaining() >= needed || c.AtBodyTop() {
		return false
	}
	f.BreakPage(c, onPageBreak)
	return true
}

// BreakPage closes the current page unconditionally and opens the next one.
func (f *FlowController) BreakPage(c *Cursor, onPageBreak PageHook) {
	f.closePage(c)
	f.breaks++
	f.OpenPage(c, onPageBreak)
}

// Close draws the footer of the final page.
func (f *FlowController) Close(c *Cursor) {
	f.closePage(c)
}

func (f *FlowController) closePage(c *Cursor) {
	if f.footer != nil {
		f.footer(c)
	}
}

// Breaks returns the number of page breaks taken so far.
func (f *FlowController) Breaks() int {
	return f.breaks
}
