package reports

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/surgitrack/surgitrack/internal/platform/pdfkit"
)

// renderer is the state of one generation pass: a private surface, the single
// authoritative cursor and the flow controller. It is created per call and
// never shared.
type renderer struct {
	s      pdfkit.Surface
	cur    *pdfkit.Cursor
	flow   *pdfkit.FlowController
	m      *pdfkit.Measurer
	theme  pdfkit.Theme
	header pdfkit.PageHook
	log    zerolog.Logger
	now    time.Time
	marks  []SectionMark
}

// field is a label/value pair inside a boxed block.
type field struct {
	label string
	value string
}

// ensure breaks the page when fewer than h points remain.
func (r *renderer) ensure(h float64) bool {
	broke := r.flow.EnsureSpace(r.cur, h, r.header)
	if broke {
		r.log.Debug().Int("page", r.cur.PageNumber).Float64("needed", h).Msg("page break")
	}
	return broke
}

// sectionHeaderHeight is the vertical space a section header bar consumes.
func (r *renderer) sectionHeaderHeight() float64 {
	return r.theme.SectionBarHeight + r.theme.FieldGap
}

// sectionHeader draws the titled bar and records the section mark.
func (r *renderer) sectionHeader(title string) {
	t := r.theme
	x, y := r.cur.Left(), r.cur.Y
	r.s.FillRect(x, y, r.cur.ContentWidth(), t.SectionBarHeight, t.Primary)
	// Icon: a small square before the label.
	icon := t.SectionFont.Size * 0.5
	r.s.FillRect(x+8, y+(t.SectionBarHeight-icon)/2, icon, icon, t.SectionText)
	textY := y + (t.SectionBarHeight-r.m.LineHeight(t.SectionFont))/2
	r.s.Text(x+8+icon+6, textY, title, t.SectionFont, t.SectionText)
	r.cur.Advance(t.SectionBarHeight)
	r.cur.Gap(t.FieldGap)
	r.marks = append(r.marks, SectionMark{Name: title, Page: r.cur.PageNumber})
}

func (r *renderer) valueWidth(width float64) float64 {
	return width - r.theme.LabelWidth - 2*r.theme.BoxPadding
}

func (r *renderer) labelWidth() float64 {
	return r.theme.LabelWidth - 6
}

// fieldHeight is the height of one label/value pair: the taller of the
// wrapped label and the wrapped value.
func (r *renderer) fieldHeight(f field, width float64) float64 {
	t := r.theme
	lh := r.m.Height(f.label, t.LabelFont, r.labelWidth())
	vh := r.m.Height(f.value, t.BodyFont, r.valueWidth(width))
	return max(lh, vh)
}

// blockHeight is the height of a boxed block of fields, including padding.
// drawFields advances the cursor by exactly this amount.
func (r *renderer) blockHeight(fields []field, width float64) float64 {
	h := 2 * r.theme.BoxPadding
	for i, f := range fields {
		if i > 0 {
			h += r.theme.FieldGap
		}
		h += r.fieldHeight(f, width)
	}
	return h
}

// drawFields draws a background box sized to its fields and the fields
// inside it, then advances the cursor past the box and a trailing gap.
func (r *renderer) drawFields(fields []field) {
	t := r.theme
	x, width := r.cur.Left(), r.cur.ContentWidth()
	total := r.blockHeight(fields, width)
	r.s.FillRect(x, r.cur.Y, width, total, t.BoxFill)

	y := r.cur.Y + t.BoxPadding
	for i, f := range fields {
		if i > 0 {
			y += t.FieldGap
		}
		h := r.fieldHeight(f, width)
		r.m.Draw(r.s, x+t.BoxPadding, y, f.label, t.LabelFont, t.Muted, r.labelWidth())
		r.m.Draw(r.s, x+t.BoxPadding+t.LabelWidth, y, f.value, t.BodyFont, t.Text, r.valueWidth(width))
		y += h
	}
	r.cur.Advance(total)
	r.cur.Gap(t.FieldGap)
}

// freeTextSection renders a section made of free-text fields. The section's
// reserve check has already run; this one measures the real height so the
// header stays with its content. A block taller than a page starts on a
// fresh page and runs past the bottom margin.
func (r *renderer) freeTextSection(title string, fields []field) {
	h := r.blockHeight(fields, r.cur.ContentWidth()) + r.theme.FieldGap
	r.ensure(r.sectionHeaderHeight() + h)
	r.sectionHeader(title)
	r.drawFields(fields)
}

// rowHeight is the wrapped height of a single-column list row.
func (r *renderer) rowHeight(text string, f pdfkit.Font, indent float64) float64 {
	return r.m.Height(text, f, r.cur.ContentWidth()-indent-2*r.theme.BoxPadding) + r.theme.FieldGap
}

// listRow draws one wrapped row with a leading bullet, paginating before it.
func (r *renderer) listRow(text string, f pdfkit.Font, c pdfkit.Color, indent float64) {
	t := r.theme
	h := r.rowHeight(text, f, indent)
	r.ensure(h)
	x := r.cur.Left() + t.BoxPadding + indent
	bullet := f.Size * 0.3
	r.s.FillRect(x-bullet-5, r.cur.Y+r.m.LineHeight(f)/2-bullet/2, bullet, bullet, t.Muted)
	r.m.Draw(r.s, x, r.cur.Y, text, f, c, r.cur.ContentWidth()-indent-2*t.BoxPadding)
	r.cur.Advance(h)
}

// label draws a one-line heading inside a section and advances past it.
func (r *renderer) label(text string, f pdfkit.Font, c pdfkit.Color) {
	h := r.m.Height(text, f, r.cur.ContentWidth())
	r.m.Draw(r.s, r.cur.Left(), r.cur.Y, text, f, c, r.cur.ContentWidth())
	r.cur.Advance(h)
	r.cur.Gap(r.theme.FieldGap / 2)
}

// truncate shortens text with an ellipsis so it fits on one line of width.
func (r *renderer) truncate(text string, f pdfkit.Font, width float64) string {
	if r.m.Width(text, f) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && r.m.Width(string(runes)+"...", f) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
