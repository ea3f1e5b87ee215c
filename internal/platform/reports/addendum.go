package reports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/surgitrack/surgitrack/internal/platform/pdfkit"
)

// AbnormalFlag is drawn next to every abnormal parameter value.
const AbnormalFlag = "ABNORMAL"

func hasAddendum(s *Snapshot) bool {
	for _, t := range s.Tests {
		if len(t.Parameters) > 0 {
			return true
		}
	}
	return false
}

// sortTestsByDate orders tests oldest first; undated tests go last. Ties keep
// name order.
func sortTestsByDate(tests []MedicalTest) []MedicalTest {
	out := append([]MedicalTest(nil), tests...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		switch {
		case a == nil && b == nil:
			return out[i].Name < out[j].Name
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// sortParameters orders parameters by name, case-insensitively.
func sortParameters(params []TestParameter) []TestParameter {
	out := append([]TestParameter(nil), params...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// paramColumns are the x offsets and widths of the parameter table.
type paramColumns struct {
	x     [4]float64
	width [4]float64
}

func (r *renderer) paramColumns() paramColumns {
	left := r.cur.Left() + r.theme.BoxPadding
	total := r.cur.ContentWidth() - 2*r.theme.BoxPadding
	fractions := [4]float64{0.34, 0.24, 0.26, 0.16}
	var c paramColumns
	x := left
	for i, f := range fractions {
		c.x[i] = x
		c.width[i] = total*f - 4
		x += total * f
	}
	return c
}

func valueText(p TestParameter) string {
	v := Display(FieldParameterValue, p.Value)
	if p.Unit != "" && strings.TrimSpace(p.Value) != "" {
		v += " " + p.Unit
	}
	return v
}

func (r *renderer) notesFont() pdfkit.Font {
	f := r.theme.SmallFont
	f.Style = "I"
	return f
}

// parameterRowHeight is the height one parameter row occupies, including
// its optional wrapped notes.
func (r *renderer) parameterRowHeight(p TestParameter, cols paramColumns) float64 {
	t := r.theme
	h := max(
		r.m.Height(Display(FieldParameterName, p.Name), t.BodyFont, cols.width[0]),
		r.m.Height(valueText(p), t.BodyFont, cols.width[1]),
		r.m.Height(p.ReferenceRange, t.SmallFont, cols.width[2]),
		r.m.LineHeight(t.LabelFont.WithSize(t.SmallFont.Size)),
	)
	if strings.TrimSpace(p.Notes) != "" {
		h += r.m.Height(p.Notes, r.notesFont(), cols.width[0]+cols.width[1]+cols.width[2])
	}
	return h + 2*parameterRowPad
}

const parameterRowPad = 3

func (r *renderer) parameterTableHeader(cols paramColumns) {
	t := r.theme
	lh := r.m.LineHeight(t.LabelFont)
	for i, title := range [4]string{"Parameter", "Result", "Reference Range", "Flag"} {
		r.s.Text(cols.x[i], r.cur.Y, title, t.LabelFont, t.Muted)
	}
	r.s.Line(r.cur.Left(), r.cur.Y+lh+1, r.cur.Right(), r.cur.Y+lh+1, t.Border, 0.5)
	r.cur.Advance(lh + 3)
}

func (r *renderer) parameterTableHeaderHeight() float64 {
	return r.m.LineHeight(r.theme.LabelFont) + 3
}

// parameterRow draws one row with a background sized to the same height the
// cursor advances by. Abnormal values are drawn in the abnormal colour and
// tagged with AbnormalFlag.
func (r *renderer) parameterRow(p TestParameter, cols paramColumns, shaded bool) {
	t := r.theme
	h := r.parameterRowHeight(p, cols)
	if shaded {
		r.s.FillRect(r.cur.Left(), r.cur.Y, r.cur.ContentWidth(), h, t.BoxFill)
	}
	y := r.cur.Y + parameterRowPad
	valueColor := t.Text
	valueFont := t.BodyFont
	if p.Abnormal {
		valueColor = t.Abnormal
		valueFont = valueFont.Bold()
	}
	top := max(
		r.m.Draw(r.s, cols.x[0], y, Display(FieldParameterName, p.Name), t.BodyFont, t.Text, cols.width[0]),
		r.m.Draw(r.s, cols.x[1], y, valueText(p), valueFont, valueColor, cols.width[1]),
		r.m.Height(p.ReferenceRange, t.SmallFont, cols.width[2]),
		r.m.LineHeight(t.LabelFont.WithSize(t.SmallFont.Size)),
	)
	if strings.TrimSpace(p.ReferenceRange) != "" {
		r.m.Draw(r.s, cols.x[2], y, p.ReferenceRange, t.SmallFont, t.Muted, cols.width[2])
	}
	if p.Abnormal {
		r.s.Text(cols.x[3], y, AbnormalFlag, t.LabelFont.WithSize(t.SmallFont.Size), t.Abnormal)
	}
	if strings.TrimSpace(p.Notes) != "" {
		r.m.Draw(r.s, cols.x[0], y+top, p.Notes, r.notesFont(), t.Muted, cols.width[0]+cols.width[1]+cols.width[2])
	}
	r.cur.Advance(h)
}

// parameterTable draws a test's parameters sorted by name, row by row. When a
// row forces a page break the test heading and column header are repeated.
func (r *renderer) parameterTable(heading string, params []TestParameter) {
	t := r.theme
	cols := r.paramColumns()
	sorted := sortParameters(params)
	for i, p := range sorted {
		if r.ensure(r.parameterRowHeight(p, cols)) {
			r.label(heading+" (continued)", t.LabelFont, t.Primary)
			r.parameterTableHeader(cols)
		}
		r.parameterRow(p, cols, i%2 == 0)
	}
}

func testHeading(tt MedicalTest) string {
	return fmt.Sprintf("%s | %s | %s", Display(FieldTestName, tt.Name),
		Display(FieldTestCategory, tt.Category), DisplayDate(FieldTestDate, tt.Date))
}

func estimateAddendum(s *Snapshot, t pdfkit.Theme) float64 {
	h := t.SectionBarHeight + 30
	for _, tt := range s.Tests {
		if len(tt.Parameters) == 0 {
			continue
		}
		h += 40
		for _, p := range tt.Parameters {
			h += t.RowHeight + 2*parameterRowPad
			if p.Notes != "" {
				h += 12
			}
		}
	}
	return h
}

// renderAddendum lists every parameter of every test, tests oldest first.
// The assembler has already opened a fresh page.
func renderAddendum(r *renderer, s *Snapshot) {
	t := r.theme
	r.sectionHeader(SectionAddendum)
	r.label("Detailed parameter values for all tests recorded during this admission.", t.SmallFont, t.Muted)

	cols := r.paramColumns()
	for _, tt := range sortTestsByDate(s.Tests) {
		if len(tt.Parameters) == 0 {
			continue
		}
		heading := testHeading(tt)
		first := sortParameters(tt.Parameters)[0]
		headH := r.m.Height(heading, t.LabelFont, r.cur.ContentWidth()) + t.FieldGap/2
		r.ensure(headH + r.parameterTableHeaderHeight() + r.parameterRowHeight(first, cols))
		r.label(heading, t.LabelFont, t.Primary)
		r.parameterTableHeader(cols)
		r.parameterTable(Display(FieldTestName, tt.Name), tt.Parameters)
		r.cur.Gap(t.FieldGap)
	}
}
