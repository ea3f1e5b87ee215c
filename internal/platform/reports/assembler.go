package reports

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/surgitrack/surgitrack/internal/platform/pdfkit"
)

var (
	// ErrGenerationFailed is returned when the drawing surface cannot
	// serialise the finished document. No partial bytes are returned with it.
	ErrGenerationFailed = errors.New("reports: generation failed")
	// ErrTestNotFound is returned when a test report names a test the
	// snapshot does not contain.
	ErrTestNotFound = errors.New("reports: test not found in snapshot")
)

const confidentialityNotice = "CONFIDENTIAL: contains protected health information. Handle according to hospital policy."

// Letterhead is the hospital identity block of the running header.
type Letterhead struct {
	Name       string
	Address    string
	Phone      string
	Department string
}

// Options configures an Assembler. Zero values select defaults.
type Options struct {
	Letterhead Letterhead
	Theme      *pdfkit.Theme
	// DefaultAuthor is used when a snapshot carries no author.
	DefaultAuthor string
	Compress      bool
	Clock         func() time.Time
	Logger        *zerolog.Logger
	// Observer, when set, is called after every Generate.
	Observer Observer
}

// Observer receives the outcome of one generation: its layout stats, the
// serialised size and the wall time taken.
type Observer func(stats Stats, size int, took time.Duration, err error)

// Assembler turns snapshots into finished documents. It holds only immutable
// configuration and is safe for concurrent use; every call builds its own
// surface and cursor.
type Assembler struct {
	letterhead Letterhead
	theme      pdfkit.Theme
	author     string
	compress   bool
	clock      func() time.Time
	log        zerolog.Logger
	observe    Observer
}

// NewAssembler creates an Assembler.
func NewAssembler(opts Options) *Assembler {
	a := &Assembler{
		letterhead: opts.Letterhead,
		theme:      pdfkit.DefaultTheme(),
		author:     opts.DefaultAuthor,
		compress:   opts.Compress,
		clock:      opts.Clock,
		log:        zerolog.Nop(),
		observe:    opts.Observer,
	}
	if opts.Theme != nil {
		a.theme = *opts.Theme
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	if opts.Logger != nil {
		a.log = *opts.Logger
	}
	if strings.TrimSpace(a.letterhead.Name) == "" {
		a.letterhead.Name = "SurgiTrack Hospital"
	}
	return a
}

// Theme returns the layout theme in use.
func (a *Assembler) Theme() pdfkit.Theme { return a.theme }

// Stats describes one finished layout pass.
type Stats struct {
	Kind           string        `json:"kind"`
	Pages          int           `json:"pages"`
	EstimatedPages int           `json:"estimated_pages"`
	Breaks         int           `json:"breaks"`
	OverflowPages  int           `json:"overflow_pages"`
	Addendum       bool          `json:"addendum"`
	Sections       []SectionMark `json:"sections"`
}

// GenerateDischargeSummary renders the A4 discharge summary.
func (a *Assembler) GenerateDischargeSummary(s *Snapshot) ([]byte, error) {
	data, _, err := a.Generate(DischargeSummaryDocument(), s)
	return data, err
}

// GenerateTestReport renders the US Letter report of one test. An empty
// testID selects the first test in the snapshot.
func (a *Assembler) GenerateTestReport(s *Snapshot, testID string) ([]byte, error) {
	one, err := ForTest(s, testID)
	if err != nil {
		return nil, err
	}
	data, _, err := a.Generate(TestReportDocument(), one)
	return data, err
}

// ForTest returns a copy of s reduced to the test with the given id.
func ForTest(s *Snapshot, testID string) (*Snapshot, error) {
	if s == nil {
		s = &Snapshot{}
	}
	out := *s
	if testID == "" {
		if len(s.Tests) > 0 {
			out.Tests = s.Tests[:1]
		}
		return &out, nil
	}
	for _, t := range s.Tests {
		if t.ID == testID {
			out.Tests = []MedicalTest{t}
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTestNotFound, testID)
}

// Generate lays out doc for s and serialises it to PDF bytes.
func (a *Assembler) Generate(doc Document, s *Snapshot) ([]byte, Stats, error) {
	start := time.Now()
	surface := pdfkit.NewFPDFSurface(doc.PageSize, a.compress)
	stats := a.Render(doc, s, surface)

	var buf bytes.Buffer
	if err := surface.Output(&buf); err != nil {
		err = fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		a.log.Error().Err(err).Str("kind", doc.Kind).Msg("report serialisation failed")
		if a.observe != nil {
			a.observe(stats, 0, time.Since(start), err)
		}
		return nil, stats, err
	}
	if a.observe != nil {
		a.observe(stats, buf.Len(), time.Since(start), nil)
	}
	return buf.Bytes(), stats, nil
}

// Estimate returns the heuristic total page count printed in footers. It sums
// per-section estimates from record counts without measuring text, so it may
// differ from the page count the real pass produces.
func (a *Assembler) Estimate(doc Document, s *Snapshot) int {
	if s == nil {
		s = &Snapshot{}
	}
	t := a.theme
	usable := doc.PageSize.Height - 2*t.Margin - a.headerHeight()

	var body float64
	for _, sec := range doc.Sections {
		if sec.Estimate != nil {
			body += sec.Estimate(s, t)
		}
	}
	pages := max(1, int(math.Ceil(body/usable)))

	if a.hasAddendum(doc, s) && doc.Addendum.Estimate != nil {
		pages += max(1, int(math.Ceil(doc.Addendum.Estimate(s, t)/usable)))
	}
	return pages
}

func (a *Assembler) hasAddendum(doc Document, s *Snapshot) bool {
	return doc.Addendum != nil && doc.HasAddendum != nil && doc.HasAddendum(s)
}

// Render runs the layout pass onto surface without serialising it. Sections
// are drawn once each, in the document's fixed order; the addendum, when
// present, starts on a fresh page after them.
func (a *Assembler) Render(doc Document, s *Snapshot, surface pdfkit.Surface) Stats {
	if s == nil {
		s = &Snapshot{}
	}
	t := a.theme
	now := a.clock()
	estimated := a.Estimate(doc, s)

	r := &renderer{
		s:     surface,
		cur:   pdfkit.NewCursor(doc.PageSize, t.Margin),
		m:     pdfkit.NewMeasurer(surface, t.LineSpacing),
		theme: t,
		log:   a.log,
		now:   now,
	}
	r.header = func(*pdfkit.Cursor) { a.drawHeader(r, doc, s) }
	r.flow = pdfkit.NewFlowController(surface, func(*pdfkit.Cursor) { a.drawFooter(r, now, estimated) })

	surface.SetMetadata(a.metadata(doc, s, now))

	r.flow.OpenPage(r.cur, r.header)
	for _, sec := range doc.Sections {
		if sec.Reserve != nil {
			r.ensure(sec.Reserve(s, t))
		}
		sec.Render(r, s)
	}

	addendum := a.hasAddendum(doc, s)
	if addendum {
		r.flow.BreakPage(r.cur, r.header)
		doc.Addendum.Render(r, s)
	}
	r.flow.Close(r.cur)

	stats := Stats{
		Kind:           doc.Kind,
		Pages:          r.cur.PageNumber,
		EstimatedPages: estimated,
		Breaks:         r.flow.Breaks(),
		OverflowPages:  r.cur.OverflowPages(),
		Addendum:       addendum,
		Sections:       r.marks,
	}
	evt := a.log.Debug()
	if stats.Pages != estimated {
		evt = a.log.Info()
	}
	evt.Str("kind", doc.Kind).
		Int("pages", stats.Pages).
		Int("estimated_pages", estimated).
		Int("overflow_pages", stats.OverflowPages).
		Msg("report rendered")
	return stats
}

func (a *Assembler) metadata(doc Document, s *Snapshot, now time.Time) pdfkit.Metadata {
	author := s.Author
	if strings.TrimSpace(author) == "" {
		author = a.author
	}
	keywords := []string{"SurgiTrack", doc.Kind}
	if s.Patient.MRN != "" {
		keywords = append(keywords, s.Patient.MRN)
	}
	title := doc.Title
	if name := s.Patient.FullName(); name != "" {
		title += " - " + name
	}
	return pdfkit.Metadata{
		Title:     title,
		Author:    Display(FieldAuthor, author),
		Subject:   doc.Subject,
		Keywords:  keywords,
		Creator:   "SurgiTrack Reports",
		CreatedAt: now,
	}
}

// headerHeight is the height drawHeader advances by. It uses only line
// heights, so the estimator can call it without a surface.
func (a *Assembler) headerHeight() float64 {
	t := a.theme
	lh := t.LineHeight
	return lh(t.HeadingFont) + 2*lh(t.SmallFont) + headerRuleGap + lh(t.TitleFont) + lh(t.SmallFont) + headerBottomGap
}

const (
	headerRuleGap   = 12
	headerBottomGap = 12
	// footerRuleGap is the distance from the bottom margin to the footer rule.
	footerRuleGap = 6
)

// drawHeader draws the hospital identity block and document title.
func (a *Assembler) drawHeader(r *renderer, doc Document, s *Snapshot) {
	t := r.theme
	lh := r.m.LineHeight
	x, width := r.cur.Left(), r.cur.ContentWidth()
	y := r.cur.Y
	lt := a.letterhead

	r.s.Text(x, y, r.truncate(lt.Name, t.HeadingFont, width), t.HeadingFont, t.Primary)
	y += lh(t.HeadingFont)
	r.s.Text(x, y, r.truncate(lt.Address, t.SmallFont, width), t.SmallFont, t.Muted)
	y += lh(t.SmallFont)
	var contact []string
	if lt.Phone != "" {
		contact = append(contact, "Tel: "+lt.Phone)
	}
	if lt.Department != "" {
		contact = append(contact, lt.Department)
	}
	r.s.Text(x, y, r.truncate(strings.Join(contact, " | "), t.SmallFont, width), t.SmallFont, t.Muted)
	y += lh(t.SmallFont)

	r.s.Line(x, y+4, x+width, y+4, t.Primary, 1.2)
	y += headerRuleGap

	title := r.truncate(doc.Title, t.TitleFont, width)
	r.s.Text(x+(width-r.m.Width(title, t.TitleFont))/2, y, title, t.TitleFont, t.Text)
	y += lh(t.TitleFont)

	sub := fmt.Sprintf("Patient: %s | MRN: %s",
		Display(FieldPatientName, s.Patient.FullName()), Display(FieldMRN, s.Patient.MRN))
	sub = r.truncate(sub, t.SmallFont, width)
	r.s.Text(x+(width-r.m.Width(sub, t.SmallFont))/2, y, sub, t.SmallFont, t.Muted)

	r.cur.Advance(a.headerHeight())
}

// drawFooter draws the footer of the page being closed inside the bottom
// margin. The total is the pre-pass estimate.
func (a *Assembler) drawFooter(r *renderer, now time.Time, estimated int) {
	t := r.theme
	f := t.FooterFont
	x, width := r.cur.Left(), r.cur.ContentWidth()
	y := r.cur.Bottom() + footerRuleGap

	r.s.Line(x, y, x+width, y, t.Border, 0.5)
	y += 4
	r.s.Text(x, y, "Generated: "+now.Format(timestampLayout), f, t.Muted)
	page := fmt.Sprintf("Page %d of %d", r.cur.PageNumber, estimated)
	r.s.Text(x+width-r.m.Width(page, f), y, page, f, t.Muted)
	y += r.m.LineHeight(f)
	notice := r.truncate(confidentialityNotice, f, width)
	r.s.Text(x+(width-r.m.Width(notice, f))/2, y, notice, f, t.Muted)
}
