package reports

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/surgitrack/surgitrack/internal/platform/pdfkit"
)

// selectedTest is the test a test report is about.
func selectedTest(s *Snapshot) MedicalTest {
	if len(s.Tests) == 0 {
		return MedicalTest{}
	}
	return s.Tests[0]
}

func renderPatientInfoTest(r *renderer, s *Snapshot) {
	r.sectionHeader(SectionPatientInfo)
	r.patientGrid(patientRows(s.Patient, r.now))
}

func renderTestDetails(r *renderer, s *Snapshot) {
	tt := selectedTest(s)
	r.freeTextSection(SectionTestDetails, []field{
		{"Test", Display(FieldTestName, tt.Name)},
		{"Category", Display(FieldTestCategory, tt.Category)},
		{"Date", DisplayDate(FieldTestDate, tt.Date)},
		{"Laboratory", Display(FieldLaboratory, tt.Laboratory)},
		{"Ordered By", Display(FieldOrderedBy, tt.OrderedBy)},
	})
}

func estimateResults(s *Snapshot, t pdfkit.Theme) float64 {
	tt := selectedTest(s)
	h := t.SectionBarHeight + 40
	for _, p := range tt.Parameters {
		h += t.RowHeight + 2*parameterRowPad
		if p.Notes != "" {
			h += 12
		}
	}
	return h
}

func renderResults(r *renderer, s *Snapshot) {
	t := r.theme
	tt := selectedTest(s)
	if len(tt.Parameters) == 0 {
		r.freeTextSection(SectionResults, []field{{"Parameters", Placeholder(FieldParameters)}})
		return
	}

	cols := r.paramColumns()
	first := sortParameters(tt.Parameters)[0]
	summary := fmt.Sprintf("%d parameters, %d outside the reference range", len(tt.Parameters), tt.AbnormalCount())
	lead := r.m.Height(summary, t.SmallFont, r.cur.ContentWidth()) + t.FieldGap/2
	r.ensure(r.sectionHeaderHeight() + lead + r.parameterTableHeaderHeight() + r.parameterRowHeight(first, cols))
	r.sectionHeader(SectionResults)
	r.label(summary, t.SmallFont, t.Muted)
	r.parameterTableHeader(cols)
	r.parameterTable(Display(FieldTestName, tt.Name), tt.Parameters)
	r.cur.Advance(t.FieldGap)
}

func renderInterpretation(r *renderer, s *Snapshot) {
	tt := selectedTest(s)
	r.freeTextSection(SectionInterpretation, []field{
		{"Summary", Display(FieldTestSummary, tt.Summary)},
		{"Notes", Display(FieldTestNotes, tt.Notes)},
	})
}

// Largest box an inlined image is scaled into.
const (
	maxImageWidth  = 260
	maxImageHeight = 200
	iconSize       = 26
)

// attachmentImage reports whether a is a drawable image and its format and
// pixel size. Payloads that fail to decode are treated as non-images.
func attachmentImage(a Attachment) (format string, w, h int, ok bool) {
	if len(a.Data) == 0 || !strings.HasPrefix(strings.ToLower(a.ContentType), "image/") {
		return "", 0, 0, false
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(a.Data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return "", 0, 0, false
	}
	if format != "png" && format != "jpeg" {
		return "", 0, 0, false
	}
	return format, cfg.Width, cfg.Height, true
}

// imageBox scales a w×h image to fit the maximum box, keeping aspect ratio.
func imageBox(w, h int, maxW float64) (float64, float64) {
	bw := min(maxW, maxImageWidth)
	scale := min(bw/float64(w), maxImageHeight/float64(h))
	return float64(w) * scale, float64(h) * scale
}

func (r *renderer) attachmentHeight(a Attachment) float64 {
	t := r.theme
	caption := r.m.LineHeight(t.SmallFont)
	if _, w, h, ok := attachmentImage(a); ok {
		_, ih := imageBox(w, h, r.cur.ContentWidth())
		return ih + caption + 2*t.FieldGap
	}
	return iconSize + 2*t.FieldGap
}

func (r *renderer) drawAttachment(a Attachment, index int) {
	t := r.theme
	x := r.cur.Left()
	name := Display(FieldAttachmentName, a.FileName)
	format, w, h, ok := attachmentImage(a)
	if ok {
		iw, ih := imageBox(w, h, r.cur.ContentWidth())
		// Image names are per document; ids are not guaranteed unique.
		key := fmt.Sprintf("attachment-%d-%s", index, a.ID)
		r.s.Image(key, a.Data, format, x, r.cur.Y, iw, ih)
		r.s.Text(x, r.cur.Y+ih+2, name, t.SmallFont, t.Muted)
		r.cur.Advance(r.attachmentHeight(a))
		return
	}

	// Non-image files: a document icon with the file name beside it.
	r.s.StrokeRect(x, r.cur.Y+2, iconSize*0.8, iconSize-4, t.Muted, 0.8)
	r.s.FillRect(x, r.cur.Y+2, iconSize*0.8, 6, t.Muted)
	kind := strings.TrimSpace(a.ContentType)
	if kind == "" {
		kind = "unknown type"
	}
	label := fmt.Sprintf("%s (%s, not embedded)", name, kind)
	r.s.Text(x+iconSize, r.cur.Y+(iconSize-r.m.LineHeight(t.BodyFont))/2,
		r.truncate(label, t.BodyFont, r.cur.ContentWidth()-iconSize), t.BodyFont, t.Text)
	r.cur.Advance(r.attachmentHeight(a))
}

// testAttachments returns the attachments belonging to the selected test.
// Attachments without a test reference are included.
func testAttachments(s *Snapshot) []Attachment {
	tt := selectedTest(s)
	var out []Attachment
	for _, a := range s.Attachments {
		if a.TestID == "" || a.TestID == tt.ID {
			out = append(out, a)
		}
	}
	return out
}

func estimateAttachments(s *Snapshot, t pdfkit.Theme) float64 {
	h := t.SectionBarHeight + 20
	for _, a := range testAttachments(s) {
		if strings.HasPrefix(strings.ToLower(a.ContentType), "image/") {
			h += maxImageHeight / 2
		} else {
			h += iconSize + 2*t.FieldGap
		}
	}
	return h
}

func renderAttachments(r *renderer, s *Snapshot) {
	atts := testAttachments(s)
	if len(atts) == 0 {
		r.freeTextSection(SectionAttachments, []field{{"Files", Placeholder(FieldAttachments)}})
		return
	}
	r.ensure(r.sectionHeaderHeight() + r.attachmentHeight(atts[0]))
	r.sectionHeader(SectionAttachments)
	for i, a := range atts {
		r.ensure(r.attachmentHeight(a))
		r.drawAttachment(a, i)
	}
}

func renderSignatureTest(r *renderer, s *Snapshot) {
	tt := selectedTest(s)
	r.signatureBlock(SectionSignature, []field{
		{"Ordered By", Display(FieldOrderedBy, tt.OrderedBy)},
		{"Report Date", DisplayDate(FieldTestDate, tt.Date)},
		{"Prepared By", Display(FieldAuthor, s.Author)},
	}, "Reviewing clinician signature")
}
