package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/surgitrack/surgitrack/internal/platform/pdfkit"
)

// cell is one label/value slot of the two-column patient grid.
type cell struct {
	label string
	value string
}

const patientLabelWidth = 82

func (r *renderer) patientRowHeight() float64 {
	return r.m.LineHeight(r.theme.BodyFont) + 4
}

// patientGrid draws a fixed two-column label/value grid. Values are cut to
// one line, so the height depends only on the row count.
func (r *renderer) patientGrid(rows [][2]cell) {
	t := r.theme
	x, width := r.cur.Left(), r.cur.ContentWidth()
	rowH := r.patientRowHeight()
	total := float64(len(rows))*rowH + 2*t.BoxPadding
	r.s.FillRect(x, r.cur.Y, width, total, t.BoxFill)
	r.s.StrokeRect(x, r.cur.Y, width, total, t.Border, 0.5)

	colW := width / 2
	valueW := colW - patientLabelWidth - 2*t.BoxPadding
	y := r.cur.Y + t.BoxPadding
	for _, row := range rows {
		for col, c := range row {
			if c.label == "" {
				continue
			}
			cx := x + float64(col)*colW + t.BoxPadding
			r.s.Text(cx, y, c.label, t.LabelFont, t.Muted)
			r.s.Text(cx+patientLabelWidth, y, r.truncate(c.value, t.BodyFont, valueW), t.BodyFont, t.Text)
		}
		y += rowH
	}
	r.cur.Advance(total)
	r.cur.Gap(t.FieldGap)
}

func age(dob *time.Time, now time.Time) string {
	if dob == nil || dob.IsZero() || now.Before(*dob) {
		return ""
	}
	years := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		years--
	}
	return fmt.Sprintf(" (%d y)", years)
}

func patientRows(p Patient, now time.Time) [][2]cell {
	return [][2]cell{
		{{"Name", Display(FieldPatientName, p.FullName())}, {"MRN", Display(FieldMRN, p.MRN)}},
		{{"Date of Birth", DisplayDate(FieldDateOfBirth, p.DateOfBirth) + age(p.DateOfBirth, now)}, {"Gender", Display(FieldGender, p.Gender)}},
		{{"Blood Group", Display(FieldBloodGroup, p.BloodGroup)}, {"Bed", Display(FieldBedNumber, p.BedNumber)}},
		{{"Phone", Display(FieldPhone, p.Phone)}, {"Address", Display(FieldAddress, p.Address)}},
	}
}

func renderPatientInfoDischarge(r *renderer, s *Snapshot) {
	admitted := s.Discharge.AdmissionDate
	if admitted == nil {
		admitted = s.Patient.AdmissionDate
	}
	rows := patientRows(s.Patient, r.now)
	rows = append(rows, [2]cell{
		{"Admitted", DisplayDate(FieldAdmissionDate, admitted)},
		{"Discharged", DisplayDate(FieldDischargeDate, s.Discharge.DischargeDate)},
	})
	r.sectionHeader(SectionPatientInfo)
	r.patientGrid(rows)
}

func renderInitialPresentation(r *renderer, s *Snapshot) {
	r.freeTextSection(SectionInitialPresentation, []field{
		{"Chief Complaint", Display(FieldChiefComplaint, s.Discharge.ChiefComplaint)},
		{"History", Display(FieldHistory, s.Discharge.PresentingHistory)},
	})
}

func renderDiagnoses(r *renderer, s *Snapshot) {
	r.freeTextSection(SectionDiagnoses, []field{
		{"Primary Diagnosis", Display(FieldPrimaryDiagnosis, s.Discharge.PrimaryDiagnosis)},
		{"Secondary Diagnoses", Display(FieldSecondaryDiagnoses, s.Discharge.SecondaryDiagnoses)},
	})
}

func renderTreatment(r *renderer, s *Snapshot) {
	r.freeTextSection(SectionTreatment, []field{
		{"Treatment Given", Display(FieldTreatmentSummary, s.Discharge.TreatmentSummary)},
		{"Hospital Course", Display(FieldHospitalCourse, s.Discharge.HospitalCourse)},
		{"Condition at Discharge", Display(FieldDischargeCondition, s.Discharge.DischargeCondition)},
	})
}

// Expected height of one surgery group, used before anything is measured.
const operativeGroupEstimate = 95

func reserveOperative(s *Snapshot, t pdfkit.Theme) float64 {
	n := min(len(s.Operations), 2)
	if n == 0 {
		n = 1
	}
	return t.SectionBarHeight + float64(n)*operativeGroupEstimate
}

func estimateOperative(s *Snapshot, t pdfkit.Theme) float64 {
	return t.SectionBarHeight + float64(max(len(s.Operations), 1))*operativeGroupEstimate
}

func operativeFields(op OperativeRecord) []field {
	return []field{
		{"Date", DisplayDate(FieldProcedureDate, op.Date)},
		{"Surgeon", Display(FieldSurgeon, op.Surgeon)},
		{"Anesthesia", Display(FieldAnesthesia, op.Anesthesia)},
		{"Findings", Display(FieldFindings, op.Findings)},
		{"Operative Notes", Display(FieldOperativeNote, op.Notes)},
	}
}

func renderOperative(r *renderer, s *Snapshot) {
	t := r.theme
	if len(s.Operations) == 0 {
		r.freeTextSection(SectionOperative, []field{{"Procedures", Placeholder(FieldOperations)}})
		return
	}

	width := r.cur.ContentWidth()
	groupHeight := func(i int, op OperativeRecord) (string, float64) {
		title := fmt.Sprintf("%d. %s", i+1, Display(FieldProcedureName, op.ProcedureName))
		h := r.m.Height(title, t.LabelFont, width) + t.FieldGap/2
		return title, h + r.blockHeight(operativeFields(op), width) + t.FieldGap
	}

	_, first := groupHeight(0, s.Operations[0])
	r.ensure(r.sectionHeaderHeight() + first)
	r.sectionHeader(SectionOperative)
	for i, op := range s.Operations {
		title, h := groupHeight(i, op)
		r.ensure(h)
		r.label(title, t.LabelFont, t.Primary)
		r.drawFields(operativeFields(op))
	}
}

// medicationLines splits a one-per-line medication list.
func medicationLines(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l := strings.TrimSpace(line); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func estimateMedications(s *Snapshot, t pdfkit.Theme) float64 {
	n := len(medicationLines(s.Discharge.DischargeMedications)) + len(medicationLines(s.Discharge.MedicationChanges))
	return t.SectionBarHeight + 40 + float64(max(n, 2))*t.RowHeight
}

const listIndent = 12

func (r *renderer) medicationList(title string, lines []string, placeholder string) {
	t := r.theme
	if len(lines) == 0 {
		lines = []string{placeholder}
	}
	titleH := r.m.Height(title, t.LabelFont, r.cur.ContentWidth()) + t.FieldGap/2
	r.ensure(titleH + r.rowHeight(lines[0], t.BodyFont, listIndent))
	r.label(title, t.LabelFont, t.Primary)
	for _, line := range lines {
		r.listRow(line, t.BodyFont, t.Text, listIndent)
	}
}

func renderMedications(r *renderer, s *Snapshot) {
	t := r.theme
	current := medicationLines(s.Discharge.DischargeMedications)
	changes := medicationLines(s.Discharge.MedicationChanges)

	first := Placeholder(FieldDischargeMedications)
	if len(current) > 0 {
		first = current[0]
	}
	lead := r.m.Height("Discharge Medications", t.LabelFont, r.cur.ContentWidth()) + t.FieldGap/2
	r.ensure(r.sectionHeaderHeight() + lead + r.rowHeight(first, t.BodyFont, listIndent))
	r.sectionHeader(SectionMedications)
	r.medicationList("Discharge Medications", current, Placeholder(FieldDischargeMedications))
	r.medicationList("Medication Changes", changes, Placeholder(FieldMedicationChanges))
	r.cur.Gap(t.FieldGap)
}

// categoryGroup is the tests of one category, oldest first.
type categoryGroup struct {
	category string
	tests    []MedicalTest
}

func groupTestsByCategory(tests []MedicalTest) []categoryGroup {
	byCat := make(map[string][]MedicalTest)
	for _, tt := range tests {
		cat := Display(FieldTestCategory, tt.Category)
		byCat[cat] = append(byCat[cat], tt)
	}
	cats := make([]string, 0, len(byCat))
	for c := range byCat {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	groups := make([]categoryGroup, len(cats))
	for i, c := range cats {
		groups[i] = categoryGroup{category: c, tests: sortTestsByDate(byCat[c])}
	}
	return groups
}

func estimateReports(s *Snapshot, t pdfkit.Theme) float64 {
	groups := groupTestsByCategory(s.Tests)
	return t.SectionBarHeight + 20 + float64(len(groups))*22 + float64(len(s.Tests))*2*t.RowHeight
}

func reportLine(tt MedicalTest) string {
	line := fmt.Sprintf("%s (%s): %s", Display(FieldTestName, tt.Name),
		DisplayDate(FieldTestDate, tt.Date), Display(FieldTestSummary, tt.Summary))
	if n := len(tt.Parameters); n > 0 {
		line += fmt.Sprintf(" [%d of %d parameters abnormal]", tt.AbnormalCount(), n)
	}
	return line
}

func renderReports(r *renderer, s *Snapshot) {
	t := r.theme
	groups := groupTestsByCategory(s.Tests)
	if len(groups) == 0 {
		r.freeTextSection(SectionReports, []field{{"Reports", Placeholder(FieldReports)}})
		return
	}

	width := r.cur.ContentWidth()
	headH := func(g categoryGroup) float64 {
		return r.m.Height(g.category, t.LabelFont, width) + t.FieldGap/2 +
			r.rowHeight(reportLine(g.tests[0]), t.BodyFont, listIndent)
	}

	r.ensure(r.sectionHeaderHeight() + headH(groups[0]))
	r.sectionHeader(SectionReports)
	for _, g := range groups {
		r.ensure(headH(g))
		r.label(g.category, t.LabelFont, t.Primary)
		for _, tt := range g.tests {
			r.listRow(reportLine(tt), t.BodyFont, t.Text, listIndent)
		}
	}
	r.cur.Gap(t.FieldGap)
}

func renderFollowUp(r *renderer, s *Snapshot) {
	r.freeTextSection(SectionFollowUp, []field{
		{"Instructions", Display(FieldFollowUpInstructions, s.Discharge.FollowUpInstructions)},
		{"Follow-up Date", DisplayDate(FieldFollowUpDate, s.Discharge.FollowUpDate)},
	})
}

func checklistRowHeight(t pdfkit.Theme) float64 {
	return max(t.RowHeight, t.BodyFont.Size*t.LineSpacing+4)
}

func reserveChecklist(_ *Snapshot, t pdfkit.Theme) float64 {
	rows := (len(Checklist{}.Items()) + 1) / 2
	return t.SectionBarHeight + t.FieldGap + float64(rows)*checklistRowHeight(t) + 2*t.BoxPadding + t.FieldGap
}

// renderChecklist draws the checklist in two columns. The left column is drawn
// first; the cursor is then rewound to the shared origin for the right column.
// The section's reserve covers the whole grid and no row checks for space,
// so both columns land on the same page.
func renderChecklist(r *renderer, s *Snapshot) {
	t := r.theme
	items := s.Discharge.Checklist.Items()
	split := (len(items) + 1) / 2
	rowH := checklistRowHeight(t)

	r.sectionHeader(SectionChecklist)

	x, width := r.cur.Left(), r.cur.ContentWidth()
	boxH := float64(split)*rowH + 2*t.BoxPadding
	r.s.FillRect(x, r.cur.Y, width, boxH, t.BoxFill)

	r.cur.Advance(t.BoxPadding)
	origin := r.cur.Y
	colW := width / 2

	column := func(col int, items []ChecklistItem) float64 {
		r.cur.RewindTo(origin)
		cx := x + t.BoxPadding + float64(col)*colW
		for _, it := range items {
			r.checkbox(cx, r.cur.Y, it, rowH)
			r.cur.Advance(rowH)
		}
		return r.cur.Y
	}
	leftEnd := column(0, items[:split])
	rightEnd := column(1, items[split:])

	r.cur.RewindTo(max(leftEnd, rightEnd))
	r.cur.Advance(t.BoxPadding)
	r.cur.Gap(t.FieldGap)
}

func (r *renderer) checkbox(x, y float64, it ChecklistItem, rowH float64) {
	t := r.theme
	size := t.BodyFont.Size
	top := y + (rowH-size)/2
	if it.Checked {
		r.s.FillRect(x, top, size, size, t.Primary)
	}
	r.s.StrokeRect(x, top, size, size, t.Primary, 0.8)
	r.s.Text(x+size+6, y+(rowH-r.m.LineHeight(t.BodyFont))/2, it.Label, t.BodyFont, t.Text)
}

func renderAdditionalNotes(r *renderer, s *Snapshot) {
	r.freeTextSection(SectionAdditionalNotes, []field{
		{"Notes", Display(FieldAdditionalNotes, s.Discharge.AdditionalNotes)},
	})
}

// Room left above the signature rule for a handwritten signature.
const signatureSpace = 34

func (r *renderer) signatureBlock(title string, fields []field, caption string) {
	t := r.theme
	width := r.cur.ContentWidth()
	h := r.blockHeight(fields, width) + t.FieldGap + signatureSpace + r.m.LineHeight(t.SmallFont) + t.FieldGap
	r.ensure(r.sectionHeaderHeight() + h)
	r.sectionHeader(title)
	r.drawFields(fields)

	r.cur.Advance(signatureSpace)
	x := r.cur.Left() + t.BoxPadding
	r.s.Line(x, r.cur.Y, x+200, r.cur.Y, t.Text, 0.7)
	r.s.Text(x, r.cur.Y+2, caption, t.SmallFont, t.Muted)
	r.cur.Advance(r.m.LineHeight(t.SmallFont))
	r.cur.Gap(t.FieldGap)
}

func renderSignature(r *renderer, s *Snapshot) {
	r.signatureBlock(SectionSignature, []field{
		{"Discharging Physician", Display(FieldPhysician, s.Discharge.DischargingPhysician)},
		{"Discharge Date", DisplayDate(FieldDischargeDate, s.Discharge.DischargeDate)},
		{"Prepared By", Display(FieldAuthor, s.Author)},
	}, "Physician signature")
}
