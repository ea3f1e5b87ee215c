package reports

import "github.com/surgitrack/surgitrack/internal/platform/pdfkit"

// Section is one named block of a document. Section lists are static and
// drawn in slice order.
type Section struct {
	Name string
	// Reserve returns the height checked against the remaining page space
	// before the section starts. Nil marks a bounded section that skips the
	// check.
	Reserve func(s *Snapshot, t pdfkit.Theme) float64
	// Estimate returns the heuristic height used for the total-page
	// estimate. Nil keeps the section out of the estimate.
	Estimate func(s *Snapshot, t pdfkit.Theme) float64
	Render   func(r *renderer, s *Snapshot)
}

// SectionMark records where a section header was drawn.
type SectionMark struct {
	Name string `json:"name"`
	Page int    `json:"page"`
}

// Document describes one kind of generated report.
type Document struct {
	Kind     string
	Title    string
	Subject  string
	PageSize pdfkit.PageSize
	Sections []Section
	// Addendum, when set and HasAddendum reports content, is drawn after the
	// ordinary sections starting on a fresh page.
	Addendum    *Section
	HasAddendum func(s *Snapshot) bool
}

// Names returns the section names in draw order, excluding the addendum.
func (d Document) Names() []string {
	names := make([]string, len(d.Sections))
	for i, sec := range d.Sections {
		names[i] = sec.Name
	}
	return names
}

func fixed(h float64) func(*Snapshot, pdfkit.Theme) float64 {
	return func(*Snapshot, pdfkit.Theme) float64 { return h }
}

const (
	DocumentDischargeSummary = "discharge-summary"
	DocumentTestReport       = "test-report"
)

const (
	SectionPatientInfo         = "PATIENT INFORMATION"
	SectionInitialPresentation = "INITIAL PRESENTATION"
	SectionDiagnoses           = "DIAGNOSES"
	SectionTreatment           = "TREATMENT"
	SectionOperative           = "OPERATIVE DETAILS"
	SectionMedications         = "MEDICATIONS"
	SectionReports             = "RELEVANT REPORTS"
	SectionFollowUp            = "FOLLOW-UP"
	SectionChecklist           = "DISCHARGE CHECKLIST"
	SectionAdditionalNotes     = "ADDITIONAL NOTES"
	SectionSignature           = "SIGNATURE"
	SectionAddendum            = "ADDENDUM: DETAILED TEST RESULTS"

	SectionTestDetails    = "TEST DETAILS"
	SectionResults        = "RESULTS"
	SectionInterpretation = "INTERPRETATION"
	SectionAttachments    = "ATTACHMENTS"
)

// DischargeSummaryDocument is the A4 discharge summary layout.
func DischargeSummaryDocument() Document {
	return Document{
		Kind:     DocumentDischargeSummary,
		Title:    "DISCHARGE SUMMARY",
		Subject:  "Patient discharge summary",
		PageSize: pdfkit.A4,
		Sections: []Section{
			{Name: SectionPatientInfo, Estimate: fixed(110), Render: renderPatientInfoDischarge},
			{Name: SectionInitialPresentation, Reserve: fixed(90), Estimate: fixed(80), Render: renderInitialPresentation},
			{Name: SectionDiagnoses, Reserve: fixed(80), Estimate: fixed(70), Render: renderDiagnoses},
			{Name: SectionTreatment, Reserve: fixed(90), Estimate: fixed(90), Render: renderTreatment},
			{Name: SectionOperative, Reserve: reserveOperative, Estimate: estimateOperative, Render: renderOperative},
			{Name: SectionMedications, Reserve: fixed(80), Estimate: estimateMedications, Render: renderMedications},
			{Name: SectionReports, Reserve: fixed(70), Estimate: estimateReports, Render: renderReports},
			{Name: SectionFollowUp, Reserve: fixed(70), Estimate: fixed(60), Render: renderFollowUp},
			{Name: SectionChecklist, Reserve: reserveChecklist, Estimate: reserveChecklist, Render: renderChecklist},
			{Name: SectionAdditionalNotes, Reserve: fixed(60), Estimate: fixed(50), Render: renderAdditionalNotes},
			{Name: SectionSignature, Reserve: fixed(120), Estimate: fixed(110), Render: renderSignature},
		},
		Addendum:    &Section{Name: SectionAddendum, Estimate: estimateAddendum, Render: renderAddendum},
		HasAddendum: hasAddendum,
	}
}

// TestReportDocument is the US Letter single-test report layout. The snapshot passed
// to it holds the selected test as Tests[0].
func TestReportDocument() Document {
	return Document{
		Kind:     DocumentTestReport,
		Title:    "MEDICAL TEST REPORT",
		Subject:  "Medical test report",
		PageSize: pdfkit.Letter,
		Sections: []Section{
			{Name: SectionPatientInfo, Estimate: fixed(95), Render: renderPatientInfoTest},
			{Name: SectionTestDetails, Reserve: fixed(100), Estimate: fixed(100), Render: renderTestDetails},
			{Name: SectionResults, Reserve: fixed(80), Estimate: estimateResults, Render: renderResults},
			{Name: SectionInterpretation, Reserve: fixed(70), Estimate: fixed(70), Render: renderInterpretation},
			{Name: SectionAttachments, Reserve: fixed(60), Estimate: estimateAttachments, Render: renderAttachments},
			{Name: SectionSignature, Reserve: fixed(110), Estimate: fixed(100), Render: renderSignatureTest},
		},
	}
}
