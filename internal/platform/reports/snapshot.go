package reports

import "time"

// Snapshot is the read-only data projection one generation pass consumes.
// Callers build it from their own storage; the engine never mutates it, so a
// single Snapshot may be shared by concurrent generations.
//
// Empty strings and nil times mean "missing" and are rendered through the
// placeholder table in placeholder.go.
type Snapshot struct {
	Patient     Patient           `json:"patient" yaml:"patient"`
	Discharge   DischargeSummary  `json:"discharge" yaml:"discharge"`
	Operations  []OperativeRecord `json:"operations,omitempty" yaml:"operations"`
	Tests       []MedicalTest     `json:"tests,omitempty" yaml:"tests"`
	Attachments []Attachment      `json:"attachments,omitempty" yaml:"attachments"`
	// Author is the signed-in user requesting the document.
	Author string `json:"author,omitempty" yaml:"author"`
}

// Patient holds demographics.
type Patient struct {
	ID            string     `json:"id" yaml:"id"`
	MRN           string     `json:"mrn,omitempty" yaml:"mrn"`
	FirstName     string     `json:"first_name,omitempty" yaml:"first_name"`
	LastName      string     `json:"last_name,omitempty" yaml:"last_name"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty" yaml:"date_of_birth"`
	Gender        string     `json:"gender,omitempty" yaml:"gender"`
	BloodGroup    string     `json:"blood_group,omitempty" yaml:"blood_group"`
	Phone         string     `json:"phone,omitempty" yaml:"phone"`
	Address       string     `json:"address,omitempty" yaml:"address"`
	BedNumber     string     `json:"bed_number,omitempty" yaml:"bed_number"`
	AdmissionDate *time.Time `json:"admission_date,omitempty" yaml:"admission_date"`
}

// FullName joins first and last name, skipping missing parts.
func (p Patient) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// DischargeSummary holds the free-text and checklist content of a discharge.
type DischargeSummary struct {
	AdmissionDate *time.Time `json:"admission_date,omitempty" yaml:"admission_date"`
	DischargeDate *time.Time `json:"discharge_date,omitempty" yaml:"discharge_date"`

	ChiefComplaint    string `json:"chief_complaint,omitempty" yaml:"chief_complaint"`
	PresentingHistory string `json:"presenting_history,omitempty" yaml:"presenting_history"`

	PrimaryDiagnosis   string `json:"primary_diagnosis,omitempty" yaml:"primary_diagnosis"`
	SecondaryDiagnoses string `json:"secondary_diagnoses,omitempty" yaml:"secondary_diagnoses"`

	TreatmentSummary   string `json:"treatment_summary,omitempty" yaml:"treatment_summary"`
	HospitalCourse     string `json:"hospital_course,omitempty" yaml:"hospital_course"`
	DischargeCondition string `json:"discharge_condition,omitempty" yaml:"discharge_condition"`

	// Medications are one entry per line.
	DischargeMedications string `json:"discharge_medications,omitempty" yaml:"discharge_medications"`
	MedicationChanges    string `json:"medication_changes,omitempty" yaml:"medication_changes"`

	FollowUpInstructions string     `json:"follow_up_instructions,omitempty" yaml:"follow_up_instructions"`
	FollowUpDate         *time.Time `json:"follow_up_date,omitempty" yaml:"follow_up_date"`

	Checklist       Checklist `json:"checklist" yaml:"checklist"`
	AdditionalNotes string    `json:"additional_notes,omitempty" yaml:"additional_notes"`

	DischargingPhysician string `json:"discharging_physician,omitempty" yaml:"discharging_physician"`
}

// Checklist is the fixed set of discharge readiness items.
type Checklist struct {
	PatientEducated       bool `json:"patient_educated" yaml:"patient_educated"`
	MedicationsReconciled bool `json:"medications_reconciled" yaml:"medications_reconciled"`
	FollowUpScheduled     bool `json:"follow_up_scheduled" yaml:"follow_up_scheduled"`
	InstructionsProvided  bool `json:"instructions_provided" yaml:"instructions_provided"`
	BelongingsReturned    bool `json:"belongings_returned" yaml:"belongings_returned"`
}

// Items returns the checklist rows in display order.
func (c Checklist) Items() []ChecklistItem {
	return []ChecklistItem{
		{Label: "Patient/family educated on condition", Checked: c.PatientEducated},
		{Label: "Medications reconciled", Checked: c.MedicationsReconciled},
		{Label: "Follow-up appointment scheduled", Checked: c.FollowUpScheduled},
		{Label: "Discharge instructions provided", Checked: c.InstructionsProvided},
		{Label: "Belongings and documents returned", Checked: c.BelongingsReturned},
	}
}

// ChecklistItem is one checkbox row.
type ChecklistItem struct {
	Label   string
	Checked bool
}

// OperativeRecord is one surgery performed during the admission.
type OperativeRecord struct {
	ProcedureName string     `json:"procedure_name,omitempty" yaml:"procedure_name"`
	Date          *time.Time `json:"date,omitempty" yaml:"date"`
	Surgeon       string     `json:"surgeon,omitempty" yaml:"surgeon"`
	Anesthesia    string     `json:"anesthesia,omitempty" yaml:"anesthesia"`
	Findings      string     `json:"findings,omitempty" yaml:"findings"`
	Notes         string     `json:"notes,omitempty" yaml:"notes"`
}

// MedicalTest is one investigation with its measured parameters.
type MedicalTest struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name,omitempty" yaml:"name"`
	Category   string          `json:"category,omitempty" yaml:"category"`
	Date       *time.Time      `json:"date,omitempty" yaml:"date"`
	Laboratory string          `json:"laboratory,omitempty" yaml:"laboratory"`
	OrderedBy  string          `json:"ordered_by,omitempty" yaml:"ordered_by"`
	Summary    string          `json:"summary,omitempty" yaml:"summary"`
	Notes      string          `json:"notes,omitempty" yaml:"notes"`
	Parameters []TestParameter `json:"parameters,omitempty" yaml:"parameters"`
}

// AbnormalCount returns the number of parameters flagged abnormal.
func (t MedicalTest) AbnormalCount() int {
	n := 0
	for _, p := range t.Parameters {
		if p.Abnormal {
			n++
		}
	}
	return n
}

// TestParameter is a single measured value.
type TestParameter struct {
	Name           string `json:"name,omitempty" yaml:"name"`
	Value          string `json:"value,omitempty" yaml:"value"`
	Unit           string `json:"unit,omitempty" yaml:"unit"`
	ReferenceRange string `json:"reference_range,omitempty" yaml:"reference_range"`
	Abnormal       bool   `json:"abnormal,omitempty" yaml:"abnormal"`
	Notes          string `json:"notes,omitempty" yaml:"notes"`
}

// Attachment references a stored file. Only image payloads are drawn into
// documents; anything else is shown as a placeholder icon.
type Attachment struct {
	ID          string `json:"id" yaml:"id"`
	TestID      string `json:"test_id,omitempty" yaml:"test_id"`
	FileName    string `json:"file_name,omitempty" yaml:"file_name"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type"`
	Data        []byte `json:"data,omitempty" yaml:"data"`
}
