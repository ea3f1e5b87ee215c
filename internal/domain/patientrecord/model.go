package patientrecord

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps the patient table.
type Patient struct {
	ID            uuid.UUID  `db:"id"`
	MRN           string     `db:"mrn"`
	FirstName     string     `db:"first_name"`
	LastName      string     `db:"last_name"`
	DateOfBirth   *time.Time `db:"date_of_birth"`
	Gender        *string    `db:"gender"`
	BloodGroup    *string    `db:"blood_group"`
	Phone         *string    `db:"phone"`
	Address       *string    `db:"address"`
	BedNumber     *string    `db:"bed_number"`
	AdmissionDate *time.Time `db:"admission_date"`
}

// Discharge maps the discharge_summary table. A patient may have several;
// the most recently updated one is reported.
type Discharge struct {
	ID                    uuid.UUID  `db:"id"`
	PatientID             uuid.UUID  `db:"patient_id"`
	AdmissionDate         *time.Time `db:"admission_date"`
	DischargeDate         *time.Time `db:"discharge_date"`
	ChiefComplaint        *string    `db:"chief_complaint"`
	PresentingHistory     *string    `db:"presenting_history"`
	PrimaryDiagnosis      *string    `db:"primary_diagnosis"`
	SecondaryDiagnoses    *string    `db:"secondary_diagnoses"`
	TreatmentSummary      *string    `db:"treatment_summary"`
	HospitalCourse        *string    `db:"hospital_course"`
	DischargeCondition    *string    `db:"discharge_condition"`
	DischargeMedications  *string    `db:"discharge_medications"`
	MedicationChanges     *string    `db:"medication_changes"`
	FollowUpInstructions  *string    `db:"follow_up_instructions"`
	FollowUpDate          *time.Time `db:"follow_up_date"`
	PatientEducated       bool       `db:"patient_educated"`
	MedicationsReconciled bool       `db:"medications_reconciled"`
	FollowUpScheduled     bool       `db:"follow_up_scheduled"`
	InstructionsProvided  bool       `db:"instructions_provided"`
	BelongingsReturned    bool       `db:"belongings_returned"`
	AdditionalNotes       *string    `db:"additional_notes"`
	DischargingPhysician  *string    `db:"discharging_physician"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

// Operation maps the operative_record table.
type Operation struct {
	ID            uuid.UUID  `db:"id"`
	PatientID     uuid.UUID  `db:"patient_id"`
	ProcedureName string     `db:"procedure_name"`
	PerformedAt   *time.Time `db:"performed_at"`
	Surgeon       *string    `db:"surgeon"`
	Anesthesia    *string    `db:"anesthesia"`
	Findings      *string    `db:"findings"`
	Notes         *string    `db:"notes"`
}

// Test maps the medical_test table.
type Test struct {
	ID         uuid.UUID  `db:"id"`
	PatientID  uuid.UUID  `db:"patient_id"`
	Name       string     `db:"name"`
	Category   *string    `db:"category"`
	TestDate   *time.Time `db:"test_date"`
	Laboratory *string    `db:"laboratory"`
	OrderedBy  *string    `db:"ordered_by"`
	Summary    *string    `db:"summary"`
	Notes      *string    `db:"notes"`
}

// Parameter maps the test_parameter table.
type Parameter struct {
	ID             uuid.UUID `db:"id"`
	TestID         uuid.UUID `db:"test_id"`
	Name           string    `db:"name"`
	Value          *string   `db:"value"`
	Unit           *string   `db:"unit"`
	ReferenceRange *string   `db:"reference_range"`
	IsAbnormal     bool      `db:"is_abnormal"`
	Notes          *string   `db:"notes"`
}

// Attachment maps the test_attachment table.
type Attachment struct {
	ID          uuid.UUID `db:"id"`
	TestID      uuid.UUID `db:"test_id"`
	FileName    string    `db:"file_name"`
	ContentType *string   `db:"content_type"`
	Content     []byte    `db:"content"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
