package reports

import (
	"strings"
	"time"
)

// Field names a snapshot value that may be missing.
type Field string

const (
	FieldPatientName    Field = "patient_name"
	FieldMRN            Field = "mrn"
	FieldDateOfBirth    Field = "date_of_birth"
	FieldGender         Field = "gender"
	FieldBloodGroup     Field = "blood_group"
	FieldPhone          Field = "phone"
	FieldAddress        Field = "address"
	FieldBedNumber      Field = "bed_number"
	FieldAdmissionDate  Field = "admission_date"
	FieldDischargeDate  Field = "discharge_date"
	FieldChiefComplaint Field = "chief_complaint"
	FieldHistory        Field = "presenting_history"

	FieldPrimaryDiagnosis   Field = "primary_diagnosis"
	FieldSecondaryDiagnoses Field = "secondary_diagnoses"

	FieldTreatmentSummary   Field = "treatment_summary"
	FieldHospitalCourse     Field = "hospital_course"
	FieldDischargeCondition Field = "discharge_condition"

	FieldProcedureName Field = "procedure_name"
	FieldProcedureDate Field = "procedure_date"
	FieldSurgeon       Field = "surgeon"
	FieldAnesthesia    Field = "anesthesia"
	FieldFindings      Field = "findings"
	FieldOperativeNote Field = "operative_notes"
	FieldOperations    Field = "operations"

	FieldDischargeMedications Field = "discharge_medications"
	FieldMedicationChanges    Field = "medication_changes"

	FieldReports        Field = "reports"
	FieldTestName       Field = "test_name"
	FieldTestCategory   Field = "test_category"
	FieldTestDate       Field = "test_date"
	FieldLaboratory     Field = "laboratory"
	FieldOrderedBy      Field = "ordered_by"
	FieldTestSummary    Field = "test_summary"
	FieldTestNotes      Field = "test_notes"
	FieldParameters     Field = "parameters"
	FieldParameterName  Field = "parameter_name"
	FieldParameterValue Field = "parameter_value"
	FieldAttachments    Field = "attachments"
	FieldAttachmentName Field = "attachment_name"

	FieldFollowUpInstructions Field = "follow_up_instructions"
	FieldFollowUpDate         Field = "follow_up_date"
	FieldAdditionalNotes      Field = "additional_notes"
	FieldPhysician            Field = "discharging_physician"
	FieldAuthor               Field = "author"
)

// placeholders is the single source of "missing value" text.
var placeholders = map[Field]string{
	FieldPatientName:    "Unknown",
	FieldMRN:            "N/A",
	FieldDateOfBirth:    "Unknown",
	FieldGender:         "Unknown",
	FieldBloodGroup:     "Unknown",
	FieldPhone:          "N/A",
	FieldAddress:        "N/A",
	FieldBedNumber:      "N/A",
	FieldAdmissionDate:  "Unknown",
	FieldDischargeDate:  "Unknown",
	FieldChiefComplaint: "N/A",
	FieldHistory:        "N/A",

	FieldPrimaryDiagnosis:   "N/A",
	FieldSecondaryDiagnoses: "N/A",

	FieldTreatmentSummary:   "Not specified",
	FieldHospitalCourse:     "Not specified",
	FieldDischargeCondition: "Not specified",

	FieldProcedureName: "Unnamed procedure",
	FieldProcedureDate: "Unknown",
	FieldSurgeon:       "Unknown",
	FieldAnesthesia:    "Not specified",
	FieldFindings:      "N/A",
	FieldOperativeNote: "N/A",
	FieldOperations:    "No operative procedures recorded",

	FieldDischargeMedications: "None",
	FieldMedicationChanges:    "None",

	FieldReports:        "No reports available",
	FieldTestName:       "Unnamed test",
	FieldTestCategory:   "Uncategorized",
	FieldTestDate:       "Unknown",
	FieldLaboratory:     "N/A",
	FieldOrderedBy:      "N/A",
	FieldTestSummary:    "No interpretation provided",
	FieldTestNotes:      "None",
	FieldParameters:     "No parameters recorded",
	FieldParameterName:  "Unnamed parameter",
	FieldParameterValue: "N/A",
	FieldAttachments:    "No attachments",
	FieldAttachmentName: "Untitled file",

	FieldFollowUpInstructions: "No instructions",
	FieldFollowUpDate:         "Not scheduled",
	FieldAdditionalNotes:      "None",
	FieldPhysician:            "Unknown",
	FieldAuthor:               "Unknown",
}

// Placeholder returns the missing-value text for field. Fields without an
// entry fall back to "N/A".
func Placeholder(field Field) string {
	if p, ok := placeholders[field]; ok {
		return p
	}
	return "N/A"
}

// Display returns value, or the field's placeholder when value is blank.
func Display(field Field, value string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return Placeholder(field)
}

// DisplayDate formats t as a date, or returns the placeholder when nil.
func DisplayDate(field Field, t *time.Time) string {
	if t == nil || t.IsZero() {
		return Placeholder(field)
	}
	return t.Format(dateLayout)
}

const (
	dateLayout      = "02 Jan 2006"
	timestampLayout = "02 Jan 2006 15:04 MST"
)
