package patientrecord

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surgitrack/surgitrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// idStrings renders ids for an ANY($1::uuid[]) parameter.
func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	var items []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// =========== Patient ===========

const patientCols = `id, mrn, first_name, last_name, date_of_birth, gender, blood_group, phone, address, bed_number, admission_date`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.MRN, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender,
		&p.BloodGroup, &p.Phone, &p.Address, &p.BedNumber, &p.AdmissionDate)
	return &p, err
}

func (r *repoPG) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", notFound(err))
	}
	return p, nil
}

// =========== Discharge Summary ===========

const dischargeCols = `id, patient_id, admission_date, discharge_date, chief_complaint, presenting_history,
	primary_diagnosis, secondary_diagnoses, treatment_summary, hospital_course, discharge_condition,
	discharge_medications, medication_changes, follow_up_instructions, follow_up_date,
	patient_educated, medications_reconciled, follow_up_scheduled, instructions_provided, belongings_returned,
	additional_notes, discharging_physician, updated_at`

func scanDischarge(row pgx.Row) (*Discharge, error) {
	var d Discharge
	err := row.Scan(&d.ID, &d.PatientID, &d.AdmissionDate, &d.DischargeDate, &d.ChiefComplaint, &d.PresentingHistory,
		&d.PrimaryDiagnosis, &d.SecondaryDiagnoses, &d.TreatmentSummary, &d.HospitalCourse, &d.DischargeCondition,
		&d.DischargeMedications, &d.MedicationChanges, &d.FollowUpInstructions, &d.FollowUpDate,
		&d.PatientEducated, &d.MedicationsReconciled, &d.FollowUpScheduled, &d.InstructionsProvided, &d.BelongingsReturned,
		&d.AdditionalNotes, &d.DischargingPhysician, &d.UpdatedAt)
	return &d, err
}

func (r *repoPG) GetLatestDischarge(ctx context.Context, patientID uuid.UUID) (*Discharge, error) {
	d, err := scanDischarge(r.conn(ctx).QueryRow(ctx, `
		SELECT `+dischargeCols+` FROM discharge_summary
		WHERE patient_id = $1
		ORDER BY updated_at DESC, id
		LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get discharge summary: %w", err)
	}
	return d, nil
}

// =========== Operative Records ===========

const operationCols = `id, patient_id, procedure_name, performed_at, surgeon, anesthesia, findings, notes`

func scanOperation(row pgx.Row) (*Operation, error) {
	var o Operation
	err := row.Scan(&o.ID, &o.PatientID, &o.ProcedureName, &o.PerformedAt, &o.Surgeon, &o.Anesthesia, &o.Findings, &o.Notes)
	return &o, err
}

func (r *repoPG) ListOperations(ctx context.Context, patientID uuid.UUID) ([]*Operation, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+operationCols+` FROM operative_record
		WHERE patient_id = $1
		ORDER BY performed_at NULLS LAST, id`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list operative records: %w", err)
	}
	return collect(rows, scanOperation)
}

// =========== Medical Tests ===========

const testCols = `id, patient_id, name, category, test_date, laboratory, ordered_by, summary, notes`

func scanTest(row pgx.Row) (*Test, error) {
	var t Test
	err := row.Scan(&t.ID, &t.PatientID, &t.Name, &t.Category, &t.TestDate, &t.Laboratory, &t.OrderedBy, &t.Summary, &t.Notes)
	return &t, err
}

func (r *repoPG) ListTests(ctx context.Context, patientID uuid.UUID) ([]*Test, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+testCols+` FROM medical_test
		WHERE patient_id = $1
		ORDER BY test_date NULLS LAST, name`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return collect(rows, scanTest)
}

func (r *repoPG) GetTest(ctx context.Context, id uuid.UUID) (*Test, error) {
	t, err := scanTest(r.conn(ctx).QueryRow(ctx, `SELECT `+testCols+` FROM medical_test WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get test: %w", notFound(err))
	}
	return t, nil
}

// =========== Parameters and Attachments ===========

const parameterCols = `id, test_id, name, value, unit, reference_range, is_abnormal, notes`

func scanParameter(row pgx.Row) (*Parameter, error) {
	var p Parameter
	err := row.Scan(&p.ID, &p.TestID, &p.Name, &p.Value, &p.Unit, &p.ReferenceRange, &p.IsAbnormal, &p.Notes)
	return &p, err
}

func (r *repoPG) ListParameters(ctx context.Context, testIDs []uuid.UUID) ([]*Parameter, error) {
	if len(testIDs) == 0 {
		return nil, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+parameterCols+` FROM test_parameter
		WHERE test_id = ANY($1::uuid[])
		ORDER BY test_id, name`, idStrings(testIDs))
	if err != nil {
		return nil, fmt.Errorf("list test parameters: %w", err)
	}
	return collect(rows, scanParameter)
}

const attachmentCols = `id, test_id, file_name, content_type, content`

func scanAttachment(row pgx.Row) (*Attachment, error) {
	var a Attachment
	err := row.Scan(&a.ID, &a.TestID, &a.FileName, &a.ContentType, &a.Content)
	return &a, err
}

func (r *repoPG) ListAttachments(ctx context.Context, testIDs []uuid.UUID) ([]*Attachment, error) {
	if len(testIDs) == 0 {
		return nil, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+attachmentCols+` FROM test_attachment
		WHERE test_id = ANY($1::uuid[])
		ORDER BY uploaded_at, id`, idStrings(testIDs))
	if err != nil {
		return nil, fmt.Errorf("list test attachments: %w", err)
	}
	return collect(rows, scanAttachment)
}
