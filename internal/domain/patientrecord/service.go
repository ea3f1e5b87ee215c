package patientrecord

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/surgitrack/surgitrack/internal/platform/reports"
)

// SnapshotRunner runs fn so that every read inside it sees one consistent
// database state. db.ReadSnapshot is the production implementation.
type SnapshotRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Service projects stored records into report snapshots. It implements
// reports.SnapshotFetcher.
type Service struct {
	repo Repository
	run  SnapshotRunner
}

var _ reports.SnapshotFetcher = (*Service)(nil)

// NewService creates a Service. A nil runner runs reads directly.
func NewService(repo Repository, run SnapshotRunner) *Service {
	if run == nil {
		run = func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
	}
	return &Service{repo: repo, run: run}
}

func parseID(kind, id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s id %q", reports.ErrSnapshotNotFound, kind, id)
	}
	return parsed, nil
}

func missing(kind string, id uuid.UUID, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s %s", reports.ErrSnapshotNotFound, kind, id)
	}
	return err
}

// FetchDischargeSnapshot loads a patient with their latest discharge summary,
// operative records and tests with parameters.
func (s *Service) FetchDischargeSnapshot(ctx context.Context, patientID string) (*reports.Snapshot, error) {
	id, err := parseID("patient", patientID)
	if err != nil {
		return nil, err
	}

	var snap *reports.Snapshot
	err = s.run(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetPatient(ctx, id)
		if err != nil {
			return missing("patient", id, err)
		}
		d, err := s.repo.GetLatestDischarge(ctx, id)
		if err != nil {
			return err
		}
		ops, err := s.repo.ListOperations(ctx, id)
		if err != nil {
			return err
		}
		tests, err := s.repo.ListTests(ctx, id)
		if err != nil {
			return err
		}
		params, err := s.repo.ListParameters(ctx, testIDs(tests))
		if err != nil {
			return err
		}

		snap = &reports.Snapshot{
			Patient:    toPatient(p),
			Discharge:  toDischarge(d),
			Operations: toOperations(ops),
			Tests:      toTests(tests, params),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch discharge snapshot: %w", err)
	}
	return snap, nil
}

// FetchTestSnapshot loads one test with its parameters and attachments and
// the patient it belongs to.
func (s *Service) FetchTestSnapshot(ctx context.Context, testID string) (*reports.Snapshot, error) {
	id, err := parseID("test", testID)
	if err != nil {
		return nil, err
	}

	var snap *reports.Snapshot
	err = s.run(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetTest(ctx, id)
		if err != nil {
			return missing("test", id, err)
		}
		p, err := s.repo.GetPatient(ctx, t.PatientID)
		if err != nil {
			return missing("patient", t.PatientID, err)
		}
		ids := []uuid.UUID{t.ID}
		params, err := s.repo.ListParameters(ctx, ids)
		if err != nil {
			return err
		}
		atts, err := s.repo.ListAttachments(ctx, ids)
		if err != nil {
			return err
		}

		snap = &reports.Snapshot{
			Patient:     toPatient(p),
			Tests:       toTests([]*Test{t}, params),
			Attachments: toAttachments(atts),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch test snapshot: %w", err)
	}
	return snap, nil
}

func testIDs(tests []*Test) []uuid.UUID {
	ids := make([]uuid.UUID, len(tests))
	for i, t := range tests {
		ids[i] = t.ID
	}
	return ids
}

func toPatient(p *Patient) reports.Patient {
	return reports.Patient{
		ID:            p.ID.String(),
		MRN:           p.MRN,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		DateOfBirth:   p.DateOfBirth,
		Gender:        deref(p.Gender),
		BloodGroup:    deref(p.BloodGroup),
		Phone:         deref(p.Phone),
		Address:       deref(p.Address),
		BedNumber:     deref(p.BedNumber),
		AdmissionDate: p.AdmissionDate,
	}
}

func toDischarge(d *Discharge) reports.DischargeSummary {
	if d == nil {
		return reports.DischargeSummary{}
	}
	return reports.DischargeSummary{
		AdmissionDate:        d.AdmissionDate,
		DischargeDate:        d.DischargeDate,
		ChiefComplaint:       deref(d.ChiefComplaint),
		PresentingHistory:    deref(d.PresentingHistory),
		PrimaryDiagnosis:     deref(d.PrimaryDiagnosis),
		SecondaryDiagnoses:   deref(d.SecondaryDiagnoses),
		TreatmentSummary:     deref(d.TreatmentSummary),
		HospitalCourse:       deref(d.HospitalCourse),
		DischargeCondition:   deref(d.DischargeCondition),
		DischargeMedications: deref(d.DischargeMedications),
		MedicationChanges:    deref(d.MedicationChanges),
		FollowUpInstructions: deref(d.FollowUpInstructions),
		FollowUpDate:         d.FollowUpDate,
		Checklist: reports.Checklist{
			PatientEducated:       d.PatientEducated,
			MedicationsReconciled: d.MedicationsReconciled,
			FollowUpScheduled:     d.FollowUpScheduled,
			InstructionsProvided:  d.InstructionsProvided,
			BelongingsReturned:    d.BelongingsReturned,
		},
		AdditionalNotes:      deref(d.AdditionalNotes),
		DischargingPhysician: deref(d.DischargingPhysician),
	}
}

func toOperations(ops []*Operation) []reports.OperativeRecord {
	out := make([]reports.OperativeRecord, 0, len(ops))
	for _, o := range ops {
		out = append(out, reports.OperativeRecord{
			ProcedureName: o.ProcedureName,
			Date:          o.PerformedAt,
			Surgeon:       deref(o.Surgeon),
			Anesthesia:    deref(o.Anesthesia),
			Findings:      deref(o.Findings),
			Notes:         deref(o.Notes),
		})
	}
	return out
}

func toTests(tests []*Test, params []*Parameter) []reports.MedicalTest {
	byTest := make(map[uuid.UUID][]reports.TestParameter)
	for _, p := range params {
		byTest[p.TestID] = append(byTest[p.TestID], reports.TestParameter{
			Name:           p.Name,
			Value:          deref(p.Value),
			Unit:           deref(p.Unit),
			ReferenceRange: deref(p.ReferenceRange),
			Abnormal:       p.IsAbnormal,
			Notes:          deref(p.Notes),
		})
	}

	out := make([]reports.MedicalTest, 0, len(tests))
	for _, t := range tests {
		out = append(out, reports.MedicalTest{
			ID:         t.ID.String(),
			Name:       t.Name,
			Category:   deref(t.Category),
			Date:       t.TestDate,
			Laboratory: deref(t.Laboratory),
			OrderedBy:  deref(t.OrderedBy),
			Summary:    deref(t.Summary),
			Notes:      deref(t.Notes),
			Parameters: byTest[t.ID],
		})
	}
	return out
}

func toAttachments(atts []*Attachment) []reports.Attachment {
	out := make([]reports.Attachment, 0, len(atts))
	for _, a := range atts {
		out = append(out, reports.Attachment{
			ID:          a.ID.String(),
			TestID:      a.TestID.String(),
			FileName:    a.FileName,
			ContentType: deref(a.ContentType),
			Data:        a.Content,
		})
	}
	return out
}
