package patientrecord

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a patient or test row does not exist.
var ErrNotFound = errors.New("patientrecord: not found")

// Repository reads the stored clinical record. It has no write methods.
type Repository interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	// GetLatestDischarge returns nil and no error when the patient has no
	// discharge summary yet.
	GetLatestDischarge(ctx context.Context, patientID uuid.UUID) (*Discharge, error)
	ListOperations(ctx context.Context, patientID uuid.UUID) ([]*Operation, error)
	ListTests(ctx context.Context, patientID uuid.UUID) ([]*Test, error)
	GetTest(ctx context.Context, id uuid.UUID) (*Test, error)
	ListParameters(ctx context.Context, testIDs []uuid.UUID) ([]*Parameter, error)
	ListAttachments(ctx context.Context, testIDs []uuid.UUID) ([]*Attachment, error)
}
