package reports

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned by a SnapshotFetcher when the requested
// patient or test does not exist.
var ErrSnapshotNotFound = errors.New("reports: snapshot not found")

// SnapshotFetcher loads the read-only data a report is drawn from.
type SnapshotFetcher interface {
	// FetchDischargeSnapshot returns everything the discharge summary of a
	// patient shows.
	FetchDischargeSnapshot(ctx context.Context, patientID string) (*Snapshot, error)
	// FetchTestSnapshot returns the owning patient and the test with its
	// parameters and attachments as Tests[0].
	FetchTestSnapshot(ctx context.Context, testID string) (*Snapshot, error)
}
