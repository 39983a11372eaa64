package database

import (
	"context"
	"time"

	"github.com/kozaktomas/clockin/internal/verify"
)

// RecordStore adapts an AttendanceRepository to the verification pipeline's
// store interface.
type RecordStore struct {
	Repo AttendanceRepository
}

// NewRecordStore wraps an attendance repository for the pipeline.
func NewRecordStore(repo AttendanceRepository) *RecordStore {
	return &RecordStore{Repo: repo}
}

// ExistsFor reports whether the employee already marked the given day.
func (s *RecordStore) ExistsFor(ctx context.Context, employeeID int64, day time.Time) (bool, error) {
	return s.Repo.ExistsFor(ctx, employeeID, day)
}

// Insert commits a pipeline decision as an attendance row.
func (s *RecordStore) Insert(ctx context.Context, rec verify.Record) (bool, error) {
	return s.Repo.Insert(ctx, AttendanceRecord{
		EmployeeID:    rec.EmployeeID,
		RecordedOn:    rec.Day,
		RecordedAt:    rec.Day,
		Latitude:      rec.Latitude,
		Longitude:     rec.Longitude,
		CaptureRef:    rec.CaptureRef,
		Status:        string(rec.Status),
		Reason:        rec.Reason,
		MatchDistance: rec.MatchDistance,
	})
}
