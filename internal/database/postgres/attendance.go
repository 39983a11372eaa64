package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/clockin/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// ExistsFor reports whether the employee already has a record on the given
// calendar day.
func (r *AttendanceRepository) ExistsFor(ctx context.Context, employeeID int64, day time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM attendance WHERE employee_id = $1 AND recorded_on = $2)",
		employeeID, day.Format("2006-01-02"),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check attendance exists: %w", err)
	}
	return exists, nil
}

// Insert stores a record. The unique index on (employee_id, recorded_on)
// absorbs the check-then-act race: a conflicting insert affects zero rows
// and reports false rather than an error.
func (r *AttendanceRepository) Insert(ctx context.Context, rec database.AttendanceRecord) (bool, error) {
	query := `
		INSERT INTO attendance (employee_id, recorded_on, recorded_at, latitude, longitude, capture_ref, status, reason, match_distance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (employee_id, recorded_on) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query,
		rec.EmployeeID,
		rec.RecordedOn.Format("2006-01-02"),
		rec.RecordedAt,
		rec.Latitude,
		rec.Longitude,
		rec.CaptureRef,
		rec.Status,
		rec.Reason,
		rec.MatchDistance,
	)
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected == 1, nil
}

const attendanceColumns = `
	a.id, a.employee_id, e.name, a.recorded_on, a.recorded_at,
	a.latitude, a.longitude, a.capture_ref, a.status, a.reason, a.match_distance
`

func (r *AttendanceRepository) queryRecords(ctx context.Context, query string, args ...any) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		err := rows.Scan(
			&rec.ID,
			&rec.EmployeeID,
			&rec.EmployeeName,
			&rec.RecordedOn,
			&rec.RecordedAt,
			&rec.Latitude,
			&rec.Longitude,
			&rec.CaptureRef,
			&rec.Status,
			&rec.Reason,
			&rec.MatchDistance,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

// ListForEmployee returns an employee's records, newest first.
func (r *AttendanceRepository) ListForEmployee(ctx context.Context, employeeID int64) ([]database.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id = $1
		ORDER BY a.recorded_at DESC
	`
	return r.queryRecords(ctx, query, employeeID)
}

// ListForDay returns all records on a calendar day with employee names.
func (r *AttendanceRepository) ListForDay(ctx context.Context, day time.Time) ([]database.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.recorded_on = $1
		ORDER BY a.id
	`
	return r.queryRecords(ctx, query, day.Format("2006-01-02"))
}

// Delete removes a single record by ID.
func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM attendance WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete attendance record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}
