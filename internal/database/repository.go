package database

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicateName is returned when enrolling a name that normalizes to an
// already-enrolled employee's name.
var ErrDuplicateName = errors.New("employee name already enrolled")

// EmployeeRepository provides access to the enrolled roster.
type EmployeeRepository interface {
	// Create stores a new employee and fills in its assigned ID.
	Create(ctx context.Context, emp *Employee) error
	// GetByID retrieves an employee, returns ErrNotFound if missing.
	GetByID(ctx context.Context, id int64) (*Employee, error)
	// GetByName retrieves an employee by normalized name comparison,
	// returns ErrNotFound if missing.
	GetByName(ctx context.Context, name string) (*Employee, error)
	// List returns all employees ordered by ID. Templates are included.
	List(ctx context.Context) ([]Employee, error)
	// Delete removes an employee and, via cascade, their attendance.
	Delete(ctx context.Context, id int64) error
	// Count returns the roster size.
	Count(ctx context.Context) (int, error)
}

// AttendanceRepository provides access to committed attendance marks.
type AttendanceRepository interface {
	// ExistsFor reports whether the employee already has a record on the
	// given calendar day.
	ExistsFor(ctx context.Context, employeeID int64, day time.Time) (bool, error)
	// Insert stores a record. It returns false when the per-day uniqueness
	// constraint rejects the row, which is not an error.
	Insert(ctx context.Context, rec AttendanceRecord) (bool, error)
	// ListForEmployee returns an employee's records, newest first.
	ListForEmployee(ctx context.Context, employeeID int64) ([]AttendanceRecord, error)
	// ListForDay returns all records on a calendar day with employee names.
	ListForDay(ctx context.Context, day time.Time) ([]AttendanceRecord, error)
	// Delete removes a single record by ID, returns ErrNotFound if missing.
	Delete(ctx context.Context, id int64) error
}
