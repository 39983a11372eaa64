package database

import (
	"time"
)

// Employee roles. HR can manage the roster; employees can only mark and view
// their own attendance.
const (
	RoleEmployee = "employee"
	RoleHR       = "hr"
)

// Employee is one enrolled person with a face template on file.
type Employee struct {
	ID           int64
	Name         string
	Designation  string
	Role         string
	PasswordHash string
	Template     []float32 // 128-dim face embedding captured at enrollment
	PhotoRef     string    // blob store reference of the enrollment photo
	CreatedAt    time.Time
}

// AttendanceRecord is one committed attendance mark. RecordedOn is the
// calendar day the uniqueness guarantee applies to; RecordedAt is the exact
// commit time.
type AttendanceRecord struct {
	ID            int64
	EmployeeID    int64
	EmployeeName  string // joined on read, never written
	RecordedOn    time.Time
	RecordedAt    time.Time
	Latitude      float64
	Longitude     float64
	CaptureRef    string
	Status        string
	Reason        string
	MatchDistance float64
}
