// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/clockin/internal/database"
)

// MockEmployeeRepository is a mock implementation of database.EmployeeRepository
type MockEmployeeRepository struct {
	mu        sync.RWMutex
	employees map[int64]*database.Employee
	nextID    int64

	// Error injection
	CreateError error
	GetError    error
	ListError   error
	DeleteError error
}

// NewMockEmployeeRepository creates a new mock employee repository
func NewMockEmployeeRepository() *MockEmployeeRepository {
	return &MockEmployeeRepository{
		employees: make(map[int64]*database.Employee),
		nextID:    1,
	}
}

// AddEmployee seeds an employee with an explicit ID.
func (m *MockEmployeeRepository) AddEmployee(emp database.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = &emp
	if emp.ID >= m.nextID {
		m.nextID = emp.ID + 1
	}
}

// Create stores a new employee and assigns its ID
func (m *MockEmployeeRepository) Create(_ context.Context, emp *database.Employee) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	normalized := database.NormalizeEmployeeName(emp.Name)
	for _, existing := range m.employees {
		if database.NormalizeEmployeeName(existing.Name) == normalized {
			return database.ErrDuplicateName
		}
	}

	emp.ID = m.nextID
	m.nextID++
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = time.Now()
	}
	stored := *emp
	m.employees[emp.ID] = &stored
	return nil
}

// GetByID retrieves an employee by ID
func (m *MockEmployeeRepository) GetByID(_ context.Context, id int64) (*database.Employee, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *emp
	return &cp, nil
}

// GetByName retrieves an employee by normalized name
func (m *MockEmployeeRepository) GetByName(_ context.Context, name string) (*database.Employee, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	normalized := database.NormalizeEmployeeName(name)
	for _, emp := range m.employees {
		if database.NormalizeEmployeeName(emp.Name) == normalized {
			cp := *emp
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

// List returns all employees ordered by ID
func (m *MockEmployeeRepository) List(_ context.Context) ([]database.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Employee, 0, len(m.employees))
	for _, emp := range m.employees {
		out = append(out, *emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes an employee
func (m *MockEmployeeRepository) Delete(_ context.Context, id int64) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.employees, id)
	return nil
}

// Count returns the roster size
func (m *MockEmployeeRepository) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.employees), nil
}

// MockAttendanceRepository is a mock implementation of database.AttendanceRepository
type MockAttendanceRepository struct {
	mu      sync.RWMutex
	records map[int64]*database.AttendanceRecord
	nextID  int64

	// Error injection
	ExistsError error
	InsertError error
	ListError   error
	DeleteError error
}

// NewMockAttendanceRepository creates a new mock attendance repository
func NewMockAttendanceRepository() *MockAttendanceRepository {
	return &MockAttendanceRepository{
		records: make(map[int64]*database.AttendanceRecord),
		nextID:  1,
	}
}

func sameDay(a, b time.Time) bool {
	return a.UTC().Format("2006-01-02") == b.UTC().Format("2006-01-02")
}

// ExistsFor reports whether a record exists for the employee on the day
func (m *MockAttendanceRepository) ExistsFor(_ context.Context, employeeID int64, day time.Time) (bool, error) {
	if m.ExistsError != nil {
		return false, m.ExistsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.EmployeeID == employeeID && sameDay(rec.RecordedOn, day) {
			return true, nil
		}
	}
	return false, nil
}

// Insert stores a record, returning false on the per-day uniqueness conflict
func (m *MockAttendanceRepository) Insert(_ context.Context, rec database.AttendanceRecord) (bool, error) {
	if m.InsertError != nil {
		return false, m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.EmployeeID == rec.EmployeeID && sameDay(existing.RecordedOn, rec.RecordedOn) {
			return false, nil
		}
	}
	rec.ID = m.nextID
	m.nextID++
	m.records[rec.ID] = &rec
	return true, nil
}

// ListForEmployee returns an employee's records, newest first
func (m *MockAttendanceRepository) ListForEmployee(_ context.Context, employeeID int64) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.AttendanceRecord
	for _, rec := range m.records {
		if rec.EmployeeID == employeeID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

// ListForDay returns all records on a calendar day
func (m *MockAttendanceRepository) ListForDay(_ context.Context, day time.Time) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.AttendanceRecord
	for _, rec := range m.records {
		if sameDay(rec.RecordedOn, day) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes a record by ID
func (m *MockAttendanceRepository) Delete(_ context.Context, id int64) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// Count returns the number of stored records
func (m *MockAttendanceRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
