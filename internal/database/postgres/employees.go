package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/clockin/internal/database"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// EmployeeRepository provides PostgreSQL-backed roster storage.
type EmployeeRepository struct {
	pool *Pool
}

// NewEmployeeRepository creates a new PostgreSQL employee repository.
func NewEmployeeRepository(pool *Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create stores a new employee and fills in its assigned ID.
func (r *EmployeeRepository) Create(ctx context.Context, emp *database.Employee) error {
	query := `
		INSERT INTO employees (name, normalized_name, designation, role, password_hash, template, photo_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	var template any
	if len(emp.Template) > 0 {
		template = pgvector.NewVector(emp.Template)
	}

	err := r.pool.QueryRow(ctx, query,
		emp.Name,
		database.NormalizeEmployeeName(emp.Name),
		emp.Designation,
		emp.Role,
		emp.PasswordHash,
		template,
		emp.PhotoRef,
	).Scan(&emp.ID, &emp.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return database.ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

const employeeColumns = `id, name, designation, role, password_hash, template, photo_ref, created_at`

func scanEmployee(row *sql.Row) (*database.Employee, error) {
	var emp database.Employee
	var template pgvector.Vector
	var hasTemplate sql.NullString

	err := row.Scan(
		&emp.ID,
		&emp.Name,
		&emp.Designation,
		&emp.Role,
		&emp.PasswordHash,
		&hasTemplate,
		&emp.PhotoRef,
		&emp.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan employee: %w", err)
	}

	if hasTemplate.Valid {
		if err := template.Scan([]byte(hasTemplate.String)); err != nil {
			return nil, fmt.Errorf("parse template vector: %w", err)
		}
		emp.Template = template.Slice()
	}
	return &emp, nil
}

// GetByID retrieves an employee by ID.
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*database.Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	return scanEmployee(row)
}

// GetByName retrieves an employee by normalized name.
func (r *EmployeeRepository) GetByName(ctx context.Context, name string) (*database.Employee, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE normalized_name = $1`,
		database.NormalizeEmployeeName(name),
	)
	return scanEmployee(row)
}

// List returns all employees ordered by ID, templates included.
func (r *EmployeeRepository) List(ctx context.Context) ([]database.Employee, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var employees []database.Employee
	for rows.Next() {
		var emp database.Employee
		var hasTemplate sql.NullString

		err := rows.Scan(
			&emp.ID,
			&emp.Name,
			&emp.Designation,
			&emp.Role,
			&emp.PasswordHash,
			&hasTemplate,
			&emp.PhotoRef,
			&emp.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		if hasTemplate.Valid {
			var template pgvector.Vector
			if err := template.Scan([]byte(hasTemplate.String)); err != nil {
				return nil, fmt.Errorf("parse template vector: %w", err)
			}
			emp.Template = template.Slice()
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return employees, nil
}

// Delete removes an employee; attendance and sessions cascade.
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
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

// Count returns the roster size.
func (r *EmployeeRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM employees").Scan(&count); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return count, nil
}
