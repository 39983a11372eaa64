//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kozaktomas/clockin/internal/config"
	"github.com/kozaktomas/clockin/internal/database"
	"github.com/kozaktomas/clockin/internal/web/middleware"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func testTemplate(first float32) []float32 {
	template := make([]float32, 128)
	template[0] = first
	return template
}

func TestEmployeeRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewEmployeeRepository(pool)

	t.Run("CreateAndGet", func(t *testing.T) {
		emp := &database.Employee{
			Name:         "Jan Novák",
			Designation:  "Engineer",
			Role:         database.RoleEmployee,
			PasswordHash: "hash",
			Template:     testTemplate(0.5),
			PhotoRef:     "photo-1.jpg",
		}
		if err := repo.Create(ctx, emp); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if emp.ID == 0 {
			t.Fatal("Create did not assign an ID")
		}

		got, err := repo.GetByID(ctx, emp.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Name != "Jan Novák" {
			t.Errorf("Name = %q, want Jan Novák", got.Name)
		}
		if len(got.Template) != 128 || got.Template[0] != 0.5 {
			t.Errorf("template did not round-trip: len=%d", len(got.Template))
		}
	})

	t.Run("GetByNameNormalized", func(t *testing.T) {
		got, err := repo.GetByName(ctx, "jan-novak")
		if err != nil {
			t.Fatalf("GetByName failed: %v", err)
		}
		if got.Name != "Jan Novák" {
			t.Errorf("Name = %q, want Jan Novák", got.Name)
		}
	})

	t.Run("DuplicateName", func(t *testing.T) {
		err := repo.Create(ctx, &database.Employee{
			Name:         "JAN NOVAK",
			Role:         database.RoleEmployee,
			PasswordHash: "hash",
		})
		if !errors.Is(err, database.ErrDuplicateName) {
			t.Errorf("Create error = %v, want ErrDuplicateName", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := repo.GetByID(ctx, 9999); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("GetByID error = %v, want ErrNotFound", err)
		}
		if err := repo.Delete(ctx, 9999); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("Delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListAndCount", func(t *testing.T) {
		employees, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if len(employees) != count {
			t.Errorf("List returned %d, Count returned %d", len(employees), count)
		}
	})
}

func TestAttendanceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	employees := NewEmployeeRepository(pool)
	repo := NewAttendanceRepository(pool)

	emp := &database.Employee{Name: "Priya Raman", Role: database.RoleEmployee, PasswordHash: "hash"}
	if err := employees.Create(ctx, emp); err != nil {
		t.Fatalf("Create employee failed: %v", err)
	}

	day := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	rec := database.AttendanceRecord{
		EmployeeID:    emp.ID,
		RecordedOn:    day,
		RecordedAt:    day,
		Latitude:      13.0129,
		Longitude:     80.2231,
		Status:        "accepted",
		Reason:        "Attendance marked successfully",
		MatchDistance: 0.31,
	}

	t.Run("InsertOncePerDay", func(t *testing.T) {
		inserted, err := repo.Insert(ctx, rec)
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if !inserted {
			t.Fatal("first Insert reported conflict")
		}

		inserted, err = repo.Insert(ctx, rec)
		if err != nil {
			t.Fatalf("second Insert failed: %v", err)
		}
		if inserted {
			t.Error("second Insert on the same day must report conflict")
		}

		exists, err := repo.ExistsFor(ctx, emp.ID, day)
		if err != nil {
			t.Fatalf("ExistsFor failed: %v", err)
		}
		if !exists {
			t.Error("ExistsFor = false after insert")
		}
	})

	t.Run("NextDayInserts", func(t *testing.T) {
		next := rec
		next.RecordedOn = day.AddDate(0, 0, 1)
		inserted, err := repo.Insert(ctx, next)
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if !inserted {
			t.Error("insert on a new day must succeed")
		}
	})

	t.Run("ListJoinsEmployeeName", func(t *testing.T) {
		records, err := repo.ListForDay(ctx, day)
		if err != nil {
			t.Fatalf("ListForDay failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		if records[0].EmployeeName != "Priya Raman" {
			t.Errorf("EmployeeName = %q", records[0].EmployeeName)
		}

		mine, err := repo.ListForEmployee(ctx, emp.ID)
		if err != nil {
			t.Fatalf("ListForEmployee failed: %v", err)
		}
		if len(mine) != 2 {
			t.Errorf("got %d records, want 2", len(mine))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		records, err := repo.ListForDay(ctx, day)
		if err != nil {
			t.Fatalf("ListForDay failed: %v", err)
		}
		if err := repo.Delete(ctx, records[0].ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := repo.Delete(ctx, records[0].ID); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("second Delete error = %v, want ErrNotFound", err)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	employees := NewEmployeeRepository(pool)
	repo := NewSessionRepository(pool)

	emp := &database.Employee{Name: "Arun Kumar", Role: database.RoleHR, PasswordHash: "hash"}
	if err := employees.Create(ctx, emp); err != nil {
		t.Fatalf("Create employee failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	session := middleware.StoredSession{
		ID:         "session-1",
		EmployeeID: emp.ID,
		Role:       database.RoleHR,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}

	if err := repo.Save(ctx, session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.EmployeeID != emp.ID || got.Role != database.RoleHR {
		t.Fatalf("unexpected session: %+v", got)
	}

	// Expired sessions are invisible.
	expired := session
	expired.ID = "session-2"
	expired.ExpiresAt = now.Add(-time.Hour)
	if err := repo.Save(ctx, expired); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err = repo.Get(ctx, "session-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Error("expired session returned")
	}

	deleted, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteExpired = %d, want 1", deleted)
	}

	if err := repo.DeleteForEmployee(ctx, emp.ID); err != nil {
		t.Fatalf("DeleteForEmployee failed: %v", err)
	}
	got, err = repo.Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Error("session survived DeleteForEmployee")
	}
}
