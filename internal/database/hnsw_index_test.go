package database

import (
	"testing"
)

func testEmployee(id int64, name string, first float32) Employee {
	template := make([]float32, 128)
	template[0] = first
	return Employee{ID: id, Name: name, Template: template}
}

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"pythagorean", []float32{0, 0}, []float32{3, 4}, 5},
		{"single axis", []float32{0.5}, []float32{1.0}, 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EuclideanDistance(tc.a, tc.b)
			if diff := got - tc.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("EuclideanDistance() = %f; want %f", got, tc.expected)
			}
		})
	}
}

func TestHNSWIndex_SearchReturnsClosestFirst(t *testing.T) {
	idx := NewHNSWIndex()
	idx.BuildFromEmployees([]Employee{
		testEmployee(1, "Priya", 0.0),
		testEmployee(2, "Arun", 0.5),
		testEmployee(3, "Meena", 1.0),
	})

	query := make([]float32, 128)
	query[0] = 0.45

	employees, distances, err := idx.Search(query, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(employees) != 2 {
		t.Fatalf("got %d results, want 2", len(employees))
	}
	if employees[0].ID != 2 {
		t.Errorf("closest = %d (%s), want 2", employees[0].ID, employees[0].Name)
	}
	if distances[0] > distances[1] {
		t.Errorf("distances not ascending: %v", distances)
	}
}

func TestHNSWIndex_Identify(t *testing.T) {
	idx := NewHNSWIndex()
	idx.BuildFromEmployees([]Employee{
		testEmployee(1, "Priya", 0.0),
		testEmployee(2, "Arun", 2.0),
	})

	query := make([]float32, 128)
	query[0] = 0.1

	emp, dist, err := idx.Identify(query, 0.45)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if emp == nil || emp.ID != 1 {
		t.Fatalf("identified %+v, want employee 1", emp)
	}
	if dist < 0.09 || dist > 0.11 {
		t.Errorf("distance = %f, want ~0.1", dist)
	}

	// Nobody within tolerance.
	query[0] = 1.0
	emp, _, err = idx.Identify(query, 0.45)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if emp != nil {
		t.Errorf("identified %s, want no match", emp.Name)
	}
}

func TestHNSWIndex_DeleteFiltersResults(t *testing.T) {
	idx := NewHNSWIndex()
	idx.BuildFromEmployees([]Employee{
		testEmployee(1, "Priya", 0.0),
		testEmployee(2, "Arun", 0.1),
	})
	idx.Delete(1)

	if idx.Count() != 1 {
		t.Errorf("Count() = %d, want 1", idx.Count())
	}

	query := make([]float32, 128)
	employees, _, err := idx.Search(query, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, emp := range employees {
		if emp.ID == 1 {
			t.Error("deleted employee returned from search")
		}
	}
}

func TestHNSWIndex_SkipsEmptyTemplates(t *testing.T) {
	idx := NewHNSWIndex()
	idx.BuildFromEmployees([]Employee{
		{ID: 1, Name: "Priya"},
		testEmployee(2, "Arun", 0.2),
	})
	if idx.Count() != 1 {
		t.Errorf("Count() = %d, want 1", idx.Count())
	}
}

func TestHNSWIndex_EmptySearchErrors(t *testing.T) {
	idx := NewHNSWIndex()
	if _, _, err := idx.Search(make([]float32, 128), 1); err == nil {
		t.Error("expected error on uninitialized index")
	}
}

func TestHNSWIndex_AddIncremental(t *testing.T) {
	idx := NewHNSWIndex()
	emp := testEmployee(5, "Kavya", 0.3)
	idx.Add(&emp)

	got, _, err := idx.Identify(emp.Template, 0.01)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if got == nil || got.ID != 5 {
		t.Errorf("identified %+v, want employee 5", got)
	}
}
