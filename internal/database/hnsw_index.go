package database

import (
	"errors"
	"math"
	"sync"

	"github.com/coder/hnsw"
)

const (
	// hnswMaxNeighbors (M) is the maximum number of neighbors per node.
	hnswMaxNeighbors = 16

	// hnswSearchMultiplier requests extra candidates so deleted employees
	// filtered after the graph search do not starve the result set.
	hnswSearchMultiplier = 3
)

// EuclideanDistance computes the L2 distance between two embeddings of the
// same dimension.
func EuclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// HNSWIndex wraps an HNSW graph over employee face templates for 1:N
// identification ("who is this?") without scanning the whole roster.
type HNSWIndex struct {
	graph        *hnsw.Graph[int64]
	idToEmployee map[int64]*Employee
	mu           sync.RWMutex
}

// NewHNSWIndex creates a new empty HNSW index.
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{
		idToEmployee: make(map[int64]*Employee),
	}
}

func newGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance
	return g
}

// BuildFromEmployees rebuilds the index from the full roster. Employees
// without a template are skipped.
func (h *HNSWIndex) BuildFromEmployees(employees []Employee) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(employees) == 0 {
		h.graph = nil
		h.idToEmployee = make(map[int64]*Employee)
		return
	}

	g := newGraph()
	h.idToEmployee = make(map[int64]*Employee, len(employees))

	for i := range employees {
		emp := &employees[i]
		if len(emp.Template) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(emp.ID, emp.Template))
		h.idToEmployee[emp.ID] = emp
	}

	h.graph = g
}

// Add inserts a single employee into the index.
func (h *HNSWIndex) Add(emp *Employee) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(emp.Template) == 0 {
		return
	}
	if h.graph == nil {
		h.graph = newGraph()
	}
	h.graph.Add(hnsw.MakeNode(emp.ID, emp.Template))
	h.idToEmployee[emp.ID] = emp
}

// Delete removes an employee from search results. The graph node stays, but
// results are filtered through the employee lookup.
func (h *HNSWIndex) Delete(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.idToEmployee, id)
}

// Count returns the number of indexed employees.
func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.idToEmployee)
}

// Search finds the k nearest employees to the query embedding, closest
// first, with their L2 distances.
func (h *HNSWIndex) Search(query []float32, k int) ([]*Employee, []float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		return nil, nil, errors.New("index not initialized")
	}

	neighbors := h.graph.Search(query, k*hnswSearchMultiplier)

	employees := make([]*Employee, 0, k)
	distances := make([]float64, 0, k)
	for _, n := range neighbors {
		emp, ok := h.idToEmployee[n.Key]
		if !ok {
			continue
		}
		employees = append(employees, emp)
		distances = append(distances, EuclideanDistance(query, n.Value))
		if len(employees) == k {
			break
		}
	}
	return employees, distances, nil
}

// Identify returns the closest employee within tolerance, or nil when nobody
// on the roster matches.
func (h *HNSWIndex) Identify(query []float32, tolerance float64) (*Employee, float64, error) {
	employees, distances, err := h.Search(query, 1)
	if err != nil {
		return nil, 0, err
	}
	if len(employees) == 0 || distances[0] > tolerance {
		return nil, 0, nil
	}
	return employees[0], distances[0], nil
}
