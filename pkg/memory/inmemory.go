package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
)

// ErrUnknownCollection indicates a search against a collection that was
// never created.
var ErrUnknownCollection = errors.New("memory: unknown collection")

// InMemory is a process-local VectorStore with brute-force cosine search.
// It backs tests and deployments that don't run a vector database.
type InMemory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Point
}

// NewInMemory creates an empty in-memory vector store.
func NewInMemory() *InMemory {
	return &InMemory{collections: make(map[string]map[string]Point)}
}

// CreateCollection creates a collection. Size is ignored; vectors of any
// dimension are accepted.
func (m *InMemory) CreateCollection(_ context.Context, name string, _ uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		m.collections[name] = make(map[string]Point)
	}
	return nil
}

// Upsert adds or replaces points by id, creating the collection on first
// write.
func (m *InMemory) Upsert(_ context.Context, collection string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]Point)
		m.collections[collection] = coll
	}
	for _, p := range points {
		coll[p.ID] = p
	}
	return nil
}

// Search returns up to limit points ranked by cosine similarity, filtered
// by scoreThreshold.
func (m *InMemory) Search(_ context.Context, collection string, vector []float32, limit int, scoreThreshold float32) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coll, ok := m.collections[collection]
	if !ok {
		return nil, ErrUnknownCollection
	}

	results := make([]SearchResult, 0, len(coll))
	for _, p := range coll {
		score := cosine(vector, p.Vector)
		if score < scoreThreshold {
			continue
		}
		results = append(results, SearchResult{ID: p.ID, Score: score, Point: p})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Len returns the number of points in a collection.
func (m *InMemory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
