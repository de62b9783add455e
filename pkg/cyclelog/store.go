package cyclelog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jllopis/praxis/pkg/core"
)

// Store persists cycle records. Records are append-only; no Store
// implementation ever mutates a record after Append.
type Store interface {
	Append(ctx context.Context, record core.CycleRecord) error
	List(ctx context.Context, filter Filter) ([]core.CycleRecord, error)
}

// Filter limits cycle record queries.
type Filter struct {
	ActionKind   string
	FailuresOnly bool
	Limit        int
}

// MemoryStore keeps cycle records in memory.
type MemoryStore struct {
	mu      sync.Mutex
	records []core.CycleRecord
}

// NewMemoryStore returns an in-memory cycle store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append adds a cycle record.
func (s *MemoryStore) Append(_ context.Context, record core.CycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// List returns filtered cycle records in append order.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]core.CycleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.CycleRecord, 0, len(s.records))
	for _, rec := range s.records {
		if filter.ActionKind != "" && rec.SelectedAction.Kind != filter.ActionKind {
			continue
		}
		if filter.FailuresOnly && rec.ExecutionSuccess {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// encodeCyclePayload marshals an arbitrary payload into JSON.
func encodeCyclePayload(payload any) ([]byte, error) {
	if payload == nil {
		return []byte("null"), nil
	}
	return json.Marshal(payload)
}

// decodeCyclePayload parses a JSON payload.
func decodeCyclePayload(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// normalizeCycleTime ensures timestamps are stored in UTC.
func normalizeCycleTime(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return value.UTC()
}
