package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"haulbook/internal/core"
)

// MemoryStore is a DocStore held in process memory. Used by tests and by
// DATA_BACKEND=memory for throwaway instances.
type MemoryStore struct {
	mu    sync.Mutex
	seq   int64
	colls map[string]map[string]memRecord
}

type memRecord struct {
	Record
	seq int64
}

var _ DocStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	colls := make(map[string]map[string]memRecord, len(Collections))
	for _, c := range Collections {
		colls[c] = make(map[string]memRecord)
	}
	return &MemoryStore{colls: colls}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) coll(name string) (map[string]memRecord, error) {
	if err := checkCollection(name); err != nil {
		return nil, err
	}
	return s.colls[name], nil
}

func sorted(recs map[string]memRecord, keep func(memRecord) bool) []Record {
	list := make([]memRecord, 0, len(recs))
	for _, r := range recs {
		if keep == nil || keep(r) {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].seq > list[j].seq
	})
	out := make([]Record, 0, len(list))
	for _, r := range list {
		out = append(out, r.copy())
	}
	return out
}

func (r memRecord) copy() Record {
	rec := r.Record
	rec.Doc = append([]byte(nil), r.Doc...)
	return rec
}

func fieldValue(doc []byte, field string) (any, bool) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, false
	}
	v, ok := m[field]
	return v, ok
}

func sameValue(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func (s *MemoryStore) List(_ context.Context, coll string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.coll(coll)
	if err != nil {
		return nil, err
	}
	return sorted(recs, nil), nil
}

func (s *MemoryStore) Find(_ context.Context, coll, field string, value any) ([]Record, error) {
	if err := checkField(field); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.coll(coll)
	if err != nil {
		return nil, err
	}
	return sorted(recs, func(r memRecord) bool {
		v, ok := fieldValue(r.Doc, field)
		return ok && sameValue(v, value)
	}), nil
}

func (s *MemoryStore) Get(_ context.Context, coll, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.coll(coll)
	if err != nil {
		return Record{}, err
	}
	r, ok := recs[id]
	if !ok {
		return Record{}, core.ErrNotFound
	}
	return r.copy(), nil
}

// checkUnique must be called with the lock held.
func (s *MemoryStore) checkUnique(coll string, rec Record) error {
	field, ok := uniqueFields[coll]
	if !ok {
		return nil
	}
	v, ok := fieldValue(rec.Doc, field)
	if !ok {
		return nil
	}
	for id, other := range s.colls[coll] {
		if id == rec.ID {
			continue
		}
		if ov, ok := fieldValue(other.Doc, field); ok && sameValue(ov, v) {
			return fmt.Errorf("%w: %s.%s %v already exists", core.ErrConflict, coll, field, v)
		}
	}
	return nil
}

func (s *MemoryStore) Insert(_ context.Context, coll string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.coll(coll)
	if err != nil {
		return err
	}
	if _, exists := recs[rec.ID]; exists {
		return fmt.Errorf("%w: %s/%s already exists", core.ErrConflict, coll, rec.ID)
	}
	if err := s.checkUnique(coll, rec); err != nil {
		return err
	}
	s.seq++
	rec.Doc = append([]byte(nil), rec.Doc...)
	recs[rec.ID] = memRecord{Record: rec, seq: s.seq}
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, coll string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.coll(coll)
	if err != nil {
		return err
	}
	existing, ok := recs[rec.ID]
	if !ok {
		return core.ErrNotFound
	}
	if err := s.checkUnique(coll, rec); err != nil {
		return err
	}
	existing.Doc = append([]byte(nil), rec.Doc...)
	existing.UpdatedAt = rec.UpdatedAt
	recs[rec.ID] = existing
	return nil
}

func (s *MemoryStore) ReplaceIf(_ context.Context, coll string, rec Record, since time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.coll(coll)
	if err != nil {
		return err
	}
	existing, ok := recs[rec.ID]
	if !ok {
		return core.ErrNotFound
	}
	if !existing.UpdatedAt.Equal(since) {
		return core.ErrStale
	}
	if err := s.checkUnique(coll, rec); err != nil {
		return err
	}
	existing.Doc = append([]byte(nil), rec.Doc...)
	existing.UpdatedAt = rec.UpdatedAt
	recs[rec.ID] = existing
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, coll, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.coll(coll)
	if err != nil {
		return err
	}
	if _, ok := recs[id]; !ok {
		return core.ErrNotFound
	}
	delete(recs, id)
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context, coll string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCollection(coll); err != nil {
		return err
	}
	s.colls[coll] = make(map[string]memRecord)
	return nil
}

func (s *MemoryStore) MaxInt(_ context.Context, coll, field string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.coll(coll)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, r := range recs {
		v, ok := fieldValue(r.Doc, field)
		if !ok {
			continue
		}
		if f, ok := v.(float64); ok && int(f) > max {
			max = int(f)
		}
	}
	return max, nil
}
