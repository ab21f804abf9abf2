package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/record"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/samber/lo"
)

// InMemoryRecordStore mirrors the conditional-write semantics of the
// real store, including version compare-and-swap
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]*record.Record
}

func NewInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{
		records: make(map[string]*record.Record),
	}
}

func (s *InMemoryRecordStore) Create(ctx context.Context, r *record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[r.ID]; exists {
		return ierr.NewError("record already exists").
			WithHintf("Record %s already exists", r.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.records[r.ID] = copyRecord(r)
	return nil
}

func (s *InMemoryRecordStore) Get(ctx context.Context, id string) (*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[id]
	if !exists || r.IsDeleted {
		return nil, notFound(id)
	}
	return copyRecord(r), nil
}

func (s *InMemoryRecordStore) GetAny(ctx context.Context, id string) (*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[id]
	if !exists {
		return nil, notFound(id)
	}
	return copyRecord(r), nil
}

func (s *InMemoryRecordStore) UpdateWithVersion(ctx context.Context, r *record.Record, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.records[r.ID]
	if !exists || stored.IsDeleted {
		return notFound(r.ID)
	}
	if stored.Version != expectedVersion {
		return ierr.NewError("record version mismatch").
			WithHintf("Record %s changed since it was read", r.ID).
			WithReportableDetails(map[string]any{
				"expected_version": expectedVersion,
				"current_version":  stored.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	stored.Data = copyData(r.Data)
	stored.Version++
	stored.UpdatedBy = r.UpdatedBy
	stored.UpdatedAt = time.Now().UTC()

	r.Version = stored.Version
	r.Status = stored.Status
	r.CreatedBy = stored.CreatedBy
	r.CreatedAt = stored.CreatedAt
	r.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *InMemoryRecordStore) UpdateStatus(ctx context.Context, id string, from, to types.RecordStatus, actorID string) (*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.records[id]
	if !exists || stored.IsDeleted {
		return nil, notFound(id)
	}
	if stored.Status != from {
		return nil, ierr.NewError("invalid state transition").
			WithHintf("Record is %s, not %s", stored.Status, from).
			Mark(ierr.ErrInvalidTransition)
	}

	stored.Status = to
	stored.Version++
	stored.UpdatedBy = actorID
	stored.UpdatedAt = time.Now().UTC()
	return copyRecord(stored), nil
}

func (s *InMemoryRecordStore) SoftDelete(ctx context.Context, id, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.records[id]
	if !exists || stored.IsDeleted {
		return notFound(id)
	}
	stored.IsDeleted = true
	stored.Version++
	stored.UpdatedBy = actorID
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryRecordStore) Restore(ctx context.Context, id, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.records[id]
	if !exists || !stored.IsDeleted {
		return notFound(id)
	}
	stored.IsDeleted = false
	stored.Version++
	stored.UpdatedBy = actorID
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryRecordStore) List(ctx context.Context, filter *types.RecordFilter) ([]*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*record.Record
	for _, r := range s.records {
		if s.matches(r, filter) {
			matched = append(matched, copyRecord(r))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if filter.GetOrder() == types.OrderAsc {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	offset := filter.GetOffset()
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + filter.GetLimit()
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *InMemoryRecordStore) Count(ctx context.Context, filter *types.RecordFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.records {
		if s.matches(r, filter) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryRecordStore) CountByEntity(ctx context.Context, module types.Module, entityKey string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.records {
		if r.Module == module && r.EntityKey == entityKey {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryRecordStore) matches(r *record.Record, filter *types.RecordFilter) bool {
	if r.Module != filter.Module || r.EntityKey != filter.EntityKey {
		return false
	}
	if r.IsDeleted && !filter.IncludeDeleted {
		return false
	}
	if filter.Status != nil && r.Status != *filter.Status {
		return false
	}
	if filter.CreatedBy != nil && r.CreatedBy != *filter.CreatedBy {
		return false
	}
	if len(filter.CreatedByIn) > 0 && !lo.Contains(filter.CreatedByIn, r.CreatedBy) {
		return false
	}
	if filter.StartTime != nil && r.CreatedAt.Before(*filter.StartTime) {
		return false
	}
	if filter.EndTime != nil && r.CreatedAt.After(*filter.EndTime) {
		return false
	}
	if filter.Search != nil && *filter.Search != "" {
		found := false
		needle := strings.ToLower(*filter.Search)
		for _, v := range r.Data {
			if sv, ok := v.(string); ok && strings.Contains(strings.ToLower(sv), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func notFound(id string) error {
	return ierr.NewError("record not found").
		WithHintf("Record %s does not exist", id).
		Mark(ierr.ErrNotFound)
}

func copyRecord(r *record.Record) *record.Record {
	cp := *r
	cp.Data = copyData(r.Data)
	return &cp
}

func copyData(data map[string]any) map[string]any {
	cp := make(map[string]any, len(data))
	for k, v := range data {
		cp[k] = v
	}
	return cp
}
