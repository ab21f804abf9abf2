package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/activity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

type InMemoryActivityStore struct {
	mu      sync.RWMutex
	entries []*activity.Entry
}

func NewInMemoryActivityStore() *InMemoryActivityStore {
	return &InMemoryActivityStore{}
}

func (s *InMemoryActivityStore) Insert(ctx context.Context, e *activity.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *InMemoryActivityStore) List(ctx context.Context, filter *types.ActivityFilter) ([]*activity.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*activity.Entry
	for _, e := range s.entries {
		if matchesActivity(e, filter) {
			cp := *e
			matched = append(matched, &cp)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if filter.GetOrder() == types.OrderAsc {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		}
		return matched[i].Timestamp.After(matched[j].Timestamp)
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

func (s *InMemoryActivityStore) Count(ctx context.Context, filter *types.ActivityFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.entries {
		if matchesActivity(e, filter) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryActivityStore) UserSummary(ctx context.Context, userID string, start, end time.Time) ([]*activity.SummaryBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type bucketKey struct {
		day    time.Time
		action types.ActionType
	}
	counts := make(map[bucketKey]uint64)
	for _, e := range s.entries {
		if e.UserID != userID || e.Timestamp.Before(start) || !e.Timestamp.Before(end) {
			continue
		}
		day := e.Timestamp.UTC().Truncate(24 * time.Hour)
		counts[bucketKey{day, e.Action}]++
	}

	buckets := make([]*activity.SummaryBucket, 0, len(counts))
	for k, count := range counts {
		buckets = append(buckets, &activity.SummaryBucket{Day: k.day, Action: k.action, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if !buckets[i].Day.Equal(buckets[j].Day) {
			return buckets[i].Day.Before(buckets[j].Day)
		}
		return buckets[i].Action < buckets[j].Action
	})
	return buckets, nil
}

func (s *InMemoryActivityStore) EntityStatistics(ctx context.Context, module *types.Module) ([]*activity.EntityStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type statsKey struct {
		module    types.Module
		entityKey string
	}
	stats := make(map[statsKey]*activity.EntityStats)
	for _, e := range s.entries {
		if module != nil && e.Module != *module {
			continue
		}
		key := statsKey{e.Module, e.EntityKey}
		st, ok := stats[key]
		if !ok {
			st = &activity.EntityStats{Module: e.Module, EntityKey: e.EntityKey}
			stats[key] = st
		}
		st.Count++
		if e.Timestamp.After(st.LastSeen) {
			st.LastSeen = e.Timestamp
		}
	}

	result := make([]*activity.EntityStats, 0, len(stats))
	for _, st := range stats {
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	return result, nil
}

func (s *InMemoryActivityStore) RankUsers(ctx context.Context, start, end time.Time, limit int) ([]*activity.UserRank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]uint64)
	for _, e := range s.entries {
		if e.Timestamp.Before(start) || !e.Timestamp.Before(end) {
			continue
		}
		counts[e.UserID]++
	}

	ranks := make([]*activity.UserRank, 0, len(counts))
	for userID, count := range counts {
		ranks = append(ranks, &activity.UserRank{UserID: userID, Count: count})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Count != ranks[j].Count {
			return ranks[i].Count > ranks[j].Count
		}
		return ranks[i].UserID < ranks[j].UserID
	})
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}

func (s *InMemoryActivityStore) DeleteOlderThan(ctx context.Context, horizon time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	deleted := 0
	for _, e := range s.entries {
		if e.Timestamp.Before(horizon) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return deleted, nil
}

func matchesActivity(e *activity.Entry, filter *types.ActivityFilter) bool {
	if filter == nil {
		return true
	}
	if filter.UserID != nil && e.UserID != *filter.UserID {
		return false
	}
	if filter.Module != nil && e.Module != *filter.Module {
		return false
	}
	if filter.EntityKey != nil && e.EntityKey != *filter.EntityKey {
		return false
	}
	if filter.RecordID != nil && e.RecordID != *filter.RecordID {
		return false
	}
	if filter.Action != nil && e.Action != *filter.Action {
		return false
	}
	if filter.StartTime != nil && e.Timestamp.Before(*filter.StartTime) {
		return false
	}
	if filter.EndTime != nil && !e.Timestamp.Before(*filter.EndTime) {
		return false
	}
	return true
}
