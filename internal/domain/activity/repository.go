package activity

import (
	"context"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

// Repository is the persistence contract for the append-only ledger.
// It is backed by a store independent of the primary record database so
// audit writes never contend with business mutations.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error

	List(ctx context.Context, filter *types.ActivityFilter) ([]*Entry, error)
	Count(ctx context.Context, filter *types.ActivityFilter) (int, error)

	// UserSummary buckets a user's activity by day and action
	UserSummary(ctx context.Context, userID string, start, end time.Time) ([]*SummaryBucket, error)
	// EntityStatistics aggregates ledger volume per entity
	EntityStatistics(ctx context.Context, module *types.Module) ([]*EntityStats, error)
	// RankUsers orders users by activity volume in a window
	RankUsers(ctx context.Context, start, end time.Time, limit int) ([]*UserRank, error)

	// DeleteOlderThan hard-deletes entries past the retention horizon and
	// returns the number of rows removed
	DeleteOlderThan(ctx context.Context, horizon time.Time) (int, error)
}
