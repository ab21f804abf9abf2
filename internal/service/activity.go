package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/cache"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/activity"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/idempotency"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
)

// ActivityService is the append-only audit trail over the ledger store.
// Appends are best effort and idempotent per operation key: a failed or
// replayed append never fails or doubles the primary mutation it
// records.
type ActivityService interface {
	// Record appends one entry. Errors are logged, never returned.
	Record(ctx context.Context, e *activity.Entry)

	List(ctx context.Context, filter *types.ActivityFilter) (*types.ListResponse[*activity.Entry], error)
	UserSummary(ctx context.Context, userID string, start, end time.Time) ([]*activity.SummaryBucket, error)
	EntityStatistics(ctx context.Context, module *types.Module) ([]*activity.EntityStats, error)
	RankUsers(ctx context.Context, start, end time.Time, limit int) ([]*activity.UserRank, error)

	// ExportCSV streams the filtered entries as CSV
	ExportCSV(ctx context.Context, filter *types.ActivityFilter, w io.Writer) error

	// Sweep deletes entries past the configured retention horizon
	Sweep(ctx context.Context) (int, error)
	// StartRetentionSweep schedules Sweep on the configured cron spec
	StartRetentionSweep(ctx context.Context) (*cron.Cron, error)
}

type activityService struct {
	ServiceParams
	idgen *idempotency.Generator
}

func NewActivityService(params ServiceParams) ActivityService {
	return &activityService{
		ServiceParams: params,
		idgen:         idempotency.NewGenerator(),
	}
}

func (s *activityService) Record(ctx context.Context, e *activity.Entry) {
	if e.ID == "" {
		e.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ACTIVITY)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = types.GetClientIP(ctx)
	}
	if e.UserAgent == "" {
		e.UserAgent = types.GetUserAgent(ctx)
	}
	if err := e.Validate(); err != nil {
		s.Logger.Errorw("dropping invalid activity entry",
			"record_id", e.RecordID, "action", e.Action, "error", err)
		return
	}

	if e.OperationKey == "" {
		e.OperationKey = s.idgen.GenerateKey(idempotency.ScopeActivity, map[string]interface{}{
			"user_id":   e.UserID,
			"record_id": e.RecordID,
			"action":    e.Action,
			"timestamp": e.Timestamp.UnixNano(),
		})
	}

	// replayed mutations carry the same operation key; skip the append
	dedupeKey := cache.GenerateKey(cache.PrefixOperation, e.OperationKey)
	if _, seen := s.Cache.Get(ctx, dedupeKey); seen {
		s.Logger.Debugw("skipping duplicate activity entry", "operation_key", e.OperationKey)
		return
	}

	insert := func() error {
		return s.ActivityRepo.Insert(ctx, e)
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Second
	if err := backoff.Retry(insert, backoff.WithContext(bo, ctx)); err != nil {
		s.Logger.Errorw("failed to append activity entry",
			"record_id", e.RecordID, "action", e.Action, "error", err)
		return
	}
	s.Cache.Set(ctx, dedupeKey, struct{}{}, s.Config.Activity.DedupeWindow)
}

func (s *activityService) List(ctx context.Context, filter *types.ActivityFilter) (*types.ListResponse[*activity.Entry], error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	entries, err := s.ActivityRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.ActivityRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return types.NewListResponse(entries, total, filter.QueryFilter), nil
}

func (s *activityService) UserSummary(ctx context.Context, userID string, start, end time.Time) ([]*activity.SummaryBucket, error) {
	if userID == "" {
		return nil, ierr.NewError("user id is required").
			WithHint("User id must be provided").
			Mark(ierr.ErrValidation)
	}
	return s.ActivityRepo.UserSummary(ctx, userID, start, end)
}

func (s *activityService) EntityStatistics(ctx context.Context, module *types.Module) ([]*activity.EntityStats, error) {
	return s.ActivityRepo.EntityStatistics(ctx, module)
}

func (s *activityService) RankUsers(ctx context.Context, start, end time.Time, limit int) ([]*activity.UserRank, error) {
	return s.ActivityRepo.RankUsers(ctx, start, end, limit)
}

func (s *activityService) ExportCSV(ctx context.Context, filter *types.ActivityFilter, w io.Writer) error {
	if err := filter.Validate(); err != nil {
		return err
	}

	entries, err := s.ActivityRepo.List(ctx, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"id", "timestamp", "user_id", "module", "entity", "record_id", "action", "changes", "ip_address"}
	if err := cw.Write(header); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to write CSV header").
			Mark(ierr.ErrSystem)
	}

	for _, e := range entries {
		var changes string
		if len(e.Changes) > 0 {
			raw, err := json.Marshal(e.Changes)
			if err == nil {
				changes = string(raw)
			}
		}
		row := []string{
			e.ID,
			e.Timestamp.UTC().Format(time.RFC3339),
			e.UserID,
			string(e.Module),
			e.EntityKey,
			e.RecordID,
			string(e.Action),
			changes,
			e.IPAddress,
		}
		if err := cw.Write(row); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to write CSV row").
				Mark(ierr.ErrSystem)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to flush CSV output").
			Mark(ierr.ErrSystem)
	}
	return nil
}

func (s *activityService) Sweep(ctx context.Context) (int, error) {
	retention := s.Config.Activity.RetentionDays
	if retention <= 0 {
		return 0, nil
	}

	horizon := time.Now().UTC().AddDate(0, 0, -retention)
	deleted, err := s.ActivityRepo.DeleteOlderThan(ctx, horizon)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.Logger.Infow("activity retention sweep completed",
			"deleted", deleted, "horizon", horizon.Format(time.RFC3339))
	}
	return deleted, nil
}

func (s *activityService) StartRetentionSweep(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(s.Config.Activity.SweepSchedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.Logger.Errorw("activity retention sweep failed", "error", err)
		}
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Invalid sweep schedule %q", s.Config.Activity.SweepSchedule).
			Mark(ierr.ErrValidation)
	}

	c.Start()
	s.Logger.Infow("activity retention sweep scheduled",
		"schedule", s.Config.Activity.SweepSchedule,
		"retention_days", s.Config.Activity.RetentionDays)
	return c, nil
}

// operation keys for primary mutations tie the ledger append and the
// change event of one request together
func operationKey(action types.ActionType, recordID string, version int) string {
	return fmt.Sprintf("%s:%s:%s", action, recordID, strconv.Itoa(version))
}
