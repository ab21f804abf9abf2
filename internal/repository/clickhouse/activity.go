package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/clickhouse"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/activity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/record"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

type activityRepository struct {
	store  *clickhouse.ClickHouseStore
	logger *logger.Logger
}

func NewActivityRepository(store *clickhouse.ClickHouseStore, logger *logger.Logger) activity.Repository {
	return &activityRepository{store: store, logger: logger}
}

func (r *activityRepository) Insert(ctx context.Context, e *activity.Entry) error {
	changesJSON, err := json.Marshal(e.Changes)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to serialize field changes").
			Mark(ierr.ErrValidation)
	}

	query := `
	INSERT INTO activities (
		id, user_id, module, entity_key, record_id, action, changes,
		ip_address, user_agent, operation_key, timestamp
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = r.store.GetConn().Exec(ctx, query,
		e.ID,
		e.UserID,
		string(e.Module),
		e.EntityKey,
		e.RecordID,
		string(e.Action),
		string(changesJSON),
		e.IPAddress,
		e.UserAgent,
		e.OperationKey,
		e.Timestamp,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to insert activity entry").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *activityRepository) List(ctx context.Context, filter *types.ActivityFilter) ([]*activity.Entry, error) {
	if filter == nil {
		filter = &types.ActivityFilter{}
	}
	where, args := buildActivityWhere(filter)
	query := fmt.Sprintf(`
	SELECT id, user_id, module, entity_key, record_id, action, changes,
		ip_address, user_agent, operation_key, timestamp
	FROM activities
	%s
	ORDER BY timestamp %s
	LIMIT %d OFFSET %d
	`, where, strings.ToUpper(filter.GetOrder()), filter.GetLimit(), filter.GetOffset())

	rows, err := r.store.GetConn().Query(ctx, query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query activity entries").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var entries []*activity.Entry
	for rows.Next() {
		var e activity.Entry
		var module, action, changesJSON string

		err := rows.Scan(
			&e.ID, &e.UserID, &module, &e.EntityKey, &e.RecordID,
			&action, &changesJSON, &e.IPAddress, &e.UserAgent,
			&e.OperationKey, &e.Timestamp,
		)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan activity entry").
				Mark(ierr.ErrDatabase)
		}

		e.Module = types.Module(module)
		e.Action = types.ActionType(action)
		if changesJSON != "" && changesJSON != "null" {
			var changes []record.FieldChange
			if err := json.Unmarshal([]byte(changesJSON), &changes); err == nil {
				e.Changes = changes
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read activity entries").
			Mark(ierr.ErrDatabase)
	}

	return entries, nil
}

func (r *activityRepository) Count(ctx context.Context, filter *types.ActivityFilter) (int, error) {
	where, args := buildActivityWhere(filter)
	query := fmt.Sprintf(`SELECT count() FROM activities %s`, where)

	var count uint64
	if err := r.store.GetConn().QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count activity entries").
			Mark(ierr.ErrDatabase)
	}
	return int(count), nil
}

func (r *activityRepository) UserSummary(ctx context.Context, userID string, start, end time.Time) ([]*activity.SummaryBucket, error) {
	query := `
	SELECT toStartOfDay(timestamp) AS day, action, count() AS count
	FROM activities
	WHERE user_id = ? AND timestamp >= ? AND timestamp < ?
	GROUP BY day, action
	ORDER BY day, action
	`

	rows, err := r.store.GetConn().Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query activity summary").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var buckets []*activity.SummaryBucket
	for rows.Next() {
		var b activity.SummaryBucket
		var action string
		if err := rows.Scan(&b.Day, &action, &b.Count); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan activity summary").
				Mark(ierr.ErrDatabase)
		}
		b.Action = types.ActionType(action)
		buckets = append(buckets, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read activity summary").
			Mark(ierr.ErrDatabase)
	}

	return buckets, nil
}

func (r *activityRepository) EntityStatistics(ctx context.Context, module *types.Module) ([]*activity.EntityStats, error) {
	query := `
	SELECT module, entity_key, count() AS count, max(timestamp) AS last_seen
	FROM activities
	`
	var args []any
	if module != nil {
		query += ` WHERE module = ?`
		args = append(args, string(*module))
	}
	query += `
	GROUP BY module, entity_key
	ORDER BY count DESC
	`

	rows, err := r.store.GetConn().Query(ctx, query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query entity statistics").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var stats []*activity.EntityStats
	for rows.Next() {
		var s activity.EntityStats
		var mod string
		if err := rows.Scan(&mod, &s.EntityKey, &s.Count, &s.LastSeen); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan entity statistics").
				Mark(ierr.ErrDatabase)
		}
		s.Module = types.Module(mod)
		stats = append(stats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read entity statistics").
			Mark(ierr.ErrDatabase)
	}

	return stats, nil
}

func (r *activityRepository) RankUsers(ctx context.Context, start, end time.Time, limit int) ([]*activity.UserRank, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`
	SELECT user_id, count() AS count
	FROM activities
	WHERE timestamp >= ? AND timestamp < ?
	GROUP BY user_id
	ORDER BY count DESC
	LIMIT %d
	`, limit)

	rows, err := r.store.GetConn().Query(ctx, query, start, end)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query user ranking").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var ranks []*activity.UserRank
	for rows.Next() {
		var u activity.UserRank
		if err := rows.Scan(&u.UserID, &u.Count); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan user ranking").
				Mark(ierr.ErrDatabase)
		}
		ranks = append(ranks, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read user ranking").
			Mark(ierr.ErrDatabase)
	}

	return ranks, nil
}

// DeleteOlderThan issues a lightweight-delete mutation. The count is
// taken before the mutation since ClickHouse does not report affected
// rows.
func (r *activityRepository) DeleteOlderThan(ctx context.Context, horizon time.Time) (int, error) {
	var count uint64
	err := r.store.GetConn().QueryRow(ctx,
		`SELECT count() FROM activities WHERE timestamp < ?`, horizon).Scan(&count)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count expired activity entries").
			Mark(ierr.ErrDatabase)
	}
	if count == 0 {
		return 0, nil
	}

	err = r.store.GetConn().Exec(ctx,
		`DELETE FROM activities WHERE timestamp < ?`, horizon)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to delete expired activity entries").
			Mark(ierr.ErrDatabase)
	}

	return int(count), nil
}

func buildActivityWhere(filter *types.ActivityFilter) (string, []any) {
	var conds []string
	var args []any

	if filter == nil {
		return "", nil
	}
	if filter.UserID != nil {
		conds = append(conds, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.Module != nil {
		conds = append(conds, "module = ?")
		args = append(args, string(*filter.Module))
	}
	if filter.EntityKey != nil {
		conds = append(conds, "entity_key = ?")
		args = append(args, *filter.EntityKey)
	}
	if filter.RecordID != nil {
		conds = append(conds, "record_id = ?")
		args = append(args, *filter.RecordID)
	}
	if filter.Action != nil {
		conds = append(conds, "action = ?")
		args = append(args, string(*filter.Action))
	}
	if filter.StartTime != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		conds = append(conds, "timestamp < ?")
		args = append(args, *filter.EndTime)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
