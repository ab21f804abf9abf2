package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/record"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/postgres"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

type recordRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewRecordRepository(db *postgres.DB, logger *logger.Logger) record.Repository {
	return &recordRepository{db: db, logger: logger}
}

const recordColumns = `
	id, module, entity_key, data, version, status,
	created_by, updated_by, created_at, updated_at, is_deleted
`

func (r *recordRepository) Create(ctx context.Context, rec *record.Record) error {
	query := `
	INSERT INTO records (
		id, module, entity_key, data, version, status,
		created_by, updated_by, created_at, updated_at, is_deleted
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
	)
	`

	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to serialize record data").
			Mark(ierr.ErrValidation)
	}

	_, err = r.db.GetQuerier(ctx).ExecContext(ctx, query,
		rec.ID,
		rec.Module,
		rec.EntityKey,
		dataJSON,
		rec.Version,
		rec.Status,
		rec.CreatedBy,
		rec.UpdatedBy,
		rec.CreatedAt,
		rec.UpdatedAt,
		rec.IsDeleted,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to insert record").
			WithReportableDetails(map[string]any{"id": rec.ID}).
			Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *recordRepository) Get(ctx context.Context, id string) (*record.Record, error) {
	return r.getRecord(ctx, id, false)
}

func (r *recordRepository) GetAny(ctx context.Context, id string) (*record.Record, error) {
	return r.getRecord(ctx, id, true)
}

func (r *recordRepository) getRecord(ctx context.Context, id string, includeDeleted bool) (*record.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM records WHERE id = $1`, recordColumns)
	if !includeDeleted {
		query += ` AND is_deleted = false`
	}

	row := r.db.GetQuerier(ctx).QueryRowContext(ctx, query, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("record not found").
			WithHintf("Record %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read record").
			Mark(ierr.ErrDatabase)
	}
	return rec, nil
}

// UpdateWithVersion is the optimistic-concurrency write. The version
// predicate makes the statement a compare-and-swap at the storage layer;
// there is deliberately no prior read of the row in this method.
func (r *recordRepository) UpdateWithVersion(ctx context.Context, rec *record.Record, expectedVersion int) error {
	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to serialize record data").
			Mark(ierr.ErrValidation)
	}

	now := time.Now().UTC()
	query := `
	UPDATE records
	SET data = $1, version = version + 1, updated_by = $2, updated_at = $3
	WHERE id = $4 AND version = $5 AND is_deleted = false
	RETURNING version, status, created_by, created_at
	`

	row := r.db.GetQuerier(ctx).QueryRowContext(ctx, query,
		dataJSON,
		rec.UpdatedBy,
		now,
		rec.ID,
		expectedVersion,
	)

	err = row.Scan(&rec.Version, &rec.Status, &rec.CreatedBy, &rec.CreatedAt)
	if err == nil {
		rec.UpdatedAt = now
		return nil
	}
	if err != sql.ErrNoRows {
		return ierr.WithError(err).
			WithHint("Record update failed").
			Mark(ierr.ErrDatabase)
	}

	// No row matched: either the record is missing/deleted or the version
	// moved. Disambiguate so conflicts carry the right error.
	var currentVersion int
	err = r.db.GetQuerier(ctx).GetContext(ctx, &currentVersion,
		`SELECT version FROM records WHERE id = $1 AND is_deleted = false`, rec.ID)
	if err == sql.ErrNoRows {
		return ierr.NewError("record not found").
			WithHintf("Record %s does not exist", rec.ID).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return ierr.WithError(err).
			WithHint("Record existence check failed").
			Mark(ierr.ErrDatabase)
	}

	return ierr.NewError("record version mismatch").
		WithHintf("Record %s changed since it was read", rec.ID).
		WithReportableDetails(map[string]any{
			"id":               rec.ID,
			"expected_version": expectedVersion,
			"current_version":  currentVersion,
		}).
		Mark(ierr.ErrVersionConflict)
}

// UpdateStatus is a conditional write on the workflow state, the same
// compare-and-swap shape as the versioned update.
func (r *recordRepository) UpdateStatus(ctx context.Context, id string, from, to types.RecordStatus, actorID string) (*record.Record, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`
	UPDATE records
	SET status = $1, version = version + 1, updated_by = $2, updated_at = $3
	WHERE id = $4 AND status = $5 AND is_deleted = false
	RETURNING %s`, recordColumns)

	row := r.db.GetQuerier(ctx).QueryRowContext(ctx, query, to, actorID, now, id, from)
	rec, err := scanRecord(row)
	if err == nil {
		return rec, nil
	}
	if err != sql.ErrNoRows {
		return nil, ierr.WithError(err).
			WithHint("Record status update failed").
			Mark(ierr.ErrDatabase)
	}

	var currentStatus types.RecordStatus
	err = r.db.GetQuerier(ctx).GetContext(ctx, &currentStatus,
		`SELECT status FROM records WHERE id = $1 AND is_deleted = false`, id)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("record not found").
			WithHintf("Record %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Record existence check failed").
			Mark(ierr.ErrDatabase)
	}

	return nil, ierr.NewError("invalid state transition").
		WithHintf("Record is %s, not %s", currentStatus, from).
		WithReportableDetails(map[string]any{
			"id":             id,
			"current_status": currentStatus,
			"from":           from,
			"to":             to,
		}).
		Mark(ierr.ErrInvalidTransition)
}

func (r *recordRepository) SoftDelete(ctx context.Context, id, actorID string) error {
	query := `
	UPDATE records
	SET is_deleted = true, version = version + 1, updated_by = $1, updated_at = $2
	WHERE id = $3 AND is_deleted = false
	`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, actorID, time.Now().UTC(), id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Record delete failed").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("record not found").
			WithHintf("Record %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *recordRepository) Restore(ctx context.Context, id, actorID string) error {
	query := `
	UPDATE records
	SET is_deleted = false, version = version + 1, updated_by = $1, updated_at = $2
	WHERE id = $3 AND is_deleted = true
	`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, actorID, time.Now().UTC(), id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Record restore failed").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("record not found or not deleted").
			WithHintf("Record %s is not restorable", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *recordRepository) List(ctx context.Context, filter *types.RecordFilter) ([]*record.Record, error) {
	builder := sq.Select(
		"id", "module", "entity_key", "data", "version", "status",
		"created_by", "updated_by", "created_at", "updated_at", "is_deleted",
	).From("records")
	builder = applyRecordFilter(builder, filter)

	builder = builder.
		OrderBy(fmt.Sprintf("%s %s", sortColumn(filter.GetSort()), sortOrder(filter.GetOrder()))).
		Limit(uint64(filter.GetLimit())).
		Offset(uint64(filter.GetOffset()))

	query, args, err := builder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to build record query").
			Mark(ierr.ErrSystem)
	}

	rows, err := r.db.GetQuerier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list records").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var records []*record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan record").
				Mark(ierr.ErrDatabase)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list records").
			Mark(ierr.ErrDatabase)
	}

	return records, nil
}

func (r *recordRepository) Count(ctx context.Context, filter *types.RecordFilter) (int, error) {
	builder := sq.Select("COUNT(*)").From("records")
	builder = applyRecordFilter(builder, filter)

	query, args, err := builder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to build record count query").
			Mark(ierr.ErrSystem)
	}

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, args...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count records").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *recordRepository) CountByEntity(ctx context.Context, module types.Module, entityKey string) (int, error) {
	var count int
	err := r.db.GetQuerier(ctx).GetContext(ctx, &count,
		`SELECT COUNT(*) FROM records WHERE module = $1 AND entity_key = $2`,
		module, entityKey)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count entity records").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func applyRecordFilter(builder sq.SelectBuilder, filter *types.RecordFilter) sq.SelectBuilder {
	builder = builder.Where(sq.Eq{"module": filter.Module, "entity_key": filter.EntityKey})
	if !filter.IncludeDeleted {
		builder = builder.Where(sq.Eq{"is_deleted": false})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.CreatedBy != nil {
		builder = builder.Where(sq.Eq{"created_by": *filter.CreatedBy})
	}
	if len(filter.CreatedByIn) > 0 {
		builder = builder.Where(sq.Eq{"created_by": filter.CreatedByIn})
	}
	if filter.StartTime != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": *filter.StartTime})
	}
	if filter.EndTime != nil {
		builder = builder.Where(sq.LtOrEq{"created_at": *filter.EndTime})
	}
	if filter.Search != nil && *filter.Search != "" {
		builder = builder.Where("data::text ILIKE ?", "%"+*filter.Search+"%")
	}
	return builder
}

func sortColumn(s string) string {
	switch s {
	case "created_at", "updated_at", "status", "version", "created_by":
		return s
	default:
		return "created_at"
	}
}

func sortOrder(s string) string {
	if s == types.OrderAsc {
		return "ASC"
	}
	return "DESC"
}

// rowScanner covers both *sql.Row and *sqlx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*record.Record, error) {
	var rec record.Record
	var dataJSON []byte

	err := row.Scan(
		&rec.ID,
		&rec.Module,
		&rec.EntityKey,
		&dataJSON,
		&rec.Version,
		&rec.Status,
		&rec.CreatedBy,
		&rec.UpdatedBy,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.IsDeleted,
	)
	if err != nil {
		return nil, err
	}

	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &rec.Data); err != nil {
			return nil, fmt.Errorf("unmarshal record data: %w", err)
		}
	}
	if rec.Data == nil {
		rec.Data = map[string]any{}
	}

	return &rec, nil
}
