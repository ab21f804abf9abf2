package postgres

import (
	"context"
	"database/sql"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/config"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// Querier interface defines all database operations
// Both *sqlx.DB and *sqlx.Tx implement these methods
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// NewDB creates a new DB instance
func NewDB(config *config.Configuration, logger *logger.Logger) (*DB, error) {
	dsn := config.Postgres.GetDSN()
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}

	return &DB{DB: db, logger: logger}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
	}
}

// GetQuerier returns either the transaction from context or the base DB
func (db *DB) GetQuerier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return querierAdapter{tx.Tx}
	}
	return querierAdapter{db.DB}
}

// querierAdapter bridges the QueryContext signature difference between
// sqlx.DB/sqlx.Tx (QueryxContext) and the Querier interface.
type querierAdapter struct {
	q sqlxQuerier
}

type sqlxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

func (a querierAdapter) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return a.q.ExecContext(ctx, query, args...)
}

func (a querierAdapter) QueryContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	return a.q.QueryxContext(ctx, query, args...)
}

func (a querierAdapter) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return a.q.QueryRowContext(ctx, query, args...)
}

func (a querierAdapter) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return a.q.GetContext(ctx, dest, query, args...)
}

func (a querierAdapter) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return a.q.SelectContext(ctx, dest, query, args...)
}

func (a querierAdapter) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return a.q.NamedExecContext(ctx, query, arg)
}
