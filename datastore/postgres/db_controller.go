package postgres

import (
	"context"
	"database/sql"

	"github.com/parachain-tools/xcm-automation/pkg/logger"
)

// DB is the subset of *sql.DB the stores use.
type DB interface {
	QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error)
}

var _ DB = &dbController{}

func newDbController(db *sql.DB, lggr logger.Logger) *dbController {
	return &dbController{base: db, lggr: lggr}
}

// dbController logs every statement at debug level before running it.
type dbController struct {
	base *sql.DB
	lggr logger.Logger
}

func (d *dbController) QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	d.lggr.Debugw("Executing query", "query", q, "args", args)

	return d.base.QueryContext(ctx, q, args...)
}

func (d *dbController) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	d.lggr.Debugw("Executing statement", "query", q, "args", args)

	return d.base.ExecContext(ctx, q, args...)
}

// Fixture performs an Exec but ignores the result, and is intended for schema setup.
func (d *dbController) Fixture(ctx context.Context, q string, args ...any) error {
	_, err := d.ExecContext(ctx, q, args...)
	return err
}
