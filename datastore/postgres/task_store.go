// Package postgres implements datastore.TaskStore on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/parachain-tools/xcm-automation/datastore"
	"github.com/parachain-tools/xcm-automation/pkg/logger"
)

const uniqueViolation = "23505"

// TaskStore is a datastore.TaskStore backed by the automation_tasks table.
type TaskStore struct {
	db *dbController
}

var _ datastore.TaskStore = &TaskStore{}

// Open connects to the database at dsn and creates the schema when missing.
func Open(ctx context.Context, dsn string, lggr logger.Logger) (*TaskStore, *sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store, err := NewTaskStore(ctx, db, lggr)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return store, db, nil
}

// NewTaskStore returns a TaskStore over db, creating the schema when missing.
func NewTaskStore(ctx context.Context, db *sql.DB, lggr logger.Logger) (*TaskStore, error) {
	if lggr == nil {
		lggr = logger.Nop()
	}
	ctrl := newDbController(db, lggr.Named("taskstore"))
	if err := ctrl.Fixture(ctx, schemaTasks); err != nil {
		return nil, fmt.Errorf("failed to create tasks schema: %w", err)
	}

	return &TaskStore{db: ctrl}, nil
}

// Get returns the record for key.
func (s *TaskStore) Get(ctx context.Context, key datastore.TaskKey) (datastore.TaskRecord, error) {
	records, err := s.query(ctx, queryTaskByKey, key.ChainKey, key.TaskID)
	if err != nil {
		return datastore.TaskRecord{}, err
	}

	switch len(records) {
	case 0:
		return datastore.TaskRecord{}, datastore.ErrTaskNotFound
	case 1:
		return records[0], nil
	default:
		return datastore.TaskRecord{}, fmt.Errorf("expected a single row, got %d", len(records))
	}
}

// Add inserts a new record.
func (s *TaskStore) Add(ctx context.Context, record datastore.TaskRecord) error {
	_, err := s.db.ExecContext(ctx, queryAddTask, args(record)...)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return datastore.ErrTaskExists
	}

	return err
}

// Upsert inserts or replaces a record.
func (s *TaskStore) Upsert(ctx context.Context, record datastore.TaskRecord) error {
	_, err := s.db.ExecContext(ctx, queryUpsertTask, args(record)...)

	return err
}

// List returns the records passing all filters.
func (s *TaskStore) List(ctx context.Context, filters ...datastore.FilterFunc) ([]datastore.TaskRecord, error) {
	records, err := s.query(ctx, queryAllTasks)
	if err != nil {
		return nil, err
	}

	return datastore.Filter(records, filters...), nil
}

func (s *TaskStore) query(ctx context.Context, q string, params ...any) (records []datastore.TaskRecord, err error) {
	rows, err := s.db.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	for rows.Next() {
		var r datastore.TaskRecord
		var executionTime int64
		if err = rows.Scan(&r.ChainKey, &r.TaskID, &r.ProvidedID, &r.Owner, &r.Route, &r.State,
			&executionTime, &r.BlockHash, &r.Error, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.ExecutionTime = uint64(executionTime)
		r.UpdatedAt = r.UpdatedAt.UTC()
		records = append(records, r)
	}

	return records, rows.Err()
}

func args(r datastore.TaskRecord) []any {
	return []any{
		r.ChainKey, r.TaskID, r.ProvidedID, r.Owner, r.Route, r.State,
		int64(r.ExecutionTime), r.BlockHash, r.Error, r.UpdatedAt,
	}
}
