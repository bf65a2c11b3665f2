package datastore

import "context"

// TaskStore persists task records.
type TaskStore interface {
	// Get returns the record for key, or ErrTaskNotFound.
	Get(ctx context.Context, key TaskKey) (TaskRecord, error)
	// Add inserts a new record, or fails with ErrTaskExists.
	Add(ctx context.Context, record TaskRecord) error
	// Upsert inserts record or replaces the record with the same key.
	Upsert(ctx context.Context, record TaskRecord) error
	// List returns every record passing all filters, ordered by chain and task id.
	List(ctx context.Context, filters ...FilterFunc) ([]TaskRecord, error)
}

// FilterFunc is a function that filters a slice of records.
type FilterFunc func([]TaskRecord) []TaskRecord

// Filter applies filters in order.
func Filter(records []TaskRecord, filters ...FilterFunc) []TaskRecord {
	for _, f := range filters {
		records = f(records)
	}

	return records
}

func taskFilter(predicate func(record TaskRecord) bool) FilterFunc {
	return func(records []TaskRecord) []TaskRecord {
		filtered := make([]TaskRecord, 0, len(records))
		for _, record := range records {
			if predicate(record) {
				filtered = append(filtered, record)
			}
		}

		return filtered
	}
}

// TaskByChain returns a filter that only includes records on the provided chain.
func TaskByChain(chainKey string) FilterFunc {
	return taskFilter(func(record TaskRecord) bool {
		return record.ChainKey == chainKey
	})
}

// TaskByState returns a filter that only includes records in one of the provided states.
func TaskByState(states ...string) FilterFunc {
	return taskFilter(func(record TaskRecord) bool {
		for _, s := range states {
			if record.State == s {
				return true
			}
		}

		return false
	})
}

// TaskByOwner returns a filter that only includes records owned by owner.
func TaskByOwner(owner string) FilterFunc {
	return taskFilter(func(record TaskRecord) bool {
		return record.Owner == owner
	})
}
