package datastore

import (
	"context"
	"sort"
	"sync"
)

// MemoryTaskStore is an in-memory TaskStore.
type MemoryTaskStore struct {
	mu      sync.RWMutex
	Records []TaskRecord `json:"records"`
}

var _ TaskStore = &MemoryTaskStore{}

// NewMemoryTaskStore creates a new MemoryTaskStore instance.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{Records: []TaskRecord{}}
}

// Get returns the record for key.
func (s *MemoryTaskStore) Get(_ context.Context, key TaskKey) (TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(key)
	if idx == -1 {
		return TaskRecord{}, ErrTaskNotFound
	}

	return s.Records[idx].Clone(), nil
}

// Add inserts a new record into the store.
func (s *MemoryTaskStore) Add(_ context.Context, record TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(record.Key()) != -1 {
		return ErrTaskExists
	}
	s.Records = append(s.Records, record)

	return nil
}

// Upsert inserts a new record or replaces the existing one.
func (s *MemoryTaskStore) Upsert(_ context.Context, record TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(record.Key()); idx != -1 {
		s.Records[idx] = record
		return nil
	}
	s.Records = append(s.Records, record)

	return nil
}

// List returns a copy of the records passing all filters.
func (s *MemoryTaskStore) List(_ context.Context, filters ...FilterFunc) ([]TaskRecord, error) {
	s.mu.RLock()
	records := append([]TaskRecord{}, s.Records...)
	s.mu.RUnlock()

	records = Filter(records, filters...)
	sort.Slice(records, func(i, j int) bool {
		if records[i].ChainKey != records[j].ChainKey {
			return records[i].ChainKey < records[j].ChainKey
		}

		return records[i].TaskID < records[j].TaskID
	})

	return records, nil
}

// indexOf returns the index of the record with the provided key, or -1 if no such record exists.
func (s *MemoryTaskStore) indexOf(key TaskKey) int {
	for i, record := range s.Records {
		if record.Key().Equals(key) {
			return i
		}
	}

	return -1
}
