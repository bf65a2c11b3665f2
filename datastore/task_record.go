package datastore

import (
	"errors"
	"time"
)

var (
	ErrTaskNotFound = errors.New("no task record can be found for the provided key")
	ErrTaskExists   = errors.New("a task record with the supplied key already exists")
)

// TaskKey identifies a task: the id the automation chain assigned to it on ChainKey.
type TaskKey struct {
	ChainKey string
	TaskID   string
}

// Equals returns true if the two keys are equal.
func (k TaskKey) Equals(other TaskKey) bool {
	return k == other
}

// String returns "<chain>/<task id>".
func (k TaskKey) String() string {
	return k.ChainKey + "/" + k.TaskID
}

// TaskRecord is the persisted state of one automation task.
type TaskRecord struct {
	ChainKey   string `json:"chainKey"`
	TaskID     string `json:"taskId"`
	ProvidedID string `json:"providedId"`
	// Owner is the task owner in the automation chain's address format.
	Owner string `json:"owner"`
	Route string `json:"route"`
	State string `json:"state"`
	// ExecutionTime is the first scheduled execution, in unix seconds.
	ExecutionTime uint64    `json:"executionTime"`
	BlockHash     string    `json:"blockHash,omitempty"`
	Error         string    `json:"error,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Key returns the record's primary key.
func (r TaskRecord) Key() TaskKey {
	return TaskKey{ChainKey: r.ChainKey, TaskID: r.TaskID}
}

// Clone returns a copy of the record.
func (r TaskRecord) Clone() TaskRecord {
	return r
}
