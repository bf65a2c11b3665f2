package datastore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	recordOne = TaskRecord{ChainKey: "turing", TaskID: "0x02", ProvidedID: "a", Owner: "alice", State: "Submitted"}
	recordTwo = TaskRecord{ChainKey: "turing", TaskID: "0x01", ProvidedID: "b", Owner: "bob", State: "Executed"}
	recordSix = TaskRecord{ChainKey: "moonbase", TaskID: "0x01", ProvidedID: "c", Owner: "alice", State: "TimedOut"}
)

func Test_MemoryTaskStore_indexOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		giveState []TaskRecord
		giveKey   TaskKey
		want      int
	}{
		{name: "found", giveState: []TaskRecord{recordOne, recordTwo}, giveKey: recordTwo.Key(), want: 1},
		{name: "same task id other chain", giveState: []TaskRecord{recordTwo}, giveKey: recordSix.Key(), want: -1},
		{name: "empty", giveKey: recordOne.Key(), want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := MemoryTaskStore{Records: tt.giveState}
			assert.Equal(t, tt.want, store.indexOf(tt.giveKey))
		})
	}
}

func Test_MemoryTaskStore_AddGetUpsert(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := NewMemoryTaskStore()

	_, err := store.Get(ctx, recordOne.Key())
	require.ErrorIs(t, err, ErrTaskNotFound)

	require.NoError(t, store.Add(ctx, recordOne))
	require.ErrorIs(t, store.Add(ctx, recordOne), ErrTaskExists)

	updated := recordOne
	updated.State = "Executed"
	require.NoError(t, store.Upsert(ctx, updated))
	require.NoError(t, store.Upsert(ctx, recordTwo))

	got, err := store.Get(ctx, recordOne.Key())
	require.NoError(t, err)
	assert.Equal(t, "Executed", got.State)
	assert.Len(t, store.Records, 2)
}

func Test_MemoryTaskStore_List(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := NewMemoryTaskStore()
	for _, r := range []TaskRecord{recordOne, recordTwo, recordSix} {
		require.NoError(t, store.Add(ctx, r))
	}

	tests := []struct {
		name        string
		giveFilters []FilterFunc
		want        []TaskRecord
	}{
		{name: "sorted by chain then task", want: []TaskRecord{recordSix, recordTwo, recordOne}},
		{name: "by chain", giveFilters: []FilterFunc{TaskByChain("turing")}, want: []TaskRecord{recordTwo, recordOne}},
		{name: "by states", giveFilters: []FilterFunc{TaskByState("Executed", "TimedOut")}, want: []TaskRecord{recordSix, recordTwo}},
		{
			name:        "composed",
			giveFilters: []FilterFunc{TaskByOwner("alice"), TaskByChain("turing")},
			want:        []TaskRecord{recordOne},
		},
		{name: "no match", giveFilters: []FilterFunc{TaskByOwner("carol")}, want: []TaskRecord{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := store.List(ctx, tt.giveFilters...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_MemoryTaskStore_Concurrent(t *testing.T) {
	t.Parallel()

	store := NewMemoryTaskStore()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := recordOne
			r.TaskID = string(rune('a' + i))
			assert.NoError(t, store.Upsert(t.Context(), r))
		}()
	}
	wg.Wait()

	got, err := store.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, got, 20)
}
