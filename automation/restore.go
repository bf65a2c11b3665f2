package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/datastore"
)

// Restore loads a persisted task so that it can be cancelled or verified by a later process.
// source must be set for tasks scheduled through XCM.
func (o *Orchestrator) Restore(ctx context.Context, automation substrate.Chain, source *substrate.Chain, id TaskID) (*Task, error) {
	rec, err := o.store.Get(ctx, datastore.TaskKey{ChainKey: automation.Key(), TaskID: id.Hex()})
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", id, err)
	}

	route, err := ParseRoute(rec.Route)
	if err != nil {
		return nil, err
	}
	state := State(rec.State)
	if !state.Valid() {
		return nil, fmt.Errorf("task %s has unknown state %q", id, rec.State)
	}
	if route == RouteRemoteXcm && source == nil {
		return nil, errors.New("tasks scheduled through xcm need their source chain")
	}
	owner, err := substrate.ParseAccount(rec.Owner, automation.Endpoint.AddressKind)
	if err != nil {
		return nil, fmt.Errorf("task owner: %w", err)
	}

	return &Task{
		ChainKey:      rec.ChainKey,
		ID:            id,
		ProvidedID:    rec.ProvidedID,
		Owner:         owner,
		OwnerAddress:  rec.Owner,
		ExecutionTime: rec.ExecutionTime,
		Route:         route,
		State:         state,
		BlockHash:     rec.BlockHash,
		automation:    automation,
		source:        source,
	}, nil
}

// Tasks lists the persisted task records matching filters.
func (o *Orchestrator) Tasks(ctx context.Context, filters ...datastore.FilterFunc) ([]datastore.TaskRecord, error) {
	return o.store.List(ctx, filters...)
}
