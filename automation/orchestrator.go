package automation

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/datastore"
	"github.com/parachain-tools/xcm-automation/notify"
	"github.com/parachain-tools/xcm-automation/operations"
	"github.com/parachain-tools/xcm-automation/pkg/clock"
	"github.com/parachain-tools/xcm-automation/pkg/logger"
	"github.com/parachain-tools/xcm-automation/proxy"
	"github.com/parachain-tools/xcm-automation/weight"
	"github.com/parachain-tools/xcm-automation/xcm"
)

// Default fee margin applied to computed execution fees: 1.5x.
const (
	DefaultFeeMarginNumerator   = 3
	DefaultFeeMarginDenominator = 2
)

// Config configures an Orchestrator. Zero fields get working defaults: an in-memory store and
// reporter, no publishing and no metrics.
type Config struct {
	Logger    logger.Logger
	Clock     clock.Clock
	Store     datastore.TaskStore
	Publisher notify.Publisher
	Metrics   *Metrics
	Reporter  operations.Reporter
	// Proxies runs account setup. Nil uses a Manager with default settings.
	Proxies *proxy.Manager
	// GracePeriod is added to confirmation timeouts.
	GracePeriod time.Duration
	// FeeMarginNumerator and FeeMarginDenominator pad computed execution fees.
	FeeMarginNumerator   uint64
	FeeMarginDenominator uint64
	// VerifyTaskID asks the automation chain for the task id and fails on a mismatch.
	VerifyTaskID bool
}

// Orchestrator drives automation tasks through their lifecycle.
type Orchestrator struct {
	lggr      logger.Logger
	clock     clock.Clock
	store     datastore.TaskStore
	publisher notify.Publisher
	metrics   *Metrics
	reporter  operations.Reporter
	proxies   *proxy.Manager
	waiter    Waiter
	grace     time.Duration
	marginNum uint64
	marginDen uint64
	verifyID  bool
}

// NewOrchestrator returns an Orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	o := &Orchestrator{
		lggr:      cfg.Logger,
		clock:     cfg.Clock,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		reporter:  cfg.Reporter,
		proxies:   cfg.Proxies,
		grace:     cfg.GracePeriod,
		marginNum: cfg.FeeMarginNumerator,
		marginDen: cfg.FeeMarginDenominator,
		verifyID:  cfg.VerifyTaskID,
	}
	if o.lggr == nil {
		o.lggr = logger.Nop()
	}
	o.lggr = o.lggr.Named("orchestrator")
	if o.clock == nil {
		o.clock = clock.SystemClock{}
	}
	if o.store == nil {
		o.store = datastore.NewMemoryTaskStore()
	}
	if o.publisher == nil {
		o.publisher = notify.Nop{}
	}
	if o.reporter == nil {
		o.reporter = operations.NewMemoryReporter()
	}
	if o.proxies == nil {
		o.proxies = proxy.NewManager(proxy.Config{Logger: o.lggr, Clock: o.clock})
	}
	if o.grace <= 0 {
		o.grace = DefaultGracePeriod
	}
	if o.marginNum == 0 || o.marginDen == 0 {
		o.marginNum, o.marginDen = DefaultFeeMarginNumerator, DefaultFeeMarginDenominator
	}
	o.waiter = NewWaiter(o.clock, o.lggr)

	return o
}

// Waiter returns the confirmation waiter used by the orchestrator.
func (o *Orchestrator) Waiter() Waiter {
	return o.waiter
}

func (o *Orchestrator) bundle(ctx context.Context) operations.Bundle {
	return operations.NewBundle(func() context.Context { return ctx }, o.lggr, o.reporter)
}

// TaskParams describe the call a task dispatches on the destination and when.
type TaskParams struct {
	// ProvidedID is the caller chosen id. Empty generates a ksuid.
	ProvidedID string
	Schedule   Schedule
	Sequence   InstructionSequence
	// Call is dispatched on the destination. With PayThroughRemoteDerivativeAccount it is wrapped
	// in Proxy.proxy on behalf of the destination signer.
	Call substrate.Call
	// CallWeight overrides the weight estimated on the destination.
	CallWeight *weight.Weight
	// ExecutionFee overrides the fee computed from the destination's fee per second.
	ExecutionFee *big.Int
}

// ScheduleRequest schedules a task on Automation that executes on Destination.
type ScheduleRequest struct {
	Route       Route
	Automation  substrate.Chain
	Destination substrate.Chain
	// Source sends the scheduling call for RouteRemoteXcm.
	Source *substrate.Chain
	// ScheduleAs owns the task on proxy routes. Nil is the automation signer.
	ScheduleAs []byte
	Task       TaskParams
}

func (r ScheduleRequest) owner() []byte {
	if r.Route == RouteDirect || r.ScheduleAs == nil {
		return r.Automation.Signer.PublicKey
	}

	return r.ScheduleAs
}

func (r ScheduleRequest) validate() error {
	var errs []error
	if r.Route > RouteRemoteXcm {
		errs = append(errs, fmt.Errorf("unknown route %d", r.Route))
	}
	if r.Route == RouteRemoteXcm && r.Source == nil {
		errs = append(errs, errors.New("route xcm requires a source chain"))
	}
	if r.Automation.Client == nil {
		errs = append(errs, errors.New("automation chain client is required"))
	}
	if r.Destination.Client == nil {
		errs = append(errs, errors.New("destination chain client is required"))
	}
	if r.Task.Schedule == nil {
		errs = append(errs, errors.New("schedule is required"))
	} else if err := r.Task.Schedule.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Task is a scheduled automation task and its current lifecycle state.
type Task struct {
	ChainKey   string
	ID         TaskID
	ProvidedID string
	Owner      []byte
	// OwnerAddress is Owner in the automation chain's address format.
	OwnerAddress  string
	ExecutionTime uint64
	Route         Route
	State         State
	BlockHash     string

	automation substrate.Chain
	source     *substrate.Chain
}

func (t *Task) record() datastore.TaskRecord {
	return datastore.TaskRecord{
		ChainKey:      t.ChainKey,
		TaskID:        t.ID.Hex(),
		ProvidedID:    t.ProvidedID,
		Owner:         t.OwnerAddress,
		Route:         t.Route.String(),
		State:         string(t.State),
		ExecutionTime: t.ExecutionTime,
		BlockHash:     t.BlockHash,
	}
}

// transition moves task to the next state, persisting and publishing it. A publish failure is
// logged, a store failure is returned.
func (o *Orchestrator) transition(ctx context.Context, task *Task, to State, cause error) error {
	from := task.State
	if (from == "" && to != StateBuilding) || (from != "" && !from.CanTransition(to)) {
		return &InvalidTransitionError{From: from, To: to}
	}
	task.State = to

	rec := task.record()
	rec.UpdatedAt = o.clock.Now().UTC()
	if cause != nil {
		rec.Error = cause.Error()
	}
	if err := o.store.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("persist task %s: %w", rec.Key(), err)
	}
	o.metrics.transition(task.ChainKey, to)

	o.lggr.Infow("Task transition", "task", rec.TaskID, "providedId", task.ProvidedID, "from", from, "to", to)
	t := notify.Transition{
		ChainKey:   rec.ChainKey,
		TaskID:     rec.TaskID,
		ProvidedID: rec.ProvidedID,
		From:       string(from),
		To:         string(to),
		BlockHash:  rec.BlockHash,
		Error:      rec.Error,
		At:         rec.UpdatedAt,
	}
	if err := o.publisher.Publish(ctx, t); err != nil {
		o.lggr.Warnw("Failed to publish task transition", "subject", t.Subject(), "error", err)
	}

	return nil
}

// fail records a pre-confirmation failure and returns cause.
func (o *Orchestrator) fail(ctx context.Context, task *Task, cause error) error {
	if err := o.transition(ctx, task, StateFailed, cause); err != nil {
		o.lggr.Errorw("Failed to record task failure", "error", err)
	}

	return cause
}

// Schedule builds and submits the scheduling call for req and returns the task in state
// Submitted. The task id is derived locally from the owner and provided id, cross-checked against
// the TaskScheduled event and, when enabled, the automation chain's id generation RPC.
func (o *Orchestrator) Schedule(ctx context.Context, req ScheduleRequest) (*Task, error) {
	task, err := o.newTask(ctx, req)
	if err != nil {
		return nil, err
	}
	if err = o.submitSchedule(ctx, req, task); err != nil {
		return task, err
	}

	return task, nil
}

func (o *Orchestrator) newTask(ctx context.Context, req ScheduleRequest) (*Task, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule request: %w", err)
	}
	if req.Task.ProvidedID == "" {
		req.Task.ProvidedID = ksuid.New().String()
	}

	auto := req.Automation.Endpoint
	owner := req.owner()
	ownerAddr, err := substrate.FormatAccount(owner, auto.AddressKind, auto.SS58Prefix)
	if err != nil {
		return nil, fmt.Errorf("task owner: %w", err)
	}
	id, err := GenerateTaskID(owner, req.Task.ProvidedID)
	if err != nil {
		return nil, err
	}

	task := &Task{
		ChainKey:      auto.Key,
		ID:            id,
		ProvidedID:    req.Task.ProvidedID,
		Owner:         owner,
		OwnerAddress:  ownerAddr,
		ExecutionTime: req.Task.Schedule.FirstExecution(),
		Route:         req.Route,
		automation:    req.Automation,
		source:        req.Source,
	}
	if err = o.transition(ctx, task, StateBuilding, nil); err != nil {
		return nil, err
	}

	if o.verifyID {
		if err = VerifyTaskID(ctx, req.Automation.Client, ownerAddr, task.ProvidedID, id); err != nil {
			return task, o.fail(ctx, task, err)
		}
	}

	return task, nil
}

func (o *Orchestrator) submitSchedule(ctx context.Context, req ScheduleRequest, task *Task) error {
	req.Task.ProvidedID = task.ProvidedID
	xt, err := o.BuildTask(ctx, req)
	if err != nil {
		return o.fail(ctx, task, err)
	}

	b := o.bundle(ctx)
	auto := req.Automation
	inspect := func(events []substrate.Event) error { return verifyScheduledEvent(events, task.ID) }

	var blockHash string
	switch req.Route {
	case RouteDirect:
		call, err := ScheduleXcmpTaskCall(xt)
		if err != nil {
			return o.fail(ctx, task, err)
		}
		blockHash, err = submit(b, auto, call, task.ProvidedID, o.metrics, inspect)
		if err != nil {
			return o.fail(ctx, task, err)
		}
	case RouteThroughProxy:
		call, err := ScheduleXcmpTaskThroughProxyCall(xt, auto.Endpoint.AddressKind, task.Owner)
		if err != nil {
			return o.fail(ctx, task, err)
		}
		blockHash, err = submit(b, auto, call, task.ProvidedID, o.metrics, inspect)
		if err != nil {
			return o.fail(ctx, task, err)
		}
	case RouteRemoteXcm:
		call, err := ScheduleXcmpTaskThroughProxyCall(xt, auto.Endpoint.AddressKind, task.Owner)
		if err != nil {
			return o.fail(ctx, task, err)
		}
		send, _, err := remoteSendCall(ctx, RemoteCall{Source: *req.Source, Target: auto, Call: call}, o.marginNum, o.marginDen)
		if err != nil {
			return o.fail(ctx, task, err)
		}
		// the TaskScheduled event is emitted on the automation chain, not with the send
		blockHash, err = submit(b, *req.Source, send, task.ProvidedID, o.metrics, nil)
		if err != nil {
			return o.fail(ctx, task, err)
		}
	}

	task.BlockHash = blockHash

	return o.transition(ctx, task, StateSubmitted, nil)
}

// BuildTask computes the schedule_xcmp_task arguments for req: the encoded destination call, its
// weight, the overall weight of the program the automation chain will send and the execution fee.
func (o *Orchestrator) BuildTask(ctx context.Context, req ScheduleRequest) (XcmpTask, error) {
	auto := req.Automation.Endpoint
	dest := req.Destination
	p := req.Task

	call := p.Call
	if p.Sequence == PayThroughRemoteDerivativeAccount {
		wrapped, err := proxy.WrapCall(dest.Endpoint.AddressKind, dest.Signer.PublicKey, call)
		if err != nil {
			return XcmpTask{}, err
		}
		call = wrapped
	}

	encoded, err := dest.Client.EncodeCall(call)
	if err != nil {
		return XcmpTask{}, fmt.Errorf("encode %s for %s: %w", call.Name(), dest, err)
	}

	var callWeight weight.Weight
	if p.CallWeight != nil {
		callWeight = *p.CallWeight
	} else {
		info, err := dest.Client.EstimateFee(ctx, call, dest.Signer)
		if err != nil {
			return XcmpTask{}, fmt.Errorf("estimate %s on %s: %w", call.Name(), dest, err)
		}
		callWeight = info.Weight
	}

	est, err := EstimateExecution(dest.Endpoint, p.Sequence, callWeight, o.marginNum, o.marginDen)
	if err != nil {
		return XcmpTask{}, err
	}

	fee := p.ExecutionFee
	if fee == nil {
		if est.Fee == nil {
			return XcmpTask{}, fmt.Errorf("%s has no fee per second configured; set an execution fee", dest)
		}
		fee = est.Fee
	}

	v := auto.XcmVersion

	return XcmpTask{
		ProvidedID:  p.ProvidedID,
		Schedule:    p.Schedule,
		Destination: xcm.VersionedLocation{Version: v, Location: dest.Endpoint.SiblingLocation()},
		ScheduleFee: xcm.VersionedLocation{Version: v, Location: auto.FeeAssetLocation()},
		ExecutionFee: AssetPayment{
			AssetLocation: xcm.VersionedLocation{Version: v, Location: dest.Endpoint.SiblingFeeAssetLocation()},
			Amount:        fee,
		},
		EncodedCall:         encoded,
		EncodedCallWeight:   callWeight,
		OverallWeight:       est.Overall,
		InstructionSequence: p.Sequence,
	}, nil
}

// AwaitConfirmation waits on client for criteria until the task's execution time plus the grace
// period, moving the task to Executed or TimedOut. A timeout is not an error.
func (o *Orchestrator) AwaitConfirmation(ctx context.Context, task *Task, client substrate.Client, criteria MatchCriteria) (bool, error) {
	p, err := o.waiter.Subscribe(ctx, client, criteria)
	if err != nil {
		return false, err
	}

	return o.await(ctx, task, p)
}

func (o *Orchestrator) await(ctx context.Context, task *Task, p *Pending) (bool, error) {
	if task.State == StateSubmitted {
		if err := o.transition(ctx, task, StateAwaitingConfirmation, nil); err != nil {
			p.Cancel()
			return false, err
		}
	}
	if task.State != StateAwaitingConfirmation {
		p.Cancel()
		return false, &InvalidTransitionError{From: task.State, To: StateExecuted}
	}

	started := o.clock.Now()
	timeout := ConfirmationTimeout(task.ExecutionTime, started, o.grace)
	conf, matched, err := p.Wait(ctx, timeout)
	o.metrics.wait(task.ChainKey, matched, o.clock.Now().Sub(started))
	if err != nil {
		return false, err
	}

	if matched {
		task.BlockHash = conf.BlockHash
		return true, o.transition(ctx, task, StateExecuted, nil)
	}

	return false, o.transition(ctx, task, StateTimedOut, nil)
}

// Cancel submits the cancellation of task and moves it to CancelRequested. Tasks owned through a
// proxy are cancelled on behalf of their owner, and tasks scheduled through XCM are cancelled
// through XCM too.
func (o *Orchestrator) Cancel(ctx context.Context, task *Task) error {
	if !task.State.CanTransition(StateCancelRequested) {
		return &InvalidTransitionError{From: task.State, To: StateCancelRequested}
	}

	b := o.bundle(ctx)
	auto := task.automation

	var (
		blockHash string
		err       error
	)
	switch task.Route {
	case RouteRemoteXcm:
		var call substrate.Call
		call, err = CancelTaskWithScheduleAsCall(auto.Endpoint.AddressKind, task.Owner, task.ID)
		if err != nil {
			return err
		}
		var send substrate.Call
		send, _, err = remoteSendCall(ctx, RemoteCall{Source: *task.source, Target: auto, Call: call}, o.marginNum, o.marginDen)
		if err != nil {
			return err
		}
		blockHash, err = submit(b, *task.source, send, task.ProvidedID, o.metrics, nil)
	case RouteThroughProxy:
		var call substrate.Call
		call, err = CancelTaskWithScheduleAsCall(auto.Endpoint.AddressKind, task.Owner, task.ID)
		if err != nil {
			return err
		}
		blockHash, err = submit(b, auto, call, task.ProvidedID, o.metrics, nil)
	default:
		blockHash, err = submit(b, auto, CancelTaskCall(task.ID), task.ProvidedID, o.metrics, nil)
	}
	if err != nil {
		return err
	}

	task.BlockHash = blockHash

	return o.transition(ctx, task, StateCancelRequested, nil)
}

// VerifyCancelled watches client for criteria during window, the period in which the cancelled
// task would have fired again. It reports whether the task fired, in which case the cancellation
// failed.
func (o *Orchestrator) VerifyCancelled(ctx context.Context, task *Task, client substrate.Client, criteria MatchCriteria, window time.Duration) (bool, error) {
	if task.State != StateCancelRequested {
		return false, &InvalidTransitionError{From: task.State, To: StateCancelConfirmed}
	}

	conf, fired, err := o.waiter.Await(ctx, client, criteria, window)
	if err != nil {
		return false, err
	}
	if fired {
		task.BlockHash = conf.BlockHash
		o.lggr.Warnw("Cancelled task executed again", "task", task.ID, "block", conf.BlockHash)

		return true, o.transition(ctx, task, StateCancelFailed, nil)
	}

	return false, o.transition(ctx, task, StateCancelConfirmed, nil)
}

// CancelWindow is the time until nextExecution (unix seconds) plus the grace period.
func (o *Orchestrator) CancelWindow(nextExecution uint64) time.Duration {
	return ConfirmationTimeout(nextExecution, o.clock.Now(), o.grace)
}

// SetupParams configure the account setup performed before every run.
type SetupParams struct {
	// AutomationMinimum is the floor of the account paying the scheduling fee on the automation
	// chain. Nil skips the check.
	AutomationMinimum *big.Int
	AutomationTopUp   proxy.TopUpFunc
	// DestinationMinimum is the floor of the account paying execution on the destination with
	// PayThroughRemoteDerivativeAccount. Nil skips the check.
	DestinationMinimum *big.Int
	DestinationTopUp   proxy.TopUpFunc
}

// Setup makes sure every proxy delegation and balance req depends on is in place. It is
// idempotent and safe to call before every run.
func (o *Orchestrator) Setup(ctx context.Context, req ScheduleRequest, params SetupParams) error {
	if err := req.validate(); err != nil {
		return fmt.Errorf("invalid schedule request: %w", err)
	}
	auto := req.Automation
	owner := req.owner()

	payer := owner
	if req.Route == RouteRemoteXcm {
		dispatcher, err := RemoteDispatcher(*req.Source, auto.Endpoint)
		if err != nil {
			return err
		}
		payer = dispatcher.Bytes(auto.Endpoint.AddressKind)
		if _, err = o.proxies.EnsureProxy(ctx, auto, owner, payer, auto.Endpoint.ProxyType); err != nil {
			return fmt.Errorf("automation proxy: %w", err)
		}
	}
	if params.AutomationMinimum != nil {
		if _, err := o.proxies.EnsureMinimumBalance(ctx, auto, payer, proxy.Asset{Symbol: auto.Endpoint.NativeAsset.Symbol},
			params.AutomationMinimum, params.AutomationTopUp); err != nil {
			return fmt.Errorf("automation balance: %w", err)
		}
	}

	if req.Task.Sequence != PayThroughRemoteDerivativeAccount {
		return nil
	}

	dest := req.Destination
	autoID, ok := auto.Endpoint.ParachainID()
	if !ok {
		return fmt.Errorf("%s is not a parachain", auto)
	}
	derived, err := xcm.DeriveAccount(autoID, owner, xcm.DeriveOptions{
		AddressKind: auto.Endpoint.AddressKind,
		Version:     dest.Endpoint.XcmVersion,
		Network:     xcm.AnyNetwork,
	})
	if err != nil {
		return err
	}
	executor := derived.Bytes(dest.Endpoint.AddressKind)
	if _, err = o.proxies.EnsureProxy(ctx, dest, dest.Signer.PublicKey, executor, dest.Endpoint.ProxyType); err != nil {
		return fmt.Errorf("destination proxy: %w", err)
	}
	if params.DestinationMinimum != nil {
		if _, err = o.proxies.EnsureMinimumBalance(ctx, dest, executor, proxy.Asset{Symbol: dest.Endpoint.NativeAsset.Symbol},
			params.DestinationMinimum, params.DestinationTopUp); err != nil {
			return fmt.Errorf("destination balance: %w", err)
		}
	}

	return nil
}

// RunRequest is a full scenario: setup, schedule, confirm and optionally cancel.
type RunRequest struct {
	Schedule ScheduleRequest
	Setup    SetupParams
	// Confirm selects the event on the destination that proves execution.
	Confirm MatchCriteria
	// CancelAfter cancels the task once confirmation resolved and verifies it does not fire again
	// at CancelAfter.NextExecution.
	CancelAfter *CancelCheck
}

// CancelCheck is the window verified after a cancellation.
type CancelCheck struct {
	// NextExecution is when the cancelled task would fire again, in unix seconds.
	NextExecution uint64
}

// RunResult is the outcome of Run.
type RunResult struct {
	Task      *Task
	Confirmed bool
	// CancelFailed is set when the cancelled task fired again.
	CancelFailed bool
}

// Run executes req end to end. The confirmation subscription is opened before the scheduling
// extrinsic is submitted and both proceed concurrently, so an execution in the block right after
// inclusion is not missed.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if err := o.Setup(ctx, req.Schedule, req.Setup); err != nil {
		return RunResult{}, fmt.Errorf("setup: %w", err)
	}

	task, err := o.newTask(ctx, req.Schedule)
	if err != nil {
		return RunResult{Task: task}, err
	}

	pending, err := o.waiter.Subscribe(ctx, req.Schedule.Destination.Client, req.Confirm)
	if err != nil {
		return RunResult{Task: task}, o.fail(ctx, task, err)
	}

	submitted := make(chan struct{})
	var confirmed bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(submitted)
		return o.submitSchedule(gctx, req.Schedule, task)
	})
	g.Go(func() error {
		select {
		case <-submitted:
		case <-gctx.Done():
			pending.Cancel()
			return gctx.Err()
		}
		if task.State != StateSubmitted {
			pending.Cancel()
			return nil
		}

		var err error
		confirmed, err = o.await(gctx, task, pending)

		return err
	})
	if err = g.Wait(); err != nil {
		return RunResult{Task: task}, err
	}

	res := RunResult{Task: task, Confirmed: confirmed}
	if req.CancelAfter == nil {
		return res, nil
	}

	if err = o.Cancel(ctx, task); err != nil {
		return res, fmt.Errorf("cancel: %w", err)
	}
	window := o.CancelWindow(req.CancelAfter.NextExecution)
	res.CancelFailed, err = o.VerifyCancelled(ctx, task, req.Schedule.Destination.Client, req.Confirm, window)

	return res, err
}
