package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/pkg/clock"
	"github.com/parachain-tools/xcm-automation/pkg/logger"
)

const (
	DefaultPollInterval  = 6 * time.Second
	DefaultSettleTimeout = 2 * time.Minute
)

var (
	// ErrNotRegistered is returned when add_proxy was included but the delegation is not in storage.
	ErrNotRegistered = errors.New("proxy delegation not registered")
	// ErrNotDelegator is returned when a missing delegation would have to be added for an account
	// other than the chain signer.
	ErrNotDelegator = errors.New("delegator is not the chain signer")
	// ErrBalanceNotSettled is returned when a top-up did not raise the balance to the floor in time.
	ErrBalanceNotSettled = errors.New("balance below minimum after top-up")

	errDuplicate = &substrate.DispatchError{Section: "Proxy", Method: "Duplicate"}
)

// Asset selects the balance EnsureMinimumBalance reads. The zero value is the chain's native asset.
type Asset struct {
	Symbol string
	// CurrencyID is the SCALE encoded orml CurrencyId. Nil reads System.Account instead of
	// Tokens.Accounts.
	CurrencyID []byte
}

// IsNative reports whether the asset is the chain's native token.
func (a Asset) IsNative() bool {
	return len(a.CurrencyID) == 0
}

// TopUpFunc transfers amount to account. It returns once the transfer is submitted; the Manager
// polls the balance until the funds arrive.
type TopUpFunc func(ctx context.Context, account []byte, amount *big.Int) error

// Config configures a Manager.
type Config struct {
	Logger logger.Logger
	Clock  clock.Clock
	// PollInterval is the delay between balance reads after a top-up.
	PollInterval time.Duration
	// SettleTimeout bounds how long a top-up may take to arrive.
	SettleTimeout time.Duration
}

// Manager performs idempotent account setup.
type Manager struct {
	lggr          logger.Logger
	clock         clock.Clock
	pollInterval  time.Duration
	settleTimeout time.Duration
}

// NewManager returns a Manager, filling unset Config fields with defaults.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		lggr:          cfg.Logger,
		clock:         cfg.Clock,
		pollInterval:  cfg.PollInterval,
		settleTimeout: cfg.SettleTimeout,
	}
	if m.lggr == nil {
		m.lggr = logger.Nop()
	}
	if m.clock == nil {
		m.clock = clock.SystemClock{}
	}
	if m.pollInterval <= 0 {
		m.pollInterval = DefaultPollInterval
	}
	if m.settleTimeout <= 0 {
		m.settleTimeout = DefaultSettleTimeout
	}
	m.lggr = m.lggr.Named("proxy")

	return m
}

// Delegations returns the proxy delegations of delegator on ch.
func (m *Manager) Delegations(ctx context.Context, ch substrate.Chain, delegator []byte) ([]Definition, error) {
	store, err := newDelegations(ch.Endpoint.AddressKind)
	if err != nil {
		return nil, err
	}
	if _, err = ch.Client.Query(ctx, "Proxy", "Proxies", store, delegator); err != nil {
		return nil, fmt.Errorf("query proxies on %s: %w", ch, err)
	}

	return store.definitions(), nil
}

// EnsureProxy makes delegate a proxy of delegator with proxyType on ch, signing with ch.Signer.
// It reports whether an add_proxy extrinsic was needed. A delegation of another delegator can
// only be verified; when it is missing EnsureProxy fails with ErrNotDelegator.
func (m *Manager) EnsureProxy(ctx context.Context, ch substrate.Chain, delegator, delegate []byte, proxyType substrate.ProxyType) (bool, error) {
	lggr := m.lggr.With("chain", ch.Key(), "proxyType", proxyType.Name)

	found, err := m.hasDelegation(ctx, ch, delegator, delegate, proxyType)
	if err != nil {
		return false, err
	}
	if found {
		lggr.Debugw("Proxy already registered")
		return false, nil
	}
	if !bytes.Equal(delegator, ch.Signer.PublicKey) {
		return false, fmt.Errorf("%w: add the %s proxy on %s from the delegator account", ErrNotDelegator, proxyType.Name, ch)
	}

	lookup, err := substrate.LookupArg(ch.Endpoint.AddressKind, delegate)
	if err != nil {
		return false, err
	}
	call := substrate.NewCall("Proxy", "add_proxy", lookup, types.NewU8(proxyType.Index), types.NewU32(0))

	lggr.Infow("Adding proxy")
	res, err := ch.Client.SubmitSigned(ctx, call, ch.Signer)
	switch {
	case errors.Is(err, errDuplicate):
		// registered between the read and the submission
		lggr.Infow("Proxy registered concurrently")
		return false, nil
	case err != nil:
		return false, fmt.Errorf("add proxy on %s: %w", ch, err)
	}

	found, err = m.hasDelegation(ctx, ch, delegator, delegate, proxyType)
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("%w on %s in block %s", ErrNotRegistered, ch, res.BlockHash)
	}
	lggr.Infow("Proxy added", "block", res.BlockHash)

	return true, nil
}

func (m *Manager) hasDelegation(ctx context.Context, ch substrate.Chain, delegator, delegate []byte, proxyType substrate.ProxyType) (bool, error) {
	defs, err := m.Delegations(ctx, ch, delegator)
	if err != nil {
		return false, err
	}
	for _, d := range defs {
		if d.Matches(delegate, proxyType.Index) {
			return true, nil
		}
	}

	return false, nil
}

// FreeBalance returns the free balance of account for asset on ch. A missing entry is zero.
func (m *Manager) FreeBalance(ctx context.Context, ch substrate.Chain, account []byte, asset Asset) (*big.Int, error) {
	if asset.IsNative() {
		var info types.AccountInfo
		if _, err := ch.Client.Query(ctx, "System", "Account", &info, account); err != nil {
			return nil, fmt.Errorf("query balance on %s: %w", ch, err)
		}

		return u128(info.Data.Free), nil
	}

	var acct TokenAccount
	if _, err := ch.Client.Query(ctx, "Tokens", "Accounts", &acct, account, asset.CurrencyID); err != nil {
		return nil, fmt.Errorf("query %s balance on %s: %w", asset.Symbol, ch, err)
	}

	return u128(acct.Free), nil
}

// EnsureMinimumBalance tops account up to minimum when its free balance is below it, then waits
// until the balance reaches the floor. It reports whether a top-up was performed.
func (m *Manager) EnsureMinimumBalance(ctx context.Context, ch substrate.Chain, account []byte, asset Asset, minimum *big.Int, topUp TopUpFunc) (bool, error) {
	if minimum == nil || minimum.Sign() < 0 {
		return false, errors.New("minimum balance must be a non-negative amount")
	}

	lggr := m.lggr.With("chain", ch.Key(), "asset", asset.Symbol)

	free, err := m.FreeBalance(ctx, ch, account, asset)
	if err != nil {
		return false, err
	}
	if free.Cmp(minimum) >= 0 {
		lggr.Debugw("Balance above minimum", "free", free, "minimum", minimum)
		return false, nil
	}
	if topUp == nil {
		return false, fmt.Errorf("balance %s below minimum %s and no top-up configured", free, minimum)
	}

	deficit := new(big.Int).Sub(minimum, free)
	lggr.Infow("Topping up", "free", free, "minimum", minimum, "amount", deficit)
	if err = topUp(ctx, account, deficit); err != nil {
		return false, fmt.Errorf("top up %s on %s: %w", asset.Symbol, ch, err)
	}

	deadline := m.clock.Now().Add(m.settleTimeout)
	for {
		free, err = m.FreeBalance(ctx, ch, account, asset)
		if err != nil {
			return true, err
		}
		if free.Cmp(minimum) >= 0 {
			lggr.Infow("Top-up settled", "free", free)
			return true, nil
		}
		if !m.clock.Now().Before(deadline) {
			return true, fmt.Errorf("%w: %s of %s on %s", ErrBalanceNotSettled, free, minimum, ch)
		}

		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case <-m.clock.After(m.pollInterval):
		}
	}
}
