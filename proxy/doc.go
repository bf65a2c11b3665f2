// Package proxy prepares accounts for cross-chain automation: it registers proxy delegations and
// keeps derived accounts funded above a floor.
//
// Both Manager operations are idempotent. EnsureProxy submits add_proxy only when the delegation is
// missing, and EnsureMinimumBalance tops up only the deficit, so callers run them before every task.
package proxy
