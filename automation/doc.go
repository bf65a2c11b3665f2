// Package automation schedules, confirms and cancels XCMP automation tasks.
//
// An Orchestrator drives a task through the lifecycle
//
//	Building -> Submitted -> AwaitingConfirmation -> Executed | TimedOut
//	         -> CancelRequested -> CancelConfirmed | CancelFailed
//
// persisting and publishing every transition. Confirmation is observed on the chain event stream
// only: a message the destination drops never produces an error, so a missing event within the
// deadline is reported as TimedOut rather than as a failure.
package automation
