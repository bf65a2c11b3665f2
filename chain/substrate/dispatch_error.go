package substrate

import (
	"fmt"
	"strings"
)

// DispatchError is an extrinsic that was included in a block but rejected by the runtime. Module
// errors carry the pallet (Section), the error variant (Method) and its documentation; other
// errors (BadOrigin, Token, Arithmetic, ...) only carry Reason.
type DispatchError struct {
	Section string
	Method  string
	Docs    string
	Reason  string
	// BlockHash is where the failing extrinsic was included.
	BlockHash string
}

func (e *DispatchError) Error() string {
	if e.IsModule() {
		msg := fmt.Sprintf("dispatch failed: %s.%s", e.Section, e.Method)
		if e.Docs != "" {
			msg += ": " + e.Docs
		}

		return msg
	}

	return "dispatch failed: " + e.Reason
}

// IsModule reports whether the error was raised by a pallet.
func (e *DispatchError) IsModule() bool {
	return e.Section != ""
}

// Is matches another DispatchError with the same section and method.
func (e *DispatchError) Is(target error) bool {
	t, ok := target.(*DispatchError)
	if !ok {
		return false
	}

	return strings.EqualFold(e.Section, t.Section) && e.Method == t.Method && (t.Reason == "" || t.Reason == e.Reason)
}
