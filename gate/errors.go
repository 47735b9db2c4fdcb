package gate

import "errors"

// ErrUnknownPlace is returned by InjectToken for a place the net never
// declared.
var ErrUnknownPlace = errors.New("gate: unknown place")

// HookError wraps a panic recovered from the ToolMapper or ValidateToolCall
// hook. It is turned into a Blocked decision with the hook's message as the
// reason, and the underlying net marking is left unmutated. A panic in
// OnDeferredResult does not produce a HookError: it is recovered and
// discarded after the deferred transition has already fired.
type HookError struct {
	Net string
	Err error
}

func (e *HookError) Error() string {
	return "gate: hook error in net " + e.Net + ": " + e.Err.Error()
}

func (e *HookError) Unwrap() error { return e.Err }
