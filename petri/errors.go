package petri

import "errors"

// ErrNotEnabled is returned by Fire when the transition's preconditions are
// not met at the given marking. The gate layer must prevent this by
// construction (only firing transitions it has already verified via
// CanFire), so callers outside this package should treat it as a
// programming error rather than something to handle gracefully.
var ErrNotEnabled = errors.New("petri: transition not enabled")

// ErrStateSpaceExceeded is returned by Reachable when the caller supplies a
// bound and the reachable set grows past it before a fixed point is found.
var ErrStateSpaceExceeded = errors.New("petri: reachable state space exceeded bound")
