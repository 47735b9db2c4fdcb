package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// DefaultStateBound caps reachability verification performed by the rule
// compiler and the analyzer when no net-specific bound is given.
// Configurable via GATE_STATE_BOUND env var (default: 100000, min: 100, max: 10000000).
var DefaultStateBound = loadStateBound()

func loadStateBound() int {
	const def = 100_000
	v := os.Getenv("GATE_STATE_BOUND")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 100 || n > 10_000_000 {
		log.Printf("[Config] WARNING: invalid GATE_STATE_BOUND=%q (must be 100-10000000), using default %d", v, def)
		return def
	}
	return n
}

// SessionTTL is how long an idle gate session is retained before eviction.
// Configurable via GATE_SESSION_TTL_MINUTES env var (default: 30, min: 1, max: 1440).
var SessionTTL = loadSessionTTL()

func loadSessionTTL() time.Duration {
	const def = 30 * time.Minute
	v := os.Getenv("GATE_SESSION_TTL_MINUTES")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 1440 {
		log.Printf("[Config] WARNING: invalid GATE_SESSION_TTL_MINUTES=%q (must be 1-1440), using default %s", v, def)
		return def
	}
	return time.Duration(n) * time.Minute
}

// ShadowModeDefault is whether newly created gate managers start in shadow
// mode (observe-only, never block) unless a caller overrides it.
// Configurable via GATE_SHADOW_MODE env var ("true"/"false", default: false).
var ShadowModeDefault = loadShadowModeDefault()

func loadShadowModeDefault() bool {
	v := os.Getenv("GATE_SHADOW_MODE")
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[Config] WARNING: invalid GATE_SHADOW_MODE=%q (must be true/false), using default false", v)
		return false
	}
	return b
}
