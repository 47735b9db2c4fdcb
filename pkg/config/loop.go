package config

import (
	"log"
	"os"
	"strconv"
)

// MaxLoopSteps bounds how many model/tool round-trips a function-calling
// loop may take before it gives up, so a model that keeps requesting tool
// calls (gated or not) cannot spin forever.
// Configurable via TOOLLOOP_MAX_STEPS env var (default: 40, min: 5, max: 200).
var MaxLoopSteps = loadMaxLoopSteps()

func loadMaxLoopSteps() int {
	const def = 40
	v := os.Getenv("TOOLLOOP_MAX_STEPS")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 5 || n > 200 {
		log.Printf("[Config] WARNING: invalid TOOLLOOP_MAX_STEPS=%q (must be 5-200), using default %d", v, def)
		return def
	}
	return n
}
