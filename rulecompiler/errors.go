package rulecompiler

import (
	"errors"
	"fmt"
)

// ParseError reports a DSL syntax problem, citing the 1-based source line
// and the offending token per §6.
type ParseError struct {
	Line  int
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rulecompiler: line %d: %s (near %q)", e.Line, e.Msg, e.Token)
}

// ErrUnboundedRuleNet is returned by Compile when an emitted net's
// reachability verification exceeds the configured state bound.
var ErrUnboundedRuleNet = errors.New("rulecompiler: unbounded rule net")
