// Command gateanalyze loads a skill net (a YAML skill-net literal or a DSL
// rule source file) and reports its reachable-state count, terminal-state
// counts and any deadlocked markings, exiting non-zero on any deadlock or
// analysis error. It passes no invariants to the analyzer, so no invariant
// results are printed and no invariant check affects the exit code.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/petrigate/petrigate/analyzer"
	"github.com/petrigate/petrigate/pkg/config"
	"github.com/petrigate/petrigate/rulecompiler"
	"github.com/petrigate/petrigate/skillnet"
)

func main() {
	config.LoadEnv()

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <net-file.yaml|rules.txt>\n", os.Args[0])
		os.Exit(2)
	}
	path := os.Args[1]

	nets, err := loadNets(path)
	if err != nil {
		log.Fatalf("gateanalyze: %v", err)
	}

	exitCode := 0
	for _, sn := range nets {
		report, err := analyzer.Analyze(sn, nil, analyzer.Options{StateBound: config.DefaultStateBound})
		if err != nil {
			log.Printf("gateanalyze: net %q: %v", sn.Name, err)
			exitCode = 1
			continue
		}
		printReport(report)
		if report.HasDeadlocks() {
			exitCode = 1
		}
		if len(report.FailingInvariants()) > 0 {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func loadNets(path string) ([]*skillnet.Net, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		sn, err := skillnet.LoadYAMLFile(path)
		if err != nil {
			return nil, fmt.Errorf("load YAML net: %w", err)
		}
		return []*skillnet.Net{sn}, nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rule source: %w", err)
		}
		result, err := rulecompiler.Compile(rulecompiler.Options{StateBound: config.DefaultStateBound}, string(data))
		if err != nil {
			return nil, fmt.Errorf("compile rules: %w", err)
		}
		return result.Nets, nil
	}
}

func printReport(r *analyzer.Report) {
	fmt.Printf("net %s\n", r.NetName)
	fmt.Printf("  reachable states: %d\n", r.ReachableStateCount)
	fmt.Printf("  terminal states: %d (valid: %d, unexpected: %d)\n",
		len(r.TerminalStates), len(r.ValidTerminalStates), len(r.UnexpectedTerminalStates))
	if len(r.UnexpectedTerminalStates) > 0 {
		fmt.Println("  DEADLOCKS:")
		for _, m := range r.UnexpectedTerminalStates {
			fmt.Printf("    %v\n", m)
		}
	}
	for _, ir := range r.Invariants {
		status := "holds"
		if ir.Err != nil {
			status = "unverified: " + ir.Err.Error()
		} else if !ir.Holds {
			status = "VIOLATED"
		}
		fmt.Printf("  invariant %s: %s\n", ir.Name, status)
	}
	fmt.Println(strings.Repeat("-", 40))
}
