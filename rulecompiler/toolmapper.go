package rulecompiler

import (
	"regexp"
	"strings"

	"github.com/petrigate/petrigate/skillnet"
)

// mapEntry is a compiled "map" line.
type mapEntry struct {
	tool    string
	field   string
	pattern *regexp.Regexp
	name    string
}

// compilePattern turns a DSL pattern token into a regexp: "/re/" uses re
// verbatim, a bareword becomes \bword\b.
func compilePattern(raw string) (*regexp.Regexp, error) {
	if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
		return regexp.Compile(raw[1 : len(raw)-1])
	}
	return regexp.Compile(`\b` + regexp.QuoteMeta(raw) + `\b`)
}

// ToolMapper is the combined §4.6 tool-name resolver for a compiled batch:
// map lines are tried first, then dot-notation against the union of every
// emitted net's licensed tools, then the raw tool name unchanged.
type ToolMapper struct {
	entries     []mapEntry
	dottedBases map[string]struct{}
}

// Resolve implements skillnet.ToolMapperFunc.
func (tm *ToolMapper) Resolve(event skillnet.Event) string {
	for _, e := range tm.entries {
		if event.ToolName != e.tool {
			continue
		}
		v, ok := event.Input[e.field]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if e.pattern.MatchString(s) {
			return e.name
		}
	}
	if _, ok := tm.dottedBases[event.ToolName]; ok {
		if v, ok := event.Input["action"]; ok {
			if s, ok := v.(string); ok {
				return event.ToolName + "." + s
			}
		}
	}
	return event.ToolName
}

// buildToolMapper compiles every map Rule into a mapEntry and collects the
// dotted-base set from every tool name (across every emitted net's
// licensed tools) containing a ".".
func buildToolMapper(rules []Rule, allTools []string) (*ToolMapper, error) {
	tm := &ToolMapper{dottedBases: make(map[string]struct{})}
	for _, r := range rules {
		if r.Kind != KindMap {
			continue
		}
		pat, err := compilePattern(r.MapPattern)
		if err != nil {
			return nil, &ParseError{Line: r.Line, Token: r.MapPattern, Msg: "invalid regex: " + err.Error()}
		}
		tm.entries = append(tm.entries, mapEntry{tool: r.MapTool, field: r.MapField, pattern: pat, name: r.MapName})
	}
	for _, name := range allTools {
		if dot := strings.Index(name, "."); dot >= 0 {
			tm.dottedBases[name[:dot]] = struct{}{}
		}
	}
	return tm, nil
}
