package framework

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// JurisdictionGraph is a small in-memory jurisdiction -> regulator ->
// framework graph, in the spirit of the jurisdiction/regulator/
// obligation graph the rest of the compliance corpus builds, scaled down
// to what the Framework Resolver needs: answering "does this framework
// apply in this scope" for a `--scope` filtered resolution.
type JurisdictionGraph struct {
	mu          sync.RWMutex
	frameworks  map[string]*FrameworkNode
	programEnv  *cel.Env
}

// FrameworkNode is one framework's jurisdiction scoping.
type FrameworkNode struct {
	Framework     string   `json:"framework"`
	Jurisdictions []string `json:"jurisdictions"`
	// Applicability is a CEL predicate over a `scope` string variable,
	// generalising the jkg package's ad-hoc "type == \"X\"" string
	// matcher into a real expression language. An empty Applicability
	// means "applies everywhere", matching jkg's own "" => applies-to-all
	// convention.
	Applicability string `json:"applicability,omitempty"`
}

// NewJurisdictionGraph builds an empty graph with a CEL environment
// ready to compile each node's Applicability expression.
func NewJurisdictionGraph() (*JurisdictionGraph, error) {
	env, err := cel.NewEnv(cel.Variable("scope", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("framework: cel environment init failed: %w", err)
	}
	return &JurisdictionGraph{
		frameworks: make(map[string]*FrameworkNode),
		programEnv: env,
	}, nil
}

// AddFramework registers a framework's jurisdiction scope.
func (g *JurisdictionGraph) AddFramework(n *FrameworkNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frameworks[n.Framework] = n
}

// AppliesToScope reports whether framework applies to the given scope
// (e.g. a jurisdiction code, or an entity type — the predicate decides).
// An unregistered framework applies everywhere, matching the Framework
// Resolver's default of resolving every framework it's given data for.
func (g *JurisdictionGraph) AppliesToScope(framework, scope string) (bool, error) {
	g.mu.RLock()
	n, ok := g.frameworks[framework]
	g.mu.RUnlock()
	if !ok || n.Applicability == "" {
		return true, nil
	}

	ast, issues := g.programEnv.Compile(n.Applicability)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("framework: applicability expression for %q: %w", framework, issues.Err())
	}
	prg, err := g.programEnv.Program(ast)
	if err != nil {
		return false, fmt.Errorf("framework: applicability program for %q: %w", framework, err)
	}
	out, _, err := prg.Eval(map[string]any{"scope": scope})
	if err != nil {
		return false, fmt.Errorf("framework: applicability eval for %q: %w", framework, err)
	}
	applies, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("framework: applicability expression for %q did not evaluate to bool", framework)
	}
	return applies, nil
}

// FilterByScope removes coverage entries for frameworks that don't apply
// to scope, leaving the rest of the table untouched.
func (g *JurisdictionGraph) FilterByScope(table CoverageTable, scope string) (CoverageTable, error) {
	if scope == "" {
		return table, nil
	}
	out := make(CoverageTable, len(table))
	for fw, cov := range table {
		applies, err := g.AppliesToScope(fw, scope)
		if err != nil {
			return nil, err
		}
		if applies {
			out[fw] = cov
		}
	}
	return out, nil
}
