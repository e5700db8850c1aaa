package framework

import (
	"fmt"

	"github.com/corsair-io/corsair/pkg/ingestion"
)

// TraceEntry records which tier resolved a given technique, for
// inclusion in the Receipt Chain / rule trace.
type TraceEntry struct {
	ControlID string `json:"controlId"`
	Technique string `json:"technique,omitempty"`
	Tier      Tier   `json:"tier"`
	Resolved  int    `json:"resolvedCount"`
}

// Resolver is the Framework Resolver: direct frameworkRefs always
// contribute; MitreTechnique is additionally expanded via the three-tier
// lookup (plugin manifest -> data-driven -> legacy), first tier to
// produce a non-empty result wins.
type Resolver struct {
	Plugin *PluginManifest
	Data   *DataTables
	Legacy *LegacyTable
}

// NewResolver builds a Resolver with the given tiers. Any tier may be
// nil; a nil tier simply never matches.
func NewResolver(plugin *PluginManifest, data *DataTables, legacy *LegacyTable) *Resolver {
	if data != nil {
		data.Compile()
	}
	return &Resolver{Plugin: plugin, Data: data, Legacy: legacy}
}

// Resolve builds the cross-framework coverage table for a set of
// ingested controls, returning a trace entry per MITRE-technique
// resolution attempted.
func (r *Resolver) Resolve(controls []ingestion.IngestedControl) (CoverageTable, []TraceEntry) {
	table := make(CoverageTable)
	var trace []TraceEntry

	for _, c := range controls {
		for _, ref := range c.FrameworkRefs {
			table.add(ControlRef{
				Framework:   ref.Framework,
				ControlID:   ref.ControlID,
				ControlName: ref.ControlName,
			})
		}

		if c.MitreTechnique == "" {
			continue
		}
		refs, tier := r.resolveMitreToFrameworks(c.MitreTechnique)
		for _, ref := range refs {
			ref.Tier = tier
			table.add(ref)
		}
		trace = append(trace, TraceEntry{
			ControlID: c.ID,
			Technique: c.MitreTechnique,
			Tier:      tier,
			Resolved:  len(refs),
		})
	}
	return table, trace
}

// resolveMitreToFrameworks is the three-tier lookup at the heart of
// §4.4: Tier 1 wins over Tier 2 wins over Tier 3; within a tier, the
// first entry (as declared in that tier's table) wins, so no tier merges
// multiple technique definitions for the same id.
func (r *Resolver) resolveMitreToFrameworks(technique string) ([]ControlRef, Tier) {
	if r.Plugin != nil {
		if refs, ok := r.Plugin.Techniques[technique]; ok && len(refs) > 0 {
			return refs, TierPlugin
		}
	}
	if r.Data != nil {
		if refs, ok := r.Data.lookup(technique); ok {
			return refs, TierDataDriven
		}
	}
	if r.Legacy != nil {
		if refs, ok := r.Legacy.Techniques[technique]; ok && len(refs) > 0 {
			return refs, TierLegacy
		}
	}
	return nil, 0
}

// describe renders a trace entry as a single rule-trace line, matching
// the Assurance Calculator's one-line-per-decision convention (§4.3).
func (e TraceEntry) describe() string {
	if e.Resolved == 0 {
		return fmt.Sprintf("framework: technique %s on control %s resolved to nothing", e.Technique, e.ControlID)
	}
	return fmt.Sprintf("framework: technique %s on control %s resolved via %s tier (%d refs)",
		e.Technique, e.ControlID, e.Tier, e.Resolved)
}
