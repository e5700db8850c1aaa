package framework

// PluginManifest holds technique->framework mappings a provider plugin
// declares for its own evidence. Tier 1: consulted first, wins over any
// data-driven or legacy resolution.
type PluginManifest struct {
	// Techniques maps a MITRE ATT&CK technique id to the ordered list of
	// framework control refs the plugin asserts it implies. "Ordered"
	// matters: within a tier, the first entry wins (§4.4).
	Techniques map[string][]ControlRef `json:"techniques,omitempty"`
}

// DataTables is the Tier-2 data-driven lookup: NIST-800-53 is the hub,
// so adding a new framework or technique mapping is a data change, not a
// code change, mirroring the Mapping Registry's own "new source is a
// data change" design (§8, "Heterogeneous ingestion without code
// changes").
type DataTables struct {
	// TechniqueToNIST maps an ATT&CK technique id to the NIST-800-53
	// control ids it maps to.
	TechniqueToNIST map[string][]string `json:"techniqueToNist"`

	// NISTToFramework maps a NIST-800-53 control id to its equivalent
	// control in every other tracked framework.
	NISTToFramework map[string][]ControlRef `json:"nistToFramework"`

	// precomputed technique -> framework x controls, built once by
	// Compile so repeated resolutions don't re-walk both tables.
	precomputed map[string][]ControlRef
}

// Compile pre-computes technique -> framework x controls by composing
// TechniqueToNIST with NISTToFramework, as §4.4 specifies ("the resolver
// pre-computes technique -> framework x controls once").
func (d *DataTables) Compile() {
	d.precomputed = make(map[string][]ControlRef, len(d.TechniqueToNIST))
	for technique, nistControls := range d.TechniqueToNIST {
		var refs []ControlRef
		for _, nistID := range nistControls {
			refs = append(refs, d.NISTToFramework[nistID]...)
		}
		d.precomputed[technique] = refs
	}
}

func (d *DataTables) lookup(technique string) ([]ControlRef, bool) {
	if d.precomputed == nil {
		d.Compile()
	}
	refs, ok := d.precomputed[technique]
	return refs, ok && len(refs) > 0
}

// LegacyTable is the Tier-3 narrow hardcoded fallback, kept only for the
// earliest shipped framework families that predate the data-driven
// tables.
type LegacyTable struct {
	Techniques map[string][]ControlRef `json:"techniques,omitempty"`
}

// DefaultLegacyTable returns the narrow built-in fallback covering the
// handful of techniques CORSAIR shipped framework support for before the
// NIST-800-53 hub existed.
func DefaultLegacyTable() *LegacyTable {
	return &LegacyTable{
		Techniques: map[string][]ControlRef{
			"T1110": {{Framework: "SOC2", ControlID: "CC6.1", ControlName: "Logical Access"}},
			"T1078": {{Framework: "SOC2", ControlID: "CC6.2", ControlName: "Credential Management"}},
		},
	}
}
