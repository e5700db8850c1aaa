package mapping

import (
	"fmt"

	"github.com/corsair-io/corsair/pkg/ingestion"
)

var validStatuses = map[string]bool{
	string(ingestion.StatusEffective):   true,
	string(ingestion.StatusIneffective): true,
	string(ingestion.StatusNotTested):   true,
}

var validSeverities = map[string]bool{
	string(ingestion.SeverityCritical): true,
	string(ingestion.SeverityHigh):     true,
	string(ingestion.SeverityMedium):   true,
	string(ingestion.SeverityLow):      true,
}

// validateMapping checks the schema rules of §4.1: id is required, at
// least one of allOf|anyOf is non-empty, controls.path is set whenever
// controls is present, and statusMap/severityMap values are drawn from
// the closed vocabularies.
func validateMapping(m *Mapping) error {
	if m.ID == "" {
		return fmt.Errorf("mapping: id is required")
	}
	if len(m.Match.AllOf) == 0 && len(m.Match.AnyOf) == 0 {
		return fmt.Errorf("mapping %q: match.allOf or match.anyOf must be non-empty", m.ID)
	}
	if m.Controls != nil {
		if m.Controls.Path == "" {
			return fmt.Errorf("mapping %q: controls.path is required when controls is present", m.ID)
		}
		for raw, mapped := range m.Controls.StatusMap {
			if !validStatuses[mapped] {
				return fmt.Errorf("mapping %q: statusMap[%q]=%q is not a valid status", m.ID, raw, mapped)
			}
		}
		for raw, mapped := range m.Controls.SeverityMap {
			if !validSeverities[mapped] {
				return fmt.Errorf("mapping %q: severityMap[%q]=%q is not a valid severity", m.ID, raw, mapped)
			}
		}
	}
	hasControlsPath := m.Controls != nil && m.Controls.Path != ""
	hasPassthrough := m.Passthrough != nil && len(m.Passthrough.Paths) > 0
	if !hasControlsPath && !hasPassthrough {
		return fmt.Errorf("mapping %q: must declare controls.path or passthrough.paths", m.ID)
	}
	return nil
}
