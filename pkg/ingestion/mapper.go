package ingestion

import "math"

// Summary is the computed controls tally for a document.
type Summary struct {
	ControlsTested int `json:"controlsTested"`
	ControlsPassed int `json:"controlsPassed"`
	ControlsFailed int `json:"controlsFailed"`
	OverallScore   int `json:"overallScore"`
}

// DriftFinding is one control recast as a pass/fail drift observation:
// ineffective controls are drift, matching the chaos-testing vocabulary
// the evidence producers (out of scope) already speak.
type DriftFinding struct {
	ControlID   string   `json:"controlId"`
	Drift       bool     `json:"drift"`
	Severity    Severity `json:"severity,omitempty"`
	Description string   `json:"description"`
}

// FrameworkControlTable groups a document's own frameworkRefs by
// framework name, counting passed/failed per framework. This is the
// Ingestion Mapper's direct reading of each control's frameworkRefs; the
// Framework Resolver (pkg/framework) separately expands coverage via its
// three-tier lookup.
type FrameworkControlTable map[string]FrameworkTally

// FrameworkTally is the per-framework pass/fail count from directly
// mapped frameworkRefs.
type FrameworkTally struct {
	ControlsMapped int      `json:"controlsMapped"`
	Passed         int      `json:"passed"`
	Failed         int      `json:"failed"`
	Controls       []string `json:"controls"`
}

// SeverityDistribution maps a severity label to the fraction of controls
// at that severity, derived only if any control carries severity.
type SeverityDistribution map[Severity]float64

// PipelineInput is the Ingestion Mapper's output: the canonical,
// source-independent input to the Assurance Calculator and Framework
// Resolver.
type PipelineInput struct {
	Document       *IngestedDocument     `json:"document"`
	Summary        Summary               `json:"summary"`
	DriftFindings  []DriftFinding        `json:"driftFindings"`
	Frameworks     FrameworkControlTable `json:"frameworks"`
	SeverityDist   SeverityDistribution  `json:"severityDistribution,omitempty"`
}

// Map transforms a validated IngestedDocument into a PipelineInput.
// There are no raid results in this path: drift is derived solely from
// control status.
func Map(doc *IngestedDocument) (*PipelineInput, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	summary := computeSummary(doc.Controls)
	findings := computeDriftFindings(doc.Controls)
	frameworks := computeFrameworkTable(doc.Controls)
	var sevDist SeverityDistribution
	if anyHasSeverity(doc.Controls) {
		sevDist = computeSeverityDistribution(doc.Controls)
	}

	return &PipelineInput{
		Document:      doc,
		Summary:       summary,
		DriftFindings: findings,
		Frameworks:    frameworks,
		SeverityDist:  sevDist,
	}, nil
}

func computeSummary(controls []IngestedControl) Summary {
	var passed, failed int
	for _, c := range controls {
		switch c.Status {
		case StatusEffective:
			passed++
		case StatusIneffective:
			failed++
		}
	}
	tested := len(controls)
	score := 0
	if tested > 0 {
		score = int(math.Round(100 * float64(passed) / float64(tested)))
	}
	return Summary{
		ControlsTested: tested,
		ControlsPassed: passed,
		ControlsFailed: failed,
		OverallScore:   score,
	}
}

func computeDriftFindings(controls []IngestedControl) []DriftFinding {
	findings := make([]DriftFinding, 0, len(controls))
	for _, c := range controls {
		findings = append(findings, DriftFinding{
			ControlID:   c.ID,
			Drift:       c.Status == StatusIneffective,
			Severity:    c.Severity,
			Description: c.Description,
		})
	}
	return findings
}

func computeFrameworkTable(controls []IngestedControl) FrameworkControlTable {
	table := make(FrameworkControlTable)
	for _, c := range controls {
		for _, ref := range c.FrameworkRefs {
			t := table[ref.Framework]
			t.ControlsMapped++
			t.Controls = append(t.Controls, ref.ControlID)
			switch c.Status {
			case StatusEffective:
				t.Passed++
			case StatusIneffective:
				t.Failed++
			}
			table[ref.Framework] = t
		}
	}
	return table
}

func anyHasSeverity(controls []IngestedControl) bool {
	for _, c := range controls {
		if c.Severity != "" {
			return true
		}
	}
	return false
}

func computeSeverityDistribution(controls []IngestedControl) SeverityDistribution {
	counts := make(map[Severity]int)
	total := 0
	for _, c := range controls {
		if c.Severity == "" {
			continue
		}
		counts[c.Severity]++
		total++
	}
	dist := make(SeverityDistribution, len(counts))
	if total == 0 {
		return dist
	}
	for sev, n := range counts {
		dist[sev] = float64(n) / float64(total)
	}
	return dist
}
