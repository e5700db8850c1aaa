package assurance

import (
	"fmt"
	"time"

	"github.com/corsair-io/corsair/pkg/ingestion"
)

// observationSufficiencyDays is §4.3's sufficiency threshold.
const observationSufficiencyDays = 90

// Calculate derives the full Assurance Calculator output for doc,
// deterministic given doc and now (the only non-pure input, isolated
// here so freshness math is testable without a wall-clock dependency).
func Calculate(doc *ingestion.IngestedDocument, now time.Time) (*Result, error) {
	profile := lookupSourceProfile(doc.Source)

	obsPeriod, err := computeObservationPeriod(doc.Metadata, now)
	if err != nil {
		return nil, fmt.Errorf("assurance: %w", err)
	}

	ceiling := resolveCeiling(profile, obsPeriod.Sufficient)

	var trace []string
	trace = append(trace, traceLine("source-ceiling=%s", ceiling))

	classifications := make([]ControlClassification, 0, len(doc.Controls))
	breakdown := make(map[Level]int)
	var declared = ceiling
	inScopeCount, passCount := 0, 0
	var freshnessSum float64
	freshnessN := 0
	boilerplateCount := 0

	for _, c := range doc.Controls {
		level, keyword := scoreMethodology(c.Description, c.Evidence)
		if level > ceiling {
			level = ceiling
		}

		var flags []string
		if isBoilerplate(c.Description) {
			flags = append(flags, boilerplateFlag)
			boilerplateCount++
		}

		var bucket FreshnessBucket
		if doc.Metadata.Date != "" {
			if sourceDate, ok := parseDate(doc.Metadata.Date); ok {
				bucket = classifyFreshness(daysSince(sourceDate, now))
				freshnessSum += freshnessScore(bucket)
				freshnessN++
			}
		}

		classifications = append(classifications, ControlClassification{
			ControlID: c.ID,
			Level:     level,
			Trace:     fmt.Sprintf("methodology keyword %q -> %s (capped at ceiling %s)", keyword, level, ceiling),
			Flags:     flags,
			Freshness: bucket,
		})
		breakdown[level]++

		inScope := c.Status != ingestion.StatusNotTested
		if inScope {
			inScopeCount++
			if level < declared {
				declared = level
			}
			if c.Status == ingestion.StatusEffective {
				passCount++
			}
		}
	}
	if inScopeCount == 0 {
		declared = ceiling
		trace = append(trace, "no in-scope controls: declared level defaults to ceiling")
	}

	allPassBias := inScopeCount > 0 && passCount == inScopeCount
	if allPassBias {
		trace = append(trace, "all-pass bias flag applied")
	}

	verified := declared == ceiling
	trace = append(trace, traceLine("declared=%s verified=%t", declared, verified))

	var avgFreshness float64
	if freshnessN > 0 {
		avgFreshness = freshnessSum / float64(freshnessN)
	}
	trace = append(trace, traceLine("freshness-avg=%.1f", avgFreshness))

	var boilerplateRatio float64
	if len(doc.Controls) > 0 {
		boilerplateRatio = float64(boilerplateCount) / float64(len(doc.Controls))
	}

	coverage := 0.0
	if len(doc.Controls) > 0 {
		coverage = 100 * float64(inScopeCount) / float64(len(doc.Controls))
	}
	reliability := 0.0
	if inScopeCount > 0 {
		reliability = 100 * float64(passCount) / float64(inScopeCount)
	}
	methodologyScore := 0.0
	if len(classifications) > 0 {
		var sum float64
		for _, c := range classifications {
			sum += float64(c.Level) / 4 * 100
		}
		methodologyScore = sum / float64(len(classifications))
	}
	consistency := 100.0
	if allPassBias {
		consistency -= 30
	}
	independence := independenceScore(profile.kind)

	dims := Dimensions{
		Capability:   float64(declared) / 4 * 100,
		Coverage:     round2(coverage),
		Reliability:  round2(reliability),
		Methodology:  round2(methodologyScore),
		Freshness:    round2(avgFreshness),
		Independence: round2(independence),
		Consistency:  round2(consistency),
	}

	doraMetrics := computeDORAMetrics(avgFreshness, boilerplateRatio, profile.kind, profile.method)
	riskQuant := computeRiskQuantification(severityDistFractions(doc.Controls))

	result := &Result{
		Claim: Claim{
			Declared:           declared,
			Method:             profile.method,
			Verified:           verified,
			Breakdown:          breakdown,
			RuleTrace:          trace,
			CalculationVersion: CalculationVersion,
		},
		Provenance: Provenance{
			Source:     profile.kind,
			SourceDate: doc.Metadata.Date,
		},
		Dimensions:              dims,
		ObservationPeriod:        obsPeriod,
		ControlClassifications:  classifications,
		DORAMetrics:              doraMetrics,
		RiskQuantification:       riskQuant,
		AssessmentDepth:          assessmentDepth(declared),
		ProvenanceQuality:        round2((independence + avgFreshness) / 2),
	}
	return result, nil
}

func independenceScore(kind ProvenanceSource) float64 {
	switch kind {
	case SourceSelf:
		return 20
	case SourceTool:
		return 70
	case SourceAuditor:
		return 95
	default:
		return 0
	}
}

func assessmentDepth(declared Level) string {
	switch {
	case declared >= LevelObserved:
		return "deep"
	case declared >= LevelConfigured:
		return "standard"
	default:
		return "shallow"
	}
}

func severityDistFractions(controls []ingestion.IngestedControl) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for _, c := range controls {
		if c.Severity == "" {
			continue
		}
		counts[string(c.Severity)]++
		total++
	}
	if total == 0 {
		return nil
	}
	out := make(map[string]float64, len(counts))
	for sev, n := range counts {
		out[sev] = float64(n) / float64(total)
	}
	return out
}

func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
