package assurance

import "fmt"

// computeDORAMetrics derives the four 0-100 resilience scores (§4.3).
// freshness is the same average used for the freshness dimension;
// specificity penalizes boilerplate language; independence scores the
// provenance source; reproducibility rewards tool/auditor methods that
// can, in principle, be re-run against the same evidence.
func computeDORAMetrics(avgFreshness float64, boilerplateRatio float64, kind ProvenanceSource, method Method) DORAMetrics {
	specificity := 100 * (1 - boilerplateRatio)

	var independence float64
	switch kind {
	case SourceSelf:
		independence = 20
	case SourceTool:
		independence = 70
	case SourceAuditor:
		independence = 95
	}

	var reproducibility float64
	switch method {
	case MethodSelfAssessed:
		reproducibility = 25
	case MethodToolAttested:
		reproducibility = 85
	case MethodThirdParty:
		reproducibility = 60
	case MethodAuditorAttested:
		reproducibility = 70
	}

	band := doraBand(avgFreshness, specificity, independence, reproducibility)

	var flags []string
	if avgFreshness >= 75 && reproducibility < 40 {
		flags = append(flags, "high freshness + low reproducibility: evidence refreshed but cannot be re-verified")
	}
	if independence >= 90 && specificity < 40 {
		flags = append(flags, "high independence + low specificity: credible source but boilerplate findings")
	}

	return DORAMetrics{
		Freshness:       round2(avgFreshness),
		Specificity:     round2(specificity),
		Independence:    round2(independence),
		Reproducibility: round2(reproducibility),
		Band:            band,
		PairingFlags:    flags,
	}
}

func doraBand(scores ...float64) string {
	var sum float64
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(len(scores))
	switch {
	case avg >= 75:
		return "high"
	case avg >= 45:
		return "medium"
	default:
		return "low"
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func traceLine(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
