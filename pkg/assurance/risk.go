package assurance

import "math"

// severityWeight maps a control severity to a 0-100 loss-magnitude proxy
// used as the PERT estimate's input, since IngestedDocument carries no
// direct monetary loss figures. There is no risk-quantification library
// in the example pack (FAIR/Beta-PERT tooling is a narrow actuarial
// niche no teacher or pack dependency covers), so this is computed
// directly from severity distribution with plain arithmetic.
var severityWeight = map[string]float64{
	"CRITICAL": 90,
	"HIGH":     65,
	"MEDIUM":   35,
	"LOW":      10,
}

// computeRiskQuantification applies a Beta-PERT three-point estimate
// (min/likely/max -> mean/stddev, PERT's standard 4x weight on the
// likely estimate) over the severity distribution's weighted loss
// magnitude, then maps the mean onto a FAIR-style categorical band.
func computeRiskQuantification(severityDist map[string]float64) RiskQuantification {
	if len(severityDist) == 0 {
		return RiskQuantification{FAIRCategory: "insufficient-data"}
	}

	var weighted, min, max float64
	min = 100
	for sev, frac := range severityDist {
		w := severityWeight[sev]
		weighted += w * frac
		if w < min {
			min = w
		}
		if w > max {
			max = w
		}
	}
	likely := weighted

	mean := (min + 4*likely + max) / 6
	stddev := (max - min) / 6

	return RiskQuantification{
		Min:          round2(min),
		Likely:       round2(likely),
		Max:          round2(max),
		Mean:         round2(mean),
		StdDev:       round2(math.Max(stddev, 0)),
		FAIRCategory: fairCategory(mean),
	}
}

// fairCategory buckets a PERT mean loss-magnitude proxy into FAIR's
// qualitative risk categories.
func fairCategory(mean float64) string {
	switch {
	case mean >= 75:
		return "critical"
	case mean >= 50:
		return "high"
	case mean >= 25:
		return "medium"
	default:
		return "low"
	}
}
