package assurance

import (
	"fmt"
	"strings"
	"time"

	"github.com/corsair-io/corsair/pkg/ingestion"
)

// computeObservationPeriod derives the evidence's observation window.
// IngestedDocument carries no explicit period start/end (§3 only gives
// metadata.date), so the window is inferred from metadata.reportType:
// a "Type II"-style label implies an extended operating-effectiveness
// window ending on metadata.date; anything else (including an absent
// reportType) is treated as a single point-in-time design assessment.
// This mirrors how COSO itself distinguishes "design" from "operating"
// evaluations.
func computeObservationPeriod(meta ingestion.Metadata, now time.Time) (ObservationPeriod, error) {
	end := now
	if meta.Date != "" {
		t, ok := parseDate(meta.Date)
		if !ok {
			return ObservationPeriod{}, fmt.Errorf("metadata.date %q is not a valid date", meta.Date)
		}
		end = t
	}

	reportType := strings.ToLower(meta.ReportType)
	operating := strings.Contains(reportType, "type ii") || strings.Contains(reportType, "type 2") || strings.Contains(reportType, "period")

	durationDays := 1
	if operating {
		durationDays = 180
	}
	start := end.AddDate(0, 0, -durationDays)

	coso := CosoDesign
	if operating {
		coso = CosoOperating
	}

	label := meta.ReportType
	if label == "" {
		label = "unspecified"
	}

	return ObservationPeriod{
		StartDate:          start,
		EndDate:            end,
		DurationDays:       durationDays,
		Sufficient:         durationDays >= observationSufficiencyDays,
		CosoClassification: coso,
		SOC2Equivalent:     label,
	}, nil
}
