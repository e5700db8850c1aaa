package assurance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/assurance"
	"github.com/corsair-io/corsair/pkg/ingestion"
)

func fixedNow() time.Time {
	return time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
}

func TestCalculate_SelfAssessedCeilingCapsDeclaredLevel(t *testing.T) {
	doc := &ingestion.IngestedDocument{
		Source:   "generic",
		Metadata: ingestion.Metadata{Date: "2026-06-15"},
		Controls: []ingestion.IngestedControl{
			{ID: "c1", Status: ingestion.StatusEffective, Description: "attested by auditor, fully observed over period"},
		},
	}
	res, err := assurance.Calculate(doc, fixedNow())
	require.NoError(t, err)
	assert.Equal(t, assurance.LevelConfigured, res.Claim.Declared, "generic source ceiling is L1 regardless of methodology text")
	assert.True(t, res.Claim.Verified)
}

func TestCalculate_AuditorWithSufficientPeriodReachesL4(t *testing.T) {
	doc := &ingestion.IngestedDocument{
		Source:   "soc2",
		Metadata: ingestion.Metadata{Date: "2026-06-15", ReportType: "SOC 2 Type II"},
		Controls: []ingestion.IngestedControl{
			{ID: "c1", Status: ingestion.StatusEffective, Description: "control is attested by auditor"},
		},
	}
	res, err := assurance.Calculate(doc, fixedNow())
	require.NoError(t, err)
	assert.True(t, res.ObservationPeriod.Sufficient)
	assert.Equal(t, assurance.LevelAttested, res.Claim.Declared)
}

func TestCalculate_AllPassBiasReducesConsistencyNotLevel(t *testing.T) {
	doc := &ingestion.IngestedDocument{
		Source:   "generic",
		Metadata: ingestion.Metadata{Date: "2026-06-15"},
		Controls: []ingestion.IngestedControl{
			{ID: "c1", Status: ingestion.StatusEffective, Description: "configured and enabled"},
			{ID: "c2", Status: ingestion.StatusEffective, Description: "configured and enabled"},
		},
	}
	res, err := assurance.Calculate(doc, fixedNow())
	require.NoError(t, err)
	assert.Less(t, res.Dimensions.Consistency, 100.0)
	assert.Contains(t, res.Claim.RuleTrace, "all-pass bias flag applied")
}

func TestCalculate_NotTestedControlsExcludedFromScope(t *testing.T) {
	doc := &ingestion.IngestedDocument{
		Source:   "generic",
		Metadata: ingestion.Metadata{Date: "2026-06-15"},
		Controls: []ingestion.IngestedControl{
			{ID: "c1", Status: ingestion.StatusEffective, Description: "configured"},
			{ID: "c2", Status: ingestion.StatusNotTested, Description: "documented only"},
		},
	}
	res, err := assurance.Calculate(doc, fixedNow())
	require.NoError(t, err)
	// the not-tested control is excluded from scope, so the all-pass
	// bias still applies over the single in-scope control.
	assert.Contains(t, res.Claim.RuleTrace, "all-pass bias flag applied")
}

func TestCalculate_ZeroControlsDefaultsDeclaredToCeiling(t *testing.T) {
	doc := &ingestion.IngestedDocument{
		Source:   "soc2",
		Metadata: ingestion.Metadata{Date: "2026-06-15"},
	}
	res, err := assurance.Calculate(doc, fixedNow())
	require.NoError(t, err)
	assert.Equal(t, assurance.LevelObserved, res.Claim.Declared)
}

func TestCalculate_InvalidDateErrors(t *testing.T) {
	doc := &ingestion.IngestedDocument{
		Source:   "generic",
		Metadata: ingestion.Metadata{Date: "not-a-date"},
	}
	_, err := assurance.Calculate(doc, fixedNow())
	assert.Error(t, err)
}
