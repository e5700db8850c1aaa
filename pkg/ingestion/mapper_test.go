package ingestion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/ingestion"
)

func doc12AllEffective() *ingestion.IngestedDocument {
	controls := make([]ingestion.IngestedControl, 12)
	for i := range controls {
		controls[i] = ingestion.IngestedControl{
			ID:       "ctl-" + string(rune('a'+i)),
			Status:   ingestion.StatusEffective,
			Severity: ingestion.SeverityMedium,
			FrameworkRefs: []ingestion.FrameworkRef{
				{Framework: "SOC2", ControlID: "CC1.1"},
			},
		}
	}
	return &ingestion.IngestedDocument{
		Source:   "auditor-report",
		Metadata: ingestion.Metadata{Title: "t", Issuer: "i", Date: "2026-06-01", Scope: "s"},
		Controls: controls,
	}
}

func TestMap_HappyPath(t *testing.T) {
	out, err := ingestion.Map(doc12AllEffective())
	require.NoError(t, err)
	assert.Equal(t, 12, out.Summary.ControlsTested)
	assert.Equal(t, 12, out.Summary.ControlsPassed)
	assert.Equal(t, 0, out.Summary.ControlsFailed)
	assert.Equal(t, 100, out.Summary.OverallScore)
	assert.Len(t, out.DriftFindings, 12)
	for _, f := range out.DriftFindings {
		assert.False(t, f.Drift)
	}
	assert.Equal(t, 12, out.Frameworks["SOC2"].ControlsMapped)
}

func TestMap_ZeroControls(t *testing.T) {
	doc := &ingestion.IngestedDocument{
		Source:   "generic",
		Metadata: ingestion.Metadata{Date: "2026-01-01"},
	}
	out, err := ingestion.Map(doc)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Summary.OverallScore)
	assert.Empty(t, out.Frameworks)
}

func TestMap_DuplicateIDRejected(t *testing.T) {
	doc := &ingestion.IngestedDocument{
		Source:   "generic",
		Metadata: ingestion.Metadata{Date: "2026-01-01"},
		Controls: []ingestion.IngestedControl{
			{ID: "x", Status: ingestion.StatusEffective},
			{ID: "x", Status: ingestion.StatusIneffective},
		},
	}
	_, err := ingestion.Map(doc)
	assert.Error(t, err)
}

func TestMap_InvalidDateRejected(t *testing.T) {
	doc := &ingestion.IngestedDocument{
		Source:   "generic",
		Metadata: ingestion.Metadata{Date: "not-a-date"},
	}
	_, err := ingestion.Map(doc)
	assert.Error(t, err)
}
