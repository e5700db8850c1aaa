package framework_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/framework"
	"github.com/corsair-io/corsair/pkg/ingestion"
)

func TestResolve_DirectFrameworkRefsAlwaysIncluded(t *testing.T) {
	r := framework.NewResolver(nil, nil, nil)
	controls := []ingestion.IngestedControl{
		{ID: "c1", FrameworkRefs: []ingestion.FrameworkRef{{Framework: "SOC2", ControlID: "CC6.1"}}},
	}
	table, trace := r.Resolve(controls)
	require.Contains(t, table, "SOC2")
	assert.Len(t, table["SOC2"].Controls, 1)
	assert.Empty(t, trace)
}

func TestResolve_PluginTierWinsOverDataAndLegacy(t *testing.T) {
	plugin := &framework.PluginManifest{
		Techniques: map[string][]framework.ControlRef{
			"T1110": {{Framework: "ISO27001", ControlID: "A.9.4.2"}},
		},
	}
	data := &framework.DataTables{
		TechniqueToNIST: map[string][]string{"T1110": {"AC-7"}},
		NISTToFramework: map[string][]framework.ControlRef{
			"AC-7": {{Framework: "SOC2", ControlID: "CC6.1"}},
		},
	}
	legacy := framework.DefaultLegacyTable()

	r := framework.NewResolver(plugin, data, legacy)
	controls := []ingestion.IngestedControl{{ID: "c1", MitreTechnique: "T1110"}}
	table, trace := r.Resolve(controls)

	require.Len(t, trace, 1)
	assert.Equal(t, framework.TierPlugin, trace[0].Tier)
	require.Contains(t, table, "ISO27001")
	assert.NotContains(t, table, "SOC2", "plugin tier must fully pre-empt the data-driven tier, not merge with it")
}

func TestResolve_FallsThroughToDataThenLegacy(t *testing.T) {
	data := &framework.DataTables{
		TechniqueToNIST: map[string][]string{"T1110": {"AC-7"}},
		NISTToFramework: map[string][]framework.ControlRef{
			"AC-7": {{Framework: "SOC2", ControlID: "CC6.1"}},
		},
	}
	r := framework.NewResolver(nil, data, framework.DefaultLegacyTable())
	table, trace := r.Resolve([]ingestion.IngestedControl{{ID: "c1", MitreTechnique: "T1110"}})
	assert.Equal(t, framework.TierDataDriven, trace[0].Tier)
	require.Contains(t, table, "SOC2")

	// T1078 has no data-table entry, only a legacy one.
	r2 := framework.NewResolver(nil, data, framework.DefaultLegacyTable())
	table2, trace2 := r2.Resolve([]ingestion.IngestedControl{{ID: "c2", MitreTechnique: "T1078"}})
	assert.Equal(t, framework.TierLegacy, trace2[0].Tier)
	require.Contains(t, table2, "SOC2")
}

func TestResolve_UnknownTechniqueResolvesToNothing(t *testing.T) {
	r := framework.NewResolver(nil, nil, nil)
	table, trace := r.Resolve([]ingestion.IngestedControl{{ID: "c1", MitreTechnique: "T9999"}})
	assert.Empty(t, table)
	require.Len(t, trace, 1)
	assert.Equal(t, 0, trace[0].Resolved)
}

func TestJurisdictionGraph_FiltersByScope(t *testing.T) {
	g, err := framework.NewJurisdictionGraph()
	require.NoError(t, err)
	g.AddFramework(&framework.FrameworkNode{
		Framework:     "GDPR",
		Applicability: `scope == "EU"`,
	})

	table := framework.CoverageTable{
		"GDPR": {Controls: []framework.ControlRef{{Framework: "GDPR", ControlID: "Art.32"}}},
		"SOC2": {Controls: []framework.ControlRef{{Framework: "SOC2", ControlID: "CC6.1"}}},
	}

	filtered, err := g.FilterByScope(table, "US")
	require.NoError(t, err)
	assert.NotContains(t, filtered, "GDPR")
	assert.Contains(t, filtered, "SOC2")

	filtered, err = g.FilterByScope(table, "EU")
	require.NoError(t, err)
	assert.Contains(t, filtered, "GDPR")
}
