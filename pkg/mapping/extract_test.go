package mapping_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/ingestion"
	"github.com/corsair-io/corsair/pkg/mapping"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestExtract_VendorShape(t *testing.T) {
	m := &mapping.Mapping{
		ID:     "vendor-x",
		Source: "vendor-x",
		Match:  mapping.Match{AllOf: []string{"report.kind"}},
		Metadata: mapping.MetadataSpec{
			"title":  "*report.title",
			"issuer": "*report.auditedBy",
			"date":   "*report.completedOn",
		},
		Controls: &mapping.ControlsSpec{
			Path:         "report.findings",
			IDPath:       "ref",
			StatusPath:   "outcome",
			StatusMap:    map[string]string{"PASS": "effective", "FAIL": "ineffective"},
			SeverityPath: "risk",
			SeverityMap:  map[string]string{"sev1": "CRITICAL", "sev2": "HIGH"},
			FrameworkRefs: &mapping.FrameworkRefsSpec{
				Path:          "mappedControls",
				FrameworkPath: "std",
				ControlIDPath: "id",
			},
		},
	}

	doc := decode(t, `{
		"report": {
			"kind": "soc2",
			"title": "Vendor X SOC 2 Type II",
			"auditedBy": "Acme Auditors",
			"completedOn": "2026-05-01",
			"findings": [
				{"ref": "F-1", "outcome": "PASS", "risk": "sev1",
				 "mappedControls": [{"std": "SOC2", "id": "CC6.1"}]},
				{"ref": "F-2", "outcome": "FAIL", "risk": "sev2",
				 "mappedControls": [{"std": "SOC2", "id": "CC6.2"}]}
			]
		}
	}`)

	out, err := mapping.Extract(m, doc)
	require.NoError(t, err)
	assert.Equal(t, "vendor-x", out.Source)
	assert.Equal(t, "Vendor X SOC 2 Type II", out.Metadata.Title)
	assert.Equal(t, "2026-05-01", out.Metadata.Date)
	require.Len(t, out.Controls, 2)
	assert.Equal(t, ingestion.StatusEffective, out.Controls[0].Status)
	assert.Equal(t, ingestion.SeverityCritical, out.Controls[0].Severity)
	assert.Equal(t, ingestion.StatusIneffective, out.Controls[1].Status)
	require.Len(t, out.Controls[1].FrameworkRefs, 1)
	assert.Equal(t, "CC6.2", out.Controls[1].FrameworkRefs[0].ControlID)

	require.NoError(t, ingestion.Validate(out))
}

func TestExtract_PassthroughFields(t *testing.T) {
	m := &mapping.Mapping{
		ID:    "vendor-y",
		Match: mapping.Match{AllOf: []string{"kind"}},
		Passthrough: &mapping.PassthroughSpec{
			Paths: map[string]string{
				"gaps":          "notes.gaps",
				"assessorNotes": "notes.free",
			},
		},
	}
	doc := decode(t, `{"kind":"x","notes":{"gaps":["no mfa on legacy vpn"],"free":"scope excludes staging"}}`)

	out, err := mapping.Extract(m, doc)
	require.NoError(t, err)
	require.NotNil(t, out.AssessmentContext)
	assert.Equal(t, []string{"no mfa on legacy vpn"}, out.AssessmentContext.Gaps)
	assert.Equal(t, "scope excludes staging", out.AssessmentContext.AssessorNotes)
}

func TestGenericMapping_Matches(t *testing.T) {
	reg, err := mapping.NewRegistryFromMappings(nil)
	require.NoError(t, err)
	resolved := reg.Resolve(map[string]any{"anything": true})
	assert.Equal(t, mapping.GenericSourceID, resolved.ID)

	doc := decode(t, `{
		"metadata": {"title": "t", "issuer": "i", "date": "2026-01-01", "scope": "s"},
		"controls": [{"id": "c1", "status": "effective"}]
	}`)
	out, err := mapping.Extract(resolved, doc)
	require.NoError(t, err)
	assert.Equal(t, "t", out.Metadata.Title)
	require.Len(t, out.Controls, 1)
	assert.Equal(t, ingestion.StatusEffective, out.Controls[0].Status)
}
