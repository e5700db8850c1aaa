package verify_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/verify"
)

func TestLoadPolicyFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"name": "min-assurance",
		"rules": [
			{"name": "has-subject", "expression": "credentialSubject != null"}
		]
	}`), 0o644))

	p, err := verify.LoadPolicyFile(path)
	require.NoError(t, err)
	assert.Equal(t, "min-assurance", p.Name)

	pass, fails, err := p.Evaluate(map[string]any{
		"vc": map[string]any{"credentialSubject": map[string]any{"scope": "test"}},
	}, 0)
	require.NoError(t, err)
	assert.True(t, pass)
	assert.Empty(t, fails)
}

func TestLoadPolicyFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: yaml-policy
rules:
  - name: scope-is-soc2
    expression: credentialSubject.scope == "soc2"
`), 0o644))

	p, err := verify.LoadPolicyFile(path)
	require.NoError(t, err)

	pass, fails, err := p.Evaluate(map[string]any{
		"vc": map[string]any{"credentialSubject": map[string]any{"scope": "soc2"}},
	}, 0)
	require.NoError(t, err)
	assert.True(t, pass)
	assert.Empty(t, fails)

	pass, fails, err = p.Evaluate(map[string]any{
		"vc": map[string]any{"credentialSubject": map[string]any{"scope": "pci"}},
	}, 0)
	require.NoError(t, err)
	assert.False(t, pass)
	assert.Equal(t, []string{"scope-is-soc2"}, fails)
}

func TestLoadPolicyFileRejectsEmptyRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "empty", "rules": []}`), 0o644))

	_, err := verify.LoadPolicyFile(path)
	assert.Error(t, err)
}

func TestPolicyValidateReportsCompileError(t *testing.T) {
	p := &verify.Policy{
		Name: "broken",
		Rules: []verify.Rule{
			{Name: "bad-expr", Expression: "this is not cel("},
		},
	}
	assert.Error(t, p.Validate())
}

func TestPolicyValidateAcceptsWellFormedRule(t *testing.T) {
	p := &verify.Policy{
		Name: "ok",
		Rules: []verify.Rule{
			{Name: "has-subject", Expression: "credentialSubject != null"},
		},
	}
	assert.NoError(t, p.Validate())
}

func TestPolicyEvaluateReportsCompileError(t *testing.T) {
	p := &verify.Policy{
		Name: "broken",
		Rules: []verify.Rule{
			{Name: "bad-expr", Expression: "this is not cel("},
		},
	}
	_, _, err := p.Evaluate(map[string]any{}, 0)
	assert.Error(t, err)
}
