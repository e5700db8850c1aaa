package verify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

// Policy is a declarative acceptance predicate over a verified marque's
// decoded credentialSubject, expressed as one or more CEL rules. All rules
// must evaluate true for the marque to pass (`--policy FILE`, §4.8).
type Policy struct {
	Name  string `json:"name"`
	Rules []Rule `json:"rules"`

	mu       sync.Mutex
	programs []cel.Program
}

// Rule is one named CEL boolean expression evaluated against
// `credentialSubject`, `issuer`, and `now` (unix seconds).
type Rule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

// LoadPolicyFile reads a JSON or YAML policy document from path.
func LoadPolicyFile(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("verify: read policy file: %w", err)
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		raw, err = policyYAMLToJSON(raw)
		if err != nil {
			return nil, err
		}
	}

	var p Policy
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("verify: parse policy file: %w", err)
	}
	if len(p.Rules) == 0 {
		return nil, fmt.Errorf("verify: policy %q has no rules", path)
	}
	for i, r := range p.Rules {
		if r.Expression == "" {
			return nil, fmt.Errorf("verify: policy %q rule %d has an empty expression", path, i)
		}
	}
	return &p, nil
}

// policyYAMLToJSON mirrors pkg/mapping's yamlToJSON: decode via yaml.v3,
// re-encode as JSON, so the rest of the load path stays format-agnostic.
func policyYAMLToJSON(raw []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("verify: invalid yaml policy: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("verify: re-encode yaml policy as json: %w", err)
	}
	return out, nil
}

func celEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("credentialSubject", cel.DynType),
		cel.Variable("issuer", cel.StringType),
		cel.Variable("now", cel.IntType),
	)
}

// compile lazily builds and caches one cel.Program per rule, guarded by a
// mutex since a Policy loaded once may be reused across concurrent Verify
// calls (the CLI's `policy validate` and `verify` share the same loader).
func (p *Policy) compile() ([]cel.Program, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.programs != nil {
		return p.programs, nil
	}

	env, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("verify: build policy CEL environment: %w", err)
	}

	programs := make([]cel.Program, len(p.Rules))
	for i, r := range p.Rules {
		ast, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("verify: compile rule %q: %w", r.Name, issues.Err())
		}
		prg, err := env.Program(ast, cel.InterruptCheckFrequency(100), cel.CostLimit(10000))
		if err != nil {
			return nil, fmt.Errorf("verify: build program for rule %q: %w", r.Name, err)
		}
		programs[i] = prg
	}
	p.programs = programs
	return programs, nil
}

// Validate forces compilation of every rule, surfacing any CEL syntax or
// type error without evaluating against a claim set. Used by `corsair
// policy validate`.
func (p *Policy) Validate() error {
	_, err := p.compile()
	return err
}

// Evaluate runs every rule against claims and returns whether all passed,
// along with the name of every rule that failed (by expression error or by
// evaluating false).
func (p *Policy) Evaluate(claims map[string]any, nowUnix int64) (bool, []string, error) {
	programs, err := p.compile()
	if err != nil {
		return false, nil, err
	}

	subject, _ := claims["vc"].(map[string]any)
	var credentialSubject any
	if subject != nil {
		credentialSubject = subject["credentialSubject"]
	}
	issuer, _ := claims["iss"].(string)

	input := map[string]any{
		"credentialSubject": credentialSubject,
		"issuer":            issuer,
		"now":               nowUnix,
	}

	var failed []string
	for i, prg := range programs {
		out, _, err := prg.Eval(input)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s (error: %v)", p.Rules[i].Name, err))
			continue
		}
		pass, ok := out.Value().(bool)
		if !ok || !pass {
			failed = append(failed, p.Rules[i].Name)
		}
	}
	return len(failed) == 0, failed, nil
}
