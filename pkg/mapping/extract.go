package mapping

import (
	"fmt"
	"strings"

	"github.com/corsair-io/corsair/pkg/ingestion"
)

// Extract applies m against the decoded input document (the result of
// json.Unmarshal into any, typically map[string]any) and builds the
// canonical IngestedDocument the rest of the pipeline consumes.
func Extract(m *Mapping, doc any) (*ingestion.IngestedDocument, error) {
	out := &ingestion.IngestedDocument{
		Source:   m.Source,
		Metadata: extractMetadata(m.Metadata, doc),
	}
	if m.Controls != nil {
		controls, err := extractControls(m.Controls, doc)
		if err != nil {
			return nil, fmt.Errorf("mapping %q: %w", m.ID, err)
		}
		out.Controls = controls
	}
	if m.Passthrough != nil && len(m.Passthrough.Paths) > 0 {
		out.AssessmentContext = extractPassthrough(m.Passthrough, doc)
	}
	return out, nil
}

// extractMetadata resolves each MetadataSpec entry: a value prefixed with
// "*" is a dotted path into doc, anything else is a literal.
func extractMetadata(spec MetadataSpec, doc any) ingestion.Metadata {
	get := func(key string) string {
		expr, ok := spec[key]
		if !ok {
			return ""
		}
		if !strings.HasPrefix(expr, "*") {
			return expr
		}
		v, ok := resolvePath(doc, strings.TrimPrefix(expr, "*"))
		if !ok {
			return ""
		}
		s, _ := stringify(v)
		return s
	}
	return ingestion.Metadata{
		Title:   get("title"),
		Issuer:  get("issuer"),
		Date:    get("date"),
		Scope:   get("scope"),
		Auditor: get("auditor"),
	}
}

func extractControls(spec *ControlsSpec, doc any) ([]ingestion.IngestedControl, error) {
	raw, ok := resolvePath(doc, spec.Path)
	if !ok || raw == nil {
		return nil, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("controls.path %q did not resolve to an array", spec.Path)
	}

	controls := make([]ingestion.IngestedControl, 0, len(arr))
	for i, item := range arr {
		c, err := extractControl(spec, item)
		if err != nil {
			return nil, fmt.Errorf("controls[%d]: %w", i, err)
		}
		controls = append(controls, c)
	}
	return controls, nil
}

func extractControl(spec *ControlsSpec, item any) (ingestion.IngestedControl, error) {
	var c ingestion.IngestedControl

	if v, ok := resolvePath(item, spec.IDPath); ok {
		c.ID, _ = stringify(v)
	}
	if spec.DescriptionPath != "" {
		if v, ok := resolvePath(item, spec.DescriptionPath); ok {
			c.Description, _ = stringify(v)
		}
	}
	if v, ok := resolvePath(item, spec.StatusPath); ok {
		raw, _ := stringify(v)
		c.Status = ingestion.ControlStatus(mapOrIdentity(spec.StatusMap, raw))
	}
	if spec.SeverityPath != "" {
		if v, ok := resolvePath(item, spec.SeverityPath); ok {
			raw, _ := stringify(v)
			c.Severity = ingestion.Severity(mapOrIdentity(spec.SeverityMap, raw))
		}
	}
	if spec.EvidencePath != "" {
		if v, ok := resolvePath(item, spec.EvidencePath); ok {
			c.Evidence, _ = stringify(v)
		}
	}
	if spec.FrameworkRefs != nil {
		refs, err := extractFrameworkRefs(spec.FrameworkRefs, item)
		if err != nil {
			return c, err
		}
		c.FrameworkRefs = refs
	}
	return c, nil
}

func extractFrameworkRefs(spec *FrameworkRefsSpec, item any) ([]ingestion.FrameworkRef, error) {
	raw, ok := resolvePath(item, spec.Path)
	if !ok || raw == nil {
		return nil, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("frameworkRefs.path %q did not resolve to an array", spec.Path)
	}
	refs := make([]ingestion.FrameworkRef, 0, len(arr))
	for _, item := range arr {
		var ref ingestion.FrameworkRef
		if v, ok := resolvePath(item, spec.FrameworkPath); ok {
			ref.Framework, _ = stringify(v)
		}
		if v, ok := resolvePath(item, spec.ControlIDPath); ok {
			ref.ControlID, _ = stringify(v)
		}
		if spec.ControlNamePath != "" {
			if v, ok := resolvePath(item, spec.ControlNamePath); ok {
				ref.ControlName, _ = stringify(v)
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func extractPassthrough(spec *PassthroughSpec, doc any) *ingestion.AssessmentContext {
	ctx := &ingestion.AssessmentContext{}
	for field, path := range spec.Paths {
		v, ok := resolvePath(doc, path)
		if !ok {
			continue
		}
		switch field {
		case "techStack":
			ctx.TechStack = stringSlice(v)
		case "compensatingControls":
			ctx.CompensatingControls = stringSlice(v)
		case "gaps":
			ctx.Gaps = stringSlice(v)
		case "scopeCoverage":
			ctx.ScopeCoverage, _ = stringify(v)
		case "assessorNotes":
			ctx.AssessorNotes, _ = stringify(v)
		}
	}
	return ctx
}

func stringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := stringify(item)
		if ok {
			out = append(out, s)
		}
	}
	return out
}

// mapOrIdentity translates raw through m if present, otherwise returns raw
// unchanged so a mapping author who omits statusMap/severityMap can rely
// on the input already speaking the closed vocabulary.
func mapOrIdentity(m map[string]string, raw string) string {
	if v, ok := m[raw]; ok {
		return v
	}
	return raw
}

// stringify coerces the scalar JSON types extraction actually encounters
// (string, float64, bool, json.Number) to a string.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	case bool:
		return fmt.Sprintf("%t", t), true
	case float64, int, int64:
		return fmt.Sprintf("%v", t), true
	default:
		return "", false
	}
}
