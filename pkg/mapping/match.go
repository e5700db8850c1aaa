package mapping

// matches reports whether m's match predicates are satisfied against the
// decoded input document: every allOf path must be present, and if anyOf
// is non-empty, at least one of its paths must be present.
func (m *Mapping) matches(doc any) bool {
	for _, p := range m.Match.AllOf {
		if !pathExists(doc, p) {
			return false
		}
	}
	if len(m.Match.AnyOf) > 0 {
		any := false
		for _, p := range m.Match.AnyOf {
			if pathExists(doc, p) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	return true
}

// effectivePriority returns the mapping's comparison priority. A mapping
// author wanting "always wins" semantics sets Priority to
// mapping.PriorityInfinite; ordinary int comparison then makes that
// mapping win over any finite priority, satisfying the boundary behaviour
// without special-casing the comparator itself.
func (m *Mapping) effectivePriority() int {
	return m.Priority
}
