package ingestion

import (
	"fmt"
	"time"
)

// Validate checks invariants I1-I4 against doc: control ids are unique,
// every control carries a status, every frameworkRef carries both
// framework and controlId, and metadata.date is a valid ISO-8601 date.
func Validate(doc *IngestedDocument) error {
	seen := make(map[string]bool, len(doc.Controls))
	for _, c := range doc.Controls {
		if seen[c.ID] {
			return fmt.Errorf("ingestion: duplicate control id %q", c.ID)
		}
		seen[c.ID] = true

		switch c.Status {
		case StatusEffective, StatusIneffective, StatusNotTested:
		default:
			return fmt.Errorf("ingestion: control %q has invalid status %q", c.ID, c.Status)
		}

		for _, ref := range c.FrameworkRefs {
			if ref.Framework == "" || ref.ControlID == "" {
				return fmt.Errorf("ingestion: control %q has incomplete frameworkRef", c.ID)
			}
		}
	}

	if doc.Metadata.Date != "" {
		if _, err := time.Parse("2006-01-02", doc.Metadata.Date); err != nil {
			if _, err2 := time.Parse(time.RFC3339, doc.Metadata.Date); err2 != nil {
				return fmt.Errorf("ingestion: metadata.date %q is not valid ISO-8601: %w", doc.Metadata.Date, err)
			}
		}
	}

	return nil
}
