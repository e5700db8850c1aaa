// Package ingestion defines the canonical IngestedDocument shape produced
// by the Mapping Registry and implements the Ingestion Mapper:
// IngestedDocument -> the canonical pipeline input consumed by the
// Assurance Calculator and Framework Resolver.
package ingestion

// ControlStatus is the tested outcome of one control.
type ControlStatus string

const (
	StatusEffective   ControlStatus = "effective"
	StatusIneffective ControlStatus = "ineffective"
	StatusNotTested   ControlStatus = "not-tested"
)

// Severity classifies a control's risk weight.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// FrameworkRef points one control at a named control in a named
// compliance framework.
type FrameworkRef struct {
	Framework   string `json:"framework"`
	ControlID   string `json:"controlId"`
	ControlName string `json:"controlName,omitempty"`
}

// IngestedControl is one tested control, independent of source format.
type IngestedControl struct {
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	Status        ControlStatus  `json:"status"`
	Severity      Severity       `json:"severity,omitempty"`
	Evidence      string         `json:"evidence,omitempty"`
	FrameworkRefs []FrameworkRef `json:"frameworkRefs,omitempty"`

	// MitreTechnique is an optional ATT&CK technique id (e.g. "T1110"),
	// present only for test/chaos-derived inputs. The Framework Resolver
	// expands it into framework coverage the same way it would an
	// explicit frameworkRef, via its NIST-800-53 hub tables.
	MitreTechnique string `json:"mitreTechnique,omitempty"`
}

// Metadata carries the document-level facts about the assessment.
type Metadata struct {
	Title       string `json:"title"`
	Issuer      string `json:"issuer"`
	Date        string `json:"date"`
	Scope       string `json:"scope"`
	Auditor     string `json:"auditor,omitempty"`
	ReportType  string `json:"reportType,omitempty"`
	RawTextHash string `json:"rawTextHash,omitempty"`
}

// AssessmentContext carries optional free-form assessment narrative.
type AssessmentContext struct {
	TechStack            []string `json:"techStack,omitempty"`
	CompensatingControls []string `json:"compensatingControls,omitempty"`
	Gaps                 []string `json:"gaps,omitempty"`
	ScopeCoverage        string   `json:"scopeCoverage,omitempty"`
	AssessorNotes        string   `json:"assessorNotes,omitempty"`
}

// IngestedDocument is the canonical representation of a completed
// assessment, independent of source format. It is the Mapping Registry's
// sole output and the Ingestion Mapper's sole input.
type IngestedDocument struct {
	Source            string             `json:"source"`
	Metadata          Metadata           `json:"metadata"`
	Controls          []IngestedControl  `json:"controls"`
	AssessmentContext *AssessmentContext `json:"assessmentContext,omitempty"`
}
