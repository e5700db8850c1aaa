// Package assurance implements the Assurance Calculator: derives the
// Assurance Claim, Dimensions, ObservationPeriod, DORA metrics, and
// anti-gaming flags from an ingested document, rule-traced and
// deterministic.
package assurance

import "time"

// Level is the five-step L0-L4 assurance scale.
type Level int

const (
	LevelDocumented Level = 0
	LevelConfigured Level = 1
	LevelDemonstrated Level = 2
	LevelObserved     Level = 3
	LevelAttested     Level = 4
)

func (l Level) String() string {
	switch l {
	case LevelDocumented:
		return "L0"
	case LevelConfigured:
		return "L1"
	case LevelDemonstrated:
		return "L2"
	case LevelObserved:
		return "L3"
	case LevelAttested:
		return "L4"
	default:
		return "L?"
	}
}

// Method is the assurance methodology discriminator.
type Method string

const (
	MethodSelfAssessed   Method = "self-assessed"
	MethodToolAttested   Method = "tool-attested"
	MethodThirdParty     Method = "third-party"
	MethodAuditorAttested Method = "auditor-attested"
)

// ProvenanceSource is the coarse provenance discriminator.
type ProvenanceSource string

const (
	SourceSelf    ProvenanceSource = "self"
	SourceTool    ProvenanceSource = "tool"
	SourceAuditor ProvenanceSource = "auditor"
)

// Claim is the Assurance Claim: the calculator's sole derived, non-
// user-suppliable verdict.
type Claim struct {
	Declared           Level          `json:"declared"`
	Method             Method         `json:"method"`
	Verified           bool           `json:"verified"`
	Breakdown          map[Level]int  `json:"breakdown"`
	RuleTrace          []string       `json:"ruleTrace"`
	CalculationVersion string         `json:"calculationVersion"`
}

// Provenance carries the evidence's origin facts.
type Provenance struct {
	Source                  ProvenanceSource   `json:"source"`
	SourceIdentity          string             `json:"sourceIdentity,omitempty"`
	SourceDate              string             `json:"sourceDate,omitempty"`
	EvidenceTypeDistribution map[string]float64 `json:"evidenceTypeDistribution,omitempty"`
}

// Dimensions are the seven 0-100 scalar quality axes.
type Dimensions struct {
	Capability  float64 `json:"capability"`
	Coverage    float64 `json:"coverage"`
	Reliability float64 `json:"reliability"`
	Methodology float64 `json:"methodology"`
	Freshness   float64 `json:"freshness"`
	Independence float64 `json:"independence"`
	Consistency float64 `json:"consistency"`
}

// FreshnessBucket classifies evidence age.
type FreshnessBucket string

const (
	FreshnessFresh   FreshnessBucket = "fresh"
	FreshnessCurrent FreshnessBucket = "current"
	FreshnessStale   FreshnessBucket = "stale"
	FreshnessExpired FreshnessBucket = "expired"
)

// CosoClassification distinguishes a control test's temporal scope.
type CosoClassification string

const (
	CosoDesign    CosoClassification = "design"
	CosoOperating CosoClassification = "operating"
)

// ObservationPeriod is the window of time the evidence covers.
type ObservationPeriod struct {
	StartDate          time.Time          `json:"startDate"`
	EndDate            time.Time          `json:"endDate"`
	DurationDays       int                `json:"durationDays"`
	Sufficient         bool               `json:"sufficient"`
	CosoClassification CosoClassification `json:"cosoClassification"`
	SOC2Equivalent     string             `json:"soc2Equivalent"`
}

// ControlClassification is one control's derived level + flags.
type ControlClassification struct {
	ControlID string          `json:"controlId"`
	Level     Level           `json:"level"`
	Trace     string          `json:"trace"`
	Flags     []string        `json:"flags,omitempty"`
	Freshness FreshnessBucket `json:"freshness,omitempty"`
}

// DORAMetrics are the four 0-100 resilience scores plus composite band.
type DORAMetrics struct {
	Freshness      float64  `json:"freshness"`
	Specificity    float64  `json:"specificity"`
	Independence   float64  `json:"independence"`
	Reproducibility float64 `json:"reproducibility"`
	Band           string   `json:"band"`
	PairingFlags   []string `json:"pairingFlags,omitempty"`
}

// RiskQuantification is the Beta-PERT point estimate mapped onto a
// FAIR-style categorical band.
type RiskQuantification struct {
	Min            float64 `json:"min"`
	Likely         float64 `json:"likely"`
	Max            float64 `json:"max"`
	Mean           float64 `json:"mean"`
	StdDev         float64 `json:"stdDev"`
	FAIRCategory   string  `json:"fairCategory"`
}

// Result is everything the Assurance Calculator produces for one
// IngestedDocument.
type Result struct {
	Claim                  Claim                    `json:"assurance"`
	Provenance             Provenance               `json:"provenance"`
	Dimensions             Dimensions               `json:"dimensions"`
	ObservationPeriod      ObservationPeriod        `json:"observationPeriod"`
	ControlClassifications []ControlClassification  `json:"controlClassifications"`
	DORAMetrics            DORAMetrics              `json:"doraMetrics"`
	RiskQuantification     RiskQuantification       `json:"riskQuantification"`
	AssessmentDepth        string                   `json:"assessmentDepth"`
	ProvenanceQuality      float64                  `json:"provenanceQuality"`
}

// CalculationVersion is the calculator's opaque rule-set tag, bumped
// whenever the scoring rules change in a way that would alter output
// for previously-scored input.
const CalculationVersion = "l0-l4@2026-02-09"
