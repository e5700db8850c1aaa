// Package credential implements the CPOE Generator: composes and signs
// the JWT-VC ("marque") that carries an assurance claim as a verifiable
// credential, with optional SD-JWT selective disclosure over
// credentialSubject sub-paths.
package credential

import (
	"github.com/corsair-io/corsair/pkg/assurance"
	"github.com/corsair-io/corsair/pkg/framework"
	"github.com/corsair-io/corsair/pkg/ingestion"
)

// Issuer identifies the credential's issuing party within the vc object.
type Issuer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CredentialSubject is the VC payload's subject (§3).
type CredentialSubject struct {
	Type                    string                            `json:"type"`
	Scope                   string                            `json:"scope"`
	Assurance               assurance.Claim                   `json:"assurance"`
	Provenance              assurance.Provenance              `json:"provenance"`
	Summary                 ingestion.Summary                 `json:"summary"`
	Dimensions              assurance.Dimensions              `json:"dimensions"`
	EvidenceTypes           []string                          `json:"evidenceTypes,omitempty"`
	ObservationPeriod       assurance.ObservationPeriod        `json:"observationPeriod"`
	ControlClassifications []assurance.ControlClassification  `json:"controlClassifications"`
	AssessmentDepth         string                            `json:"assessmentDepth"`
	ProvenanceQuality       float64                           `json:"provenanceQuality"`
	DORAMetrics             assurance.DORAMetrics              `json:"doraMetrics"`
	RiskQuantification      assurance.RiskQuantification        `json:"riskQuantification"`
	Frameworks              map[string]FrameworkCoverageView   `json:"frameworks"`
	ReceiptChainDigest      string                            `json:"receiptChainDigest,omitempty"`
}

// FrameworkCoverageView is the wire shape of one framework's coverage in
// credentialSubject.frameworks (§3: "framework -> {controlsMapped,
// passed, failed, controls[]}").
type FrameworkCoverageView struct {
	ControlsMapped int      `json:"controlsMapped"`
	Passed         int      `json:"passed"`
	Failed         int      `json:"failed"`
	Controls       []string `json:"controls"`
}

// VC is the verifiable-credential object nested under the JWT payload's
// "vc" key.
type VC struct {
	Context           []string          `json:"@context"`
	Type              []string          `json:"type"`
	Issuer            Issuer            `json:"issuer"`
	ValidFrom         string            `json:"validFrom"`
	ValidUntil        string            `json:"validUntil"`
	CredentialSubject CredentialSubject `json:"credentialSubject"`
}

// Input bundles everything the generator needs to compose one CPOE.
type Input struct {
	Document     *ingestion.IngestedDocument
	Pipeline     *ingestion.PipelineInput
	Assurance    *assurance.Result
	Frameworks   framework.CoverageTable
	ChainDigest  string
	IssuerName   string
	ExpiryDays   int
	ProtocolVer  string
}
