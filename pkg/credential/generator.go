package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/corsair-io/corsair/pkg/framework"
	"github.com/corsair-io/corsair/pkg/identity"
	"github.com/corsair-io/corsair/pkg/ingestion"
)

// Generator composes and signs CPOEs from an Input bundle.
type Generator struct {
	KeySet    identity.KeySet
	IssuerDID string
}

// NewGenerator binds a Generator to an issuer's active key and DID.
func NewGenerator(ks identity.KeySet, issuerDID string) *Generator {
	return &Generator{KeySet: ks, IssuerDID: issuerDID}
}

// Generate builds the credentialSubject from in and signs a plain (non-SD)
// JWT-VC whose time claims come from issuedAt. jti is random per call (see
// BuildPayload), so two calls with the same issuedAt give different tokens.
func (g *Generator) Generate(ctx context.Context, in Input, issuedAt time.Time) (string, error) {
	subject, err := buildSubject(in)
	if err != nil {
		return "", err
	}
	payload := BuildPayload(in, subject, g.IssuerDID, issuedAt)
	return Sign(ctx, g.KeySet, payload)
}

// GenerateSelectiveDisclosure is Generate but issues an SD-JWT with the
// given credentialSubject sub-paths held back behind salted-hash
// commitments.
func (g *Generator) GenerateSelectiveDisclosure(ctx context.Context, in Input, issuedAt time.Time, disclosablePaths []string) (string, []*Disclosure, error) {
	subject, err := buildSubject(in)
	if err != nil {
		return "", nil, err
	}
	payload := BuildPayload(in, subject, g.IssuerDID, issuedAt)
	return SignSelectiveDisclosure(ctx, g.KeySet, payload, disclosablePaths)
}

func buildSubject(in Input) (CredentialSubject, error) {
	if in.Assurance == nil {
		return CredentialSubject{}, fmt.Errorf("credential: assurance result is required")
	}
	if in.Pipeline == nil {
		return CredentialSubject{}, fmt.Errorf("credential: pipeline input is required")
	}

	scope := ""
	if in.Document != nil {
		scope = in.Document.Metadata.Scope
	}

	evidenceTypes := make([]string, 0, len(in.Assurance.Provenance.EvidenceTypeDistribution))
	for t := range in.Assurance.Provenance.EvidenceTypeDistribution {
		evidenceTypes = append(evidenceTypes, t)
	}

	return CredentialSubject{
		Type:                    "CorsairComplianceAssessment",
		Scope:                   scope,
		Assurance:               in.Assurance.Claim,
		Provenance:              in.Assurance.Provenance,
		Summary:                 in.Pipeline.Summary,
		Dimensions:              in.Assurance.Dimensions,
		EvidenceTypes:           evidenceTypes,
		ObservationPeriod:       in.Assurance.ObservationPeriod,
		ControlClassifications: in.Assurance.ControlClassifications,
		AssessmentDepth:         in.Assurance.AssessmentDepth,
		ProvenanceQuality:       in.Assurance.ProvenanceQuality,
		DORAMetrics:             in.Assurance.DORAMetrics,
		RiskQuantification:      in.Assurance.RiskQuantification,
		Frameworks:              mergeFrameworkViews(in.Pipeline.Frameworks, in.Frameworks),
		ReceiptChainDigest:      in.ChainDigest,
	}, nil
}

// mergeFrameworkViews combines the Ingestion Mapper's directly-mapped
// pass/fail tally with the Framework Resolver's tier-expanded coverage:
// direct tallies are authoritative for passed/failed counts, resolver
// output only ever adds controls (and their framework) that direct
// mapping never saw, contributing 0 to passed/failed since those controls
// were never themselves tested — they are declared coverage, not results.
func mergeFrameworkViews(direct ingestion.FrameworkControlTable, resolved framework.CoverageTable) map[string]FrameworkCoverageView {
	out := make(map[string]FrameworkCoverageView, len(direct)+len(resolved))
	for fw, tally := range direct {
		out[fw] = FrameworkCoverageView{
			ControlsMapped: tally.ControlsMapped,
			Passed:         tally.Passed,
			Failed:         tally.Failed,
			Controls:       append([]string(nil), tally.Controls...),
		}
	}
	for fw, cov := range resolved {
		if cov == nil {
			continue
		}
		view := out[fw]
		seen := make(map[string]bool, len(view.Controls))
		for _, c := range view.Controls {
			seen[c] = true
		}
		for _, ref := range cov.Controls {
			if seen[ref.ControlID] {
				continue
			}
			seen[ref.ControlID] = true
			view.Controls = append(view.Controls, ref.ControlID)
			view.ControlsMapped++
		}
		out[fw] = view
	}
	return out
}
