// Package observability provides CORSAIR-specific instrumentation helpers.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CORSAIR semantic convention attributes, following the same
// "<namespace>.<noun>.<field>" shape as the teacher's HELM attributes.
var (
	// Pipeline-step attributes (§3: ingest, classify, chart, marque).
	AttrPipelineStep   = attribute.Key("corsair.pipeline.step")
	AttrChainDigest    = attribute.Key("corsair.pipeline.chain_digest")
	AttrOverallScore   = attribute.Key("corsair.pipeline.overall_score")

	// Credential attributes.
	AttrIssuerDID   = attribute.Key("corsair.credential.issuer_did")
	AttrIssuerTier  = attribute.Key("corsair.credential.issuer_tier")
	AttrCredentialFormat = attribute.Key("corsair.credential.format")

	// Verification attributes.
	AttrVerifyState  = attribute.Key("corsair.verify.state")
	AttrPolicyName   = attribute.Key("corsair.verify.policy")

	// Transparency-log attributes.
	AttrLogEntryID = attribute.Key("corsair.transparency.entry_id")
	AttrTrustDomain = attribute.Key("corsair.transparency.domain")
)

// PipelineOperation creates attributes for one §3 pipeline step (ingest,
// classify, chart, or marque).
func PipelineOperation(step, chainDigest string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrPipelineStep.String(step),
		AttrChainDigest.String(chainDigest),
	}
}

// CredentialOperation creates attributes for a CPOE Generator issuance.
func CredentialOperation(issuerDID, format string, overallScore int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrIssuerDID.String(issuerDID),
		AttrCredentialFormat.String(format),
		AttrOverallScore.Int(overallScore),
	}
}

// VerifyOperation creates attributes for a Verifier pass.
func VerifyOperation(issuerTier, state, policy string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrIssuerTier.String(issuerTier),
		AttrVerifyState.String(state),
		AttrPolicyName.String(policy),
	}
}

// TransparencyOperation creates attributes for a Transparency Client call.
func TransparencyOperation(domain, entryID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrTrustDomain.String(domain),
		AttrLogEntryID.String(entryID),
	}
}

// SpanFromContext extracts the span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent adds an event to the current span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetSpanStatus sets the span status based on error.
func SetSpanStatus(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
	}
}
