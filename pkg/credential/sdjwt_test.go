package credential_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/credential"
	"github.com/corsair-io/corsair/pkg/identity"
)

func TestSignSelectiveDisclosure_HidesAndRevealsSubPath(t *testing.T) {
	ks, err := identity.GenerateInMemoryKeySet()
	require.NoError(t, err)
	g := credential.NewGenerator(ks, "did:web:issuer.example.com")
	issuedAt := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	in := testInput(t)
	in.Assurance.Provenance.SourceIdentity = "auditor@example-cpa.com"

	sdjwt, disclosures, err := g.GenerateSelectiveDisclosure(context.Background(), in, issuedAt, []string{"provenance.sourceIdentity"})
	require.NoError(t, err)
	require.Len(t, disclosures, 1)

	// Without presenting the disclosure, the raw JWT segment carries only
	// the _sd commitment, never the plaintext identity.
	assert.NotContains(t, sdjwt, "auditor@example-cpa.com")

	full := credential.Present(sdjwt, disclosures)
	claims, err := credential.VerifyPresentation(full, ks.PublicKey())
	require.NoError(t, err)

	vc := claims["vc"].(map[string]any)
	subject := vc["credentialSubject"].(map[string]any)
	provenance := subject["provenance"].(map[string]any)
	assert.Equal(t, "auditor@example-cpa.com", provenance["sourceIdentity"])
	assert.NotContains(t, subject, "_sd")
}

func TestVerifyPresentation_WithoutDisclosure_HidesPath(t *testing.T) {
	ks, err := identity.GenerateInMemoryKeySet()
	require.NoError(t, err)
	g := credential.NewGenerator(ks, "did:web:issuer.example.com")
	issuedAt := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	in := testInput(t)
	in.Assurance.Provenance.SourceIdentity = "auditor@example-cpa.com"
	sdjwt, _, err := g.GenerateSelectiveDisclosure(context.Background(), in, issuedAt, []string{"provenance.sourceIdentity"})
	require.NoError(t, err)

	claims, err := credential.VerifyPresentation(sdjwt, ks.PublicKey())
	require.NoError(t, err)
	vc := claims["vc"].(map[string]any)
	subject := vc["credentialSubject"].(map[string]any)
	provenance := subject["provenance"].(map[string]any)
	assert.Nil(t, provenance["sourceIdentity"])
}

func TestVerifyPresentation_RejectsTamperedSignature(t *testing.T) {
	ks, err := identity.GenerateInMemoryKeySet()
	require.NoError(t, err)
	other, err := identity.GenerateInMemoryKeySet()
	require.NoError(t, err)
	g := credential.NewGenerator(ks, "did:web:issuer.example.com")
	issuedAt := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	sdjwt, _, err := g.GenerateSelectiveDisclosure(context.Background(), testInput(t), issuedAt, nil)
	require.NoError(t, err)

	_, err = credential.VerifyPresentation(sdjwt, other.PublicKey())
	assert.Error(t, err)
}
