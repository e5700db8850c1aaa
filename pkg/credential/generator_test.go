package credential_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/assurance"
	"github.com/corsair-io/corsair/pkg/credential"
	"github.com/corsair-io/corsair/pkg/framework"
	"github.com/corsair-io/corsair/pkg/identity"
	"github.com/corsair-io/corsair/pkg/ingestion"
)

func testInput(t *testing.T) credential.Input {
	t.Helper()
	doc := &ingestion.IngestedDocument{
		Source:   "soc2",
		Metadata: ingestion.Metadata{Title: "Acme SOC 2", Date: "2026-06-15", Scope: "production-aws"},
		Controls: []ingestion.IngestedControl{
			{ID: "c1", Status: ingestion.StatusEffective, Description: "attested by auditor", FrameworkRefs: []ingestion.FrameworkRef{{Framework: "SOC2", ControlID: "CC6.1"}}},
		},
	}
	pipeline, err := ingestion.Map(doc)
	require.NoError(t, err)
	res, err := assurance.Calculate(doc, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	return credential.Input{
		Document:    doc,
		Pipeline:    pipeline,
		Assurance:   res,
		Frameworks:  framework.CoverageTable{},
		ChainDigest: "sha256:deadbeef",
		IssuerName:  "Acme Assurance",
		ExpiryDays:  30,
	}
}

func TestGenerator_Generate_ProducesValidEdDSAJWT(t *testing.T) {
	ks, err := identity.GenerateInMemoryKeySet()
	require.NoError(t, err)
	g := credential.NewGenerator(ks, "did:web:issuer.example.com")

	issuedAt := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	token, err := g.Generate(context.Background(), testInput(t), issuedAt)
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return ks.PublicKey(), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "vc+jwt", parsed.Header["typ"])
	assert.Equal(t, "EdDSA", parsed.Header["alg"])

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "did:web:issuer.example.com", claims["iss"])
	assert.True(t, strings.HasPrefix(claims["jti"].(string), "marque-"))
	assert.Equal(t, claims["jti"], claims["sub"])
}

func TestGenerator_Generate_Deterministic_WhenIssuedAtPinned(t *testing.T) {
	ks, err := identity.GenerateInMemoryKeySet()
	require.NoError(t, err)
	g := credential.NewGenerator(ks, "did:web:issuer.example.com")
	issuedAt := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	in := testInput(t)
	t1, err := g.Generate(context.Background(), in, issuedAt)
	require.NoError(t, err)
	t2, err := g.Generate(context.Background(), in, issuedAt)
	require.NoError(t, err)

	// jti embeds a fresh random UUID each call, so the tokens are not
	// byte-identical; the header segment carries no per-call value, so it
	// is compared here.
	p1, _, _ := strings.Cut(t1, ".")
	p2, _, _ := strings.Cut(t2, ".")
	assert.Equal(t, p1, p2, "header must be byte-identical across calls")
}

func TestGenerator_Generate_MissingAssuranceErrors(t *testing.T) {
	ks, err := identity.GenerateInMemoryKeySet()
	require.NoError(t, err)
	g := credential.NewGenerator(ks, "did:web:issuer.example.com")

	in := testInput(t)
	in.Assurance = nil
	_, err = g.Generate(context.Background(), in, time.Now().UTC())
	assert.Error(t, err)
}
