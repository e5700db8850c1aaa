package verify_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/receipts"
	"github.com/corsair-io/corsair/pkg/verify"
)

func writeBundle(t *testing.T, token string, chain []receipts.Receipt, chainDigest string) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "marque.jwt"), []byte(token), 0o644))

	manifest := map[string]any{
		"marque":      "marque.jwt",
		"chainDigest": chainDigest,
		"receipts":    chain,
		"fileHashes":  map[string]string{},
	}
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644))
	return dir
}

func TestVerifyBundleAccepted(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	token, ks := signTestMarque(t, issuedAt, "soc2")

	chainObj := receipts.NewChain()
	_, err := chainObj.Append(receipts.StepRecord{
		Step: receipts.StepIngest, Input: "in", Output: "out",
		Reproducible: true, CodeVersion: "v1",
	})
	require.NoError(t, err)
	digest, chain, err := chainObj.Seal()
	require.NoError(t, err)

	dir := writeBundle(t, token, chain, digest)

	report, err := verify.VerifyBundle(context.Background(), dir, verify.Options{
		Resolver: stubResolver{pub: ks.PublicKey(), tier: verify.TierDIDWeb},
	})
	require.NoError(t, err)
	assert.True(t, report.Verified, report.Summary)
	require.NotNil(t, report.Marque)
	assert.Equal(t, verify.StateAccepted, report.Marque.State)
}

func TestVerifyBundleMissingManifest(t *testing.T) {
	dir := t.TempDir()
	report, err := verify.VerifyBundle(context.Background(), dir, verify.Options{})
	require.NoError(t, err)
	assert.False(t, report.Verified)
}

func TestVerifyBundleDetectsChainTamper(t *testing.T) {
	issuedAt := time.Now()
	token, ks := signTestMarque(t, issuedAt, "soc2")

	chainObj := receipts.NewChain()
	_, err := chainObj.Append(receipts.StepRecord{
		Step: receipts.StepIngest, Input: "in", Output: "out",
		Reproducible: true, CodeVersion: "v1",
	})
	require.NoError(t, err)
	_, chain, err := chainObj.Seal()
	require.NoError(t, err)

	dir := writeBundle(t, token, chain, "not-the-real-digest")

	report, err := verify.VerifyBundle(context.Background(), dir, verify.Options{
		Resolver: stubResolver{pub: ks.PublicKey(), tier: verify.TierDIDWeb},
	})
	require.NoError(t, err)
	assert.False(t, report.Verified)
}
