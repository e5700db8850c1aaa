package receipts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/receipts"
)

func TestChain_AppendAndSeal(t *testing.T) {
	c := receipts.NewChain()

	r1, err := c.Append(receipts.StepRecord{
		Step:         receipts.StepIngest,
		Input:        map[string]any{"a": 1},
		Output:       map[string]any{"b": 2},
		Reproducible: true,
		CodeVersion:  "ingest@1",
	})
	require.NoError(t, err)
	assert.Nil(t, r1.PreviousDigest)
	assert.NotEmpty(t, r1.ReceiptDigest)

	r2, err := c.Append(receipts.StepRecord{
		Step:         receipts.StepClassify,
		Input:        map[string]any{"b": 2},
		Output:       map[string]any{"c": 3},
		Reproducible: true,
		CodeVersion:  "classify@1",
	})
	require.NoError(t, err)
	require.NotNil(t, r2.PreviousDigest)
	assert.Equal(t, r1.ReceiptDigest, *r2.PreviousDigest)

	digest, all, err := c.Seal()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.NotEmpty(t, digest)

	ok, err := receipts.VerifyChainDigest(all, digest)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.Append(receipts.StepRecord{Step: receipts.StepChart, Input: 1, Output: 2, Reproducible: true, CodeVersion: "x"})
	assert.Error(t, err, "sealed chain must reject further appends")
}

func TestChain_AttestationInvariant(t *testing.T) {
	c := receipts.NewChain()

	_, err := c.Append(receipts.StepRecord{
		Step:         receipts.StepIngest,
		Input:        1,
		Output:       2,
		Reproducible: true,
	})
	assert.Error(t, err, "reproducible step without codeVersion must be rejected")

	_, err = c.Append(receipts.StepRecord{
		Step:         receipts.StepChart,
		Input:        1,
		Output:       2,
		Reproducible: false,
	})
	assert.Error(t, err, "non-reproducible step without llmAttestation must be rejected")
}

func TestChain_PrefixDigestDiffers(t *testing.T) {
	c := receipts.NewChain()
	_, err := c.Append(receipts.StepRecord{Step: receipts.StepIngest, Input: 1, Output: 2, Reproducible: true, CodeVersion: "v1"})
	require.NoError(t, err)
	prefixDigest, _ := receipts.DigestOf(c.Receipts())

	_, err = c.Append(receipts.StepRecord{Step: receipts.StepClassify, Input: 2, Output: 3, Reproducible: true, CodeVersion: "v1"})
	require.NoError(t, err)

	fullDigest, all, err := c.Seal()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.NotEqual(t, prefixDigest, fullDigest)
}
