// Package receipts implements the process-receipt chain: a hash-linked,
// append-only record of each pipeline step (ingest, classify, chart,
// marque) binding its input digest to its output digest.
package receipts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/corsair-io/corsair/pkg/canonicalize"
)

// Step names one of the four pipeline stages a receipt may record.
type Step string

const (
	StepIngest   Step = "ingest"
	StepClassify Step = "classify"
	StepChart    Step = "chart"
	StepMarque   Step = "marque"
)

// LLMAttestation accompanies a non-reproducible step.
type LLMAttestation struct {
	Model        string  `json:"model"`
	PromptDigest string  `json:"promptDigest"`
	Temperature  float64 `json:"temperature"`
}

// Receipt is one entry in the chain. Its receiptDigest covers every other
// field, so receiptDigest is computed last and is never itself hashed.
type Receipt struct {
	Step           Step            `json:"step"`
	InputDigest    string          `json:"inputDigest"`
	OutputDigest   string          `json:"outputDigest"`
	Reproducible   bool            `json:"reproducible"`
	CodeVersion    string          `json:"codeVersion,omitempty"`
	LLMAttestation *LLMAttestation `json:"llmAttestation,omitempty"`
	PreviousDigest *string         `json:"previousDigest"`
	ReceiptDigest  string          `json:"receiptDigest"`
}

// digestInput is the subset of Receipt hashed to produce ReceiptDigest.
type digestInput struct {
	Step           Step            `json:"step"`
	InputDigest    string          `json:"inputDigest"`
	OutputDigest   string          `json:"outputDigest"`
	Reproducible   bool            `json:"reproducible"`
	CodeVersion    string          `json:"codeVersion,omitempty"`
	LLMAttestation *LLMAttestation `json:"llmAttestation,omitempty"`
	PreviousDigest *string         `json:"previousDigest"`
}

// DigestOf computes the SHA-256 hex digest of the RFC 8785 canonical form
// of v. Used for both receipt input/output digests and the receipt's own
// digest.
func DigestOf(v any) (string, error) {
	canon, err := canonicalize.JCS(v)
	if err != nil {
		return "", fmt.Errorf("receipts: canonicalize: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// Chain is an in-progress, single-writer receipt chain for one document's
// pipeline run. It is sealed exactly once, after which no further
// receipts may be appended.
type Chain struct {
	mu       sync.Mutex
	receipts []Receipt
	sealed   bool
}

// NewChain returns an empty, unsealed chain.
func NewChain() *Chain {
	return &Chain{}
}

// StepRecord is the input to Append: a single pipeline step's recorded
// input/output and its reproducibility attestation.
type StepRecord struct {
	Step           Step
	Input          any
	Output         any
	Reproducible   bool
	CodeVersion    string
	LLMAttestation *LLMAttestation
}

// Append computes digests for rec and links it to the prior receipt,
// returning the new Receipt. Fails if the chain is already sealed, or if
// the attestation invariant is violated: a reproducible step must carry a
// codeVersion, a non-reproducible step must carry an llmAttestation.
func (c *Chain) Append(rec StepRecord) (Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return Receipt{}, fmt.Errorf("receipts: chain is sealed")
	}
	if rec.Reproducible && rec.CodeVersion == "" {
		return Receipt{}, fmt.Errorf("receipts: reproducible step %q missing codeVersion", rec.Step)
	}
	if !rec.Reproducible && rec.LLMAttestation == nil {
		return Receipt{}, fmt.Errorf("receipts: non-reproducible step %q missing llmAttestation", rec.Step)
	}

	inDigest, err := DigestOf(rec.Input)
	if err != nil {
		return Receipt{}, err
	}
	outDigest, err := DigestOf(rec.Output)
	if err != nil {
		return Receipt{}, err
	}

	var prev *string
	if n := len(c.receipts); n > 0 {
		p := c.receipts[n-1].ReceiptDigest
		prev = &p
	}

	di := digestInput{
		Step:           rec.Step,
		InputDigest:    inDigest,
		OutputDigest:   outDigest,
		Reproducible:   rec.Reproducible,
		CodeVersion:    rec.CodeVersion,
		LLMAttestation: rec.LLMAttestation,
		PreviousDigest: prev,
	}
	rDigest, err := DigestOf(di)
	if err != nil {
		return Receipt{}, err
	}

	receipt := Receipt{
		Step:           rec.Step,
		InputDigest:    inDigest,
		OutputDigest:   outDigest,
		Reproducible:   rec.Reproducible,
		CodeVersion:    rec.CodeVersion,
		LLMAttestation: rec.LLMAttestation,
		PreviousDigest: prev,
		ReceiptDigest:  rDigest,
	}
	c.receipts = append(c.receipts, receipt)
	return receipt, nil
}

// Seal freezes the chain and returns its chain digest: the SHA-256 of the
// canonical JSON array of all receipts. Once sealed, Append always fails.
// Sealing is the only way to obtain a ChainDigest, so a cancelled pipeline
// run (see the concurrency model) never leaves a partial receipt bound
// into a credential.
func (c *Chain) Seal() (chainDigest string, receipts []Receipt, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.receipts) == 0 {
		return "", nil, fmt.Errorf("receipts: cannot seal an empty chain")
	}
	digest, err := DigestOf(c.receipts)
	if err != nil {
		return "", nil, err
	}
	c.sealed = true
	out := make([]Receipt, len(c.receipts))
	copy(out, c.receipts)
	return digest, out, nil
}

// Sealed reports whether the chain has been sealed.
func (c *Chain) Sealed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sealed
}

// Receipts returns a snapshot of the receipts appended so far.
func (c *Chain) Receipts() []Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Receipt, len(c.receipts))
	copy(out, c.receipts)
	return out
}

// VerifyChainDigest recomputes the chain digest over receipts and reports
// whether it matches want. Used by the verifier's require-evidence-chain
// policy predicate.
func VerifyChainDigest(receipts []Receipt, want string) (bool, error) {
	got, err := DigestOf(receipts)
	if err != nil {
		return false, err
	}
	return got == want, nil
}
