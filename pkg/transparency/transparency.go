// Package transparency implements the Transparency Client (§4.9):
// append-only registration of CPOEs (or hash commitments) to an external
// log, RFC 6962 inclusion-proof verification, and trust.txt discovery of
// an issuer's advertised endpoints.
package transparency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/corsair-io/corsair/pkg/netguard"
)

// Entry is one transparency-log record: either the full signed marque or,
// in proof-only mode, just a hash commitment.
type Entry struct {
	LogID          string          `json:"logId"`
	LogIndex       int64           `json:"logIndex"`
	IntegratedTime int64           `json:"integratedTime"`
	ProofOnly      bool            `json:"proofOnly"`
	InclusionProof *InclusionProof `json:"inclusionProof,omitempty"`
}

// InclusionProof proves an entry's membership in the log's Merkle tree
// per RFC 6962.
type InclusionProof struct {
	LogIndex int64    `json:"logIndex"`
	RootHash string   `json:"rootHash"`
	TreeSize int64    `json:"treeSize"`
	Hashes   []string `json:"hashes"`
}

// Client registers and verifies entries against one transparency log.
type Client struct {
	LogURL     string
	HTTPClient *http.Client
}

// NewClient returns a Client whose HTTP transport is SSRF-guarded, since
// logURL is typically discovered from an issuer's untrusted trust.txt.
func NewClient(logURL string) *Client {
	return &Client{LogURL: logURL, HTTPClient: netguard.Client(10 * time.Second)}
}

// registrationRequest is the POST body for <log>/entries.
type registrationRequest struct {
	Marque     string `json:"marque,omitempty"`
	Commitment string `json:"commitment,omitempty"`
}

// Register appends marque (the raw JWT-VC bytes) to the log, or — in
// proof-only mode — just its sha256 commitment, per §4.9. It returns the
// entry the log assigned.
func (c *Client) Register(ctx context.Context, marque []byte, proofOnly bool) (*Entry, error) {
	if c.LogURL == "" {
		return nil, fmt.Errorf("transparency: log URL is required")
	}
	u, err := netguard.ValidatedHTTPSURL(c.LogURL)
	if err != nil {
		return nil, err
	}

	req := registrationRequest{}
	if proofOnly {
		sum := sha256.Sum256(marque)
		req.Commitment = hex.EncodeToString(sum[:])
	} else {
		req.Marque = string(marque)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("transparency: encode registration request: %w", err)
	}

	endpoint := strings.TrimRight(u.String(), "/") + "/entries"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transparency: build registration request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transparency: register entry: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("transparency: log returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("transparency: read registration response: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(respBody, &entry); err != nil {
		return nil, fmt.Errorf("transparency: parse registration response: %w", err)
	}
	entry.ProofOnly = proofOnly
	return &entry, nil
}

// computeLeafHash computes the RFC 6962 leaf hash: SHA256(0x00 || data).
func computeLeafHash(data []byte) []byte {
	hasher := sha256.New()
	hasher.Write([]byte{0x00})
	hasher.Write(data)
	return hasher.Sum(nil)
}

// computeNodeHash computes the RFC 6962 internal node hash:
// SHA256(0x01 || left || right).
func computeNodeHash(left, right []byte) []byte {
	hasher := sha256.New()
	hasher.Write([]byte{0x01})
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(nil)
}

// VerifyInclusionProof reconstructs the Merkle root from leafData and
// proof, and reports whether it matches proof.RootHash.
func VerifyInclusionProof(leafData []byte, proof *InclusionProof) error {
	if proof == nil {
		return fmt.Errorf("transparency: nil inclusion proof")
	}

	current := computeLeafHash(leafData)
	index, last := proof.LogIndex, proof.TreeSize-1
	for i, hashStr := range proof.Hashes {
		sibling, err := base64.StdEncoding.DecodeString(hashStr)
		if err != nil {
			return fmt.Errorf("transparency: decode proof hash %d: %w", i, err)
		}
		if index%2 == 0 && index != last {
			current = computeNodeHash(current, sibling)
		} else {
			current = computeNodeHash(sibling, current)
			for index%2 == 0 && index != 0 {
				index /= 2
				last /= 2
			}
		}
		index /= 2
		last /= 2
	}

	computedRoot := base64.StdEncoding.EncodeToString(current)
	if computedRoot != proof.RootHash {
		return fmt.Errorf("transparency: root hash mismatch: expected %s, got %s", proof.RootHash, computedRoot)
	}
	return nil
}
