package transparency_test

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/transparency"
)

// leafHash mirrors the package's own RFC 6962 leaf hash so a test can set
// up a one-leaf tree, whose root equals the leaf hash directly.
func leafHash(data []byte) string {
	h := sha256.New()
	h.Write([]byte{0x00})
	h.Write(data)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func TestVerifyInclusionProofSingleLeaf(t *testing.T) {
	leaf := []byte("marque-data")
	proof := &transparency.InclusionProof{LogIndex: 0, TreeSize: 1, RootHash: leafHash(leaf)}

	err := transparency.VerifyInclusionProof(leaf, proof)
	assert.NoError(t, err)
}

func TestVerifyInclusionProofWithSibling(t *testing.T) {
	left := []byte("left-leaf")
	right := []byte("right-leaf")

	leftHash := sha256.Sum256(append([]byte{0x00}, left...))
	rightHash := sha256.Sum256(append([]byte{0x00}, right...))
	root := sha256.Sum256(append(append([]byte{0x01}, leftHash[:]...), rightHash[:]...))

	proof := &transparency.InclusionProof{
		LogIndex: 0,
		TreeSize: 2,
		RootHash: base64.StdEncoding.EncodeToString(root[:]),
		Hashes:   []string{base64.StdEncoding.EncodeToString(rightHash[:])},
	}
	assert.NoError(t, transparency.VerifyInclusionProof(left, proof))
}

func TestVerifyInclusionProofRejectsMismatch(t *testing.T) {
	proof := &transparency.InclusionProof{LogIndex: 0, TreeSize: 1, RootHash: "not-the-real-root"}
	err := transparency.VerifyInclusionProof([]byte("marque-data"), proof)
	assert.Error(t, err)
}

func TestClientRegisterProofOnly(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEmpty(t, body["commitment"])
		assert.Empty(t, body["marque"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(transparency.Entry{LogID: "test-log", LogIndex: 42})
	}))
	defer srv.Close()

	client := &transparency.Client{LogURL: srv.URL, HTTPClient: srv.Client()}
	entry, err := client.Register(context.Background(), []byte("marque-bytes"), true)
	require.NoError(t, err)
	assert.Equal(t, int64(42), entry.LogIndex)
	assert.True(t, entry.ProofOnly)
}

func TestParseAndGenerateTrustFile(t *testing.T) {
	raw := []byte("=cpoe=https://issuer.example.com/cpoe\n=scitt=https://log.example.com\n=frameworks=soc2,dora\n=custom=value\n")
	tf := transparency.ParseTrustFile(raw)
	assert.Equal(t, "https://issuer.example.com/cpoe", tf.CPOE)
	assert.Equal(t, "https://log.example.com", tf.SCITT)
	assert.Equal(t, []string{"soc2", "dora"}, tf.Frameworks)
	assert.Equal(t, "value", tf.Extra["custom"])

	out := transparency.Generate(tf)
	roundTripped := transparency.ParseTrustFile(out)
	assert.Equal(t, tf.CPOE, roundTripped.CPOE)
	assert.Equal(t, tf.Frameworks, roundTripped.Frameworks)
}
