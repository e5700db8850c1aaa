package mapping_test

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/mapping"
)

func TestSignAndVerifyPack(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	mappings := []*mapping.Mapping{
		{ID: "m1", Match: mapping.Match{AllOf: []string{"kind"}}, Controls: &mapping.ControlsSpec{Path: "controls"}},
	}
	info := mapping.PackInfo{ID: "acme-pack", Version: "1.0.0", IssuedAt: time.Unix(1780000000, 0).UTC()}

	pack, err := mapping.SignPack(info, mappings, priv)
	require.NoError(t, err)
	require.NoError(t, mapping.VerifyPack(pack, pub))

	raw, err := json.Marshal(pack)
	require.NoError(t, err)
	loaded, err := mapping.LoadPack(raw, pub)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "m1", loaded[0].ID)
}

func TestVerifyPack_RejectsTamperedMapping(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	mappings := []*mapping.Mapping{
		{ID: "m1", Match: mapping.Match{AllOf: []string{"kind"}}, Controls: &mapping.ControlsSpec{Path: "controls"}},
	}
	pack, err := mapping.SignPack(mapping.PackInfo{ID: "acme-pack", Version: "1.0.0"}, mappings, priv)
	require.NoError(t, err)

	pack.Mappings[0].Priority = 999 // tamper after signing

	assert.Error(t, mapping.VerifyPack(pack, pub))
}

func TestVerifyPack_WrongKeyRejected(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	pack, err := mapping.SignPack(mapping.PackInfo{ID: "p", Version: "1"}, nil, priv)
	require.NoError(t, err)

	assert.NoError(t, mapping.VerifyPack(pack, pub))
	assert.Error(t, mapping.VerifyPack(pack, otherPub))
}
