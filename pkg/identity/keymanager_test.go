package identity_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/identity"
)

func TestKeyManager_GenerateAndReload(t *testing.T) {
	dir := t.TempDir()
	km := identity.NewKeyManager(dir)

	ks, err := km.Acquire()
	require.NoError(t, err)
	require.NotNil(t, ks)

	info, err := os.Stat(filepath.Join(dir, "ed25519.pem"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	km2 := identity.NewKeyManager(dir)
	ks2, err := km2.Acquire()
	require.NoError(t, err)
	assert.Equal(t, ks.PublicKey(), ks2.PublicKey())
}

func TestKeyManager_SignAndVerify(t *testing.T) {
	dir := t.TempDir()
	km := identity.NewKeyManager(dir)
	ks, err := km.Acquire()
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{Subject: "marque-test"}
	signed, err := ks.Sign(context.Background(), claims)
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, ks.KeyFunc())
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "key-1", parsed.Header["kid"])
}

func TestDIDDocument_Shape(t *testing.T) {
	ks, err := identity.GenerateInMemoryKeySet()
	require.NoError(t, err)

	doc := identity.NewDIDDocument("issuer.example.com", ks.PublicKey())
	assert.Equal(t, "did:web:issuer.example.com", doc.ID)
	require.Len(t, doc.VerificationMethod, 1)
	vm := doc.VerificationMethod[0]
	assert.Equal(t, "did:web:issuer.example.com#key-1", vm.ID)
	assert.Equal(t, "Ed25519VerificationKey2020", vm.Type)
	assert.True(t, len(vm.PublicKeyMultibase) > 1)
	assert.Equal(t, byte('z'), vm.PublicKeyMultibase[0])
	assert.Contains(t, doc.AssertionMethod, vm.ID)
	assert.Contains(t, doc.Authentication, vm.ID)
}
