package identity

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	privateKeyFile = "ed25519.pem"
	publicKeyFile  = "ed25519.pub"
	privateKeyPerm = 0o600
	publicKeyPerm  = 0o644
)

// KeyManager owns the issuer's Ed25519 keypair: file-backed storage under
// a key directory, lazy load-on-first-use, and generate-if-absent. It is
// the process's only writer of the private key file.
type KeyManager struct {
	mu  sync.Mutex
	dir string
	set *InMemoryKeySet
}

// NewKeyManager opens (or lazily creates) the key manager for dir. No key
// material is read or generated until Acquire is first called.
func NewKeyManager(dir string) *KeyManager {
	return &KeyManager{dir: dir}
}

// Acquire returns the active KeySet, loading it from disk or generating
// and persisting a new keypair if none exists. Safe for concurrent use;
// the first caller pays the load/generate cost.
func (km *KeyManager) Acquire() (*InMemoryKeySet, error) {
	km.mu.Lock()
	defer km.mu.Unlock()
	if km.set != nil {
		return km.set, nil
	}

	privPath := filepath.Join(km.dir, privateKeyFile)
	if _, err := os.Stat(privPath); err == nil {
		ks, err := km.load(privPath)
		if err != nil {
			return nil, err
		}
		km.set = ks
		return ks, nil
	}

	ks, err := km.generateAndPersist()
	if err != nil {
		return nil, err
	}
	km.set = ks
	return ks, nil
}

func (km *KeyManager) load(privPath string) (*InMemoryKeySet, error) {
	data, err := os.ReadFile(privPath)
	if err != nil {
		return nil, fmt.Errorf("identity: read private key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("identity: invalid PEM in %s", privPath)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("identity: parse private key: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("identity: key in %s is not Ed25519", privPath)
	}
	return NewInMemoryKeySet("key-1", priv), nil
}

func (km *KeyManager) generateAndPersist() (*InMemoryKeySet, error) {
	ks, err := GenerateInMemoryKeySet()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(km.dir, 0o700); err != nil {
		return nil, fmt.Errorf("identity: create key dir: %w", err)
	}

	pkcs8, err := x509.MarshalPKCS8PrivateKey(ks.private)
	if err != nil {
		return nil, fmt.Errorf("identity: marshal private key: %w", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})
	if err := os.WriteFile(filepath.Join(km.dir, privateKeyFile), privPEM, privateKeyPerm); err != nil {
		return nil, fmt.Errorf("identity: write private key: %w", err)
	}

	pubBytes, err := x509.MarshalPKIXPublicKey(ks.public)
	if err != nil {
		return nil, fmt.Errorf("identity: marshal public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	if err := os.WriteFile(filepath.Join(km.dir, publicKeyFile), pubPEM, publicKeyPerm); err != nil {
		return nil, fmt.Errorf("identity: write public key: %w", err)
	}

	return ks, nil
}
