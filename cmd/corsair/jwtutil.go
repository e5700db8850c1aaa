package main

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// unverifiedClaims decodes a compact JWT-VC's claims without checking its
// signature — used by commands that only need to read the credential
// (`diff`) and leave cryptographic trust to an explicit `--verify` flag.
func unverifiedClaims(raw []byte) (map[string]any, error) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(string(raw), claims)
	if err != nil {
		return nil, fmt.Errorf("parse marque: %w", err)
	}

	// Round-trip through encoding/json so nested VC fields (already
	// jwt.MapClaims's native map[string]any) normalize to the plain
	// map[string]any shape the rest of the CLI expects.
	out := map[string]any(claims)
	raw2, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	var normalized map[string]any
	if err := json.Unmarshal(raw2, &normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}
