package verify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DetectFormat classifies raw input as a compact JWT, an SD-JWT
// presentation ("jwt~disclosure~...~"), or a JSON envelope (a bare JSON
// object carrying the same claims unsigned, used for offline/dry-run
// inspection only — never accepted as proof of a signature).
func DetectFormat(raw []byte) (Format, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return "", fmt.Errorf("verify: empty input")
	}

	if strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return "", fmt.Errorf("verify: input looks like JSON but does not parse: %w", err)
		}
		return FormatJSONEnvelope, nil
	}

	if strings.Contains(s, "~") {
		jwtPart := strings.SplitN(s, "~", 2)[0]
		if countDots(jwtPart) == 2 {
			return FormatSDJWT, nil
		}
		return "", fmt.Errorf("verify: malformed sd-jwt presentation")
	}

	if countDots(s) == 2 {
		return FormatJWT, nil
	}

	return "", fmt.Errorf("verify: unrecognized marque format")
}

func countDots(s string) int {
	n := 0
	for _, r := range s {
		if r == '.' {
			n++
		}
	}
	return n
}
