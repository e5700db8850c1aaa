package transparency

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/corsair-io/corsair/pkg/netguard"
)

// TrustFile is the parsed form of an issuer's
// "/.well-known/trust.txt" discovery file (§4.9): a line-oriented,
// "=key=value" file naming the issuer's endpoints. Unknown keys are kept
// in Extra and ignored by everything but `trust-txt generate|discover`.
type TrustFile struct {
	CPOE       string
	SCITT      string
	Policy     string
	Frameworks []string
	Extra      map[string]string
}

// Discover fetches and parses "<domain>/.well-known/trust.txt" over an
// SSRF-guarded HTTPS client.
func Discover(ctx context.Context, domain string) (*TrustFile, error) {
	u, err := netguard.ValidatedHTTPSURL("https://" + domain + "/.well-known/trust.txt")
	if err != nil {
		return nil, err
	}

	client := netguard.Client(10 * time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("transparency: build trust.txt request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transparency: fetch trust.txt: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transparency: trust.txt fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("transparency: read trust.txt: %w", err)
	}
	return ParseTrustFile(body), nil
}

// ParseTrustFile parses the "=key=value" line format directly, for tests
// and for `trust-txt generate` round-tripping its own output.
func ParseTrustFile(raw []byte) *TrustFile {
	tf := &TrustFile{Extra: make(map[string]string)}
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "=") {
			continue
		}
		rest := strings.TrimPrefix(line, "=")
		parts := strings.SplitN(rest, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, value := parts[0], parts[1]
		switch key {
		case "cpoe":
			tf.CPOE = value
		case "scitt":
			tf.SCITT = value
		case "policy":
			tf.Policy = value
		case "frameworks":
			tf.Frameworks = strings.Split(value, ",")
		default:
			tf.Extra[key] = value
		}
	}
	return tf
}

// Generate renders tf back into the "=key=value" line format.
func Generate(tf *TrustFile) []byte {
	var sb strings.Builder
	writeLine := func(key, value string) {
		if value == "" {
			return
		}
		sb.WriteString("=")
		sb.WriteString(key)
		sb.WriteString("=")
		sb.WriteString(value)
		sb.WriteString("\n")
	}
	writeLine("cpoe", tf.CPOE)
	writeLine("scitt", tf.SCITT)
	writeLine("policy", tf.Policy)
	if len(tf.Frameworks) > 0 {
		writeLine("frameworks", strings.Join(tf.Frameworks, ","))
	}
	for k, v := range tf.Extra {
		writeLine(k, v)
	}
	return []byte(sb.String())
}
