// Package webhook implements the Webhook Manager (§4.11-4.12):
// HMAC-signed at-least-once delivery of lifecycle events to registered
// endpoints, with exponential backoff per delivery (there is no circuit
// breaker), adapted from the resiliency client's EnhancedClient idiom.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/corsair-io/corsair/pkg/events"
)

// Status is a delivery row's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusExhausted Status = "exhausted"
)

// Endpoint is one webhook registration (§4.11).
type Endpoint struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Secret    string    `json:"secret"`
	Events    []events.Type `json:"events"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscribes reports whether e should receive typ.
func (e Endpoint) Subscribes(typ events.Type) bool {
	if !e.Active {
		return false
	}
	for _, t := range e.Events {
		if t == typ {
			return true
		}
	}
	return false
}

// Delivery is the durable unit of at-least-once delivery state: one
// attempted (or pending) POST of one event to one endpoint.
type Delivery struct {
	ID          string    `json:"id"`
	EndpointID  string    `json:"endpointId"`
	Event       events.Event `json:"event"`
	Attempts    int       `json:"attempts"`
	NextRetryAt time.Time `json:"nextRetryAt"`
	Status      Status    `json:"status"`
}

const (
	defaultSignatureHeader = "X-Corsair-Signature"
	defaultMaxRetries      = 5
	defaultRetryBackoffMs  = 500
)

// Manager dispatches events to every subscribed, active endpoint and
// retries failed deliveries under exponential backoff until maxRetries
// is exhausted.
type Manager struct {
	mu             sync.Mutex
	httpClient     *http.Client
	signatureHdr   string
	maxRetries     int
	retryBackoffMs int
	deliveries     map[string]*Delivery
	store          *Store
}

// NewManager returns a Manager with the §4.11 defaults: signature header
// "X-Corsair-Signature", exponential backoff of retryBackoffMs·2^(n-1).
// Deliveries are held in memory only; use NewManagerWithStore for durable
// at-least-once delivery across restarts.
func NewManager() *Manager {
	return &Manager{
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		signatureHdr:   defaultSignatureHeader,
		maxRetries:     defaultMaxRetries,
		retryBackoffMs: defaultRetryBackoffMs,
		deliveries:     make(map[string]*Delivery),
	}
}

// NewManagerWithStore returns a Manager that persists every delivery
// attempt to store, so a restarted process can resume pending retries
// instead of silently dropping them.
func NewManagerWithStore(store *Store) *Manager {
	m := NewManager()
	m.store = store
	return m
}

// Dispatch delivers e to every endpoint subscribed to its type, each
// retried independently under its own backoff schedule. It returns once
// every endpoint has either succeeded, terminally failed (4xx other than
// 408/429), or exhausted its retries. Endpoints are served one after
// another, each in its own backoff.Retry loop, so a slow endpoint delays
// the endpoints after it.
func (m *Manager) Dispatch(ctx context.Context, e events.Event, endpoints []Endpoint) []*Delivery {
	var results []*Delivery
	for _, ep := range endpoints {
		if !ep.Subscribes(e.Type) {
			continue
		}
		results = append(results, m.deliverOne(ctx, ep, e))
	}
	return results
}

func (m *Manager) deliverOne(ctx context.Context, ep Endpoint, e events.Event) *Delivery {
	d := &Delivery{ID: e.ID + ":" + ep.ID, EndpointID: ep.ID, Event: e, Status: StatusPending}
	m.mu.Lock()
	m.deliveries[d.ID] = d
	m.mu.Unlock()

	body, err := json.Marshal(e)
	if err != nil {
		d.Status = StatusFailed
		return d
	}
	signature := sign(ep.Secret, body)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(m.retryBackoffMs) * time.Millisecond
	b.Multiplier = 2
	b.RandomizationFactor = 0.2

	operation := func() (struct{}, error) {
		d.Attempts++
		resp, err := m.post(ctx, ep.URL, body, signature)
		if err != nil {
			m.persist(ctx, d)
			return struct{}{}, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode < 300:
			d.Status = StatusDelivered
			m.persist(ctx, d)
			return struct{}{}, nil
		case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests:
			m.persist(ctx, d)
			return struct{}{}, fmt.Errorf("webhook: endpoint %s returned retryable status %d", ep.ID, resp.StatusCode)
		case resp.StatusCode >= 500:
			m.persist(ctx, d)
			return struct{}{}, fmt.Errorf("webhook: endpoint %s returned status %d", ep.ID, resp.StatusCode)
		default:
			d.Status = StatusFailed
			m.persist(ctx, d)
			return struct{}{}, backoff.Permanent(fmt.Errorf("webhook: endpoint %s returned terminal status %d", ep.ID, resp.StatusCode))
		}
	}

	_, err = backoff.Retry(ctx, operation, backoff.WithBackOff(b), backoff.WithMaxTries(uint(m.maxRetries)))
	if err != nil && d.Status == StatusPending {
		d.Status = StatusExhausted
		m.persist(ctx, d)
	}
	d.NextRetryAt = time.Time{}
	return d
}

// persist saves d to the durable store if one is configured. Store errors
// are swallowed: losing the durability record of one attempt must never
// block the delivery loop itself.
func (m *Manager) persist(ctx context.Context, d *Delivery) {
	if m.store == nil {
		return
	}
	_ = m.store.Save(ctx, d)
}

func (m *Manager) post(ctx context.Context, url string, body []byte, signature string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(m.signatureHdr, signature)
	return m.httpClient.Do(req)
}

// sign computes the hex-encoded HMAC-SHA256 of body using secret, per
// §4.11's delivery signature requirement.
func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature is the correct HMAC-SHA256
// over body under secret, for a webhook receiver validating deliveries.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected := sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Deliveries returns a snapshot of every delivery attempted so far, for
// inspection by the event store.
func (m *Manager) Deliveries() []*Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Delivery, 0, len(m.deliveries))
	for _, d := range m.deliveries {
		out = append(out, d)
	}
	return out
}
