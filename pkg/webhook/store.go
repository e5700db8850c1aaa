package webhook

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/corsair-io/corsair/pkg/events"
)

// Store persists Delivery rows so a restarted Manager can resume
// at-least-once delivery instead of losing in-flight retries.
type Store struct {
	db     *sql.DB
	driver string
}

// OpenStore opens the durable delivery store. An empty databaseURL selects
// the pure-Go modernc.org/sqlite driver against a local file, the same
// fallback shape as the teacher's server bootstrap: lib/pq when
// DATABASE_URL is set, sqlite otherwise.
func OpenStore(databaseURL string) (*Store, error) {
	driver := "sqlite"
	dsn := databaseURL
	if dsn == "" {
		dsn = "file:corsair-webhook.db?cache=shared"
	} else {
		driver = "postgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("webhook: open store: %w", err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS webhook_deliveries (
	id TEXT PRIMARY KEY,
	endpoint_id TEXT NOT NULL,
	event_json TEXT NOT NULL,
	attempts INTEGER NOT NULL,
	status TEXT NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("webhook: migrate store: %w", err)
	}
	return nil
}

// Save upserts one delivery's current state.
func (s *Store) Save(ctx context.Context, d *Delivery) error {
	eventJSON, err := json.Marshal(d.Event)
	if err != nil {
		return fmt.Errorf("webhook: encode event: %w", err)
	}

	if s.driver == "postgres" {
		_, err = s.db.ExecContext(ctx, `
INSERT INTO webhook_deliveries (id, endpoint_id, event_json, attempts, status)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET attempts = $4, status = $5`,
			d.ID, d.EndpointID, string(eventJSON), d.Attempts, string(d.Status))
	} else {
		_, err = s.db.ExecContext(ctx, `
INSERT INTO webhook_deliveries (id, endpoint_id, event_json, attempts, status)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET attempts = excluded.attempts, status = excluded.status`,
			d.ID, d.EndpointID, string(eventJSON), d.Attempts, string(d.Status))
	}
	if err != nil {
		return fmt.Errorf("webhook: save delivery: %w", err)
	}
	return nil
}

// Load returns every persisted delivery, for resuming a Manager after a
// restart.
func (s *Store) Load(ctx context.Context) ([]*Delivery, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, endpoint_id, event_json, attempts, status FROM webhook_deliveries`)
	if err != nil {
		return nil, fmt.Errorf("webhook: load deliveries: %w", err)
	}
	defer rows.Close()

	var out []*Delivery
	for rows.Next() {
		var id, endpointID, eventJSON, status string
		var attempts int
		if err := rows.Scan(&id, &endpointID, &eventJSON, &attempts, &status); err != nil {
			return nil, fmt.Errorf("webhook: scan delivery: %w", err)
		}
		var e events.Event
		if err := json.Unmarshal([]byte(eventJSON), &e); err != nil {
			return nil, fmt.Errorf("webhook: decode event: %w", err)
		}
		out = append(out, &Delivery{
			ID: id, EndpointID: endpointID, Event: e,
			Attempts: attempts, Status: Status(status),
		})
	}
	return out, rows.Err()
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
