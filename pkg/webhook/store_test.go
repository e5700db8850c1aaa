package webhook

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/corsair-io/corsair/pkg/events"
)

// newMockStore builds a Store backed by a sqlmock connection rather than a
// real database, for exercising Save/Load's SQL shape without standing up
// Postgres or SQLite.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS webhook_deliveries").
		WillReturnResult(sqlmock.NewResult(0, 0))
	s := &Store{db: db, driver: "postgres"}
	require.NoError(t, s.migrate())
	return s, mock
}

func TestStoreSaveUpsertsDelivery(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.Close()

	d := &Delivery{
		ID:         "evt-1:ep-1",
		EndpointID: "ep-1",
		Event: events.Event{
			ID:        "evt-1",
			Type:      events.TypeCPOESigned,
			Timestamp: time.Now().UTC(),
		},
		Attempts: 1,
		Status:   StatusDelivered,
	}

	mock.ExpectExec("INSERT INTO webhook_deliveries").
		WithArgs(d.ID, d.EndpointID, sqlmock.AnyArg(), d.Attempts, string(d.Status)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Save(context.Background(), d))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreLoadDecodesRows(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.Close()

	eventJSON := `{"id":"evt-2","type":"cpoe.signed","timestamp":"2026-01-01T00:00:00Z","apiVersion":"2.1"}`
	rows := sqlmock.NewRows([]string{"id", "endpoint_id", "event_json", "attempts", "status"}).
		AddRow("evt-2:ep-1", "ep-1", eventJSON, 2, "failed")
	mock.ExpectQuery("SELECT id, endpoint_id, event_json, attempts, status FROM webhook_deliveries").
		WillReturnRows(rows)

	deliveries, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	require.Equal(t, "ep-1", deliveries[0].EndpointID)
	require.Equal(t, StatusFailed, deliveries[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
