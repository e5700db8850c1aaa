package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/corsair-io/corsair/pkg/events"
)

func TestNewStampsIDAndAPIVersion(t *testing.T) {
	e := events.New(events.TypeCPOESigned, time.Now(), map[string]any{"jti": "marque-1"})
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "2.1", e.APIVersion)
	assert.Equal(t, events.TypeCPOESigned, e.Type)
}

func TestRecorderPreservesOrder(t *testing.T) {
	r := events.NewRecorder()
	_ = r.Publish(events.New(events.TypeCPOESigned, time.Now(), nil))
	_ = r.Publish(events.New(events.TypeScoreChanged, time.Now(), nil))
	got := r.Events()
	assert.Len(t, got, 2)
	assert.Equal(t, events.TypeCPOESigned, got[0].Type)
	assert.Equal(t, events.TypeScoreChanged, got[1].Type)
}

func TestSequenceRejectsScoreChangedBeforeSigned(t *testing.T) {
	now := time.Now()
	seq := []events.Event{
		events.New(events.TypeScoreChanged, now, map[string]any{"jti": "marque-1"}),
		events.New(events.TypeCPOESigned, now, map[string]any{"jti": "marque-1"}),
	}
	assert.False(t, events.Sequence("marque-1", seq))
}

func TestSequenceAcceptsValidLifecycle(t *testing.T) {
	now := time.Now()
	seq := []events.Event{
		events.New(events.TypeCPOESigned, now, map[string]any{"jti": "marque-1"}),
		events.New(events.TypeScoreChanged, now, map[string]any{"jti": "marque-1"}),
		events.New(events.TypeDriftDetected, now, map[string]any{"jti": "marque-1"}),
		events.New(events.TypeCPOERevoked, now, map[string]any{"jti": "marque-1"}),
	}
	assert.True(t, events.Sequence("marque-1", seq))
}

func TestSequenceRejectsEventsAfterTerminal(t *testing.T) {
	now := time.Now()
	seq := []events.Event{
		events.New(events.TypeCPOESigned, now, map[string]any{"jti": "marque-1"}),
		events.New(events.TypeCPOERevoked, now, map[string]any{"jti": "marque-1"}),
		events.New(events.TypeScoreChanged, now, map[string]any{"jti": "marque-1"}),
	}
	assert.False(t, events.Sequence("marque-1", seq))
}
