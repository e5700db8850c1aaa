// Package events implements the lifecycle event contract (§4.11): every
// state change CORSAIR emits, from marque issuance through expiry and
// revocation, is one Event dispatched in lifecycle order.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type is one of the eight lifecycle events §4.11 names.
type Type string

const (
	TypeCPOESigned    Type = "cpoe.signed"
	TypeCPOEVerified  Type = "cpoe.verified"
	TypeCPOEExpired   Type = "cpoe.expired"
	TypeCPOERevoked   Type = "cpoe.revoked"
	TypeScoreChanged  Type = "score.changed"
	TypeScoreDegraded Type = "score.degraded"
	TypeDriftDetected Type = "drift.detected"
	TypeKeyRotated    Type = "key.rotated"
)

// apiVersion is stamped on every event so a webhook consumer can
// discriminate payload shape changes across CORSAIR releases.
const apiVersion = "2.1"

// Event is the wire shape of one dispatched lifecycle event.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	Data       map[string]any `json:"data"`
	APIVersion string         `json:"apiVersion"`
}

// New constructs an Event with a fresh UUIDv4 id, stamped at now.
func New(typ Type, now time.Time, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Timestamp:  now.UTC(),
		Data:       data,
		APIVersion: apiVersion,
	}
}

// Sink receives dispatched events. Recorder is the implementation in this
// module; an implementation must not block the caller indefinitely, and
// Publish is expected to enqueue and return.
type Sink interface {
	Publish(Event) error
}

// Recorder is an in-memory Sink that preserves dispatch order, used by
// tests and by any caller that wants a synchronous local event log
// without standing up the durable webhook queue.
type Recorder struct {
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(e Event) error {
	r.events = append(r.events, e)
	return nil
}

// Events returns every event published so far, in dispatch order.
func (r *Recorder) Events() []Event {
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Sequence validates that events for one jti were dispatched in the
// lifecycle order §5 requires: "signed" before any "score.changed" or
// "drift.detected"; "expired" or "revoked" last.
func Sequence(jti string, events []Event) bool {
	var sawSigned, sawTerminal bool
	for _, e := range events {
		id, _ := e.Data["jti"].(string)
		if id != jti {
			continue
		}
		if sawTerminal {
			return false
		}
		switch e.Type {
		case TypeCPOESigned:
			sawSigned = true
		case TypeScoreChanged, TypeDriftDetected:
			if !sawSigned {
				return false
			}
		case TypeCPOEExpired, TypeCPOERevoked:
			sawTerminal = true
		}
	}
	return true
}
