package services

import "time"

const (
	EventSessionCreated  = "session_created"
	EventStatusChanged   = "status_changed"
	EventPayoutsComputed = "payouts_computed"
	EventSessionsPaid    = "sessions_paid"
)

// SessionEvent is broadcast over the live feed whenever sessions or payouts
// change. Admin connections receive every event; mentor connections only the
// events for their own mentor id.
type SessionEvent struct {
	Type      string    `json:"type"`
	MentorID  int64     `json:"mentor_id"`
	SessionID int64     `json:"session_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type EventPublisher interface {
	PublishSessionEvent(event SessionEvent)
}

// publish tolerates a nil publisher so services can run without the feed
// wired (tests, migrate command).
func publish(publisher EventPublisher, event SessionEvent) {
	if publisher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	publisher.PublishSessionEvent(event)
}
