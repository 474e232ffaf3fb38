package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	// EventAlert is a user-facing, non-blocking notification (toast).
	EventAlert EventType = "alert"
	// EventConnectionLost fires when the realtime transport drops.
	EventConnectionLost EventType = "connection_lost"
	// EventConnectionRestored fires when the transport recovers.
	EventConnectionRestored EventType = "connection_restored"
	// EventConnectionFailed fires once when the reconnect budget is spent.
	EventConnectionFailed EventType = "connection_failed"
)

// Severity grades user-facing alerts.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event represents a notification emitted by the core for consumers such
// as the toast sink. Delivery is fire-and-forget.
type Event struct {
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewAlert builds an alert event stamped with the current time.
func NewAlert(severity Severity, message string) Event {
	return Event{
		Type:      EventAlert,
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now(),
	}
}
