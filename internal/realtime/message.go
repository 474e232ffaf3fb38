package realtime

// MessageType discriminates inbound frames on the notification stream.
type MessageType string

const (
	MessageNewApplication     MessageType = "new_application"
	MessageApplicationCreated MessageType = "application_created"
	MessageStatusChanged      MessageType = "application_status_changed"
	MessageApplicationUpdated MessageType = "application_updated"
	MessageNotification       MessageType = "notification"
)

// Message is an inbound frame from the notification stream: a tagged union
// with an optional structured payload and an optional display text. Unknown
// types are not errors; consumers ignore them.
type Message struct {
	Type MessageType    `json:"type"`
	Data map[string]any `json:"data,omitempty"`
	Text string         `json:"message,omitempty"`
}

// DataString returns the string payload field under key, if present.
func (m Message) DataString(key string) string {
	if m.Data == nil {
		return ""
	}
	if v, ok := m.Data[key].(string); ok {
		return v
	}
	return ""
}
