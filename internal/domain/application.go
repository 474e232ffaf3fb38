package domain

// ApplicationStatus enumerates lifecycle states for event applications.
type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusCancelled ApplicationStatus = "cancelled"
)

// Application is a volunteer's application to an event, as returned by the
// organisation's applications listing. The identifier arrives under one of
// three aliases depending on the server route.
type Application struct {
	ID               string            `json:"id,omitempty"`
	LegacyID         string            `json:"_id,omitempty"`
	ApplicationID    string            `json:"application_id,omitempty"`
	EventTitle       string            `json:"event_title"`
	UserInfo         map[string]any    `json:"user_info"`
	OrganisationName string            `json:"organisation_name"`
	Motivation       string            `json:"motivation"`
	Phone            string            `json:"phone"`
	ExtraNotes       *string           `json:"extra_notes,omitempty"`
	Status           ApplicationStatus `json:"status"`
	CreatedAt        string            `json:"created_at"`
}

// Key returns whichever identifier alias the server populated.
func (a Application) Key() string {
	switch {
	case a.ApplicationID != "":
		return a.ApplicationID
	case a.ID != "":
		return a.ID
	default:
		return a.LegacyID
	}
}

// FilterPending returns the applications still awaiting a decision. The
// result is always a fresh slice so callers can replace derived views
// wholesale.
func FilterPending(apps []Application) []Application {
	pending := make([]Application, 0, len(apps))
	for _, app := range apps {
		if app.Status == ApplicationStatusPending {
			pending = append(pending, app)
		}
	}
	return pending
}
