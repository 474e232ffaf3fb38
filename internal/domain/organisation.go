package domain

// OrganisationStatus enumerates the admin-approval lifecycle of an organisation.
type OrganisationStatus string

const (
	OrganisationStatusPending  OrganisationStatus = "pending"
	OrganisationStatusApproved OrganisationStatus = "approved"
	OrganisationStatusRejected OrganisationStatus = "rejected"
)

// OrganisationType differentiates registered and informal organisations.
type OrganisationType string

const (
	OrganisationTypeOfficial OrganisationType = "official"
	OrganisationTypeInformal OrganisationType = "informal"
)

// Organisation is the organisation account as returned by the platform's
// current-organisation endpoint. The platform emits the identifier under
// either "id" or "_id" depending on the route.
type Organisation struct {
	ID          string             `json:"id,omitempty"`
	LegacyID    string             `json:"_id,omitempty"`
	Username    string             `json:"username"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Description *string            `json:"description,omitempty"`
	Location    *string            `json:"location,omitempty"`
	Phone       *string            `json:"phone,omitempty"`
	Website     *string            `json:"website,omitempty"`
	Status      OrganisationStatus `json:"status,omitempty"`
	Logo        *string            `json:"logo,omitempty"`
	Type        OrganisationType   `json:"org_type,omitempty"`
}

// Key returns whichever identifier alias the server populated.
func (o Organisation) Key() string {
	if o.ID != "" {
		return o.ID
	}
	return o.LegacyID
}
