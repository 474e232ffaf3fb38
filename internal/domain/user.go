package domain

// UserProfile is the volunteer account as returned by the platform's
// current-user endpoint.
type UserProfile struct {
	ID           string   `json:"_id"`
	Username     string   `json:"username"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	Title        string   `json:"title"`
	Location     string   `json:"location"`
	Age          int      `json:"age"`
	About        string   `json:"about"`
	Skills       []string `json:"skills"`
	Experience   *string  `json:"experience,omitempty"`
	Role         string   `json:"role"`
	ProfileImage *string  `json:"profile_image,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    *string  `json:"updated_at,omitempty"`
}
