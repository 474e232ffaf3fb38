package domain

// Role enumerates the resolved identity kinds for a session.
type Role string

const (
	RoleAnonymous    Role = "anonymous"
	RoleUser         Role = "user"
	RoleOrganisation Role = "organisation"
	RoleAdmin        Role = "admin"
)

// Principal is the resolved identity for the current session. Exactly one
// role is active; profile data is populated only for the matching role.
type Principal struct {
	Role         Role
	User         *UserProfile
	Organisation *Organisation
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal {
	return Principal{Role: RoleAnonymous}
}

// Authenticated reports whether the principal carries a concrete role.
func (p Principal) Authenticated() bool {
	return p.Role != "" && p.Role != RoleAnonymous
}
