package auth

import (
	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims describes the decodable JWT payload carried by the credential
// token. The decode is unverified: the client reads the claims for UI
// gating only, the server remains the authorization boundary.
type Claims struct {
	Role     string `json:"role,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry the admin role marker.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == "admin"
}

// SubjectHint returns whatever subject identifier the claims carry, if any.
func (c *Claims) SubjectHint() string {
	if c == nil {
		return ""
	}
	if c.Subject != "" {
		return c.Subject
	}
	return c.Username
}

// DecodeClaims decodes the token's payload segment without verifying the
// signature. Decoding is best-effort: malformed input yields nil claims
// rather than an error.
func DecodeClaims(token string) *Claims {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}
