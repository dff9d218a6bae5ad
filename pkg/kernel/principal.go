package kernel

import "strings"

// DefaultRole is assigned when the identity provider reports no group.
const DefaultRole = "default"

// Principal is the verified caller, rebuilt from the bearer token on every
// request. It is never persisted.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Roles returns the role set of the principal. It has at most one entry.
func (p *Principal) Roles() []string {
	if p == nil || strings.TrimSpace(p.Role) == "" {
		return nil
	}
	return []string{p.Role}
}

// HasRole compares case-insensitively.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles() {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

type ContextKey string

const (
	// PrincipalKey is the fiber Locals key holding *Principal
	PrincipalKey ContextKey = "principal"

	// RequestIDKey is the fiber Locals key holding the request id
	RequestIDKey ContextKey = "request_id"
)
