package iam

import (
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthenticated  = ErrRegistry.Register("UNAUTHENTICATED", errx.TypeAuthorization, http.StatusUnauthorized, "User not authenticated")
	CodeNoRolesAssigned  = ErrRegistry.Register("NO_ROLES_ASSIGNED", errx.TypeForbidden, http.StatusForbidden, "User has no roles assigned")
	CodeInsufficientRole = ErrRegistry.Register("INSUFFICIENT_ROLE", errx.TypeForbidden, http.StatusForbidden, "Insufficient role")
)

func ErrUnauthenticated() *errx.Error {
	return ErrRegistry.New(CodeUnauthenticated)
}

func ErrNoRolesAssigned() *errx.Error {
	return ErrRegistry.New(CodeNoRolesAssigned)
}

func ErrInsufficientRole() *errx.Error {
	return ErrRegistry.New(CodeInsufficientRole)
}

// ============================================================================
// Roles
// ============================================================================

// Roles are identity provider group names, compared lowercased.
const (
	RoleRequester  = "requester"
	RoleAnalyst    = "analyst"
	RoleSupervisor = "supervisor"
)

// StaffRoles may review any requester and credit request.
var StaffRoles = []string{RoleAnalyst, RoleSupervisor}

// ============================================================================
// Password policy
// ============================================================================

// MinPasswordLength is the shortest password accepted before the identity
// provider applies its own policy.
const MinPasswordLength = 6

// PasswordPolicyMessage describes CheckPassword's rule to end users.
const PasswordPolicyMessage = "Password must be at least 6 characters, include an uppercase letter, a number, and a special symbol"

// CheckPassword reports whether p has the minimum length, a digit, an
// uppercase letter, and a symbol (anything but letters, digits and spaces).
func CheckPassword(p string) bool {
	if utf8.RuneCountInString(p) < MinPasswordLength {
		return false
	}
	var digit, upper, symbol bool
	for _, r := range p {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case (r >= 'a' && r <= 'z') || unicode.IsSpace(r):
		default:
			symbol = true
		}
	}
	return digit && upper && symbol
}
