// Package guard decides whether a principal may reach a route.
package guard

import (
	"strings"

	"github.com/Abraxas-365/credit-intake/pkg/iam"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// Authorize allows when required is empty; otherwise the principal must be
// present, hold a role, and share one of required (case-insensitive).
func Authorize(p *kernel.Principal, required ...string) error {
	if len(required) == 0 {
		return nil
	}
	if p == nil {
		return iam.ErrUnauthenticated()
	}

	roles := p.Roles()
	if len(roles) == 0 {
		return iam.ErrNoRolesAssigned()
	}

	for _, have := range roles {
		for _, want := range required {
			if strings.EqualFold(have, want) {
				return nil
			}
		}
	}
	return iam.ErrInsufficientRole().
		WithDetail("role", p.Role).
		WithDetail("required", required)
}

// RequireRoles declares the roles a route needs. It must run after the
// token middleware.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := Authorize(PrincipalFrom(c), roles...); err != nil {
			return err
		}
		return c.Next()
	}
}

// PrincipalFrom returns the authenticated caller or nil.
func PrincipalFrom(c *fiber.Ctx) *kernel.Principal {
	p, _ := c.Locals(kernel.PrincipalKey).(*kernel.Principal)
	return p
}

// MustPrincipal is PrincipalFrom for handlers behind RequireRoles.
func MustPrincipal(c *fiber.Ctx) (*kernel.Principal, error) {
	p := PrincipalFrom(c)
	if p == nil {
		return nil, iam.ErrUnauthenticated()
	}
	return p, nil
}
