package token

import (
	"context"
	"net/url"
	"strings"

	"github.com/Abraxas-365/credit-intake/pkg/iam"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// CookieName is set by the login route and read as a bearer fallback.
const CookieName = "Authorization"

// PrincipalValidator is implemented by *Validator.
type PrincipalValidator interface {
	Validate(ctx context.Context, raw string) (*kernel.Principal, error)
}

// Middleware authenticates fiber requests.
type Middleware struct {
	validator PrincipalValidator
}

func NewMiddleware(validator PrincipalValidator) *Middleware {
	return &Middleware{validator: validator}
}

// Authenticate reads "Authorization: Bearer <t>", falling back to the
// Authorization cookie, and stores the principal under kernel.PrincipalKey.
func (m *Middleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearer(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			raw = cookieBearer(c.Cookies(CookieName))
		}
		if raw == "" {
			return iam.ErrUnauthenticated()
		}

		principal, err := m.validator.Validate(c.UserContext(), raw)
		if err != nil {
			logx.WithContext(c.UserContext()).
				WithError(err).
				WithField("path", c.Path()).
				Debug("Bearer token rejected")
			return err
		}

		c.Locals(kernel.PrincipalKey, principal)
		return c.Next()
	}
}

func bearer(header string) string {
	scheme, value, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(value)
}

// The cookie holds a url-escaped "Bearer <t>".
func cookieBearer(value string) string {
	if value == "" {
		return ""
	}
	if unescaped, err := url.QueryUnescape(value); err == nil {
		value = unescaped
	}
	if t := bearer(value); t != "" {
		return t
	}
	return ""
}

// CookieValue is what the login route stores in CookieName.
func CookieValue(raw string) string {
	return url.QueryEscape("Bearer " + raw)
}
