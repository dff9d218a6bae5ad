package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/iam"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/respx"
	"github.com/gofiber/fiber/v2"
)

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name      string
		principal *kernel.Principal
		required  []string
		want      *errx.ErrorCode
	}{
		{"no roles required, absent principal", nil, nil, nil},
		{"no roles required, any principal", &kernel.Principal{Role: "requester"}, []string{}, nil},
		{"absent principal", nil, []string{"analyst"}, iam.CodeUnauthenticated},
		{"empty role", &kernel.Principal{ID: "x"}, []string{"analyst"}, iam.CodeNoRolesAssigned},
		{"wrong role", &kernel.Principal{Role: "requester"}, []string{"analyst", "supervisor"}, iam.CodeInsufficientRole},
		{"default role", &kernel.Principal{Role: kernel.DefaultRole}, []string{"requester"}, iam.CodeInsufficientRole},
		{"case-insensitive principal", &kernel.Principal{Role: "ANALYST"}, []string{"analyst"}, nil},
		{"case-insensitive required", &kernel.Principal{Role: "supervisor"}, []string{"Analyst", "SUPERVISOR"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.principal, tc.required...)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected allow, got %v", err)
				}
				return
			}
			if !errx.HasCode(err, tc.want) {
				t.Fatalf("expected %s, got %v", tc.want.Code, err)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	withPrincipal := func(p *kernel.Principal) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if p != nil {
				c.Locals(kernel.PrincipalKey, p)
			}
			return c.Next()
		}
	}
	ok := func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) }

	cases := []struct {
		principal *kernel.Principal
		status    int
	}{
		{nil, http.StatusUnauthorized},
		{&kernel.Principal{Role: ""}, http.StatusForbidden},
		{&kernel.Principal{Role: "requester"}, http.StatusForbidden},
		{&kernel.Principal{Role: "Supervisor"}, http.StatusNoContent},
	}

	for _, tc := range cases {
		app := fiber.New(fiber.Config{ErrorHandler: respx.ErrorHandler})
		app.Get("/staff", withPrincipal(tc.principal), RequireRoles(iam.StaffRoles...), ok)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/staff", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != tc.status {
			t.Errorf("principal %+v: expected %d, got %d", tc.principal, tc.status, resp.StatusCode)
		}
	}
}
