package creditrequestapi

import (
	"context"

	"github.com/Abraxas-365/credit-intake/pkg/creditrequest"
	"github.com/Abraxas-365/credit-intake/pkg/iam"
	"github.com/Abraxas-365/credit-intake/pkg/iam/guard"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/requester"
	"github.com/Abraxas-365/credit-intake/pkg/respx"
	"github.com/gofiber/fiber/v2"
)

const (
	msgCreated       = "Credit request created successfully"
	msgListed        = "Credit requests fetched successfully"
	msgFetched       = "Credit request fetched successfully"
	msgStatusChanged = "Credit request status updated successfully"
)

// RequesterResolver finds the requester behind a token subject.
type RequesterResolver interface {
	GetBySub(ctx context.Context, sub string) (*requester.View, error)
}

type Handlers struct {
	service    creditrequest.Service
	requesters RequesterResolver
}

func NewHandlers(service creditrequest.Service, requesters RequesterResolver) *Handlers {
	return &Handlers{service: service, requesters: requesters}
}

// RegisterRoutes mounts /request. Every route needs authn.
func (h *Handlers) RegisterRoutes(router fiber.Router, authn fiber.Handler) {
	self := guard.RequireRoles(iam.RoleRequester)
	staff := guard.RequireRoles(iam.StaffRoles...)
	anyone := guard.RequireRoles(append([]string{iam.RoleRequester}, iam.StaffRoles...)...)

	g := router.Group("/request")
	g.Post("/", authn, self, h.Create)
	g.Get("/", authn, self, h.ListOwn)
	g.Get("/:id", authn, staff, h.Get)
	g.Patch("/:id/status", authn, anyone, h.ChangeStatus)
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}

	var req creditrequest.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return creditrequest.ErrInvalidPayload(map[string]string{"body": "Invalid request body"})
	}

	created, err := h.service.Create(c.UserContext(), caller, req)
	if err != nil {
		return err
	}
	return respx.Created(c, msgCreated, created)
}

func (h *Handlers) ListOwn(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}

	page, err := h.service.ListByRequester(c.UserContext(), caller, kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	})
	if err != nil {
		return err
	}
	return respx.OK(c, msgListed, page)
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	found, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respx.OK(c, msgFetched, found)
}

// ChangeStatus serves staff review steps and the requester's answer to an
// approved offer.
func (h *Handlers) ChangeStatus(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req creditrequest.StatusChange
	if err := c.BodyParser(&req); err != nil {
		return creditrequest.ErrInvalidPayload(map[string]string{"body": "Invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return err
	}

	p, err := guard.MustPrincipal(c)
	if err != nil {
		return err
	}
	actor := creditrequest.Actor{Role: p.Role}
	if p.HasRole(iam.RoleRequester) {
		if actor.RequesterID, err = h.caller(c); err != nil {
			return err
		}
	}

	updated, err := h.service.ChangeStatus(c.UserContext(), id, req.Status, actor)
	if err != nil {
		return err
	}
	return respx.OK(c, msgStatusChanged, updated)
}

func (h *Handlers) caller(c *fiber.Ctx) (kernel.RequesterID, error) {
	p, err := guard.MustPrincipal(c)
	if err != nil {
		return "", err
	}
	view, err := h.requesters.GetBySub(c.UserContext(), p.ID)
	if err != nil {
		return "", err
	}
	return view.ID, nil
}

func pathID(c *fiber.Ctx) (kernel.CreditRequestID, error) {
	raw := c.Params("id")
	if !kernel.ValidID(raw) {
		return "", creditrequest.ErrInvalidPayload(map[string]string{"id": "id must be a UUID"})
	}
	return kernel.CreditRequestID(raw), nil
}
