package requesterapi

import (
	"github.com/Abraxas-365/credit-intake/pkg/iam"
	"github.com/Abraxas-365/credit-intake/pkg/iam/guard"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/requester"
	"github.com/Abraxas-365/credit-intake/pkg/respx"
	"github.com/gofiber/fiber/v2"
)

const (
	msgHealthy          = "Requester service is healthy"
	msgCreated          = "Requester created successfully"
	msgFetched          = "Requester fetched successfully"
	msgUpdated          = "Requester updated successfully"
	msgDeleted          = "Requester deleted successfully"
	msgDocumentUploaded = "Document uploaded successfully"
)

// Handlers exposes requester.Service over HTTP.
type Handlers struct {
	service       requester.Service
	createLimiter fiber.Handler
}

// NewHandlers builds the /requester routes. createLimiter guards public
// registration and may be nil.
func NewHandlers(service requester.Service, createLimiter fiber.Handler) *Handlers {
	if createLimiter == nil {
		createLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &Handlers{service: service, createLimiter: createLimiter}
}

// RegisterRoutes mounts the routes. authn must place the principal in
// Locals; roles are declared per route.
func (h *Handlers) RegisterRoutes(router fiber.Router, authn fiber.Handler) {
	self := guard.RequireRoles(iam.RoleRequester)
	staff := guard.RequireRoles(iam.StaffRoles...)

	g := router.Group("/requester")
	g.Get("/health", h.Health)
	g.Post("/", h.createLimiter, h.Create)

	g.Get("/", authn, self, h.GetSelf)
	g.Patch("/", authn, self, h.UpdateSelf)
	g.Delete("/", authn, self, h.DeleteSelf)
	g.Post("/documents/:kind", authn, self, h.UploadDocument)

	g.Get("/:id", authn, staff, h.Get)
	g.Patch("/:id", authn, staff, h.Update)
	g.Delete("/:id", authn, staff, h.Delete)
}

func (h *Handlers) Health(c *fiber.Ctx) error {
	return respx.OK(c, msgHealthy, nil)
}

// Create is the public self-registration endpoint.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req requester.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return requester.ErrInvalidPayload(map[string]string{"body": "Invalid request body"})
	}

	res, err := h.service.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return respx.Created(c, msgCreated, res)
}

// ============================================================================
// Self-service
// ============================================================================

func (h *Handlers) GetSelf(c *fiber.Ctx) error {
	view, err := h.caller(c)
	if err != nil {
		return err
	}
	return respx.OK(c, msgFetched, view)
}

func (h *Handlers) UpdateSelf(c *fiber.Ctx) error {
	view, err := h.caller(c)
	if err != nil {
		return err
	}
	return h.update(c, view.ID)
}

func (h *Handlers) DeleteSelf(c *fiber.Ctx) error {
	view, err := h.caller(c)
	if err != nil {
		return err
	}
	return h.delete(c, view.ID)
}

func (h *Handlers) UploadDocument(c *fiber.Ctx) error {
	view, err := h.caller(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return requester.ErrInvalidDocument("Multipart field file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return requester.ErrInvalidDocument("Could not read uploaded file")
	}
	defer f.Close()

	updated, err := h.service.UploadDocument(c.UserContext(), view.ID, requester.DocumentUpload{
		Kind:        requester.DocumentKind(c.Params("kind")),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return err
	}
	return respx.Created(c, msgDocumentUploaded, updated)
}

// caller resolves the requester owning the bearer token's subject.
func (h *Handlers) caller(c *fiber.Ctx) (*requester.View, error) {
	p, err := guard.MustPrincipal(c)
	if err != nil {
		return nil, err
	}
	return h.service.GetBySub(c.UserContext(), p.ID)
}

// ============================================================================
// Staff
// ============================================================================

func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	view, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respx.OK(c, msgFetched, view)
}

func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return h.update(c, id)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return h.delete(c, id)
}

func (h *Handlers) update(c *fiber.Ctx, id kernel.RequesterID) error {
	var req requester.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return requester.ErrInvalidPayload(map[string]string{"body": "Invalid request body"})
	}

	view, err := h.service.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return respx.OK(c, msgUpdated, view)
}

func (h *Handlers) delete(c *fiber.Ctx, id kernel.RequesterID) error {
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return respx.OK(c, msgDeleted, nil)
}

func pathID(c *fiber.Ctx) (kernel.RequesterID, error) {
	raw := c.Params("id")
	if !kernel.ValidID(raw) {
		return "", requester.ErrInvalidPayload(map[string]string{"id": "id must be a UUID"})
	}
	return kernel.RequesterID(raw), nil
}
