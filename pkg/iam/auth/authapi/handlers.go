package authapi

import (
	"context"

	"github.com/Abraxas-365/credit-intake/pkg/iam/auth"
	"github.com/Abraxas-365/credit-intake/pkg/iam/token"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"github.com/Abraxas-365/credit-intake/pkg/respx"
	"github.com/gofiber/fiber/v2"
)

const (
	msgHealthy         = "Auth service is healthy"
	msgAuthenticated   = "Authenticated"
	msgForgotPassword  = "If that email address is in our database, we will send you an email to reset your password"
	msgPasswordChanged = "Password changed successfully"
	msgTokenRefreshed  = "Token refreshed"
)

// Handlers exposes auth.Service over HTTP.
type Handlers struct {
	service      auth.Service
	secureCookie bool
}

// NewHandlers builds the auth routes. secureCookie marks the login cookie
// Secure, which production deployments require.
func NewHandlers(service auth.Service, secureCookie bool) *Handlers {
	return &Handlers{service: service, secureCookie: secureCookie}
}

// RegisterRoutes mounts the public /auth routes.
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	g := router.Group("/auth")
	g.Get("/health", h.Health)
	g.Post("/login", h.Login)
	g.Post("/forgot-password", h.ForgotPassword)
	g.Post("/confirm-password", h.ConfirmPassword)
	g.Post("/refresh", h.Refresh)
}

func (h *Handlers) Health(c *fiber.Ctx) error {
	return respx.OK(c, msgHealthy, nil)
}

// Login authenticates and sets the Authorization cookie. The id token is
// handed out as the bearer since it carries the profile claims.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	tokens, err := h.service.Login(requestContext(c), req.Email, req.Password)
	if err != nil {
		return err
	}

	if tokens.IsChallenge() {
		return respx.OK(c, msgAuthenticated, fiber.Map{"challengeName": tokens.ChallengeName})
	}

	logx.WithContext(c.UserContext()).Debug("Setting auth cookie for user login")
	c.Cookie(&fiber.Cookie{
		Name:     token.CookieName,
		Value:    token.CookieValue(tokens.IDToken),
		Path:     "/",
		MaxAge:   int(tokens.ExpiresIn),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteStrictMode,
	})

	return respx.OK(c, msgAuthenticated, fiber.Map{
		"accessToken":  tokens.IDToken,
		"expiresIn":    tokens.ExpiresIn,
		"refreshToken": tokens.RefreshToken,
		"tokenType":    "Bearer",
	})
}

func (h *Handlers) ForgotPassword(c *fiber.Ctx) error {
	var req auth.ForgotPasswordRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	out, err := h.service.RequestPasswordReset(requestContext(c), req.Email)
	if err != nil {
		return err
	}
	return respx.OK(c, msgForgotPassword, out)
}

func (h *Handlers) ConfirmPassword(c *fiber.Ctx) error {
	var req auth.ConfirmPasswordRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	if err := h.service.ConfirmPasswordReset(requestContext(c), req.Email, req.Code, req.NewPassword); err != nil {
		return err
	}
	return respx.OK(c, msgPasswordChanged, fiber.Map{"success": true})
}

func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req auth.RefreshRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	tokens, err := h.service.Refresh(requestContext(c), req.RefreshToken)
	if err != nil {
		return err
	}
	return respx.OK(c, msgTokenRefreshed, tokens)
}

type validatable interface {
	Validate() error
}

func parse(c *fiber.Ctx, req validatable) error {
	if err := c.BodyParser(req); err != nil {
		return auth.ErrInvalidRequestPayload("body", "Invalid request body")
	}
	return req.Validate()
}

func requestContext(c *fiber.Ctx) context.Context {
	return auth.WithClientInfo(c.UserContext(), auth.ClientInfo{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
}
