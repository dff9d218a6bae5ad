package iamcontainer

import (
	"context"

	"github.com/Abraxas-365/credit-intake/pkg/config"
	"github.com/Abraxas-365/credit-intake/pkg/iam/auth/authapi"
	"github.com/Abraxas-365/credit-intake/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/credit-intake/pkg/iam/auth/authsrv"
	"github.com/Abraxas-365/credit-intake/pkg/iam/idp"
	"github.com/Abraxas-365/credit-intake/pkg/iam/idp/idpcognito"
	"github.com/Abraxas-365/credit-intake/pkg/iam/token"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// ---------------------------------------------------------------------------

type Deps struct {
	Cfg *config.Config

	// Cognito is the identity provider client, built once by cmd/
	Cognito idpcognito.API

	// Keys overrides the JWKS keyfunc. nil loads the user pool's published
	// keys.
	Keys jwt.Keyfunc
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// ---------------------------------------------------------------------------

type Container struct {
	// Provider is shared with the requester module for registration
	Provider idp.Provider

	AuthService  *authsrv.Service
	AuthHandlers *authapi.Handlers

	Validator      *token.Validator
	AuthMiddleware *token.Middleware
}

// New constructs the IAM dependency graph. ctx bounds the JWKS refresh
// goroutine.
func New(ctx context.Context, deps Deps) (*Container, error) {
	logx.Info("🔧 Initializing IAM container...")

	cfg := deps.Cfg
	c := &Container{}

	// ── Identity provider ───────────────────────────────────────────────

	c.Provider = idpcognito.NewProvider(deps.Cognito, cfg.Cognito.UserPoolID, cfg.Cognito.ClientID)
	logx.Infof("  ✅ Cognito provider configured (pool: %s)", cfg.Cognito.UserPoolID)

	// ── Token validation ────────────────────────────────────────────────

	keys := deps.Keys
	if keys == nil {
		var err error
		keys, err = token.NewJWKSKeyfunc(ctx, cfg.Cognito.JWKSURL())
		if err != nil {
			return nil, err
		}
		logx.Info("  ✅ JWKS keys loaded")
	}

	c.Validator = token.NewValidator(token.Config{
		Issuer:           cfg.Cognito.Authority,
		ClientID:         cfg.Cognito.ClientID,
		AcceptedTokenUse: cfg.Cognito.AcceptedTokenUse,
	}, keys)
	c.AuthMiddleware = token.NewMiddleware(c.Validator)

	// ── Auth service ────────────────────────────────────────────────────

	audit := authinfra.NewLogxAuditService([]byte(cfg.Server.AuditKey))
	c.AuthService = authsrv.NewService(c.Provider, audit, cfg.Cognito.CallTimeout)
	c.AuthHandlers = authapi.NewHandlers(c.AuthService, cfg.Server.IsProduction())

	logx.Info("✅ IAM container initialized")
	return c, nil
}

// Authenticate is the bearer middleware other modules mount on protected
// routes.
func (c *Container) Authenticate() fiber.Handler {
	return c.AuthMiddleware.Authenticate()
}

// RegisterRoutes mounts the public /auth routes.
func (c *Container) RegisterRoutes(router fiber.Router) {
	c.AuthHandlers.RegisterRoutes(router)
}
