// Package token verifies identity provider bearer tokens and turns them into
// a kernel.Principal.
package token

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("TOKEN")

var (
	CodeInvalidTokenUse          = ErrRegistry.Register("INVALID_TOKEN_USE", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid token use")
	CodeInvalidSignatureOrClaims = ErrRegistry.Register("INVALID_SIGNATURE_OR_CLAIMS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired token")
)

func ErrInvalidTokenUse() *errx.Error {
	return ErrRegistry.New(CodeInvalidTokenUse)
}

func ErrInvalidSignatureOrClaims() *errx.Error {
	return ErrRegistry.New(CodeInvalidSignatureOrClaims)
}

// Fallbacks used when the token lacks the matching claim.
const (
	NoName  = "No name"
	NoEmail = "No email"
)

// Claims is the union of Cognito id and access token claims.
type Claims struct {
	TokenUse string   `json:"token_use"`
	ClientID string   `json:"client_id,omitempty"`
	Groups   []string `json:"cognito:groups,omitempty"`
	Username string   `json:"cognito:username,omitempty"`
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Config configures a Validator.
type Config struct {
	// Issuer is the user pool authority URL
	Issuer   string
	ClientID string

	// AcceptedTokenUse defaults to access and id
	AcceptedTokenUse []string

	// Leeway tolerates clock skew on exp and nbf
	Leeway time.Duration
}

// Validator checks signature, issuer, audience, expiry and token_use.
type Validator struct {
	keyfunc  jwt.Keyfunc
	clientID string
	accepted []string
	parser   *jwt.Parser
}

// NewValidator uses keys for signature verification. In production keys
// comes from NewJWKSKeyfunc.
func NewValidator(cfg Config, keys jwt.Keyfunc) *Validator {
	accepted := cfg.AcceptedTokenUse
	if len(accepted) == 0 {
		accepted = []string{"access", "id"}
	}
	normalized := make([]string, 0, len(accepted))
	for _, a := range accepted {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(a)))
	}

	return &Validator{
		keyfunc:  keys,
		clientID: cfg.ClientID,
		accepted: normalized,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(strings.TrimSuffix(cfg.Issuer, "/")),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(cfg.Leeway),
		),
	}
}

// NewJWKSKeyfunc fetches and caches the signing keys published at url.
// The refresh goroutine stops when ctx is cancelled.
func NewJWKSKeyfunc(ctx context.Context, url string) (jwt.Keyfunc, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{url})
	if err != nil {
		return nil, errx.Wrap(err, "failed to load JWKS", errx.TypeExternal).
			WithDetail("url", url)
	}
	return k.Keyfunc, nil
}

// Validate verifies raw and maps its claims. A token_use outside the
// accepted set is rejected before anything else is looked at.
func (v *Validator) Validate(_ context.Context, raw string) (*kernel.Principal, error) {
	var peek Claims
	if _, _, err := v.parser.ParseUnverified(raw, &peek); err != nil {
		return nil, ErrInvalidSignatureOrClaims().WithCause(err)
	}
	if !slices.Contains(v.accepted, strings.ToLower(peek.TokenUse)) {
		return nil, ErrInvalidTokenUse().WithDetail("token_use", peek.TokenUse)
	}

	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(raw, claims, v.keyfunc); err != nil {
		return nil, ErrInvalidSignatureOrClaims().WithCause(err)
	}
	if !v.audienceMatches(claims) {
		return nil, ErrInvalidSignatureOrClaims().WithDetail("reason", "audience mismatch")
	}
	if claims.Subject == "" {
		return nil, ErrInvalidSignatureOrClaims().WithDetail("reason", "missing subject")
	}

	return ToPrincipal(claims), nil
}

// id tokens carry the app client in aud, access tokens in client_id.
func (v *Validator) audienceMatches(c *Claims) bool {
	if v.clientID == "" {
		return true
	}
	return c.ClientID == v.clientID || slices.Contains(c.Audience, v.clientID)
}

// ToPrincipal maps verified claims:
// sub → ID; first group lowercased → Role, else kernel.DefaultRole;
// name → cognito:username → NoName; email → NoEmail.
func ToPrincipal(c *Claims) *kernel.Principal {
	role := kernel.DefaultRole
	if len(c.Groups) > 0 {
		if g := strings.ToLower(strings.TrimSpace(c.Groups[0])); g != "" {
			role = g
		}
	}

	name := c.Name
	if name == "" {
		name = c.Username
	}
	if name == "" {
		name = NoName
	}

	email := c.Email
	if email == "" {
		email = NoEmail
	}

	return &kernel.Principal{
		ID:    c.Subject,
		Name:  name,
		Email: email,
		Role:  role,
	}
}
