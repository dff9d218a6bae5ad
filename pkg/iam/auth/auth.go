package auth

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/iam"
	"github.com/Abraxas-365/credit-intake/pkg/iam/idp"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeInvalidCredentials    = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Incorrect username or password")
	CodeInvalidOrExpiredCode  = ErrRegistry.Register("INVALID_OR_EXPIRED_CODE", errx.TypeValidation, http.StatusBadRequest, "Invalid or expired code")
	CodeWeakCredential        = ErrRegistry.Register("WEAK_CREDENTIAL", errx.TypeValidation, http.StatusBadRequest, "Password does not meet policy")
	CodeInvalidRefreshToken   = ErrRegistry.Register("INVALID_REFRESH_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired refresh token")
	CodeAuthenticationFailed  = ErrRegistry.Register("AUTHENTICATION_FAILED", errx.TypeAuthorization, http.StatusUnauthorized, "Authentication failed")
	CodeBadRequest            = ErrRegistry.Register("BAD_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Bad request")
	CodeInvalidRequestPayload = ErrRegistry.Register("INVALID_REQUEST_PAYLOAD", errx.TypeValidation, http.StatusBadRequest, "Invalid request payload")
)

func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

func ErrInvalidOrExpiredCode() *errx.Error {
	return ErrRegistry.New(CodeInvalidOrExpiredCode)
}

func ErrWeakCredential() *errx.Error {
	return ErrRegistry.New(CodeWeakCredential)
}

func ErrInvalidRefreshToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidRefreshToken)
}

// ErrAuthenticationFailed carries the provider's error name as message.
func ErrAuthenticationFailed(reason string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeAuthenticationFailed, reason)
}

// ErrBadRequest carries the provider's error name as message.
func ErrBadRequest(reason string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeBadRequest, reason)
}

func ErrInvalidRequestPayload(field, reason string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeInvalidRequestPayload, reason).WithDetail("field", field)
}

// ============================================================================
// Service contract
// ============================================================================

// Service is the authentication use case consumed by authapi.
type Service interface {
	Login(ctx context.Context, email, password string) (*idp.AuthTokens, error)
	RequestPasswordReset(ctx context.Context, email string) (*PasswordResetDelivery, error)
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error
	Refresh(ctx context.Context, refreshToken string) (*idp.AuthTokens, error)
}

// PasswordResetDelivery is nil when the account does not exist, so callers
// cannot tell known and unknown emails apart.
type PasswordResetDelivery struct {
	Delivery *idp.CodeDelivery `json:"delivery,omitempty"`
}

// ============================================================================
// Requests
// ============================================================================

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if !iam.CheckPassword(r.Password) {
		return ErrInvalidRequestPayload("password", "Invalid password format")
	}
	return nil
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r RefreshRequest) Validate() error {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return ErrInvalidRequestPayload("refreshToken", "refreshToken is required")
	}
	return nil
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgotPasswordRequest) Validate() error {
	return validateEmail(r.Email)
}

type ConfirmPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

func (r ConfirmPasswordRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if strings.TrimSpace(r.Code) == "" {
		return ErrInvalidRequestPayload("code", "code is required")
	}
	if !iam.CheckPassword(r.NewPassword) {
		return ErrInvalidRequestPayload("newPassword", "Password is too weak")
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return ErrInvalidRequestPayload("email", "email must be a valid address")
	}
	return nil
}
