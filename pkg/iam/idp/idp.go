// Package idp is the identity provider port. Services depend on Provider and
// on the closed Kind set; provider specific error names stay in adapters.
package idp

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider is the identity provider capability. Implementations must be
// safe for concurrent use.
type Provider interface {
	// CreateUser creates an identity with a permanent password. Sub is
	// empty when the provider does not return it on creation.
	CreateUser(ctx context.Context, in CreateUserInput) (*CreateUserOutput, error)
	AddUserToGroup(ctx context.Context, username, group string) error
	GetUser(ctx context.Context, username string) (*User, error)
	DeleteUser(ctx context.Context, username string) error

	// InitiatePasswordAuth returns tokens, a challenge, or nil when the
	// provider answered with neither.
	InitiatePasswordAuth(ctx context.Context, username, password string) (*AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error)
	ForgotPassword(ctx context.Context, username string) (*CodeDelivery, error)
	ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) error
}

// CreateUserInput is the identity created by the registration flow.
type CreateUserInput struct {
	Username   string
	Password   string
	Name       string
	Attributes map[string]string
}

type CreateUserOutput struct {
	Sub string
}

// User is the provider's view of an identity.
type User struct {
	Username   string
	Sub        string
	Enabled    bool
	Attributes map[string]string
}

// AuthTokens is either a token set or a pending challenge.
type AuthTokens struct {
	AccessToken   string `json:"accessToken,omitempty"`
	IDToken       string `json:"idToken,omitempty"`
	RefreshToken  string `json:"refreshToken,omitempty"`
	ExpiresIn     int32  `json:"expiresIn,omitempty"`
	TokenType     string `json:"tokenType,omitempty"`
	ChallengeName string `json:"challengeName,omitempty"`
}

// IsChallenge reports whether the provider asked for another step.
func (t *AuthTokens) IsChallenge() bool {
	return t != nil && t.ChallengeName != ""
}

// CodeDelivery describes where a reset code was sent.
type CodeDelivery struct {
	DeliveryMedium string `json:"DeliveryMedium,omitempty"`
	Destination    string `json:"Destination,omitempty"`
	AttributeName  string `json:"AttributeName,omitempty"`
}

// ============================================================================
// Error kinds
// ============================================================================

// Kind is the closed set of provider failures services react to.
type Kind string

const (
	KindUnknown         Kind = "Unknown"
	KindUsernameExists  Kind = "UsernameExistsException"
	KindInvalidPassword Kind = "InvalidPasswordException"
	KindNotAuthorized   Kind = "NotAuthorizedException"
	KindUserNotFound    Kind = "UserNotFoundException"
	KindExpiredCode     Kind = "ExpiredCodeException"
	KindCodeMismatch    Kind = "CodeMismatchException"
	KindInvalidParam    Kind = "InvalidParameterException"
	KindLimitExceeded   Kind = "LimitExceededException"
	KindTooManyRequests Kind = "TooManyRequestsException"
	KindTimeout         Kind = "Timeout"
)

// Error is returned by adapters for every failed provider call.
type Error struct {
	Op   string
	Kind Kind
	// Code is the raw provider error name, kept for diagnostics
	Code string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("idp %s: %s: %v", e.Op, e.Name(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Name is the raw provider name when known, the kind otherwise.
func (e *Error) Name() string {
	if e.Code != "" {
		return e.Code
	}
	return string(e.Kind)
}

// KindOf classifies err. Context deadlines are KindTimeout wherever they
// appear in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// NameOf returns the provider's error name, used as the message of generic
// failures so unexpected provider errors stay visible.
func NameOf(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return string(KindTimeout)
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Name()
	}
	return string(KindUnknown)
}

// NormalizeUsername is the canonical username for both the provider and the
// local store.
func NormalizeUsername(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
