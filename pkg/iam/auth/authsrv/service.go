package authsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/asyncx"
	"github.com/Abraxas-365/credit-intake/pkg/iam/auth"
	"github.com/Abraxas-365/credit-intake/pkg/iam/idp"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
)

// DefaultCallTimeout bounds each identity provider call.
const DefaultCallTimeout = 10 * time.Second

// Service implements auth.Service on top of an identity provider. It keeps
// no state between calls.
type Service struct {
	provider    idp.Provider
	audit       auth.AuditService
	callTimeout time.Duration
}

var _ auth.Service = (*Service)(nil)

func NewService(provider idp.Provider, audit auth.AuditService, callTimeout time.Duration) *Service {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Service{
		provider:    provider,
		audit:       audit,
		callTimeout: callTimeout,
	}
}

// Login authenticates with username and password. Unknown users and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*idp.AuthTokens, error) {
	username := idp.NormalizeUsername(email)
	log := logx.WithContext(ctx).WithField("operation", "login")

	tokens, err := asyncx.WithTimeout(ctx, s.callTimeout, func(ctx context.Context) (*idp.AuthTokens, error) {
		return s.provider.InitiatePasswordAuth(ctx, username, password)
	})
	if err != nil {
		kind := idp.KindOf(err)
		s.audit.LogLoginAttempt(ctx, username, false, string(kind))

		switch kind {
		case idp.KindNotAuthorized:
			log.Warn("Incorrect username or password")
			return nil, auth.ErrInvalidCredentials()
		case idp.KindUserNotFound:
			log.Warn("Login for unknown user")
			return nil, auth.ErrInvalidCredentials()
		default:
			log.WithError(err).Error("Identity provider rejected login")
			return nil, auth.ErrAuthenticationFailed(idp.NameOf(err)).WithCause(err)
		}
	}

	if tokens.IsChallenge() {
		s.audit.LogLoginAttempt(ctx, username, false, "challenge:"+tokens.ChallengeName)
		log.WithField("challenge", tokens.ChallengeName).Info("Login requires a challenge")
		return &idp.AuthTokens{ChallengeName: tokens.ChallengeName}, nil
	}

	if tokens == nil || (tokens.AccessToken == "" && tokens.IDToken == "") {
		s.audit.LogLoginAttempt(ctx, username, false, "no_result")
		return nil, auth.ErrAuthenticationFailed("Invalid authorization")
	}

	s.audit.LogLoginAttempt(ctx, username, true, "")
	return tokens, nil
}

// RequestPasswordReset starts the reset flow. A missing account is reported
// as success with a nil delivery.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*auth.PasswordResetDelivery, error) {
	username := idp.NormalizeUsername(email)

	delivery, err := asyncx.WithTimeout(ctx, s.callTimeout, func(ctx context.Context) (*idp.CodeDelivery, error) {
		return s.provider.ForgotPassword(ctx, username)
	})
	if err != nil {
		if idp.KindOf(err) == idp.KindUserNotFound {
			s.audit.LogPasswordResetRequested(ctx, username, false)
			logx.WithContext(ctx).Warn("Password reset requested for unknown user")
			return &auth.PasswordResetDelivery{}, nil
		}
		logx.WithContext(ctx).WithError(err).Error("Failed to initiate password reset")
		return nil, auth.ErrBadRequest(idp.NameOf(err)).WithCause(err)
	}

	s.audit.LogPasswordResetRequested(ctx, username, delivery != nil)
	return &auth.PasswordResetDelivery{Delivery: delivery}, nil
}

// ConfirmPasswordReset sets newPassword when code matches.
func (s *Service) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	username := idp.NormalizeUsername(email)

	err := asyncx.Timeout(ctx, s.callTimeout, func(ctx context.Context) error {
		return s.provider.ConfirmForgotPassword(ctx, username, code, newPassword)
	})
	if err == nil {
		s.audit.LogPasswordResetConfirmed(ctx, username, true, "")
		return nil
	}

	kind := idp.KindOf(err)
	s.audit.LogPasswordResetConfirmed(ctx, username, false, string(kind))

	switch kind {
	case idp.KindExpiredCode, idp.KindCodeMismatch:
		logx.WithContext(ctx).Warn("Expired or invalid reset code")
		return auth.ErrInvalidOrExpiredCode()
	case idp.KindInvalidPassword:
		logx.WithContext(ctx).Warn("New password does not meet policy")
		return auth.ErrWeakCredential()
	default:
		logx.WithContext(ctx).WithError(err).Error("Failed to confirm password reset")
		return auth.ErrBadRequest(idp.NameOf(err)).WithCause(err)
	}
}

// Refresh exchanges a refresh token. The provider does not rotate refresh
// tokens, so the returned set echoes the one supplied.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*idp.AuthTokens, error) {
	tokens, err := asyncx.WithTimeout(ctx, s.callTimeout, func(ctx context.Context) (*idp.AuthTokens, error) {
		return s.provider.RefreshTokens(ctx, refreshToken)
	})
	if err != nil {
		kind := idp.KindOf(err)
		s.audit.LogTokenRefresh(ctx, refreshToken, false, string(kind))
		if kind == idp.KindNotAuthorized {
			return nil, auth.ErrInvalidRefreshToken()
		}
		logx.WithContext(ctx).WithError(err).Error("Identity provider rejected refresh")
		return nil, auth.ErrAuthenticationFailed(idp.NameOf(err)).WithCause(err)
	}

	if tokens == nil || tokens.IsChallenge() || (tokens.AccessToken == "" && tokens.IDToken == "") {
		s.audit.LogTokenRefresh(ctx, refreshToken, false, "no_result")
		return nil, auth.ErrInvalidRefreshToken()
	}

	s.audit.LogTokenRefresh(ctx, refreshToken, true, "")
	out := *tokens
	out.RefreshToken = refreshToken
	return &out, nil
}
