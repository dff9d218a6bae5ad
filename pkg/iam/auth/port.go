package auth

import "context"

// AuditService records authentication outcomes. Implementations must not
// log raw tokens or passwords.
type AuditService interface {
	LogLoginAttempt(ctx context.Context, username string, success bool, reason string)
	LogPasswordResetRequested(ctx context.Context, username string, delivered bool)
	LogPasswordResetConfirmed(ctx context.Context, username string, success bool, reason string)
	LogTokenRefresh(ctx context.Context, refreshToken string, success bool, reason string)
	LogAccountCreated(ctx context.Context, requesterID, username string)
}

// ClientInfo describes the caller of an HTTP request for audit entries.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type clientInfoKey struct{}

// WithClientInfo attaches caller details to ctx.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFrom returns the caller details stored in ctx, if any.
func ClientInfoFrom(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}
