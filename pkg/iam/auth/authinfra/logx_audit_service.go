package authinfra

import (
	"context"
	"encoding/hex"

	"github.com/Abraxas-365/credit-intake/pkg/iam/auth"
	"github.com/Abraxas-365/credit-intake/pkg/iam/idp"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"golang.org/x/crypto/blake2b"
)

// LogxAuditService implements auth.AuditService using structured logx logging.
// Usernames and refresh tokens only appear as keyed fingerprints.
type LogxAuditService struct {
	key []byte
}

var _ auth.AuditService = (*LogxAuditService)(nil)

// NewLogxAuditService keys fingerprints with key; an empty key gives plain
// blake2b digests.
func NewLogxAuditService(key []byte) *LogxAuditService {
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	return &LogxAuditService{key: key}
}

// Fingerprint returns a short stable digest of value. Equal values give
// equal fingerprints so entries can be correlated without storing secrets.
func (s *LogxAuditService) Fingerprint(value string) string {
	h, err := blake2b.New256(s.key)
	if err != nil {
		return ""
	}
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil)[:12])
}

func (s *LogxAuditService) entry(ctx context.Context, event string) *logx.Entry {
	info := auth.ClientInfoFrom(ctx)
	return logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": event,
		"ip":          info.IP,
		"user_agent":  info.UserAgent,
	})
}

func (s *LogxAuditService) LogLoginAttempt(ctx context.Context, username string, success bool, reason string) {
	s.entry(ctx, "login_attempt").WithFields(logx.Fields{
		"user_fp": s.Fingerprint(idp.NormalizeUsername(username)),
		"success": success,
		"reason":  reason,
	}).Info("Audit: login attempt")
}

func (s *LogxAuditService) LogPasswordResetRequested(ctx context.Context, username string, delivered bool) {
	s.entry(ctx, "password_reset_requested").WithFields(logx.Fields{
		"user_fp":   s.Fingerprint(idp.NormalizeUsername(username)),
		"delivered": delivered,
	}).Info("Audit: password reset requested")
}

func (s *LogxAuditService) LogPasswordResetConfirmed(ctx context.Context, username string, success bool, reason string) {
	s.entry(ctx, "password_reset_confirmed").WithFields(logx.Fields{
		"user_fp": s.Fingerprint(idp.NormalizeUsername(username)),
		"success": success,
		"reason":  reason,
	}).Info("Audit: password reset confirmed")
}

func (s *LogxAuditService) LogTokenRefresh(ctx context.Context, refreshToken string, success bool, reason string) {
	s.entry(ctx, "token_refresh").WithFields(logx.Fields{
		"token_fp": s.Fingerprint(refreshToken),
		"success":  success,
		"reason":   reason,
	}).Info("Audit: token refresh")
}

func (s *LogxAuditService) LogAccountCreated(ctx context.Context, requesterID, username string) {
	s.entry(ctx, "account_created").WithFields(logx.Fields{
		"requester_id": requesterID,
		"user_fp":      s.Fingerprint(idp.NormalizeUsername(username)),
	}).Info("Audit: account created")
}
