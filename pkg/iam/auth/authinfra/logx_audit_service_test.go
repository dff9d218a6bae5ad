package authinfra

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Abraxas-365/credit-intake/pkg/iam/auth"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
)

func TestFingerprint(t *testing.T) {
	s := NewLogxAuditService([]byte("audit-key"))

	a := s.Fingerprint("refresh-token-value")
	if a != s.Fingerprint("refresh-token-value") {
		t.Fatal("fingerprint must be stable")
	}
	if a == s.Fingerprint("other-token") {
		t.Fatal("different inputs must not collide")
	}
	if len(a) != 24 {
		t.Fatalf("expected 24 hex chars, got %d", len(a))
	}
	if a == NewLogxAuditService(nil).Fingerprint("refresh-token-value") {
		t.Fatal("key must change the fingerprint")
	}
}

func TestLogTokenRefresh_NeverLogsToken(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := logx.DefaultConfig()
	cfg.Format = logx.FormatJSON
	cfg.Output = buf
	prev := logx.GetDefaultLogger()
	logx.SetDefaultLogger(logx.NewLogger(cfg))
	defer logx.SetDefaultLogger(prev)

	s := NewLogxAuditService(nil)
	ctx := auth.WithClientInfo(context.Background(), auth.ClientInfo{IP: "10.0.0.1"})
	s.LogTokenRefresh(ctx, "super-secret-refresh", true, "")
	s.LogLoginAttempt(ctx, "Jane@Example.com", false, "NotAuthorizedException")

	out := buf.String()
	if strings.Contains(out, "super-secret-refresh") || strings.Contains(out, "Jane@Example.com") {
		t.Fatalf("audit leaked secrets: %s", out)
	}
	if !strings.Contains(out, s.Fingerprint("super-secret-refresh")) {
		t.Fatalf("expected token fingerprint in output: %s", out)
	}
	if !strings.Contains(out, "10.0.0.1") {
		t.Fatalf("expected client ip in output: %s", out)
	}
}
