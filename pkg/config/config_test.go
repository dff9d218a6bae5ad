package config

import (
	"testing"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "credit")
	t.Setenv("COGNITO_USER_POOL_ID", "us-east-1_pool")
	t.Setenv("COGNITO_CLIENT_ID", "client")
	t.Setenv("COGNITO_AUTHORITY", "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_pool/")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RateLimit.Max != 10 || cfg.RateLimit.RegisterMax != 5 {
		t.Fatalf("unexpected quotas: %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.Window != time.Minute {
		t.Fatalf("unexpected window: %v", cfg.RateLimit.Window)
	}
	if cfg.Cognito.CallTimeout != 10*time.Second {
		t.Fatalf("unexpected idp timeout: %v", cfg.Cognito.CallTimeout)
	}
	if got := cfg.Cognito.JWKSURL(); got != "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_pool/.well-known/jwks.json" {
		t.Fatalf("unexpected jwks url: %s", got)
	}
	if cfg.Server.IsProduction() {
		t.Fatal("test env must not be production")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("COGNITO_CLIENT_ID", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if errx.CodeOf(err) != string(errx.TypeValidation) {
		t.Fatalf("expected validation code, got %q", errx.CodeOf(err))
	}
}

func TestValidate_StorageMode(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_MODE", "s3")
	t.Setenv("AWS_BUCKET", "")

	if _, err := Load(); err == nil {
		t.Fatal("s3 mode without bucket must fail")
	}
}
