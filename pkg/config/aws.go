package config

import (
	"strings"
	"time"
)

// AWSConfig holds the region shared by the Cognito, SES and S3 clients.
type AWSConfig struct {
	Region string
}

func loadAWSConfig() AWSConfig {
	return AWSConfig{Region: getEnv("AWS_REGION", "us-east-1")}
}

// CognitoConfig configures the identity provider adapter and token validation.
type CognitoConfig struct {
	UserPoolID string
	ClientID   string

	// Authority is the token issuer, e.g.
	// https://cognito-idp.us-east-1.amazonaws.com/us-east-1_abc123
	Authority string

	RequesterGroup string
	CallTimeout    time.Duration

	// AcceptedTokenUse lists the token_use values the bearer middleware accepts
	AcceptedTokenUse []string
}

// JWKSURL is where the signing keys are published.
func (c CognitoConfig) JWKSURL() string {
	return strings.TrimSuffix(c.Authority, "/") + "/.well-known/jwks.json"
}

func loadCognitoConfig() CognitoConfig {
	return CognitoConfig{
		UserPoolID:       getEnv("COGNITO_USER_POOL_ID", ""),
		ClientID:         getEnv("COGNITO_CLIENT_ID", ""),
		Authority:        getEnv("COGNITO_AUTHORITY", ""),
		RequesterGroup:   getEnv("COGNITO_REQUESTER_GROUP", "requester"),
		CallTimeout:      getEnvDuration("IDP_CALL_TIMEOUT", 10*time.Second),
		AcceptedTokenUse: getEnvStringSlice("TOKEN_ACCEPTED_USE", []string{"access", "id"}),
	}
}

// StorageConfig selects where KYC documents live.
type StorageConfig struct {
	Mode      string // local | s3
	UploadDir string
	Bucket    string
	Prefix    string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Mode:      getEnv("STORAGE_MODE", "local"),
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		Bucket:    getEnv("AWS_BUCKET", ""),
		Prefix:    getEnv("STORAGE_PREFIX", ""),
	}
}
