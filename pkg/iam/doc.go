// Package iam holds identity and access concerns for the credit intake API.
//
// # Layout
//
//   - iam/idp: identity provider port and closed error-kind set
//   - iam/idp/idpcognito: AWS Cognito adapter
//   - iam/auth: login, password reset and refresh (authsrv, authapi)
//   - iam/token: bearer token validation into a kernel.Principal
//   - iam/guard: role checks per route
//   - iam/iamcontainer: wiring of the above
//
// # Request flow
//
//	bearer header or Authorization cookie
//	  → token.Middleware.Authenticate   (signature, issuer, audience, expiry, token_use)
//	  → c.Locals(kernel.PrincipalKey)   (*kernel.Principal)
//	  → guard.RequireRoles("analyst", "supervisor")
//	  → handler
//
// Principals carry exactly one role: the first identity provider group,
// lowercased, or kernel.DefaultRole when the caller belongs to no group.
//
// # Errors
//
// Each sub-package owns an errx registry: IAM (guard), AUTH (auth service),
// TOKEN (validation). Provider error names never leave iam/idp: adapters
// classify them into idp.Kind and services map kinds to their own codes.
//
//	IAM_UNAUTHENTICATED             401
//	IAM_NO_ROLES_ASSIGNED           403
//	IAM_INSUFFICIENT_ROLE           403
//	TOKEN_INVALID_TOKEN_USE         401
//	TOKEN_INVALID_SIGNATURE_OR_CLAIMS 401
//	AUTH_INVALID_CREDENTIALS        401  (wrong password and unknown user alike)
//	AUTH_INVALID_OR_EXPIRED_CODE    400
//	AUTH_WEAK_CREDENTIAL            400
//	AUTH_INVALID_REFRESH_TOKEN      401
//	AUTH_AUTHENTICATION_FAILED      401
//	AUTH_BAD_REQUEST                400
package iam
