// Package asyncx holds the small concurrency helpers used by the services:
// hard deadlines around outbound calls and settle-all fan-out for cleanup
// work that must not short-circuit.
//
//	tokens, err := asyncx.WithTimeout(ctx, 10*time.Second, func(ctx context.Context) (*idp.AuthTokens, error) {
//	    return provider.InitiatePasswordAuth(ctx, username, password)
//	})
//
//	errs := asyncx.Settle(ctx, removeFiles, removeIdentity)
package asyncx
