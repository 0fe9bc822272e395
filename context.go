package licensex

import "context"

type licenseClaimsKey struct{}

// BindClaims stores verified license claims inside the context for downstream consumers.
func BindClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, licenseClaimsKey{}, claims)
}

// ClaimsFromContext retrieves claims previously stored by BindClaims or Authorize.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	if ctx == nil {
		return nil, false
	}
	claims, ok := ctx.Value(licenseClaimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Authorize runs Check and, on success, returns ctx with the claims bound.
func (v *Verifier) Authorize(ctx context.Context, token, machineID string) (context.Context, error) {
	result := Verify(token, v.secret, v.now())
	v.metrics.recordVerify(ctx, result)
	claims, err := result.Require(machineID)
	if err != nil {
		return ctx, err
	}
	return BindClaims(ctx, claims), nil
}
