package httpx

import "context"

type ctxKey string

const (
	CtxKeyAccountID ctxKey = "account_id"
	CtxKeyAccount   ctxKey = "account" // full domain.Account when set by authn
)

// AccountIDFromCtx returns the authenticated account id, or "" when the
// request carries no session.
func AccountIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyAccountID).(string); ok {
		return v
	}
	return ""
}
