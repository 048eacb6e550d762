package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/proskill/portal-auth/internal/auth/domain"
	"github.com/proskill/portal-auth/internal/auth/service"
	"github.com/proskill/portal-auth/pkg/httpx"
	"github.com/proskill/portal-auth/pkg/slogx"
)

// AuthnMiddleware verifies the bearer session token and loads its account
// into the request context. The account check runs against the store on
// every request, so revoked generations and deactivated accounts are cut
// off immediately rather than at token expiry.
func AuthnMiddleware(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeSessionError(w, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			account, err := sessions.Authorize(ctx, raw)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrSessionRevoked):
					writeSessionError(w, http.StatusUnauthorized, "Session has been revoked", "SESSION_REVOKED")
				case errors.Is(err, service.ErrAccountDeactivated):
					writeSessionError(w, http.StatusForbidden, "Account is deactivated", "ACCOUNT_DEACTIVATED")
				case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, service.ErrInvalidSession):
					writeSessionError(w, http.StatusUnauthorized, "Invalid or expired session", "INVALID_SESSION")
				default:
					log.Error("session authorization failed", "err", err)
					writeSessionError(w, http.StatusInternalServerError, "An error occurred", "INTERNAL_SERVER_ERROR")
				}
				return
			}

			// Inject into context for downstream handlers.
			ctx = contextWithAccount(ctx, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithAccount(ctx context.Context, a domain.Account) context.Context {
	ctx = context.WithValue(ctx, httpx.CtxKeyAccountID, a.ID)
	ctx = context.WithValue(ctx, httpx.CtxKeyAccount, a)
	return ctx
}

func accountFromCtx(ctx context.Context) (domain.Account, bool) {
	a, ok := ctx.Value(httpx.CtxKeyAccount).(domain.Account)
	return a, ok
}

func writeSessionError(w http.ResponseWriter, code int, message, kind string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	httpx.WriteError(w, code, message, kind)
}
