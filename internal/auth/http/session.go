package http

import (
	"errors"
	"net/http"

	"github.com/proskill/portal-auth/internal/auth/service"
	"github.com/proskill/portal-auth/pkg/httpx"
	"github.com/proskill/portal-auth/pkg/slogx"
)

// SessionHandler serves the authenticated endpoints: introspection, logout,
// forced revocation, and deactivation. AuthnMiddleware has already placed
// the account in the request context.
type SessionHandler struct {
	SessionService *service.SessionService
}

// HandleMe returns the authenticated account.
func (h *SessionHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	account, ok := accountFromCtx(r.Context())
	if !ok {
		writeSessionError(w, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "", map[string]any{
		"user": newAccountPayload(account),
	})
}

// HandleLogout revokes every session for the account.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	account, ok := accountFromCtx(r.Context())
	if !ok {
		writeSessionError(w, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
		return
	}

	if err := h.SessionService.Logout(r.Context(), account.ID); err != nil {
		writeAccountError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

// HandleForceLogout revokes every session and reports the new generation,
// which a client can surface for support diagnostics.
func (h *SessionHandler) HandleForceLogout(w http.ResponseWriter, r *http.Request) {
	account, ok := accountFromCtx(r.Context())
	if !ok {
		writeSessionError(w, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
		return
	}

	gen, err := h.SessionService.ForceLogout(r.Context(), account.ID)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "All sessions revoked", map[string]any{
		"tokenGeneration": gen,
	})
}

// HandleDeactivate soft-deletes the account.
func (h *SessionHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	account, ok := accountFromCtx(r.Context())
	if !ok {
		writeSessionError(w, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
		return
	}

	if err := h.SessionService.Deactivate(r.Context(), account.ID); err != nil {
		writeAccountError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "Account deactivated", nil)
}

func writeAccountError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		httpx.WriteError(w, http.StatusNotFound, "User not found", "USER_NOT_FOUND")
	default:
		slogx.FromContext(r.Context()).Error("account endpoint failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "An error occurred. Please try again.", "INTERNAL_SERVER_ERROR")
	}
}
