// Package http exposes the authentication service over REST. Responses use
// a single JSON envelope: {status, message, errors, data}.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/proskill/portal-auth/internal/auth/service"
	"github.com/proskill/portal-auth/internal/auth/store"
	"github.com/proskill/portal-auth/pkg/httpx"
	"github.com/proskill/portal-auth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	ChallengeService *service.ChallengeService
	SessionService   *service.SessionService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	r.registerOTP()
	r.registerSessions()
	r.registerAccount()
	r.registerSystem()
}

func (r *Router) registerOTP() {
	h := &OTPHandler{ChallengeService: r.ChallengeService}

	// OTP endpoints carry the SMS bill and the brute-force surface, so
	// they get the strict profile keyed by IP plus the target number.
	r.Mux.Handle("POST /v1/auth/otp/request",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			httpx.RateLimitByIPAndBodyField(httpx.StrictLimit, "phoneNumber"),
		),
	)

	r.Mux.Handle("POST /v1/auth/otp/resend",
		httpx.Chain(http.HandlerFunc(h.HandleResend),
			httpx.RateLimitByIPAndBodyField(httpx.StrictLimit, "phoneNumber"),
		),
	)

	r.Mux.Handle("POST /v1/auth/otp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIPAndBodyField(httpx.StrictLimit, "phoneNumber"),
		),
	)
}

func (r *Router) registerSessions() {
	h := &SessionHandler{SessionService: r.SessionService}

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			AuthnMiddleware(r.SessionService),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/force-logout",
		httpx.Chain(http.HandlerFunc(h.HandleForceLogout),
			AuthnMiddleware(r.SessionService),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			AuthnMiddleware(r.SessionService),
			httpx.RateLimitByAccount(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAccount() {
	h := &SessionHandler{SessionService: r.SessionService}

	r.Mux.Handle("DELETE /v1/account",
		httpx.Chain(http.HandlerFunc(h.HandleDeactivate),
			AuthnMiddleware(r.SessionService),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
