package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/proskill/portal-auth/internal/auth/domain"
	"github.com/proskill/portal-auth/internal/auth/service"
	"github.com/proskill/portal-auth/internal/auth/store"
	"github.com/proskill/portal-auth/internal/auth/store/drivers/sqlite"
	"github.com/proskill/portal-auth/pkg/phonex"
	"github.com/proskill/portal-auth/pkg/tokenx"
	"github.com/stretchr/testify/require"
)

const (
	testPhone   = "+91 98765 43210"
	testDevCode = "123456"
)

type fakeSender struct {
	mu   sync.Mutex
	otps []string
	fail bool
}

func (f *fakeSender) Name() string { return "fake" }

func (f *fakeSender) SendOTP(_ context.Context, _, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("provider down")
	}
	f.otps = append(f.otps, code)
	return nil
}

func (f *fakeSender) SendWelcome(context.Context, string, string) error { return nil }

type fakeDirectory struct {
	rec *domain.StudentRecord
}

func (f *fakeDirectory) FindByPhone(context.Context, phonex.Number) (*domain.StudentRecord, error) {
	return f.rec, nil
}

func (f *fakeDirectory) Close() {}

type routerEnv struct {
	store  store.Store
	sender *fakeSender
	dir    *fakeDirectory
	router *Router
}

func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	tokens, err := tokenx.NewIssuer([]byte("test-secret"), "portal-auth-test")
	require.NoError(t, err)

	sender := &fakeSender{}
	dir := &fakeDirectory{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter("test", st, logger)
	router.ChallengeService = &service.ChallengeService{
		Store:    st,
		Sender:   sender,
		Resolver: &service.ResolverService{Directory: dir},
		Tokens:   tokens,
		DevCode:  testDevCode,
	}
	router.SessionService = &service.SessionService{Store: st, Tokens: tokens}
	router.ApplyRoutes()

	return &routerEnv{store: st, sender: sender, dir: dir, router: router}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

func (env *routerEnv) do(t *testing.T, method, path, body, token string) (int, envelope) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var resp envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

// login walks the request+verify flow and returns the session token.
func (env *routerEnv) login(t *testing.T, phone string) string {
	t.Helper()

	code, _ := env.do(t, http.MethodPost, "/v1/auth/otp/request", `{"phoneNumber":"`+phone+`"}`, "")
	require.Equal(t, http.StatusOK, code)

	code, resp := env.do(t, http.MethodPost, "/v1/auth/otp/verify",
		`{"phoneNumber":"`+phone+`","otp":"`+testDevCode+`"}`, "")
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func TestOTPRequestIssuesChallenge(t *testing.T) {
	t.Parallel()
	env := newRouterEnv(t)
	env.dir.rec = &domain.StudentRecord{FullName: "Asha Kumar"}

	code, resp := env.do(t, http.MethodPost, "/v1/auth/otp/request",
		`{"phoneNumber":"`+testPhone+`"}`, "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "success", resp.Status)
	require.Equal(t, "OTP sent successfully", resp.Message)

	var data challengeData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, "9876543210", data.PhoneNumber)
	require.Equal(t, "+91", data.CountryCode)
	require.Equal(t, "10 minutes", data.ExpiresIn)
	require.Equal(t, "Asha Kumar", data.Name)

	require.Equal(t, []string{testDevCode}, env.sender.otps)
}

func TestOTPRequestValidation(t *testing.T) {
	t.Parallel()
	env := newRouterEnv(t)

	t.Run("missing phone", func(t *testing.T) {
		code, resp := env.do(t, http.MethodPost, "/v1/auth/otp/request", `{}`, "")
		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, resp.Errors, "PHONE_NUMBER_REQUIRED")
	})

	t.Run("invalid phone", func(t *testing.T) {
		code, resp := env.do(t, http.MethodPost, "/v1/auth/otp/request", `{"phoneNumber":"abc"}`, "")
		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, resp.Errors, "INVALID_PHONE_NUMBER")
	})

	t.Run("malformed body", func(t *testing.T) {
		code, resp := env.do(t, http.MethodPost, "/v1/auth/otp/request", `{`, "")
		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, resp.Errors, "INVALID_BODY")
	})
}

func TestOTPResendRequiresExistingAccount(t *testing.T) {
	t.Parallel()
	env := newRouterEnv(t)

	code, resp := env.do(t, http.MethodPost, "/v1/auth/otp/resend",
		`{"phoneNumber":"`+testPhone+`"}`, "")
	require.Equal(t, http.StatusNotFound, code)
	require.Contains(t, resp.Errors, "USER_NOT_FOUND")
}

func TestOTPVerifyLogsIn(t *testing.T) {
	t.Parallel()
	env := newRouterEnv(t)
	env.dir.rec = &domain.StudentRecord{FullName: "Asha Kumar"}

	code, _ := env.do(t, http.MethodPost, "/v1/auth/otp/request",
		`{"phoneNumber":"`+testPhone+`"}`, "")
	require.Equal(t, http.StatusOK, code)

	code, resp := env.do(t, http.MethodPost, "/v1/auth/otp/verify",
		`{"phoneNumber":"`+testPhone+`","otp":"`+testDevCode+`"}`, "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Registration successful", resp.Message)

	var data struct {
		Token                string         `json:"token"`
		IsFirstTimeLogin     bool           `json:"isFirstTimeLogin"`
		IsRosterStudent      bool           `json:"isRosterStudent"`
		RequiresRegistration bool           `json:"requiresRegistration"`
		User                 accountPayload `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.Token)
	require.True(t, data.IsFirstTimeLogin)
	require.True(t, data.IsRosterStudent)
	require.False(t, data.RequiresRegistration)
	require.True(t, data.User.IsVerified)
	require.Equal(t, "Asha Kumar", data.User.Profile.FirstName)
	require.Equal(t, "+919876543210", data.User.FullPhoneNumber)
}

func TestOTPVerifyWrongCode(t *testing.T) {
	t.Parallel()
	env := newRouterEnv(t)

	code, _ := env.do(t, http.MethodPost, "/v1/auth/otp/request",
		`{"phoneNumber":"`+testPhone+`"}`, "")
	require.Equal(t, http.StatusOK, code)

	code, resp := env.do(t, http.MethodPost, "/v1/auth/otp/verify",
		`{"phoneNumber":"`+testPhone+`","otp":"654321"}`, "")
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, resp.Errors, "INVALID_OTP")

	// An unknown number fails identically.
	code, resp = env.do(t, http.MethodPost, "/v1/auth/otp/verify",
		`{"phoneNumber":"+91 11111 22222","otp":"654321"}`, "")
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, resp.Errors, "INVALID_OTP")
}

func TestMeReturnsAccount(t *testing.T) {
	t.Parallel()
	env := newRouterEnv(t)
	token := env.login(t, testPhone)

	code, resp := env.do(t, http.MethodGet, "/v1/auth/me", "", token)
	require.Equal(t, http.StatusOK, code)

	var data struct {
		User accountPayload `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, "9876543210", data.User.PhoneNumber)
	require.True(t, data.User.IsVerified)
}

func TestMeRejectsMissingAndGarbageTokens(t *testing.T) {
	t.Parallel()
	env := newRouterEnv(t)

	code, resp := env.do(t, http.MethodGet, "/v1/auth/me", "", "")
	require.Equal(t, http.StatusUnauthorized, code)
	require.Contains(t, resp.Errors, "UNAUTHORIZED")

	code, resp = env.do(t, http.MethodGet, "/v1/auth/me", "", "not-a-token")
	require.Equal(t, http.StatusUnauthorized, code)
	require.Contains(t, resp.Errors, "INVALID_SESSION")
}

func TestLogoutRevokesToken(t *testing.T) {
	t.Parallel()
	env := newRouterEnv(t)
	token := env.login(t, testPhone)

	code, resp := env.do(t, http.MethodPost, "/v1/auth/logout", "", token)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Logged out successfully", resp.Message)

	// The old token is dead on the very next request.
	code, resp = env.do(t, http.MethodGet, "/v1/auth/me", "", token)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Contains(t, resp.Errors, "SESSION_REVOKED")
}

func TestForceLogoutReportsGeneration(t *testing.T) {
	t.Parallel()
	env := newRouterEnv(t)
	token := env.login(t, testPhone)

	code, resp := env.do(t, http.MethodPost, "/v1/auth/force-logout", "", token)
	require.Equal(t, http.StatusOK, code)

	var data struct {
		TokenGeneration int64 `json:"tokenGeneration"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, int64(1), data.TokenGeneration)
}

func TestDeactivateClosesAccount(t *testing.T) {
	t.Parallel()
	env := newRouterEnv(t)
	token := env.login(t, testPhone)

	code, resp := env.do(t, http.MethodDelete, "/v1/account", "", token)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Account deactivated", resp.Message)

	code, resp = env.do(t, http.MethodGet, "/v1/auth/me", "", token)
	require.Equal(t, http.StatusForbidden, code)
	require.Contains(t, resp.Errors, "ACCOUNT_DEACTIVATED")
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	env := newRouterEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
