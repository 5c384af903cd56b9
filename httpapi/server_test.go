package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/metrics/export/prometheus"
	"github.com/MrEthical07/goAccount/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type captureMailer struct {
	mu     sync.Mutex
	otps   map[string]string
	resets map[string]string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{otps: map[string]string{}, resets: map[string]string{}}
}

func (m *captureMailer) SendOTP(_ context.Context, to, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[to] = code
	return nil
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[to] = token
	return nil
}

func (m *captureMailer) SendWelcome(context.Context, string, string) error { return nil }

func (m *captureMailer) otp(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.otps[to]
}

func (m *captureMailer) reset(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[to]
}

type apiEnv struct {
	engine *goAccount.Engine
	mailer *captureMailer
	h      http.Handler
}

func newAPIEnv(t *testing.T, mutate ...func(*goAccount.Config)) *apiEnv {
	t.Helper()

	cfg := goAccount.DefaultConfig()
	cfg.JWT.AccessSecret = "httpapi-access-secret"
	cfg.JWT.RefreshSecret = "httpapi-refresh-secret"
	cfg.Password.BcryptCost = bcrypt.MinCost
	cfg.Audit.Enabled = false
	cfg.Metrics.Enabled = true
	for _, fn := range mutate {
		fn(&cfg)
	}

	mailer := newCaptureMailer()
	engine, err := goAccount.New().
		WithConfig(cfg).
		WithStore(memory.New(nil)).
		WithMailer(mailer).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewAccountServer(logger, "", engine, prometheus.New(engine).Handler())
	return &apiEnv{engine: engine, mailer: mailer, h: srv.Handler()}
}

type response struct {
	Code int
	Body goAccount.Envelope
	Raw  string
}

func (e *apiEnv) do(t *testing.T, method, path, body, token string) response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)

	out := response{Code: rec.Code, Raw: rec.Body.String()}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.Body), rec.Body.String())
	}
	return out
}

func data(t *testing.T, r response) map[string]any {
	t.Helper()
	m, isMap := r.Body.Data.(map[string]any)
	require.True(t, isMap, "expected object data, got %s", r.Raw)
	return m
}

func tokensOf(t *testing.T, r response) (string, string) {
	t.Helper()
	tokens, isMap := data(t, r)["tokens"].(map[string]any)
	require.True(t, isMap, r.Raw)
	return tokens["accessToken"].(string), tokens["refreshToken"].(string)
}

func TestFullLifecycle(t *testing.T) {
	env := newAPIEnv(t)

	reg := env.do(t, http.MethodPost, "/api/auth/register",
		`{"email":"Ann@Example.com","password":"secret123","name":"Ann","phone":"+123-456-7890"}`, "")
	require.Equal(t, http.StatusCreated, reg.Code, reg.Raw)
	assert.True(t, reg.Body.Success)
	assert.Equal(t, "User registered successfully. Please verify your email with OTP.", reg.Body.Message)
	user := data(t, reg)["user"].(map[string]any)
	assert.Equal(t, "ann@example.com", user["email"])
	assert.Equal(t, false, user["isVerified"])
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, true, data(t, reg)["otpSent"])
	assert.NotContains(t, reg.Raw, "password")

	otp := env.mailer.otp("ann@example.com")
	require.Len(t, otp, 6)

	ver := env.do(t, http.MethodPost, "/api/auth/verify-otp", `{"email":"ann@example.com","otp":"`+otp+`"}`, "")
	require.Equal(t, http.StatusOK, ver.Code, ver.Raw)
	assert.Equal(t, "Email verified successfully.", ver.Body.Message)

	login := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"ann@example.com","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, login.Code, login.Raw)
	access, refresh := tokensOf(t, login)

	prof := env.do(t, http.MethodGet, "/api/auth/profile", "", access)
	require.Equal(t, http.StatusOK, prof.Code, prof.Raw)
	assert.Equal(t, true, data(t, prof)["user"].(map[string]any)["isVerified"])

	upd := env.do(t, http.MethodPut, "/api/auth/profile", `{"name":"Ann B"}`, access)
	require.Equal(t, http.StatusOK, upd.Code, upd.Raw)
	assert.Equal(t, "Ann B", data(t, upd)["user"].(map[string]any)["name"])
	assert.Equal(t, "+123-456-7890", data(t, upd)["user"].(map[string]any)["phone"])

	chg := env.do(t, http.MethodPost, "/api/auth/change-password", `{"currentPassword":"secret123","newPassword":"better456"}`, access)
	require.Equal(t, http.StatusOK, chg.Code, chg.Raw)
	assert.Equal(t, "Password changed successfully.", chg.Body.Message)

	ref := env.do(t, http.MethodPost, "/api/auth/refresh-token", `{"refreshToken":"`+refresh+`"}`, "")
	require.Equal(t, http.StatusOK, ref.Code, ref.Raw)
	newAccess, _ := tokensOf(t, ref)
	assert.NotEmpty(t, newAccess)

	sess := env.do(t, http.MethodGet, "/api/auth/session", "", newAccess)
	require.Equal(t, http.StatusOK, sess.Code)
	assert.Equal(t, true, data(t, sess)["authenticated"])
}

func TestRegisterValidation(t *testing.T) {
	env := newAPIEnv(t)

	r := env.do(t, http.MethodPost, "/api/auth/register",
		`{"email":"nope","password":"123","name":"A","phone":"12","role":"root"}`, "")
	require.Equal(t, http.StatusBadRequest, r.Code)
	assert.False(t, r.Body.Success)
	assert.Equal(t, "Validation failed", r.Body.Message)

	got := map[string]string{}
	for _, fe := range r.Body.Errors {
		got[fe.Field] = fe.Message
	}
	assert.Equal(t, map[string]string{
		"email":    "Invalid email format",
		"password": "Password must be at least 6 characters",
		"name":     "Name must be at least 2 characters",
		"phone":    "Invalid phone number",
		"role":     "Invalid role",
	}, got)
}

func TestVerifyOTPValidationMessages(t *testing.T) {
	env := newAPIEnv(t)

	r := env.do(t, http.MethodPost, "/api/auth/verify-otp", `{"email":"a@b.co","otp":"12ab56"}`, "")
	require.Equal(t, http.StatusBadRequest, r.Code)
	require.Len(t, r.Body.Errors, 1)
	assert.Equal(t, goAccount.FieldError{Field: "otp", Message: "OTP must contain only numbers"}, r.Body.Errors[0])

	r = env.do(t, http.MethodPost, "/api/auth/verify-otp", `{"email":"a@b.co","otp":"123"}`, "")
	require.Len(t, r.Body.Errors, 1)
	assert.Equal(t, "OTP must be 6 digits", r.Body.Errors[0].Message)
}

func TestInvalidBody(t *testing.T) {
	env := newAPIEnv(t)

	r := env.do(t, http.MethodPost, "/api/auth/login", `{"email":`, "")
	require.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, "Invalid request body", r.Body.Message)
}

func TestDuplicateAndCredentialErrors(t *testing.T) {
	env := newAPIEnv(t)

	body := `{"email":"dup@example.com","password":"secret123"}`
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/auth/register", body, "").Code)

	dup := env.do(t, http.MethodPost, "/api/auth/register", `{"email":"DUP@example.com","password":"secret123"}`, "")
	assert.Equal(t, http.StatusBadRequest, dup.Code)
	assert.Equal(t, "User with this email already exists.", dup.Body.Message)

	wrong := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"dup@example.com","password":"nope"}`, "")
	unknown := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"ghost@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Raw, unknown.Raw)
	assert.Equal(t, "Invalid email or password.", wrong.Body.Message)

	missing := env.do(t, http.MethodPost, "/api/auth/verify-otp", `{"email":"ghost@example.com","otp":"123456"}`, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "User not found.", missing.Body.Message)

	mismatch := env.do(t, http.MethodPost, "/api/auth/verify-otp", `{"email":"dup@example.com","otp":"000000"}`, "")
	if env.mailer.otp("dup@example.com") != "000000" {
		assert.Equal(t, http.StatusBadRequest, mismatch.Code)
		assert.Equal(t, "Invalid OTP.", mismatch.Body.Message)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	env := newAPIEnv(t, func(c *goAccount.Config) { c.PasswordReset.ExposeToken = true })

	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/api/auth/register", `{"email":"bo@example.com","password":"secret123"}`, "").Code)

	unknown := env.do(t, http.MethodPost, "/api/auth/forgot-password", `{"email":"ghost@example.com"}`, "")
	require.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, "If the email exists, a password reset link has been sent.", unknown.Body.Message)
	assert.Nil(t, unknown.Body.Data)

	known := env.do(t, http.MethodPost, "/api/auth/forgot-password", `{"email":"bo@example.com"}`, "")
	require.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, unknown.Body.Message, known.Body.Message)
	token := env.mailer.reset("bo@example.com")
	assert.Equal(t, map[string]any{"resetToken": token}, data(t, known))

	reset := env.do(t, http.MethodPost, "/api/auth/reset-password", `{"token":"`+token+`","newPassword":"fresh789"}`, "")
	require.Equal(t, http.StatusOK, reset.Code, reset.Raw)

	replay := env.do(t, http.MethodPost, "/api/auth/reset-password", `{"token":"`+token+`","newPassword":"again789"}`, "")
	assert.Equal(t, http.StatusBadRequest, replay.Code)
	assert.Equal(t, "Invalid or expired reset token.", replay.Body.Message)

	missingToken := env.do(t, http.MethodPost, "/api/auth/reset-password", `{"newPassword":"again789"}`, "")
	require.Len(t, missingToken.Body.Errors, 1)
	assert.Equal(t, "Reset token is required", missingToken.Body.Errors[0].Message)

	login := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"bo@example.com","password":"fresh789"}`, "")
	assert.Equal(t, http.StatusOK, login.Code)
}

func TestForgotPasswordSameAnswerForUnknownEmail(t *testing.T) {
	env := newAPIEnv(t)
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/api/auth/register", `{"email":"cy@example.com","password":"secret123"}`, "").Code)

	known := env.do(t, http.MethodPost, "/api/auth/forgot-password", `{"email":"cy@example.com"}`, "")
	unknown := env.do(t, http.MethodPost, "/api/auth/forgot-password", `{"email":"ghost@example.com"}`, "")
	require.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, unknown.Code, known.Code)
	assert.Equal(t, unknown.Raw, known.Raw)
	assert.NotContains(t, known.Raw, "resetToken")
	assert.NotContains(t, known.Raw, "emailSent")
	assert.NotEmpty(t, env.mailer.reset("cy@example.com"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newAPIEnv(t)

	r := env.do(t, http.MethodGet, "/api/auth/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	assert.Equal(t, "Access denied. No token provided.", r.Body.Message)

	r = env.do(t, http.MethodGet, "/api/auth/profile", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	assert.Equal(t, "Invalid or expired token.", r.Body.Message)

	sess := env.do(t, http.MethodGet, "/api/auth/session", "", "garbage")
	require.Equal(t, http.StatusOK, sess.Code)
	assert.Equal(t, false, data(t, sess)["authenticated"])
}

func TestAdminRoutes(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	admin, err := env.engine.SeedAdmin(ctx, "root@example.com", "secret123", "Root")
	require.NoError(t, err)
	adminLogin, err := env.engine.Login(ctx, "root@example.com", "secret123")
	require.NoError(t, err)

	reg, err := env.engine.Register(ctx, goAccount.RegisterRequest{Email: "mod@example.com", Password: "secret123", Role: goAccount.RoleModerator})
	require.NoError(t, err)
	user, err := env.engine.Register(ctx, goAccount.RegisterRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)

	list := env.do(t, http.MethodGet, "/api/admin/accounts?limit=10", "", adminLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, list.Code, list.Raw)
	assert.EqualValues(t, 3, data(t, list)["count"])

	modList := env.do(t, http.MethodGet, "/api/admin/accounts", "", reg.Tokens.AccessToken)
	assert.Equal(t, http.StatusForbidden, modList.Code)
	assert.Equal(t, "Access denied. Insufficient permissions.", modList.Body.Message)

	modGet := env.do(t, http.MethodGet, "/api/admin/accounts/"+admin.ID, "", reg.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, modGet.Code, modGet.Raw)
	assert.Equal(t, "root@example.com", data(t, modGet)["user"].(map[string]any)["email"])

	userGet := env.do(t, http.MethodGet, "/api/admin/accounts/"+admin.ID, "", user.Tokens.AccessToken)
	assert.Equal(t, http.StatusForbidden, userGet.Code)

	missing := env.do(t, http.MethodGet, "/api/admin/accounts/nope", "", adminLogin.Tokens.AccessToken)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestSystemRoutes(t *testing.T) {
	env := newAPIEnv(t)

	banner := env.do(t, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, banner.Code)
	assert.Equal(t, "Mobile Database API is running", banner.Body.Message)
	assert.Contains(t, banner.Raw, "POST /api/auth/register")

	health := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, health.Code)

	notFound := env.do(t, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, notFound.Code)
	assert.Equal(t, "Route not found", notFound.Body.Message)

	wrongMethod := env.do(t, http.MethodDelete, "/api/auth/login", "", "")
	assert.Equal(t, http.StatusNotFound, wrongMethod.Code)

	_ = env.do(t, http.MethodPost, "/api/auth/register", `{"email":"m@example.com","password":"secret123"}`, "")
	metrics := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Raw, "goaccount_register_success_total 1")
}
