package httpapi

import (
	"log/slog"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/labstack/echo/v4"
)

var endpointListing = map[string]map[string]string{
	"auth": {
		"register":       "POST /api/auth/register",
		"login":          "POST /api/auth/login",
		"verifyOTP":      "POST /api/auth/verify-otp",
		"resendOTP":      "POST /api/auth/resend-otp",
		"forgotPassword": "POST /api/auth/forgot-password",
		"resetPassword":  "POST /api/auth/reset-password",
		"refreshToken":   "POST /api/auth/refresh-token",
		"changePassword": "POST /api/auth/change-password (requires auth)",
		"profile":        "GET /api/auth/profile (requires auth)",
		"updateProfile":  "PUT /api/auth/profile (requires auth)",
		"session":        "GET /api/auth/session (optional auth)",
	},
	"admin": {
		"listAccounts": "GET /api/admin/accounts (requires admin)",
		"getAccount":   "GET /api/admin/accounts/:id (requires admin or moderator)",
	},
}

// SystemHandler serves the banner, health and metrics endpoints.
type SystemHandler struct {
	engine  *goAccount.Engine
	metrics http.Handler
	logger  *slog.Logger
}

// NewSystemHandler wires the operational endpoints. A nil metrics handler
// leaves /metrics unregistered.
func NewSystemHandler(log *slog.Logger, engine *goAccount.Engine, metrics http.Handler) *SystemHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SystemHandler{
		engine:  engine,
		metrics: metrics,
		logger:  log.With(slog.String("handler", "system")),
	}
}

func (h *SystemHandler) Register(e *echo.Echo) {
	e.GET("/", h.Banner)
	e.GET("/health", h.Health)
	if h.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.metrics))
	}
}

func (h *SystemHandler) Banner(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Mobile Database API is running",
		"endpoints": endpointListing,
	})
}

// Health pings the account store.
func (h *SystemHandler) Health(c echo.Context) error {
	if err := h.engine.Ping(c.Request().Context()); err != nil {
		h.logger.WarnContext(c.Request().Context(), "health check failed", slog.Any("error", err))
		return c.JSON(http.StatusServiceUnavailable, goAccount.Envelope{
			Success: false,
			Message: "Service unavailable",
			Error:   "store unreachable",
		})
	}
	return ok(c, http.StatusOK, "ok", nil)
}
