package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
	"github.com/labstack/echo/v4"
)

// AdminHandler exposes read-only account management for staff roles.
type AdminHandler struct {
	engine *goAccount.Engine
	logger *slog.Logger
}

func NewAdminHandler(log *slog.Logger, engine *goAccount.Engine) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{
		engine: engine,
		logger: log.With(slog.String("handler", "admin")),
	}
}

func (h *AdminHandler) Register(e *echo.Echo) {
	g := e.Group("/api/admin", echo.WrapMiddleware(middleware.Authenticate(h.engine)))
	g.GET("/accounts", h.ListAccounts, echo.WrapMiddleware(middleware.RequireAdmin()))
	g.GET("/accounts/:id", h.GetAccount, echo.WrapMiddleware(middleware.RequireAdminOrModerator()))
}

// ListAccounts pages through accounts, newest first. Bad paging values fall
// back to the defaults.
func (h *AdminHandler) ListAccounts(c echo.Context) error {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	accounts, err := h.engine.ListAccounts(c.Request().Context(), offset, limit)
	if err != nil {
		return engineError(c, h.logger, err, "Failed to list accounts.")
	}
	return ok(c, http.StatusOK, "", map[string]any{
		"users":  accounts,
		"offset": offset,
		"count":  len(accounts),
	})
}

func (h *AdminHandler) GetAccount(c echo.Context) error {
	account, err := h.engine.GetProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineError(c, h.logger, err, "Failed to get account.")
	}
	return ok(c, http.StatusOK, "", map[string]any{"user": account})
}
