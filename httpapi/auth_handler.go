package httpapi

import (
	"log/slog"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
	"github.com/labstack/echo/v4"
)

// AuthHandler serves the account lifecycle under /api/auth.
type AuthHandler struct {
	engine *goAccount.Engine
	logger *slog.Logger
}

func NewAuthHandler(log *slog.Logger, engine *goAccount.Engine) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		engine: engine,
		logger: log.With(slog.String("handler", "auth")),
	}
}

func (h *AuthHandler) Register(e *echo.Echo) {
	requireAuth := echo.WrapMiddleware(middleware.Authenticate(h.engine))
	optionalAuth := echo.WrapMiddleware(middleware.OptionalAuthenticate(h.engine))

	g := e.Group("/api/auth")
	g.POST("/register", h.SignUp)
	g.POST("/login", h.Login)
	g.POST("/verify-otp", h.VerifyOTP)
	g.POST("/resend-otp", h.ResendOTP)
	g.POST("/forgot-password", h.ForgotPassword)
	g.POST("/reset-password", h.ResetPassword)
	g.POST("/refresh-token", h.Refresh)
	g.POST("/change-password", h.ChangePassword, requireAuth)
	g.GET("/profile", h.GetProfile, requireAuth)
	g.PUT("/profile", h.UpdateProfile, requireAuth)
	g.GET("/session", h.Session, optionalAuth)
}

// SignUp creates an unverified account and mails its OTP.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req registerBody
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.engine.Register(c.Request().Context(), goAccount.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     goAccount.Role(req.Role),
	})
	if err != nil {
		return engineError(c, h.logger, err, "Registration failed.")
	}
	return ok(c, http.StatusCreated, "User registered successfully. Please verify your email with OTP.", map[string]any{
		"user":    res.Account,
		"tokens":  res.Tokens,
		"otpSent": res.OTPSent,
	})
}

func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPBody
	if err := bind(c, &req); err != nil {
		return err
	}
	account, err := h.engine.VerifyOTP(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		return engineError(c, h.logger, err, "OTP verification failed.")
	}
	return ok(c, http.StatusOK, "Email verified successfully.", map[string]any{"user": account})
}

func (h *AuthHandler) ResendOTP(c echo.Context) error {
	var req emailBody
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.engine.ResendOTP(c.Request().Context(), req.Email)
	if err != nil {
		return engineError(c, h.logger, err, "Failed to resend OTP.")
	}
	return ok(c, http.StatusOK, "OTP resent successfully.", map[string]any{"otpSent": res.OTPSent})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginBody
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.engine.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return engineError(c, h.logger, err, "Login failed.")
	}
	return ok(c, http.StatusOK, "Login successful.", map[string]any{
		"user":   res.Account,
		"tokens": res.Tokens,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshBody
	if err := bind(c, &req); err != nil {
		return err
	}
	tokens, err := h.engine.RefreshTokens(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return engineError(c, h.logger, err, "Token refresh failed.")
	}
	return ok(c, http.StatusOK, "Token refreshed successfully.", map[string]any{"tokens": tokens})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	claims, found := goAccount.ClaimsFromContext(c.Request().Context())
	if !found {
		return fail(c, http.StatusUnauthorized, "Access denied. No token provided.")
	}
	var req changePasswordBody
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.engine.ChangePassword(c.Request().Context(), claims.AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		return engineError(c, h.logger, err, "Failed to change password.")
	}
	return ok(c, http.StatusOK, "Password changed successfully.", nil)
}

// ForgotPassword answers with the same body whether or not the email is
// registered. Only a development reset token echo can tell them apart.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailBody
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.engine.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return engineError(c, h.logger, err, "Failed to process forgot password request.")
	}
	if res.ResetToken != "" {
		return ok(c, http.StatusOK, msgForgotPassword, map[string]any{"resetToken": res.ResetToken})
	}
	return ok(c, http.StatusOK, msgForgotPassword, nil)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordBody
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.engine.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return engineError(c, h.logger, err, "Failed to reset password.")
	}
	return ok(c, http.StatusOK, "Password reset successfully. You can now login with your new password.", nil)
}

func (h *AuthHandler) GetProfile(c echo.Context) error {
	claims, found := goAccount.ClaimsFromContext(c.Request().Context())
	if !found {
		return fail(c, http.StatusUnauthorized, "Access denied. No token provided.")
	}
	account, err := h.engine.GetProfile(c.Request().Context(), claims.AccountID)
	if err != nil {
		return engineError(c, h.logger, err, "Failed to get profile.")
	}
	return ok(c, http.StatusOK, "", map[string]any{"user": account})
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	claims, found := goAccount.ClaimsFromContext(c.Request().Context())
	if !found {
		return fail(c, http.StatusUnauthorized, "Access denied. No token provided.")
	}
	var req updateProfileBody
	if err := bind(c, &req); err != nil {
		return err
	}
	account, err := h.engine.UpdateProfile(c.Request().Context(), claims.AccountID, goAccount.ProfileUpdate{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		return engineError(c, h.logger, err, "Failed to update profile.")
	}
	return ok(c, http.StatusOK, "Profile updated successfully.", map[string]any{"user": account})
}

// Session reports the caller identity without requiring one.
func (h *AuthHandler) Session(c echo.Context) error {
	claims, found := goAccount.ClaimsFromContext(c.Request().Context())
	data := map[string]any{"authenticated": found}
	if found {
		data["user"] = claims
	}
	return ok(c, http.StatusOK, "", data)
}
