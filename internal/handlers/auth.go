package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trackboard/trackboard/internal/logging"
	authmw "github.com/trackboard/trackboard/internal/middleware/auth"
	"github.com/trackboard/trackboard/internal/mykafka"
	"github.com/trackboard/trackboard/internal/service"
	"github.com/trackboard/trackboard/internal/tokens"
)

const refreshHeaderName = "X-Refresh-Token"

type AuthHandler struct {
	Svc           *service.AuthService
	Producer      *mykafka.Producer
	Validate      *validator.Validate
	RefreshTTL    int // seconds, drives the cookie MaxAge
	SecureCookies bool
}

func NewAuthHandler(svc *service.AuthService, producer *mykafka.Producer, refreshTTL int, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		Svc:           svc,
		Producer:      producer,
		Validate:      validator.New(),
		RefreshTTL:    refreshTTL,
		SecureCookies: secureCookies,
	}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	deviceInfo := c.Request().UserAgent()
	res, err := h.Svc.Login(ctx, req.Email, req.Password, deviceInfo)
	if err != nil {
		l.Warn("login_failed", "status", http.StatusUnauthorized)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	h.setRefreshCookie(c, res.RefreshToken)
	publishEvent(c, h.Producer, "user_events", fmt.Sprint(res.User.ID), map[string]any{
		"type":   "user_logged_in",
		"userID": res.User.ID,
		"email":  res.User.Email,
	})
	l.Info("login_successful", "userID", res.User.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": res.AccessToken,
		"expiresIn":   res.ExpiresIn,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	raw := h.rawRefreshToken(c)
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "no refresh token provided")
	}

	res, err := h.Svc.Refresh(ctx, raw, c.Request().UserAgent())
	if err != nil {
		l.Warn("refresh_failed", "status", http.StatusUnauthorized)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired refresh token")
	}

	h.setRefreshCookie(c, res.RefreshToken)
	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": res.AccessToken,
		"expiresIn":   res.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if raw := h.rawRefreshToken(c); raw != "" {
		if err := h.Svc.Logout(ctx, raw); err != nil {
			// Revocation hiccups must not keep the client logged in.
			l.Error("logout_revoke_failed", "error", err)
		}
	}

	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookieName, "/"))
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me answers with the identity resolved by the auth middleware.
func (h *AuthHandler) Me(c echo.Context) error {
	user := authmw.UserFromContext(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
}

func (h *AuthHandler) rawRefreshToken(c echo.Context) string {
	if ck, err := c.Cookie(tokens.RefreshCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return c.Request().Header.Get(refreshHeaderName)
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, raw string) {
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookieName, raw, "/", h.RefreshTTL, h.SecureCookies))
}

