package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/trackboard/trackboard/internal/logging"
	authmw "github.com/trackboard/trackboard/internal/middleware/auth"
	"github.com/trackboard/trackboard/internal/models"
	"github.com/trackboard/trackboard/internal/service"
	"github.com/trackboard/trackboard/internal/tokens"
)

// impersonationTTL bounds how long a support session can act as another
// user.
const impersonationTTL = time.Hour

type AdminHandler struct {
	DB    *gorm.DB
	Codec *tokens.Codec
}

func NewAdminHandler(db *gorm.DB, codec *tokens.Codec) *AdminHandler {
	return &AdminHandler{DB: db, Codec: codec}
}

func (h *AdminHandler) Users(c echo.Context) error {
	q := h.DB.WithContext(c.Request().Context()).Preload("Roles")
	if email := c.QueryParam("email"); email != "" {
		q = q.Where("email LIKE ?", "%"+email+"%")
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, users)
}

type impersonateRequest struct {
	UserID uint `json:"userId"`
}

// Impersonate issues a short-lived access token for another user and
// records the action in the audit log.
func (h *AdminHandler) Impersonate(c echo.Context) error {
	var req impersonateRequest
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	var target models.User
	err := h.DB.WithContext(ctx).Preload("Roles.Permissions").First(&target, req.UserID).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	accessToken, _, err := h.Codec.IssueWithTTL(
		strconv.FormatUint(uint64(target.ID), 10),
		service.RoleNames(&target),
		service.ScopeNames(&target),
		impersonationTTL,
	)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	entry := models.AuditLog{
		Action:  "impersonate",
		Details: fmt.Sprintf(`{"impersonatedUserId":%d}`, target.ID),
	}
	if admin := authmw.UserFromContext(c); admin != nil {
		entry.UserID = admin.ID
	}
	if err := h.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		logging.FromContext(ctx).Error("audit log write failed", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": accessToken,
		"expiresIn":   int(impersonationTTL.Seconds()),
	})
}

func (h *AdminHandler) AuditLogs(c echo.Context) error {
	q := h.DB.WithContext(c.Request().Context())
	if userID := c.QueryParam("userId"); userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if action := c.QueryParam("action"); action != "" {
		q = q.Where("action = ?", action)
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC").Find(&logs).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, logs)
}
