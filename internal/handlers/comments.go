package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/trackboard/trackboard/internal/middleware/auth"
	"github.com/trackboard/trackboard/internal/models"
)

type CommentHandler struct {
	DB *gorm.DB
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{DB: db}
}

type createCommentRequest struct {
	Body string `json:"body"`
}

func (h *CommentHandler) Create(c echo.Context) error {
	issueID, err := parseUintParam(c, "issueId")
	if err != nil {
		return err
	}

	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "body is required")
	}

	ctx := c.Request().Context()
	var issue models.Issue
	if err := h.DB.WithContext(ctx).First(&issue, issueID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "issue not found")
	}

	comment := models.Comment{Body: req.Body, IssueID: issueID}
	if user := authmw.UserFromContext(c); user != nil {
		comment.UserID = user.ID
	}

	if err := h.DB.WithContext(ctx).Create(&comment).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) List(c echo.Context) error {
	issueID, err := parseUintParam(c, "issueId")
	if err != nil {
		return err
	}

	var comments []models.Comment
	err = h.DB.WithContext(c.Request().Context()).
		Preload("User").
		Where("issue_id = ?", issueID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, comments)
}
