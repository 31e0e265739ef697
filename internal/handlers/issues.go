package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/trackboard/trackboard/internal/logging"
	"github.com/trackboard/trackboard/internal/models"
	"github.com/trackboard/trackboard/internal/mykafka"
	"github.com/trackboard/trackboard/internal/service/search"
	"github.com/trackboard/trackboard/internal/util"
)

type IssueHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
	Validate *validator.Validate
}

func NewIssueHandler(db *gorm.DB, producer *mykafka.Producer, es *elasticsearch.Client, index string) *IssueHandler {
	return &IssueHandler{DB: db, Producer: producer, ES: es, Index: index, Validate: validator.New()}
}

type createIssueRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	ListID      uint   `json:"listId" validate:"required"`
	AssigneeID  *uint  `json:"assigneeId"`
}

func (h *IssueHandler) Create(c echo.Context) error {
	projectID, err := parseUintParam(c, "projectId")
	if err != nil {
		return err
	}

	var req createIssueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	var project models.Project
	if err := h.DB.WithContext(ctx).First(&project, projectID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "project not found")
	}
	// The list must sit on a board of the path project, not just exist.
	var list models.List
	err = h.DB.WithContext(ctx).
		Joins("JOIN boards ON boards.id = lists.board_id").
		Where("lists.id = ? AND boards.project_id = ?", req.ListID, projectID).
		First(&list).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "list not found")
	}

	issue := models.Issue{
		Title:       req.Title,
		Description: req.Description,
		ListID:      req.ListID,
		AssigneeID:  req.AssigneeID,
		Position:    nextPosition(h.DB.WithContext(ctx).Model(&models.Issue{}).Where("list_id = ?", req.ListID)),
	}
	if err := h.DB.WithContext(ctx).Create(&issue).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.index(c, &issue)
	publishEvent(c, h.Producer, "issue_events", fmt.Sprint(issue.ID), map[string]any{
		"type":    "issue_created",
		"issueID": issue.ID,
		"listID":  issue.ListID,
		"title":   issue.Title,
	})
	return c.JSON(http.StatusCreated, issue)
}

func (h *IssueHandler) List(c echo.Context) error {
	projectID, err := parseUintParam(c, "projectId")
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.WithContext(c.Request().Context()).
		Joins("JOIN lists ON lists.id = issues.list_id").
		Joins("JOIN boards ON boards.id = lists.board_id").
		Where("boards.project_id = ?", projectID).
		Preload("List").
		Preload("Assignee").
		Preload("Comments")
	if assignee := c.QueryParam("assigneeId"); assignee != "" {
		q = q.Where("issues.assignee_id = ?", assignee)
	}

	var issues []models.Issue
	err = q.Order("issues.created_at DESC").Offset(offset).Limit(limit).Find(&issues).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, issues)
}

func (h *IssueHandler) Get(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var issue models.Issue
	err = h.DB.WithContext(c.Request().Context()).
		Preload("List").
		Preload("Assignee").
		Preload("Comments.User").
		First(&issue, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "issue not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, issue)
}

type updateIssueRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ListID      *uint   `json:"listId"`
	AssigneeID  *uint   `json:"assigneeId"`
}

func (h *IssueHandler) Patch(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var req updateIssueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	var issue models.Issue
	if err := h.DB.WithContext(ctx).First(&issue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "issue not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.ListID != nil {
		var list models.List
		if err := h.DB.WithContext(ctx).First(&list, *req.ListID).Error; err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "list not found")
		}
		issue.ListID = *req.ListID
	}
	if req.Title != nil {
		issue.Title = *req.Title
	}
	if req.Description != nil {
		issue.Description = *req.Description
	}
	if req.AssigneeID != nil {
		issue.AssigneeID = req.AssigneeID
	}

	if err := h.DB.WithContext(ctx).Save(&issue).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.index(c, &issue)
	publishEvent(c, h.Producer, "issue_events", fmt.Sprint(issue.ID), map[string]any{
		"type":    "issue_updated",
		"issueID": issue.ID,
	})
	return c.JSON(http.StatusOK, issue)
}

func (h *IssueHandler) Delete(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	res := h.DB.WithContext(c.Request().Context()).Delete(&models.Issue{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "issue not found")
	}

	if h.ES != nil {
		if err := search.DeleteIssue(c.Request().Context(), h.ES, h.Index, id); err != nil {
			logging.FromContext(c.Request().Context()).Error("es delete error", "error", err)
		}
	}
	publishEvent(c, h.Producer, "issue_events", fmt.Sprint(id), map[string]any{
		"type":    "issue_deleted",
		"issueID": id,
	})
	return c.NoContent(http.StatusNoContent)
}

// index mirrors the issue into Elasticsearch best-effort; search lags
// rather than failing the write.
func (h *IssueHandler) index(c echo.Context, issue *models.Issue) {
	if h.ES == nil {
		return
	}
	if err := search.IndexIssue(c.Request().Context(), h.ES, h.Index, issue); err != nil {
		logging.FromContext(c.Request().Context()).Error("es index error", "error", err)
	}
}
