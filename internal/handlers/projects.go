package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/trackboard/trackboard/internal/middleware/auth"
	"github.com/trackboard/trackboard/internal/models"
	"github.com/trackboard/trackboard/internal/mykafka"
)

type ProjectHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Validate *validator.Validate
}

func NewProjectHandler(db *gorm.DB, producer *mykafka.Producer) *ProjectHandler {
	return &ProjectHandler{DB: db, Producer: producer, Validate: validator.New()}
}

func (h *ProjectHandler) List(c echo.Context) error {
	q := h.DB.WithContext(c.Request().Context()).
		Preload("Organization").
		Preload("Owner").
		Preload("Boards.Lists")
	if org := c.QueryParam("orgId"); org != "" {
		q = q.Where("organization_id = ?", org)
	}

	var projects []models.Project
	if err := q.Find(&projects).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var project models.Project
	err = h.DB.WithContext(c.Request().Context()).
		Preload("Organization").
		Preload("Owner").
		Preload("Boards.Lists").
		First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "project not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, project)
}

type createProjectRequest struct {
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	OrganizationID uint   `json:"organizationId"`
}

func (h *ProjectHandler) Create(c echo.Context) error {
	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	project := models.Project{
		Name:           req.Name,
		Description:    req.Description,
		OrganizationID: req.OrganizationID,
	}
	if user := authmw.UserFromContext(c); user != nil {
		project.OwnerID = user.ID
	}

	if err := h.DB.WithContext(c.Request().Context()).Create(&project).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publishEvent(c, h.Producer, "project_events", fmt.Sprint(project.ID), map[string]any{
		"type":      "project_created",
		"projectID": project.ID,
		"name":      project.Name,
	})
	return c.JSON(http.StatusCreated, project)
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *ProjectHandler) Patch(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var req updateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var project models.Project
	if err := h.DB.WithContext(c.Request().Context()).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "project not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	if err := h.DB.WithContext(c.Request().Context()).Save(&project).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	res := h.DB.WithContext(c.Request().Context()).Delete(&models.Project{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "project not found")
	}

	publishEvent(c, h.Producer, "project_events", fmt.Sprint(id), map[string]any{
		"type":      "project_deleted",
		"projectID": id,
	})
	return c.NoContent(http.StatusNoContent)
}

type addMemberRequest struct {
	UserID uint `json:"userId" validate:"required"`
	RoleID uint `json:"roleId" validate:"required"`
}

// AddMember assigns a role to a user in the context of this project.
func (h *ProjectHandler) AddMember(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var req addMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	var project models.Project
	if err := h.DB.WithContext(ctx).First(&project, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "project not found")
	}
	var user models.User
	if err := h.DB.WithContext(ctx).First(&user, req.UserID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	var role models.Role
	if err := h.DB.WithContext(ctx).First(&role, req.RoleID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "role not found")
	}

	if err := h.DB.WithContext(ctx).Model(&user).Association("Roles").Append(&role); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "member added"})
}

func (h *ProjectHandler) RemoveMember(c echo.Context) error {
	if _, err := parseUintParam(c, "id"); err != nil {
		return err
	}
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var user models.User
	if err := h.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	if err := h.DB.WithContext(ctx).Model(&user).Association("Roles").Clear(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
