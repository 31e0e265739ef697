package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/trackboard/trackboard/internal/models"
)

type BoardHandler struct {
	DB *gorm.DB
}

func NewBoardHandler(db *gorm.DB) *BoardHandler {
	return &BoardHandler{DB: db}
}

func (h *BoardHandler) List(c echo.Context) error {
	q := h.DB.WithContext(c.Request().Context()).Preload("Lists")
	if project := c.QueryParam("projectId"); project != "" {
		q = q.Where("project_id = ?", project)
	}

	var boards []models.Board
	if err := q.Find(&boards).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, boards)
}

func (h *BoardHandler) Get(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var board models.Board
	err = h.DB.WithContext(c.Request().Context()).Preload("Lists").First(&board, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "board not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, board)
}

type createBoardRequest struct {
	Name      string `json:"name"`
	ProjectID uint   `json:"projectId"`
}

func (h *BoardHandler) Create(c echo.Context) error {
	var req createBoardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.ProjectID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "name and projectId are required")
	}

	ctx := c.Request().Context()
	var project models.Project
	if err := h.DB.WithContext(ctx).First(&project, req.ProjectID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "project not found")
	}

	board := models.Board{Name: req.Name, ProjectID: req.ProjectID}
	if err := h.DB.WithContext(ctx).Create(&board).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, board)
}

func (h *BoardHandler) Patch(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Name *string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var board models.Board
	if err := h.DB.WithContext(c.Request().Context()).First(&board, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "board not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Name != nil {
		board.Name = *req.Name
	}
	if err := h.DB.WithContext(c.Request().Context()).Save(&board).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, board)
}

func (h *BoardHandler) Delete(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	res := h.DB.WithContext(c.Request().Context()).Delete(&models.Board{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "board not found")
	}
	return c.NoContent(http.StatusNoContent)
}
