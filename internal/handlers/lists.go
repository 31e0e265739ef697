package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/trackboard/trackboard/internal/models"
)

type ListHandler struct {
	DB *gorm.DB
}

func NewListHandler(db *gorm.DB) *ListHandler {
	return &ListHandler{DB: db}
}

func (h *ListHandler) List(c echo.Context) error {
	q := h.DB.WithContext(c.Request().Context()).Order("position ASC")
	if board := c.QueryParam("boardId"); board != "" {
		q = q.Where("board_id = ?", board)
	}

	var lists []models.List
	if err := q.Find(&lists).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, lists)
}

func (h *ListHandler) Get(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var list models.List
	if err := h.DB.WithContext(c.Request().Context()).First(&list, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "list not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}

type createListRequest struct {
	Name    string `json:"name"`
	BoardID uint   `json:"boardId"`
}

func (h *ListHandler) Create(c echo.Context) error {
	var req createListRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.BoardID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "name and boardId are required")
	}

	ctx := c.Request().Context()
	var board models.Board
	if err := h.DB.WithContext(ctx).First(&board, req.BoardID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "board not found")
	}

	list := models.List{
		Name:     req.Name,
		BoardID:  req.BoardID,
		Position: nextPosition(h.DB.WithContext(ctx).Model(&models.List{}).Where("board_id = ?", req.BoardID)),
	}
	if err := h.DB.WithContext(ctx).Create(&list).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, list)
}

func (h *ListHandler) Patch(c echo.Context) error {
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

	var list models.List
	if err := h.DB.WithContext(c.Request().Context()).First(&list, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "list not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Name != nil {
		list.Name = *req.Name
	}
	if err := h.DB.WithContext(c.Request().Context()).Save(&list).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ListHandler) Delete(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	res := h.DB.WithContext(c.Request().Context()).Delete(&models.List{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "list not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// nextPosition appends at the end of the sibling set: max(position)+1,
// starting at 0 for an empty set.
func nextPosition(q *gorm.DB) int {
	var max *int
	q.Select("MAX(position)").Scan(&max)
	if max == nil {
		return 0
	}
	return *max + 1
}
