package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/service"
	"github.com/noah-isme/uni-timetable-api/pkg/response"
)

type catalogReader interface {
	Rooms(ctx context.Context) ([]models.Room, error)
	RoomTypes(ctx context.Context) ([]models.RoomType, error)
	StudentGroups(ctx context.Context) ([]models.StudentGroup, error)
}

// CatalogHandler exposes the room and cohort inventory.
type CatalogHandler struct {
	service catalogReader
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Rooms godoc
// @Summary List rooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *CatalogHandler) Rooms(c *gin.Context) {
	rooms, err := h.service.Rooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// RoomTypes godoc
// @Summary List room types
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /room-types [get]
func (h *CatalogHandler) RoomTypes(c *gin.Context) {
	types, err := h.service.RoomTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// StudentGroups godoc
// @Summary List student groups
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student-groups [get]
func (h *CatalogHandler) StudentGroups(c *gin.Context) {
	groups, err := h.service.StudentGroups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}
