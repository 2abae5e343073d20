package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geoattend/attendance-api/internal/dto"
	appErrors "github.com/geoattend/attendance-api/pkg/errors"
	"github.com/geoattend/attendance-api/pkg/response"
)

type adminService interface {
	UpdateLocation(latitude, longitude float64) dto.LocationResponse
	Location() (dto.LocationResponse, error)
	Settings() dto.SettingsResponse
	Data() (dto.AdminDataResponse, error)
}

// AdminHandler mirrors the admin broadcast state over plain HTTP for
// clients without a live websocket.
type AdminHandler struct {
	service adminService
}

// NewAdminHandler builds a new handler.
func NewAdminHandler(service adminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// UpdateLocation godoc
// @Summary Set the admin location
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.UpdateLocationRequest true "Location payload"
// @Success 200 {object} response.Envelope
// @Router /admin/location [post]
func (h *AdminHandler) UpdateLocation(c *gin.Context) {
	var req dto.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid latitude or longitude"))
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid latitude or longitude"))
		return
	}
	loc := h.service.UpdateLocation(*req.Latitude, *req.Longitude)
	response.JSON(c, http.StatusOK, dto.UpdateLocationResponse{Status: "Location updated", Location: loc})
}

// Location godoc
// @Summary Get the current admin location
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/location [get]
func (h *AdminHandler) Location(c *gin.Context) {
	loc, err := h.service.Location()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loc)
}

// Settings godoc
// @Summary Get the admin settings
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/settings [get]
func (h *AdminHandler) Settings(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Settings())
}

// Data godoc
// @Summary Get combined admin location and settings
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/data [get]
func (h *AdminHandler) Data(c *gin.Context) {
	data, err := h.service.Data()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data)
}
