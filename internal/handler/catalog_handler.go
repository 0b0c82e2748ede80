package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biehatieha/timetable-api/internal/dto"
	"github.com/biehatieha/timetable-api/internal/service"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
	"github.com/biehatieha/timetable-api/pkg/response"
)

// CatalogHandler serves the reference tables behind the preference form.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Days godoc
// @Summary List schedulable days
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /days [get]
func (h *CatalogHandler) Days(c *gin.Context) {
	days, err := h.service.Days(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days)
}

// TimeSlots godoc
// @Summary List selectable time boundaries
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /times [get]
func (h *CatalogHandler) TimeSlots(c *gin.Context) {
	slots, err := h.service.TimeSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

// Settings godoc
// @Summary List global settings
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *CatalogHandler) Settings(c *gin.Context) {
	settings, err := h.service.Settings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings)
}

// UpdateSetting godoc
// @Summary Insert or replace a setting
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateSettingRequest true "Setting payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings [put]
func (h *CatalogHandler) UpdateSetting(c *gin.Context) {
	var req dto.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid setting payload"))
		return
	}

	setting, err := h.service.UpdateSetting(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, setting)
}
