package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biehatieha/timetable-api/internal/dto"
	"github.com/biehatieha/timetable-api/internal/models"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
	"github.com/biehatieha/timetable-api/pkg/response"
)

type preferenceFormService interface {
	Options(ctx context.Context) (*dto.PreferenceOptions, error)
	Get(ctx context.Context, userID string) (*models.TimetablePreference, error)
	Store(ctx context.Context, userID string, req dto.StorePreferenceRequest) (*models.TimetablePreference, error)
}

// PreferenceHandler wires HTTP endpoints to the preference service.
type PreferenceHandler struct {
	service preferenceFormService
}

// NewPreferenceHandler creates a new handler.
func NewPreferenceHandler(svc preferenceFormService) *PreferenceHandler {
	return &PreferenceHandler{service: svc}
}

// Options godoc
// @Summary Catalog values for the preference form
// @Tags Preferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /preferences/options [get]
func (h *PreferenceHandler) Options(c *gin.Context) {
	options, err := h.service.Options(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options)
}

// Get godoc
// @Summary Stored preference record
// @Tags Preferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /preferences [get]
func (h *PreferenceHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pref, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref)
}

// Store godoc
// @Summary Save a preference payload for later generation
// @Tags Preferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.StorePreferenceRequest true "Preference payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /preferences [put]
func (h *PreferenceHandler) Store(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.StorePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preference payload"))
		return
	}

	pref, err := h.service.Store(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref)
}
