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

type changeRequestServicePort interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateChangeRequestRequest) (*models.TimetableChangeRequest, error)
	List(ctx context.Context, claims *models.JWTClaims) ([]models.TimetableChangeRequest, error)
	Mine(ctx context.Context, claims *models.JWTClaims) ([]models.TimetableChangeRequest, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.TimetableChangeRequest, error)
	Resolve(ctx context.Context, claims *models.JWTClaims, id string, req dto.ResolveChangeRequestRequest) (*models.TimetableChangeRequest, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
}

// ChangeRequestHandler wires HTTP endpoints to the change request service.
type ChangeRequestHandler struct {
	service changeRequestServicePort
}

// NewChangeRequestHandler creates a new handler.
func NewChangeRequestHandler(svc changeRequestServicePort) *ChangeRequestHandler {
	return &ChangeRequestHandler{service: svc}
}

// Create godoc
// @Summary File a change request against a generated timetable
// @Tags ChangeRequests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateChangeRequestRequest true "Change request payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /change-requests [post]
func (h *ChangeRequestHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateChangeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid change request payload"))
		return
	}

	cr, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cr)
}

// List godoc
// @Summary All change requests, newest first (admin only)
// @Tags ChangeRequests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /change-requests [get]
func (h *ChangeRequestHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests)
}

// Mine godoc
// @Summary The authenticated user's own change requests
// @Tags ChangeRequests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /change-requests/my [get]
func (h *ChangeRequestHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.Mine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests)
}

// Get godoc
// @Summary A single change request (admin or owner)
// @Tags ChangeRequests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Change request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /change-requests/{id} [get]
func (h *ChangeRequestHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	cr, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cr)
}

// Resolve godoc
// @Summary Approve or reject a change request (admin only)
// @Tags ChangeRequests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Change request ID"
// @Param payload body dto.ResolveChangeRequestRequest true "Resolution payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /change-requests/{id} [put]
func (h *ChangeRequestHandler) Resolve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ResolveChangeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}

	cr, err := h.service.Resolve(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cr)
}

// Delete godoc
// @Summary Remove a change request (admin only)
// @Tags ChangeRequests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Change request ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /change-requests/{id} [delete]
func (h *ChangeRequestHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
