package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biehatieha/timetable-api/internal/dto"
	"github.com/biehatieha/timetable-api/internal/service"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
	"github.com/biehatieha/timetable-api/pkg/response"
)

// LecturerHandler wires HTTP endpoints to the lecturer service.
type LecturerHandler struct {
	service *service.LecturerService
}

// NewLecturerHandler creates a new handler.
func NewLecturerHandler(svc *service.LecturerService) *LecturerHandler {
	return &LecturerHandler{service: svc}
}

// List godoc
// @Summary List lecturers
// @Tags Catalog
// @Produce json
// @Param search query string false "Search by name"
// @Success 200 {object} response.Envelope
// @Router /lecturers [get]
func (h *LecturerHandler) List(c *gin.Context) {
	lecturers, err := h.service.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturers)
}

// Get godoc
// @Summary Get one lecturer
// @Tags Catalog
// @Produce json
// @Param id path string true "Lecturer id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lecturers/{id} [get]
func (h *LecturerHandler) Get(c *gin.Context) {
	lecturer, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer)
}

// Create godoc
// @Summary Create a lecturer
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateLecturerRequest true "Lecturer payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lecturers [post]
func (h *LecturerHandler) Create(c *gin.Context) {
	var req dto.CreateLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lecturer payload"))
		return
	}

	lecturer, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lecturer)
}

// Update godoc
// @Summary Update a lecturer
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lecturer id"
// @Param payload body dto.CreateLecturerRequest true "Lecturer payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lecturers/{id} [put]
func (h *LecturerHandler) Update(c *gin.Context) {
	var req dto.CreateLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lecturer payload"))
		return
	}

	lecturer, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer)
}

// Delete godoc
// @Summary Delete a lecturer
// @Tags Catalog
// @Security BearerAuth
// @Param id path string true "Lecturer id"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /lecturers/{id} [delete]
func (h *LecturerHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
