package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/biehatieha/timetable-api/internal/dto"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
	"github.com/biehatieha/timetable-api/pkg/response"
)

type timetableGenerationService interface {
	Generate(ctx context.Context, userID string, req dto.GenerateTimetableRequest) (*dto.GeneratedTimetableResponse, error)
	Active(ctx context.Context, userID string) (*dto.GeneratedTimetableResponse, error)
	History(ctx context.Context, userID string) ([]dto.GeneratedTimetableResponse, error)
}

type timetableExportService interface {
	CSV(ctx context.Context, userID string) ([]byte, error)
	PDF(ctx context.Context, userID string) ([]byte, error)
}

// TimetableHandler wires HTTP endpoints to timetable generation and export.
type TimetableHandler struct {
	timetables timetableGenerationService
	exports    timetableExportService
}

// NewTimetableHandler creates a new handler.
func NewTimetableHandler(timetables timetableGenerationService, exports timetableExportService) *TimetableHandler {
	return &TimetableHandler{timetables: timetables, exports: exports}
}

// Generate godoc
// @Summary Generate and activate a timetable
// @Description Runs generation from the inline preferences, or the stored record when the body omits them
// @Tags Timetables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.GenerateTimetableRequest false "Generation payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.GenerateTimetableRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
			return
		}
	}

	result, err := h.timetables.Generate(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Active godoc
// @Summary Current active timetable
// @Tags Timetables
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/my [get]
func (h *TimetableHandler) Active(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.timetables.Active(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// History godoc
// @Summary All generated timetables, newest first
// @Tags Timetables
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	results, err := h.timetables.History(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results)
}

// ExportCSV godoc
// @Summary Download the active timetable as CSV
// @Tags Timetables
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} byte
// @Failure 404 {object} response.Envelope
// @Router /timetables/export/csv [get]
func (h *TimetableHandler) ExportCSV(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	payload, err := h.exports.CSV(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("timetable-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// ExportPDF godoc
// @Summary Download the active timetable as PDF
// @Tags Timetables
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} byte
// @Failure 404 {object} response.Envelope
// @Router /timetables/export/pdf [get]
func (h *TimetableHandler) ExportPDF(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	payload, err := h.exports.PDF(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("timetable-%s.pdf", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
