package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
	"github.com/noah-isme/uni-timetable-api/internal/service"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
	"github.com/noah-isme/uni-timetable-api/pkg/response"
)

type timetableQueries interface {
	GetSchedule(ctx context.Context, semesterID string, query dto.ScheduleQuery) (*dto.SemesterScheduleResponse, error)
	GetTeacherSchedule(ctx context.Context, semesterID, instructorID string) (*dto.TeacherScheduleResponse, error)
	GetFreeRooms(ctx context.Context, semesterID string, query dto.FreeRoomsQuery) (*dto.FreeRoomsResponse, error)
}

type timetableExporter interface {
	Export(ctx context.Context, semesterID string, query dto.ExportScheduleQuery) (*service.ExportFile, error)
}

// TimetableHandler serves read views of committed timetables.
type TimetableHandler struct {
	queries  timetableQueries
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(queries *service.TimetableQueryService, exporter *service.ExportService) *TimetableHandler {
	return &TimetableHandler{queries: queries, exporter: exporter}
}

// Schedule godoc
// @Summary Get the semester timetable grouped by student group
// @Tags Timetable
// @Produce json
// @Param id path string true "Semester ID"
// @Param studentGroupId query string false "Only this student group"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/schedule [get]
func (h *TimetableHandler) Schedule(c *gin.Context) {
	query := dto.ScheduleQuery{StudentGroupID: c.Query("studentGroupId")}
	result, err := h.queries.GetSchedule(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// TeacherSchedule godoc
// @Summary Get an instructor's entries and reserved time slots
// @Tags Timetable
// @Produce json
// @Param id path string true "Semester ID"
// @Param instructorId path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/schedule/teachers/{instructorId} [get]
func (h *TimetableHandler) TeacherSchedule(c *gin.Context) {
	result, err := h.queries.GetTeacherSchedule(c.Request.Context(), c.Param("id"), c.Param("instructorId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// FreeRooms godoc
// @Summary List rooms free at a grid cell
// @Tags Timetable
// @Produce json
// @Param id path string true "Semester ID"
// @Param day query string true "Day number (1=Monday) or name"
// @Param slot query int true "Slot index, 1-based"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/schedule/free-rooms [get]
func (h *TimetableHandler) FreeRooms(c *gin.Context) {
	day := scheduler.DayIndex(c.Query("day"))
	if day == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "day must be 1-7 or a weekday name"))
		return
	}
	slot, err := strconv.Atoi(c.Query("slot"))
	if err != nil || slot < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "slot must be a positive integer"))
		return
	}
	result, err := h.queries.GetFreeRooms(c.Request.Context(), c.Param("id"), dto.FreeRoomsQuery{Day: day, Slot: slot})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export the semester timetable
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Semester ID"
// @Param format query string false "csv (default) or pdf"
// @Param studentGroupId query string false "Only this student group"
// @Success 200 {file} file
// @Router /semesters/{id}/schedule/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	query := dto.ExportScheduleQuery{
		Format:         c.Query("format"),
		StudentGroupID: c.Query("studentGroupId"),
	}
	file, err := h.exporter.Export(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
