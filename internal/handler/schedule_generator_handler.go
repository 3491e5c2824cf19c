package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
	"github.com/noah-isme/uni-timetable-api/internal/service"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
	"github.com/noah-isme/uni-timetable-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.SchedulingResult, error)
	Grid() scheduler.Grid
}

type generationJobs interface {
	Enqueue(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerationJobResponse, error)
	Get(id string) (*dto.GenerationJobResponse, error)
}

// ScheduleGeneratorHandler exposes timetable generation endpoints.
type ScheduleGeneratorHandler struct {
	service scheduleGenerator
	jobs    generationJobs
}

// NewScheduleGeneratorHandler constructs the handler. jobs may be nil when async generation is off.
func NewScheduleGeneratorHandler(svc *service.ScheduleGeneratorService, jobs *service.GenerationJobService) *ScheduleGeneratorHandler {
	h := &ScheduleGeneratorHandler{service: svc}
	if jobs != nil {
		h.jobs = jobs
	}
	return h
}

// Generate godoc
// @Summary Generate and commit the semester timetable
// @Description Runs the scheduler from a clean state. A run that places nothing is returned with committed=false and the previous timetable is kept. With async=true the run is queued and a job reference is returned.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param async query bool false "Queue the run instead of waiting for it"
// @Param payload body dto.GenerateScheduleRequest false "Generation overrides"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /semesters/{id}/schedule/generate [post]
func (h *ScheduleGeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	req.SemesterID = c.Param("id")
	if claims := claimsFromContext(c); claims != nil {
		req.RequestedBy = claims.UserID
	}

	async, err := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "async must be a boolean"))
		return
	}
	if async {
		if h.jobs == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrServiceUnavailable, "asynchronous generation is disabled"))
			return
		}
		job, err := h.jobs.Enqueue(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, job)
		return
	}

	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"committed": result.Committed})
}

// Job godoc
// @Summary Get asynchronous generation status
// @Tags Scheduler
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /generation-jobs/{id} [get]
func (h *ScheduleGeneratorHandler) Job(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "generation job not found"))
		return
	}
	job, err := h.jobs.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// SlotGrid godoc
// @Summary Get the weekly slot grid
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /slot-grid [get]
func (h *ScheduleGeneratorHandler) SlotGrid(c *gin.Context) {
	grid := h.service.Grid()
	response.JSON(c, http.StatusOK, dto.SlotGridResponse{
		Days:        grid.Days(),
		SlotsPerDay: grid.SlotsPerDay(),
		Slots:       grid.Slots(),
	}, nil)
}
