package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
	"github.com/noah-isme/uni-timetable-api/pkg/export"
)

const (
	exportFormatCSV = "csv"
	exportFormatPDF = "pdf"
)

type scheduleEntrySource interface {
	Entries(ctx context.Context, semesterID, studentGroupID string) ([]dto.ScheduleEntryResponse, error)
}

type courseLookup interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Course, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered timetable document.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the committed timetable of a semester as CSV or PDF.
type ExportService struct {
	entries   scheduleEntrySource
	courses   courseLookup
	csv       datasetRenderer
	pdf       datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExportService constructs the export service. courses may be nil, in which case course ids are printed.
func NewExportService(entries scheduleEntrySource, courses courseLookup, csv, pdf datasetRenderer, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{entries: entries, courses: courses, csv: csv, pdf: pdf, validator: validate, logger: logger}
}

var timetableColumns = []export.Column{
	{Key: "day", Header: "Day", Width: 1.2},
	{Key: "start", Header: "Start", Width: 0.7},
	{Key: "end", Header: "End", Width: 0.7},
	{Key: "slot", Header: "Slot", Width: 0.5},
	{Key: "room", Header: "Room", Width: 1},
	{Key: "course", Header: "Course", Width: 2},
	{Key: "instructor", Header: "Instructor", Width: 1.2},
	{Key: "group", Header: "Group", Width: 1.2},
	{Key: "activity", Header: "Activity", Width: 1.2},
	{Key: "occurrence", Header: "#", Width: 0.4},
}

// Export renders the semester timetable in the requested format (csv by default).
func (s *ExportService) Export(ctx context.Context, semesterID string, query dto.ExportScheduleQuery) (*ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}
	format := query.Format
	if format == "" {
		format = exportFormatCSV
	}

	entries, err := s.entries.Entries(ctx, semesterID, query.StudentGroupID)
	if err != nil {
		return nil, err
	}
	sortEntryResponses(entries)

	data := export.Dataset{
		Title:   fmt.Sprintf("Timetable %s", semesterID),
		Columns: timetableColumns,
		Rows:    make([]map[string]string, 0, len(entries)),
	}
	if query.StudentGroupID != "" {
		data.Subtitle = "Student group " + query.StudentGroupID
	}
	courseNames := s.courseNames(ctx, entries)
	for _, entry := range entries {
		course := entry.CourseID
		if name, ok := courseNames[entry.CourseID]; ok {
			course = name
		}
		data.Rows = append(data.Rows, map[string]string{
			"day":        scheduler.DayName(entry.DayOfWeek),
			"start":      entry.TimeSlot.Start,
			"end":        entry.TimeSlot.End,
			"slot":       strconv.Itoa(entry.SlotIndex),
			"room":       entry.RoomID,
			"course":     course,
			"instructor": entry.InstructorID,
			"group":      entry.StudentGroupID,
			"activity":   entry.ActivityID,
			"occurrence": strconv.Itoa(entry.Occurrence),
		})
	}

	renderer, contentType := s.csv, "text/csv"
	if format == exportFormatPDF {
		renderer, contentType = s.pdf, "application/pdf"
	}
	body, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}

	name := "timetable-" + semesterID
	if query.StudentGroupID != "" {
		name += "-" + query.StudentGroupID
	}
	return &ExportFile{Filename: name + "." + format, ContentType: contentType, Body: body}, nil
}

func (s *ExportService) courseNames(ctx context.Context, entries []dto.ScheduleEntryResponse) map[string]string {
	if s.courses == nil || len(entries) == 0 {
		return nil
	}
	ids := lo.Uniq(lo.Map(entries, func(e dto.ScheduleEntryResponse, _ int) string { return e.CourseID }))
	courses, err := s.courses.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("course lookup failed, exporting ids", zap.Error(err))
		return nil
	}
	return lo.SliceToMap(courses, func(c models.Course) (string, string) {
		return c.ID, fmt.Sprintf("%s %s", c.Code, c.Name)
	})
}

func sortEntryResponses(entries []dto.ScheduleEntryResponse) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.SlotIndex != b.SlotIndex {
			return a.SlotIndex < b.SlotIndex
		}
		if a.StudentGroupID != b.StudentGroupID {
			return a.StudentGroupID < b.StudentGroupID
		}
		return a.RoomID < b.RoomID
	})
}
