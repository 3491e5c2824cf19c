package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/models"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
	"github.com/noah-isme/uni-timetable-api/pkg/export"
)

type entrySourceStub struct {
	entries []dto.ScheduleEntryResponse
}

func (s entrySourceStub) Entries(context.Context, string, string) ([]dto.ScheduleEntryResponse, error) {
	out := make([]dto.ScheduleEntryResponse, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

type courseLookupStub struct {
	err error
}

func (s courseLookupStub) ListByIDs(_ context.Context, ids []string) ([]models.Course, error) {
	if s.err != nil {
		return nil, s.err
	}
	courses := make([]models.Course, 0, len(ids))
	for _, id := range ids {
		courses = append(courses, models.Course{ID: id, Code: strings.ToUpper(id), Name: "Intro"})
	}
	return courses, nil
}

func exportEntries() []dto.ScheduleEntryResponse {
	return []dto.ScheduleEntryResponse{
		{ActivityID: "a2", Occurrence: 1, CourseID: "cs102", InstructorID: "i2", StudentGroupID: "g1", RoomID: "r2", DayOfWeek: 2, SlotIndex: 1, Duration: 1,
			TimeSlot: models.TimeSlot{DayOfWeek: 2, Index: 1, Start: "08:00", End: "09:00"}},
		{ActivityID: "a1", Occurrence: 1, CourseID: "cs101", InstructorID: "i1", StudentGroupID: "g1", RoomID: "r1", DayOfWeek: 1, SlotIndex: 2, Duration: 2,
			TimeSlot: models.TimeSlot{DayOfWeek: 1, Index: 2, Start: "09:00", End: "11:00"}},
	}
}

func TestExportServiceCSV(t *testing.T) {
	svc := NewExportService(entrySourceStub{entries: exportEntries()}, courseLookupStub{}, export.NewCSVExporter(), export.NewPDFExporter(), nil, nil)

	file, err := svc.Export(context.Background(), "sem-1", dto.ExportScheduleQuery{})
	require.NoError(t, err)
	assert.Equal(t, "timetable-sem-1.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Start,End,Slot,Room,Course,Instructor,Group,Activity,#", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "MONDAY,09:00,11:00,2,r1,CS101 Intro"))
	assert.True(t, strings.HasPrefix(lines[2], "TUESDAY,08:00,09:00,1,r2,CS102 Intro"))
}

func TestExportServiceFallsBackToCourseIDs(t *testing.T) {
	svc := NewExportService(entrySourceStub{entries: exportEntries()}, courseLookupStub{err: errors.New("db down")}, export.NewCSVExporter(), export.NewPDFExporter(), nil, nil)

	file, err := svc.Export(context.Background(), "sem-1", dto.ExportScheduleQuery{StudentGroupID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, "timetable-sem-1-g1.csv", file.Filename)
	assert.Contains(t, string(file.Body), ",cs101,")
}

func TestExportServicePDF(t *testing.T) {
	svc := NewExportService(entrySourceStub{entries: exportEntries()}, nil, export.NewCSVExporter(), export.NewPDFExporter(), nil, nil)

	file, err := svc.Export(context.Background(), "sem-1", dto.ExportScheduleQuery{Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(entrySourceStub{}, nil, export.NewCSVExporter(), export.NewPDFExporter(), nil, nil)

	_, err := svc.Export(context.Background(), "sem-1", dto.ExportScheduleQuery{Format: "xlsx"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
