package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
	"github.com/noah-isme/uni-timetable-api/pkg/export"
)

var entryColumns = []export.Column{
	{Key: "day", Header: "DAY"},
	{Key: "start", Header: "START"},
	{Key: "end", Header: "END"},
	{Key: "room", Header: "ROOM"},
	{Key: "activity", Header: "ACTIVITY"},
	{Key: "occurrence", Header: "OCC"},
	{Key: "course", Header: "COURSE"},
	{Key: "instructor", Header: "INSTRUCTOR"},
	{Key: "group", Header: "GROUP"},
}

func entryDataset(grid scheduler.Grid, activities []models.Activity, result *scheduler.Result) export.Dataset {
	byID := make(map[string]models.Activity, len(activities))
	for _, act := range activities {
		byID[act.ID] = act
	}
	data := export.Dataset{Columns: entryColumns, Rows: make([]map[string]string, 0, len(result.Entries))}
	for _, entry := range result.Entries {
		span, _ := grid.Span(entry.DayOfWeek, entry.SlotIndex, entry.Duration)
		act := byID[entry.ActivityID]
		data.Rows = append(data.Rows, map[string]string{
			"day":        scheduler.DayName(entry.DayOfWeek),
			"start":      span.Start,
			"end":        span.End,
			"room":       entry.RoomID,
			"activity":   entry.ActivityID,
			"occurrence": strconv.Itoa(entry.Occurrence),
			"course":     act.CourseID,
			"instructor": act.InstructorID,
			"group":      act.StudentGroupID,
		})
	}
	return data
}

func writeTable(w io.Writer, data export.Dataset, result *scheduler.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, header := range data.Headers() {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, header)
	}
	fmt.Fprintln(tw)
	for _, row := range data.Rows {
		for i, value := range data.Record(row) {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, value)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(result.Unscheduled) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "UNSCHEDULED")
		for _, item := range result.Unscheduled {
			fmt.Fprintf(w, "  %s #%d: %s\n", item.ActivityID, item.Occurrence, item.Reason.Message())
		}
	}
	fmt.Fprintf(w, "\nplaced %d/%d occurrences, %d backtracks", result.Stats.Placed, result.Stats.Occurrences, result.Stats.Backtracks)
	if result.Stats.BudgetExhausted {
		fmt.Fprint(w, ", search budget exhausted")
	}
	fmt.Fprintln(w)
	return nil
}

func writeCSV(w io.Writer, data export.Dataset) error {
	body, err := export.NewCSVExporter().Render(data)
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}
