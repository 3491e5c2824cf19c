package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"

	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
)

// gridInput overrides the default weekly grid.
type gridInput struct {
	Days        []int  `mapstructure:"days"`
	SlotsPerDay int    `mapstructure:"slotsPerDay"`
	DayStart    string `mapstructure:"dayStart"`
	SlotMinutes int    `mapstructure:"slotMinutes"`
}

// problemInput is the JSON document accepted by the generate command.
type problemInput struct {
	Grid          gridInput             `mapstructure:"grid"`
	Rooms         []models.Room         `mapstructure:"rooms"`
	StudentGroups []models.StudentGroup `mapstructure:"studentGroups"`
	Activities    []models.Activity     `mapstructure:"activities"`
}

func defaultGridInput() gridInput {
	return gridInput{Days: []int{1, 2, 3, 4, 5}, SlotsPerDay: 10, DayStart: "08:00", SlotMinutes: 60}
}

func readProblem(path string) (problemInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return problemInput{}, fmt.Errorf("read input: %w", err)
	}
	return decodeProblem(raw)
}

func decodeProblem(raw []byte) (problemInput, error) {
	var document map[string]any
	if err := json.Unmarshal(raw, &document); err != nil {
		return problemInput{}, fmt.Errorf("parse input: %w", err)
	}

	var problem problemInput
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &problem,
		ErrorUnused: true,
	})
	if err != nil {
		return problemInput{}, err
	}
	if err := decoder.Decode(document); err != nil {
		return problemInput{}, fmt.Errorf("decode input: %w", err)
	}
	problem.Grid = problem.Grid.withDefaults()
	return problem, nil
}

// withDefaults fills the fields the document left out.
func (g gridInput) withDefaults() gridInput {
	def := defaultGridInput()
	if len(g.Days) == 0 {
		g.Days = def.Days
	}
	if g.SlotsPerDay == 0 {
		g.SlotsPerDay = def.SlotsPerDay
	}
	if g.DayStart == "" {
		g.DayStart = def.DayStart
	}
	if g.SlotMinutes == 0 {
		g.SlotMinutes = def.SlotMinutes
	}
	return g
}

func (p problemInput) grid() (scheduler.Grid, error) {
	return scheduler.NewGrid(p.Grid.Days, p.Grid.SlotsPerDay, p.Grid.DayStart, p.Grid.SlotMinutes)
}

func (p problemInput) schedulerInput() scheduler.Input {
	return scheduler.Input{Activities: p.Activities, Rooms: p.Rooms, Groups: p.StudentGroups}
}
