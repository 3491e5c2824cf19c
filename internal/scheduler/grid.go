package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/uni-timetable-api/internal/models"
)

const minutesPerDay = 24 * 60

var dayNames = map[int]string{
	1: "MONDAY",
	2: "TUESDAY",
	3: "WEDNESDAY",
	4: "THURSDAY",
	5: "FRIDAY",
	6: "SATURDAY",
	7: "SUNDAY",
}

// Grid is the fixed weekly slot grid. It is process-wide configuration, identical for every semester.
type Grid struct {
	days        []int
	slotsPerDay int
	dayStart    int
	slotMinutes int
}

// NewGrid validates and builds a grid. Days are 1 (Monday) to 7 (Sunday); dayStart is "HH:MM".
func NewGrid(days []int, slotsPerDay int, dayStart string, slotMinutes int) (Grid, error) {
	normalized := normalizeDays(days)
	if len(normalized) == 0 {
		return Grid{}, fmt.Errorf("slot grid needs at least one day between 1-7")
	}
	if slotsPerDay < 1 {
		return Grid{}, fmt.Errorf("slots per day must be positive, got %d", slotsPerDay)
	}
	if slotMinutes < 1 {
		return Grid{}, fmt.Errorf("slot length must be positive, got %d minutes", slotMinutes)
	}
	start, err := parseClock(dayStart)
	if err != nil {
		return Grid{}, err
	}
	if start+slotsPerDay*slotMinutes > minutesPerDay {
		return Grid{}, fmt.Errorf("%d slots of %d minutes starting at %s overflow the day", slotsPerDay, slotMinutes, dayStart)
	}
	return Grid{days: normalized, slotsPerDay: slotsPerDay, dayStart: start, slotMinutes: slotMinutes}, nil
}

// MustGrid is NewGrid for static configuration known to be valid.
func MustGrid(days []int, slotsPerDay int, dayStart string, slotMinutes int) Grid {
	g, err := NewGrid(days, slotsPerDay, dayStart, slotMinutes)
	if err != nil {
		panic(err)
	}
	return g
}

// Days returns the teaching days in ascending order.
func (g Grid) Days() []int {
	out := make([]int, len(g.days))
	copy(out, g.days)
	return out
}

func (g Grid) SlotsPerDay() int { return g.slotsPerDay }

// Size is the number of cells in the grid.
func (g Grid) Size() int { return len(g.days) * g.slotsPerDay }

// Contains reports whether (day, slot) is a cell of the grid.
func (g Grid) Contains(day, slot int) bool {
	return g.dayPosition(day) >= 0 && slot >= 1 && slot <= g.slotsPerDay
}

// Slot describes the cell at (day, slot).
func (g Grid) Slot(day, slot int) (models.TimeSlot, bool) {
	if !g.Contains(day, slot) {
		return models.TimeSlot{}, false
	}
	return g.timeSlot(day, slot), true
}

// Span describes a block of duration slots starting at (day, slot), end time included.
func (g Grid) Span(day, slot, duration int) (models.TimeSlot, bool) {
	if duration < 1 || !g.Contains(day, slot) || !g.Contains(day, slot+duration-1) {
		return models.TimeSlot{}, false
	}
	first := g.timeSlot(day, slot)
	last := g.timeSlot(day, slot+duration-1)
	first.End = last.End
	return first, true
}

// Slots enumerates every cell, day-major.
func (g Grid) Slots() []models.TimeSlot {
	out := make([]models.TimeSlot, 0, g.Size())
	for _, day := range g.days {
		for slot := 1; slot <= g.slotsPerDay; slot++ {
			out = append(out, g.timeSlot(day, slot))
		}
	}
	return out
}

// position maps a cell to its index in Slots().
func (g Grid) position(day, slot int) int {
	return g.dayPosition(day)*g.slotsPerDay + slot - 1
}

// cell is the inverse of position.
func (g Grid) cell(pos int) (day, slot int) {
	return g.days[pos/g.slotsPerDay], pos%g.slotsPerDay + 1
}

func (g Grid) dayPosition(day int) int {
	idx := sort.SearchInts(g.days, day)
	if idx < len(g.days) && g.days[idx] == day {
		return idx
	}
	return -1
}

func (g Grid) timeSlot(day, slot int) models.TimeSlot {
	start := g.dayStart + (slot-1)*g.slotMinutes
	return models.TimeSlot{
		DayOfWeek: day,
		Index:     slot,
		Start:     formatClock(start),
		End:       formatClock(start + g.slotMinutes),
	}
}

// DayName returns the upper-case weekday name for a 1-7 day index.
func DayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return ""
}

// DayIndex parses a weekday name or number into its 1-7 index, 0 when unknown.
func DayIndex(raw string) int {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if value, err := strconv.Atoi(raw); err == nil {
		if value >= 1 && value <= 7 {
			return value
		}
		return 0
	}
	for idx, name := range dayNames {
		if name == raw || (len(raw) >= 3 && strings.HasPrefix(name, raw)) {
			return idx
		}
	}
	return 0
}

func normalizeDays(days []int) []int {
	unique := make(map[int]struct{})
	for _, day := range days {
		if day < 1 || day > 7 {
			continue
		}
		unique[day] = struct{}{}
	}
	result := make([]int, 0, len(unique))
	for day := range unique {
		result = append(result, day)
	}
	sort.Ints(result)
	return result
}

func parseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid day start %q, expected HH:MM", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid day start hour in %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid day start minute in %q", raw)
	}
	return hours*60 + minutes, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
