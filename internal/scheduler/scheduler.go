package scheduler

import (
	"context"
	"fmt"
	"sort"

	"github.com/noah-isme/uni-timetable-api/internal/models"
)

// DefaultSearchBudget bounds the number of backtracks of one run when no budget is configured.
const DefaultSearchBudget = 20000

// Reason explains why an occurrence was left out of a timetable.
type Reason string

const (
	ReasonNoCompatibleRoom      Reason = "NO_COMPATIBLE_ROOM"
	ReasonNoCompatibleSlot      Reason = "NO_COMPATIBLE_SLOT"
	ReasonSearchBudgetExhausted Reason = "SEARCH_BUDGET_EXHAUSTED"
)

// Message is the human readable form of the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonNoCompatibleRoom:
		return "no compatible room"
	case ReasonNoCompatibleSlot:
		return "no compatible slot"
	case ReasonSearchBudgetExhausted:
		return "search budget exhausted"
	default:
		return string(r)
	}
}

// Input is the immutable snapshot a run works on.
type Input struct {
	Activities []models.Activity
	Rooms      []models.Room
	Groups     []models.StudentGroup
}

// Options tunes a run.
type Options struct {
	SearchBudget int
}

// Unscheduled reports an occurrence the run could not place.
type Unscheduled struct {
	ActivityID string `json:"activity_id"`
	Occurrence int    `json:"occurrence"`
	Reason     Reason `json:"reason"`
}

// Stats summarises the work of a run.
type Stats struct {
	Occurrences     int  `json:"occurrences"`
	Placed          int  `json:"placed"`
	Backtracks      int  `json:"backtracks"`
	BudgetExhausted bool `json:"budget_exhausted"`
}

// Result is the outcome of a run. Entries carry no IDs; they are assigned on commit.
type Result struct {
	Entries     []models.TimetableEntry
	Unscheduled []Unscheduled
	Stats       Stats
}

// Scheduler assigns every activity occurrence a room and a start slot with a bounded,
// deterministic backtracking search. A Scheduler holds no run state and is safe for concurrent use.
type Scheduler struct {
	grid   Grid
	budget int
}

func New(grid Grid, opts Options) *Scheduler {
	budget := opts.SearchBudget
	if budget <= 0 {
		budget = DefaultSearchBudget
	}
	return &Scheduler{grid: grid, budget: budget}
}

func (s *Scheduler) Grid() Grid { return s.grid }

// Run searches for a timetable. Infeasibility is reported in the result, never as an error;
// errors are returned only for malformed input or a cancelled context.
func (s *Scheduler) Run(ctx context.Context, input Input) (*Result, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	model := newConstraintModel(s.grid, input)
	run := &search{
		model:  model,
		state:  newPlacement(),
		budget: s.budget,
	}
	run.prepare()
	if err := run.solve(ctx); err != nil {
		return nil, err
	}
	return run.result(), nil
}

// Input is validated by the activity registry before it gets here; this only guards the search.
func validateInput(input Input) error {
	seen := make(map[string]struct{}, len(input.Activities))
	for _, act := range input.Activities {
		if act.ID == "" {
			return fmt.Errorf("activity without id")
		}
		if _, dup := seen[act.ID]; dup {
			return fmt.Errorf("duplicate activity %s", act.ID)
		}
		seen[act.ID] = struct{}{}
		if act.Duration < 1 {
			return fmt.Errorf("activity %s: duration must be positive", act.ID)
		}
		if act.FrequencyPerWeek < 1 {
			return fmt.Errorf("activity %s: frequency per week must be positive", act.ID)
		}
	}
	rooms := make(map[string]struct{}, len(input.Rooms))
	for _, room := range input.Rooms {
		if _, dup := rooms[room.ID]; dup {
			return fmt.Errorf("duplicate room %s", room.ID)
		}
		rooms[room.ID] = struct{}{}
	}
	return nil
}

type frame struct {
	slots  []int
	cursor int
	room   int
	pos    int
	placed bool
}

type choice struct {
	room int
	pos  int
}

type search struct {
	model  *constraintModel
	state  *placement
	budget int

	occurrences []occurrence
	order       []int
	frames      []frame
	skipped     []Unscheduled
	backtracks  int
	exhausted   bool
}

// prepare expands activities into occurrences, drops the statically impossible ones and
// orders the rest most constrained first.
func (r *search) prepare() {
	days := len(r.model.grid.days)
	for idx, act := range r.model.activities {
		rooms := len(r.model.candidateRooms(idx))
		startable := r.model.startableSlots(idx)
		for ordinal := 1; ordinal <= act.FrequencyPerWeek; ordinal++ {
			occ := occurrence{activity: idx, ordinal: ordinal}
			r.occurrences = append(r.occurrences, occ)
			switch {
			case rooms == 0:
				r.skip(occ, ReasonNoCompatibleRoom)
			case startable == 0 || ordinal > days:
				r.skip(occ, ReasonNoCompatibleSlot)
			default:
				r.order = append(r.order, len(r.occurrences)-1)
			}
		}
	}
	sort.SliceStable(r.order, func(i, j int) bool {
		a, b := r.occurrences[r.order[i]], r.occurrences[r.order[j]]
		ra, rb := len(r.model.candidateRooms(a.activity)), len(r.model.candidateRooms(b.activity))
		if ra != rb {
			return ra < rb
		}
		sa, sb := r.model.startableSlots(a.activity), r.model.startableSlots(b.activity)
		if sa != sb {
			return sa < sb
		}
		return r.order[i] < r.order[j]
	})
	r.frames = make([]frame, len(r.order))
}

func (r *search) skip(occ occurrence, reason Reason) {
	r.skipped = append(r.skipped, Unscheduled{
		ActivityID: r.model.activities[occ.activity].ID,
		Occurrence: occ.ordinal,
		Reason:     reason,
	})
}

// solve walks the ordered occurrences with an explicit stack. Positions below floor are pinned.
// When the search falls back past floor, the deepest partial assignment seen is restored and the
// occurrence that could not be placed there is skipped.
func (r *search) solve(ctx context.Context) error {
	floor := 0
	best := -1
	var snapshot []choice
	forward := true
	i := 0
	for i < len(r.order) {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := &r.frames[i]
		if forward {
			if i > best {
				best = i
				snapshot = r.capture(floor, i)
			}
			*f = frame{slots: r.model.candidateSlots(r.state, r.occurrences[r.order[i]].activity)}
		} else {
			r.unplace(i)
		}
		if r.advance(i) {
			i++
			forward = true
			continue
		}
		if i == floor {
			r.restore(floor, i, snapshot)
			r.skip(r.occurrences[r.order[best]], ReasonNoCompatibleSlot)
			floor = best + 1
			i = floor
			forward = true
			continue
		}
		if r.backtracks >= r.budget {
			r.exhausted = true
			r.restore(floor, i, snapshot)
			for _, idx := range r.order[best:] {
				r.skip(r.occurrences[idx], ReasonSearchBudgetExhausted)
			}
			r.order = r.order[:best]
			return nil
		}
		r.backtracks++
		i--
		forward = false
	}
	return nil
}

// advance tries the remaining (room, slot) candidates of position i, rooms outermost.
func (r *search) advance(i int) bool {
	f := &r.frames[i]
	occ := r.occurrences[r.order[i]]
	rooms := r.model.candidateRooms(occ.activity)
	total := len(rooms) * len(f.slots)
	for f.cursor < total {
		room := rooms[f.cursor/len(f.slots)]
		pos := f.slots[f.cursor%len(f.slots)]
		f.cursor++
		if r.model.isFeasible(r.state, occ, room, pos) {
			r.model.place(r.state, occ, room, pos)
			f.room, f.pos, f.placed = room, pos, true
			return true
		}
	}
	return false
}

func (r *search) unplace(i int) {
	f := &r.frames[i]
	if !f.placed {
		return
	}
	r.model.release(r.state, r.occurrences[r.order[i]], f.room, f.pos)
	f.placed = false
}

func (r *search) capture(from, to int) []choice {
	out := make([]choice, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, choice{room: r.frames[i].room, pos: r.frames[i].pos})
	}
	return out
}

// restore releases positions [floor, upto) and re-applies the snapshot taken at the deepest point.
func (r *search) restore(floor, upto int, snapshot []choice) {
	for i := floor; i < upto; i++ {
		r.unplace(i)
	}
	for offset, c := range snapshot {
		i := floor + offset
		occ := r.occurrences[r.order[i]]
		r.model.place(r.state, occ, c.room, c.pos)
		r.frames[i] = frame{room: c.room, pos: c.pos, placed: true}
	}
}

func (r *search) result() *Result {
	res := &Result{
		Entries: make([]models.TimetableEntry, 0, len(r.order)),
		Stats: Stats{
			Occurrences:     len(r.occurrences),
			Backtracks:      r.backtracks,
			BudgetExhausted: r.exhausted,
		},
	}
	for i, idx := range r.order {
		f := r.frames[i]
		if !f.placed {
			continue
		}
		occ := r.occurrences[idx]
		act := r.model.activities[occ.activity]
		day, slot := r.model.grid.cell(f.pos)
		res.Entries = append(res.Entries, models.TimetableEntry{
			SemesterID:     act.SemesterID,
			ActivityID:     act.ID,
			Occurrence:     occ.ordinal,
			RoomID:         r.model.rooms[f.room].ID,
			DayOfWeek:      day,
			SlotIndex:      slot,
			Duration:       act.Duration,
			CourseID:       act.CourseID,
			InstructorID:   act.InstructorID,
			StudentGroupID: act.StudentGroupID,
		})
	}
	SortEntries(res.Entries)
	res.Stats.Placed = len(res.Entries)

	position := make(map[string]int, len(r.model.activities))
	for idx, act := range r.model.activities {
		position[act.ID] = idx
	}
	res.Unscheduled = r.skipped
	sort.SliceStable(res.Unscheduled, func(i, j int) bool {
		a, b := res.Unscheduled[i], res.Unscheduled[j]
		if position[a.ActivityID] != position[b.ActivityID] {
			return position[a.ActivityID] < position[b.ActivityID]
		}
		return a.Occurrence < b.Occurrence
	})
	if res.Unscheduled == nil {
		res.Unscheduled = []Unscheduled{}
	}
	return res
}

// SortEntries orders entries by day, slot, room and activity.
func SortEntries(entries []models.TimetableEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.SlotIndex != b.SlotIndex {
			return a.SlotIndex < b.SlotIndex
		}
		if a.RoomID != b.RoomID {
			return a.RoomID < b.RoomID
		}
		if a.ActivityID != b.ActivityID {
			return a.ActivityID < b.ActivityID
		}
		return a.Occurrence < b.Occurrence
	})
}
