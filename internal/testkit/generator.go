// Package testkit generates seeded synthetic activity for demos and tests.
// The generator plants a weekly energy rhythm that drives focus, distraction
// and task completion, so the analyzers have real structure to find.
package testkit

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"perfpulse/domain/activity"
	"perfpulse/domain/core"
)

// GeneratorConfig configures the performance data generator
type GeneratorConfig struct {
	Days          int            `json:"days"`
	End           time.Time      `json:"end"`
	Seed          int64          `json:"seed"`
	Location      *time.Location `json:"-"`
	BaseEnergy    float64        `json:"base_energy"`
	MalformedRate float64        `json:"malformed_rate"`
}

// DefaultGeneratorConfig returns a 30-day configuration ending 31 March 2024
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Days:       30,
		End:        time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC),
		Seed:       42,
		Location:   time.UTC,
		BaseEnergy: 55,
	}
}

// PerformanceGenerator generates activity batches
type PerformanceGenerator struct {
	config GeneratorConfig
	rng    *rand.Rand
	nextID int
}

// NewPerformanceGenerator creates a generator
func NewPerformanceGenerator(config GeneratorConfig) *PerformanceGenerator {
	def := DefaultGeneratorConfig()
	if config.Days <= 0 {
		config.Days = def.Days
	}
	if config.End.IsZero() {
		config.End = def.End
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.BaseEnergy <= 0 {
		config.BaseEnergy = def.BaseEnergy
	}
	return &PerformanceGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces a full batch covering the configured window
func (g *PerformanceGenerator) Generate() activity.Batch {
	batch := activity.Batch{
		Events: []activity.Event{},
		Tasks:  []activity.Task{},
		Energy: []activity.EnergyEstimate{},
	}

	endDay := core.Day(g.config.End, g.config.Location)
	for i := g.config.Days - 1; i >= 0; i-- {
		day := endDay.AddDate(0, 0, -i)
		energy := g.dailyEnergy(g.config.Days - 1 - i)

		batch.Energy = append(batch.Energy, activity.EnergyEstimate{Day: day.Add(12 * time.Hour), Level: math.Round(energy)})
		batch.Events = append(batch.Events, g.workBlocks(day, energy)...)
		batch.Events = append(batch.Events, g.distractions(day, energy)...)
		batch.Tasks = append(batch.Tasks, g.tasks(day, energy)...)
	}

	if g.config.MalformedRate > 0 {
		batch.Events = append(batch.Events, g.malformed(len(batch.Events))...)
	}
	return batch
}

// dailyEnergy follows a weekly sine with noise, clamped to [5, 95]
func (g *PerformanceGenerator) dailyEnergy(dayIndex int) float64 {
	wave := 25 * math.Sin(2*math.Pi*float64(dayIndex)/7)
	e := g.config.BaseEnergy + wave + g.rng.NormFloat64()*6
	return math.Max(5, math.Min(95, e))
}

// workBlocks emits focus blocks whose count and length grow with energy.
// Events inside a block are at most ten minutes apart, blocks are separated
// by breaks longer than the focus inactivity threshold.
func (g *PerformanceGenerator) workBlocks(day time.Time, energy float64) []activity.Event {
	events := []activity.Event{}
	cursor := day.Add(8*time.Hour + time.Duration(g.rng.Intn(60))*time.Minute)
	if energy > 65 {
		cursor = cursor.Add(-45 * time.Minute)
	}

	blocks := 1 + int(energy/25)
	workKinds := []activity.ActionKind{activity.ActionEdit, activity.ActionTaskUpdate, activity.ActionTaskComment, activity.ActionQuoteUpdate, activity.ActionClientUpdate}
	for b := 0; b < blocks; b++ {
		length := time.Duration(20+energy*0.9+g.rng.Float64()*20) * time.Minute
		blockEnd := cursor.Add(length)
		for ts := cursor; !ts.After(blockEnd); ts = ts.Add(time.Duration(4+g.rng.Intn(7)) * time.Minute) {
			kind := workKinds[g.rng.Intn(len(workKinds))]
			events = append(events, activity.Event{
				Timestamp:  ts,
				ActionKind: kind,
				EntityKind: activity.EntityTask,
				EntityID:   core.EntityID(fmt.Sprintf("task-%03d", g.rng.Intn(40))),
			})
		}
		cursor = blockEnd.Add(time.Duration(25+g.rng.Intn(40)) * time.Minute)
	}
	return events
}

// distractions emits navigation noise that grows as energy drops
func (g *PerformanceGenerator) distractions(day time.Time, energy float64) []activity.Event {
	count := int(math.Max(0, math.Round((100-energy)/10+g.rng.NormFloat64())))
	kinds := []activity.ActionKind{activity.ActionNavigate, activity.ActionViewSwitch, activity.ActionSearch}
	events := make([]activity.Event, 0, count)
	for i := 0; i < count; i++ {
		offset := time.Duration(9*60+g.rng.Intn(8*60)) * time.Minute
		events = append(events, activity.Event{
			Timestamp:  day.Add(offset),
			ActionKind: kinds[g.rng.Intn(len(kinds))],
		})
	}
	return events
}

// tasks starts one task per day and completes it within a few days on
// high-energy days; low-energy days leave an overdue task behind
func (g *PerformanceGenerator) tasks(day time.Time, energy float64) []activity.Task {
	g.nextID++
	id := core.TaskID(fmt.Sprintf("task-%03d", g.nextID))
	start := day.Add(9 * time.Hour)
	estimate := float64(1 + g.rng.Intn(3))
	deadline := start.AddDate(0, 0, int(estimate))

	task := activity.Task{
		ID:                   id,
		Name:                 fmt.Sprintf("Synthetic task %d", g.nextID),
		Status:               activity.StatusInProgress,
		StartDate:            &start,
		Deadline:             &deadline,
		DurationEstimateDays: &estimate,
	}

	if g.rng.Float64()*100 < energy {
		end := start.AddDate(0, 0, g.rng.Intn(int(estimate)+1))
		if end.After(g.config.End) {
			return []activity.Task{task}
		}
		task.Status = activity.StatusDone
		task.EndDate = &end
	}
	return []activity.Task{task}
}

// malformed emits events the normalizer must drop
func (g *PerformanceGenerator) malformed(total int) []activity.Event {
	n := int(float64(total) * g.config.MalformedRate)
	events := make([]activity.Event, 0, n)
	for i := 0; i < n; i++ {
		switch i % 3 {
		case 0:
			events = append(events, activity.Event{ActionKind: activity.ActionEdit})
		case 1:
			events = append(events, activity.Event{Timestamp: g.config.End.Add(-time.Hour), ActionKind: "unknown_action"})
		default:
			events = append(events, activity.Event{Timestamp: g.config.End.Add(-time.Hour)})
		}
	}
	return events
}

// WriteJSON writes a batch in the JSON feed layout
func WriteJSON(w io.Writer, batch activity.Batch) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(batch)
}
