// Package activity holds the records consumed from the task-management
// collaborators: action events, task records and daily energy estimates.
package activity

import (
	"math"
	"time"

	"perfpulse/domain/core"
)

// ActionKind names what the user did
type ActionKind string

const (
	ActionTaskCreate   ActionKind = "task_create"
	ActionTaskUpdate   ActionKind = "task_update"
	ActionTaskComplete ActionKind = "task_complete"
	ActionTaskComment  ActionKind = "task_comment"
	ActionQuoteCreate  ActionKind = "quote_create"
	ActionQuoteUpdate  ActionKind = "quote_update"
	ActionClientUpdate ActionKind = "client_update"
	ActionEdit         ActionKind = "edit"
	ActionNavigate     ActionKind = "navigate"
	ActionViewSwitch   ActionKind = "view_switch"
	ActionSearch       ActionKind = "search"
	ActionChatMessage  ActionKind = "chat_message"
	ActionLogin        ActionKind = "login"
)

// EntityKind names the record an action touched
type EntityKind string

const (
	EntityTask   EntityKind = "task"
	EntityClient EntityKind = "client"
	EntityQuote  EntityKind = "quote"
	EntityNone   EntityKind = ""
)

// Event is a single timestamped user action
type Event struct {
	Timestamp       time.Time     `json:"timestamp" db:"timestamp"`
	ActionKind      ActionKind    `json:"action_kind" db:"action_kind"`
	EntityKind      EntityKind    `json:"entity_kind,omitempty" db:"entity_kind"`
	EntityID        core.EntityID `json:"entity_id,omitempty" db:"entity_id"`
	DurationSeconds *float64      `json:"duration_seconds,omitempty" db:"duration_seconds"`
}

// MaxEventDuration bounds a declared action duration
const MaxEventDuration = 24 * time.Hour

// DurationValid reports whether the declared duration is absent or a finite
// value between zero and MaxEventDuration.
func (e Event) DurationValid() bool {
	if e.DurationSeconds == nil {
		return true
	}
	secs := *e.DurationSeconds
	return !math.IsNaN(secs) && secs >= 0 && secs <= MaxEventDuration.Seconds()
}

// Duration returns the declared duration of the action, zero when absent
// or invalid.
func (e Event) Duration() time.Duration {
	if e.DurationSeconds == nil || !e.DurationValid() {
		return 0
	}
	return time.Duration(*e.DurationSeconds * float64(time.Second))
}

// End returns the instant the action finished
func (e Event) End() time.Time {
	return e.Timestamp.Add(e.Duration())
}

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "inprogress"
	StatusDone       TaskStatus = "done"
)

// Valid reports whether s is a known status
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task is a task record from the task board
type Task struct {
	ID                   core.TaskID `json:"id" db:"id"`
	Name                 string      `json:"name" db:"name"`
	Status               TaskStatus  `json:"status" db:"status"`
	StartDate            *time.Time  `json:"start_date,omitempty" db:"start_date"`
	EndDate              *time.Time  `json:"end_date,omitempty" db:"end_date"`
	Deadline             *time.Time  `json:"deadline,omitempty" db:"deadline"`
	DurationEstimateDays *float64    `json:"duration_estimate_days,omitempty" db:"duration_estimate_days"`
	CategoryID           *string     `json:"category_id,omitempty" db:"category_id"`
}

// EnergyEstimate is a precomputed energy level (0-100) for one calendar day
type EnergyEstimate struct {
	Day   time.Time `json:"day" db:"day"`
	Level float64   `json:"level" db:"level"`
}

// Batch is everything fetched for one analysis run
type Batch struct {
	Events []Event          `json:"events"`
	Tasks  []Task           `json:"tasks"`
	Energy []EnergyEstimate `json:"energy,omitempty"`
	// EnergySeries is an optional raw per-day series ending on the window's
	// last day. It is only consulted when Energy is empty.
	EnergySeries []float64 `json:"energy_series,omitempty"`
}
