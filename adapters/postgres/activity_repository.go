package postgres

import (
	"context"
	"time"

	"perfpulse/domain/activity"
	"perfpulse/internal/errors"
	"perfpulse/ports"

	"github.com/jmoiron/sqlx"
)

// ActivityRepository reads events, tasks and energy estimates from the
// activity schema. Queries are written with ? placeholders and rebound for
// the connected driver, so the same repository serves Postgres and SQLite.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// FetchEvents returns the events inside the range, oldest first
func (r *ActivityRepository) FetchEvents(ctx context.Context, tr ports.TimeRange) ([]activity.Event, error) {
	query := r.db.Rebind(`SELECT timestamp, action_kind, entity_kind, entity_id, duration_seconds
		FROM activity_events
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp`)

	events := []activity.Event{}
	if err := r.db.SelectContext(ctx, &events, query, tr.Start.UTC(), tr.End.UTC()); err != nil {
		return nil, errors.DatabaseError("failed to fetch activity events", err)
	}
	return events, nil
}

// FetchTasks returns every task that could touch the range: tasks started
// before its end that were still open at its start, plus tasks with no
// start date.
func (r *ActivityRepository) FetchTasks(ctx context.Context, tr ports.TimeRange) ([]activity.Task, error) {
	query := r.db.Rebind(`SELECT id, name, status, start_date, end_date, deadline, duration_estimate_days, category_id
		FROM tasks
		WHERE (start_date IS NULL OR start_date < ?)
		  AND (end_date IS NULL OR end_date >= ? OR status <> 'done')
		ORDER BY id`)

	tasks := []activity.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, tr.End.UTC(), tr.Start.UTC()); err != nil {
		return nil, errors.DatabaseError("failed to fetch tasks", err)
	}
	return tasks, nil
}

// FetchEnergy returns the daily energy estimates inside the range
func (r *ActivityRepository) FetchEnergy(ctx context.Context, tr ports.TimeRange) ([]activity.EnergyEstimate, error) {
	query := r.db.Rebind(`SELECT day, level FROM energy_estimates
		WHERE day >= ? AND day < ?
		ORDER BY day`)

	energy := []activity.EnergyEstimate{}
	if err := r.db.SelectContext(ctx, &energy, query, tr.Start.UTC(), tr.End.UTC()); err != nil {
		return nil, errors.DatabaseError("failed to fetch energy estimates", err)
	}
	return energy, nil
}

// eventRow and taskRow normalize timestamps to UTC before they are written
type eventRow struct {
	Timestamp       time.Time `db:"timestamp"`
	ActionKind      string    `db:"action_kind"`
	EntityKind      string    `db:"entity_kind"`
	EntityID        string    `db:"entity_id"`
	DurationSeconds *float64  `db:"duration_seconds"`
}

type taskRow struct {
	ID                   string     `db:"id"`
	Name                 string     `db:"name"`
	Status               string     `db:"status"`
	StartDate            *time.Time `db:"start_date"`
	EndDate              *time.Time `db:"end_date"`
	Deadline             *time.Time `db:"deadline"`
	DurationEstimateDays *float64   `db:"duration_estimate_days"`
	CategoryID           *string    `db:"category_id"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Save writes a batch in one transaction. It is used to seed development
// databases from exports or the synthetic generator.
func (r *ActivityRepository) Save(ctx context.Context, batch activity.Batch) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, ev := range batch.Events {
		row := eventRow{
			Timestamp:       ev.Timestamp.UTC(),
			ActionKind:      string(ev.ActionKind),
			EntityKind:      string(ev.EntityKind),
			EntityID:        string(ev.EntityID),
			DurationSeconds: ev.DurationSeconds,
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO activity_events
			(timestamp, action_kind, entity_kind, entity_id, duration_seconds)
			VALUES (:timestamp, :action_kind, :entity_kind, :entity_id, :duration_seconds)`, row); err != nil {
			return errors.DatabaseError("failed to insert activity event", err)
		}
	}

	for _, task := range batch.Tasks {
		row := taskRow{
			ID:                   string(task.ID),
			Name:                 task.Name,
			Status:               string(task.Status),
			StartDate:            utcPtr(task.StartDate),
			EndDate:              utcPtr(task.EndDate),
			Deadline:             utcPtr(task.Deadline),
			DurationEstimateDays: task.DurationEstimateDays,
			CategoryID:           task.CategoryID,
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO tasks
			(id, name, status, start_date, end_date, deadline, duration_estimate_days, category_id)
			VALUES (:id, :name, :status, :start_date, :end_date, :deadline, :duration_estimate_days, :category_id)`, row); err != nil {
			return errors.DatabaseError("failed to insert task "+row.ID, err)
		}
	}

	for _, e := range batch.Energy {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO energy_estimates (day, level) VALUES (?, ?)`), e.Day.UTC(), e.Level); err != nil {
			return errors.DatabaseError("failed to insert energy estimate", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit activity batch", err)
	}
	return nil
}

var _ ports.ActivitySource = (*ActivityRepository)(nil)
