package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventra/dashboard/api/internal/entity"
)

// ErrEventNotFound indicates the requested event does not exist.
var ErrEventNotFound = errors.New("event not found")

// EventsRepository describes read access to events.
type EventsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	ListAll(ctx context.Context) ([]entity.Event, error)
}

// PGXEventsRepository implements EventsRepository using pgx.
type PGXEventsRepository struct {
	pool pgxPool
}

// NewPGXEventsRepository wires a pgx backed repository.
func NewPGXEventsRepository(pool *pgxpool.Pool) *PGXEventsRepository {
	return &PGXEventsRepository{pool: pool}
}

const eventColumns = `
        id,
        user_id,
        name,
        description,
        event_type,
        status,
        start_date,
        end_date,
        location,
        budget::float8,
        target_leads,
        actual_leads,
        created_at,
        updated_at`

// FindByID returns a single event.
func (r *PGXEventsRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("fetch event: %w", err)
	}
	return event, nil
}

// ListAll returns every event ordered by start date, newest first.
func (r *PGXEventsRepository) ListAll(ctx context.Context) ([]entity.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_date DESC NULLS LAST, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []entity.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(row rowScanner) (*entity.Event, error) {
	var (
		e           entity.Event
		userID      sql.NullString
		description sql.NullString
		eventType   sql.NullString
		startDate   sql.NullTime
		endDate     sql.NullTime
		location    sql.NullString
		budget      sql.NullFloat64
		targetLeads sql.NullInt64
		actualLeads sql.NullInt64
	)

	err := row.Scan(
		&e.ID,
		&userID,
		&e.Name,
		&description,
		&eventType,
		&e.Status,
		&startDate,
		&endDate,
		&location,
		&budget,
		&targetLeads,
		&actualLeads,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.UserID = nullStringToPtr(userID)
	e.Description = nullStringToPtr(description)
	e.EventType = nullStringToPtr(eventType)
	e.StartDate = nullTimeToPtr(startDate)
	e.EndDate = nullTimeToPtr(endDate)
	e.Location = nullStringToPtr(location)
	e.Budget = nullFloatToPtr(budget)
	e.TargetLeads = nullIntToPtr(targetLeads)
	e.ActualLeads = nullIntToPtr(actualLeads)
	return &e, nil
}
