package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventra/dashboard/api/internal/entity"
)

// ErrTaskNotFound indicates the requested task does not exist.
var ErrTaskNotFound = errors.New("task not found")

// NewTask is the input for inserting a task.
type NewTask struct {
	EventID     *uuid.UUID
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *time.Time
	AssignedTo  *string
}

// TasksRepository describes persistence operations for tasks.
type TasksRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Task, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]entity.Task, error)
	ListAll(ctx context.Context, eventID *uuid.UUID) ([]entity.Task, error)
	Create(ctx context.Context, task NewTask) (*entity.Task, error)
}

// PGXTasksRepository implements TasksRepository using pgx.
type PGXTasksRepository struct {
	pool pgxPool
}

// NewPGXTasksRepository wires a pgx backed repository.
func NewPGXTasksRepository(pool *pgxpool.Pool) *PGXTasksRepository {
	return &PGXTasksRepository{pool: pool}
}

const taskColumns = `id, event_id, title, description, status, priority, due_date, assigned_to, created_at, updated_at`

// FindByID returns a single task.
func (r *PGXTasksRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("fetch task: %w", err)
	}
	return task, nil
}

// ListByEvent returns the most recently updated tasks of an event.
func (r *PGXTasksRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]entity.Task, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE event_id = $1 ORDER BY updated_at DESC LIMIT $2`, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("list event tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// ListAll returns every task, optionally restricted to one event.
func (r *PGXTasksRepository) ListAll(ctx context.Context, eventID *uuid.UUID) ([]entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if eventID != nil {
		query += ` WHERE event_id = $1`
		args = append(args, *eventID)
	}
	query += ` ORDER BY due_date ASC NULLS LAST, created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list all tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// Create inserts a task and returns the stored row.
func (r *PGXTasksRepository) Create(ctx context.Context, task NewTask) (*entity.Task, error) {
	if task.Title == "" {
		return nil, fmt.Errorf("task title is required")
	}
	status := task.Status
	if status == "" {
		status = "todo"
	}
	priority := task.Priority
	if priority == "" {
		priority = "medium"
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO tasks (event_id, title, description, status, priority, due_date, assigned_to)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+taskColumns,
		uuidOrNil(task.EventID),
		task.Title,
		stringOrNil(task.Description),
		status,
		priority,
		timeOrNil(task.DueDate),
		stringOrNil(task.AssignedTo),
	)
	created, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

func scanTasks(rows pgx.Rows) ([]entity.Task, error) {
	var tasks []entity.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(row rowScanner) (*entity.Task, error) {
	var (
		t           entity.Task
		eventID     uuid.NullUUID
		description sql.NullString
		dueDate     sql.NullTime
		assignedTo  sql.NullString
	)
	err := row.Scan(
		&t.ID,
		&eventID,
		&t.Title,
		&description,
		&t.Status,
		&t.Priority,
		&dueDate,
		&assignedTo,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.EventID = nullUUIDToPtr(eventID)
	t.Description = nullStringToPtr(description)
	t.DueDate = nullTimeToPtr(dueDate)
	t.AssignedTo = nullStringToPtr(assignedTo)
	return &t, nil
}
