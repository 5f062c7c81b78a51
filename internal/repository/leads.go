package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventra/dashboard/api/internal/entity"
)

// ErrLeadNotFound indicates the requested lead does not exist.
var ErrLeadNotFound = errors.New("lead not found")

// LeadFilter narrows lead listings.
type LeadFilter struct {
	EventID  *uuid.UUID
	Status   string
	Priority string
	Q        string
	Page     int
	PerPage  int
}

// NewLead is the minimal input for inserting a lead.
type NewLead struct {
	EventID   *uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Company   *string
	JobTitle  *string
	Source    *string
	Status    string
	Priority  string
}

// LeadsRepository describes persistence operations for leads.
type LeadsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]entity.Lead, error)
	ListAll(ctx context.Context, eventID *uuid.UUID) ([]entity.Lead, error)
	BulkInsert(ctx context.Context, leads []NewLead) (int, error)
	MergeMetadata(ctx context.Context, id uuid.UUID, key string, value any) error
}

// PGXLeadsRepository implements LeadsRepository using pgx.
type PGXLeadsRepository struct {
	pool pgxPool
}

// NewPGXLeadsRepository wires a pgx backed repository.
func NewPGXLeadsRepository(pool *pgxpool.Pool) *PGXLeadsRepository {
	return &PGXLeadsRepository{pool: pool}
}

const leadColumns = `
        id,
        event_id,
        first_name,
        last_name,
        email,
        phone,
        company,
        job_title,
        source,
        status,
        priority,
        notes,
        metadata,
        created_at,
        updated_at`

// FindByID returns a single lead.
func (r *PGXLeadsRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("fetch lead: %w", err)
	}
	return lead, nil
}

// List retrieves leads matching the filter, newest first.
func (r *PGXLeadsRepository) List(ctx context.Context, filter LeadFilter) ([]entity.Lead, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT ` + leadColumns + ` FROM leads`)

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.EventID != nil {
		clauses = append(clauses, fmt.Sprintf("event_id = $%d", idx))
		args = append(args, *filter.EventID)
		idx++
	}
	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(status) = LOWER($%d)", idx))
		args = append(args, filter.Status)
		idx++
	}
	if filter.Priority != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(priority) = LOWER($%d)", idx))
		args = append(args, filter.Priority)
		idx++
	}
	if filter.Q != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Q)
		clauses = append(clauses, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", idx, idx, idx, idx))
		args = append(args, pattern)
		idx++
	}

	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}
	query.WriteString(" ORDER BY created_at DESC, id ASC")

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

// ListAll returns every lead, optionally restricted to one event, in a stable order.
func (r *PGXLeadsRepository) ListAll(ctx context.Context, eventID *uuid.UUID) ([]entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	var args []any
	if eventID != nil {
		query += ` WHERE event_id = $1`
		args = append(args, *eventID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list all leads: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

const insertLeadSQL = `
        INSERT INTO leads (event_id, first_name, last_name, email, phone, company, job_title, source, status, priority)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `

// BulkInsert stores all leads in a single transaction and returns how many were written.
func (r *PGXLeadsRepository) BulkInsert(ctx context.Context, leads []NewLead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("start lead import tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, lead := range leads {
		status := lead.Status
		if status == "" {
			status = "new"
		}
		priority := lead.Priority
		if priority == "" {
			priority = entity.PriorityWarm
		}
		if _, err := tx.Exec(ctx, insertLeadSQL,
			uuidOrNil(lead.EventID),
			lead.FirstName,
			lead.LastName,
			lead.Email,
			stringOrNil(lead.Phone),
			stringOrNil(lead.Company),
			stringOrNil(lead.JobTitle),
			stringOrNil(lead.Source),
			status,
			priority,
		); err != nil {
			return 0, fmt.Errorf("insert lead %q: %w", lead.Email, err)
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit lead import tx: %w", err)
	}
	return inserted, nil
}

// MergeMetadata sets metadata[key] = value, leaving other keys untouched.
func (r *PGXLeadsRepository) MergeMetadata(ctx context.Context, id uuid.UUID, key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("metadata key must not be empty")
	}
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal metadata value: %w", err)
	}

	cmd, err := r.pool.Exec(ctx, `
        UPDATE leads
        SET metadata = jsonb_set(COALESCE(metadata, '{}'::jsonb), ARRAY[$2::text], $3::jsonb, true)
        WHERE id = $1
    `, id, key, string(body))
	if err != nil {
		return fmt.Errorf("merge lead metadata: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func scanLeads(rows pgx.Rows) ([]entity.Lead, error) {
	var leads []entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		l        entity.Lead
		eventID  uuid.NullUUID
		phone    sql.NullString
		company  sql.NullString
		jobTitle sql.NullString
		source   sql.NullString
		notes    sql.NullString
		metadata []byte
	)

	err := row.Scan(
		&l.ID,
		&eventID,
		&l.FirstName,
		&l.LastName,
		&l.Email,
		&phone,
		&company,
		&jobTitle,
		&source,
		&l.Status,
		&l.Priority,
		&notes,
		&metadata,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.EventID = nullUUIDToPtr(eventID)
	l.Phone = nullStringToPtr(phone)
	l.Company = nullStringToPtr(company)
	l.JobTitle = nullStringToPtr(jobTitle)
	l.Source = nullStringToPtr(source)
	l.Notes = nullStringToPtr(notes)

	l.Metadata, err = jsonObject(metadata)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
