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

// ErrTemplateNotFound indicates the requested email template does not exist.
var ErrTemplateNotFound = errors.New("email template not found")

// TemplatesRepository describes read access to email templates.
type TemplatesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.EmailTemplate, error)
	List(ctx context.Context, limit int) ([]entity.EmailTemplate, error)
}

// PGXTemplatesRepository implements TemplatesRepository using pgx.
type PGXTemplatesRepository struct {
	pool pgxPool
}

// NewPGXTemplatesRepository wires a pgx backed repository.
func NewPGXTemplatesRepository(pool *pgxpool.Pool) *PGXTemplatesRepository {
	return &PGXTemplatesRepository{pool: pool}
}

const templateColumns = `id, name, description, category, goal, tone, created_at, updated_at`

// FindByID loads a template together with its subject lines, content blocks and CTAs.
func (r *PGXTemplatesRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.EmailTemplate, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE id = $1`, id)
	tpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("fetch template: %w", err)
	}

	if tpl.SubjectLines, err = r.subjectLines(ctx, id); err != nil {
		return nil, err
	}
	if tpl.ContentBlocks, err = r.contentBlocks(ctx, id); err != nil {
		return nil, err
	}
	if tpl.CTAs, err = r.ctas(ctx, id); err != nil {
		return nil, err
	}
	return tpl, nil
}

// List returns template headers (without subtables), most recently updated first.
func (r *PGXTemplatesRepository) List(ctx context.Context, limit int) ([]entity.EmailTemplate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT `+templateColumns+` FROM email_templates ORDER BY updated_at DESC, name ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []entity.EmailTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

func (r *PGXTemplatesRepository) subjectLines(ctx context.Context, templateID uuid.UUID) ([]entity.SubjectLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, text, is_primary FROM email_template_subject_lines WHERE template_id = $1 ORDER BY is_primary DESC, id ASC`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list subject lines: %w", err)
	}
	defer rows.Close()

	var lines []entity.SubjectLine
	for rows.Next() {
		var line entity.SubjectLine
		if err := rows.Scan(&line.ID, &line.Text, &line.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan subject line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subject lines: %w", err)
	}
	return lines, nil
}

func (r *PGXTemplatesRepository) contentBlocks(ctx context.Context, templateID uuid.UUID) ([]entity.ContentBlock, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, block_type, content, position FROM email_template_content_blocks WHERE template_id = $1 ORDER BY position ASC`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list content blocks: %w", err)
	}
	defer rows.Close()

	var blocks []entity.ContentBlock
	for rows.Next() {
		var block entity.ContentBlock
		if err := rows.Scan(&block.ID, &block.BlockType, &block.Content, &block.Position); err != nil {
			return nil, fmt.Errorf("scan content block: %w", err)
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content blocks: %w", err)
	}
	return blocks, nil
}

func (r *PGXTemplatesRepository) ctas(ctx context.Context, templateID uuid.UUID) ([]entity.CTA, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, text, url, style FROM email_template_ctas WHERE template_id = $1 ORDER BY id ASC`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list ctas: %w", err)
	}
	defer rows.Close()

	var ctas []entity.CTA
	for rows.Next() {
		var (
			cta entity.CTA
			url sql.NullString
		)
		if err := rows.Scan(&cta.ID, &cta.Text, &url, &cta.Style); err != nil {
			return nil, fmt.Errorf("scan cta: %w", err)
		}
		cta.URL = nullStringToPtr(url)
		ctas = append(ctas, cta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ctas: %w", err)
	}
	return ctas, nil
}

func scanTemplate(row rowScanner) (*entity.EmailTemplate, error) {
	var (
		t           entity.EmailTemplate
		description sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &description, &t.Category, &t.Goal, &t.Tone, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Description = nullStringToPtr(description)
	return &t, nil
}
