package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/llm"
	"github.com/eventra/dashboard/api/internal/repository"
)

type memLeads struct {
	mu       sync.Mutex
	leads    map[uuid.UUID]*entity.Lead
	inserted []repository.NewLead
	merges   []mergeCall
}

type mergeCall struct {
	id    uuid.UUID
	key   string
	value any
}

func newMemLeads(leads ...entity.Lead) *memLeads {
	m := &memLeads{leads: map[uuid.UUID]*entity.Lead{}}
	for i := range leads {
		lead := leads[i]
		m.leads[lead.ID] = &lead
	}
	return m
}

func (m *memLeads) FindByID(ctx context.Context, id uuid.UUID) (*entity.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return nil, repository.ErrLeadNotFound
	}
	copied := *lead
	return &copied, nil
}

func (m *memLeads) List(ctx context.Context, filter repository.LeadFilter) ([]entity.Lead, error) {
	return m.ListAll(ctx, filter.EventID)
}

func (m *memLeads) ListAll(ctx context.Context, eventID *uuid.UUID) ([]entity.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Lead
	for _, lead := range m.leads {
		if eventID != nil && (lead.EventID == nil || *lead.EventID != *eventID) {
			continue
		}
		out = append(out, *lead)
	}
	return out, nil
}

func (m *memLeads) BulkInsert(ctx context.Context, leads []repository.NewLead) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, leads...)
	return len(leads), nil
}

func (m *memLeads) MergeMetadata(ctx context.Context, id uuid.UUID, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return repository.ErrLeadNotFound
	}
	if lead.Metadata == nil {
		lead.Metadata = map[string]any{}
	}
	lead.Metadata[key] = value
	m.merges = append(m.merges, mergeCall{id: id, key: key, value: value})
	return nil
}

type memEvents struct {
	events map[uuid.UUID]entity.Event
}

func newMemEvents(events ...entity.Event) *memEvents {
	m := &memEvents{events: map[uuid.UUID]entity.Event{}}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return m
}

func (m *memEvents) FindByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	return &event, nil
}

func (m *memEvents) ListAll(ctx context.Context) ([]entity.Event, error) {
	out := make([]entity.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e)
	}
	return out, nil
}

type memTasks struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]entity.Task
	created []repository.NewTask
}

func newMemTasks(tasks ...entity.Task) *memTasks {
	m := &memTasks{tasks: map[uuid.UUID]entity.Task{}}
	for _, t := range tasks {
		m.tasks[t.ID] = t
	}
	return m
}

func (m *memTasks) FindByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	task, ok := m.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	return &task, nil
}

func (m *memTasks) ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]entity.Task, error) {
	return m.ListAll(ctx, &eventID)
}

func (m *memTasks) ListAll(ctx context.Context, eventID *uuid.UUID) ([]entity.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Task
	for _, t := range m.tasks {
		if eventID != nil && (t.EventID == nil || *t.EventID != *eventID) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memTasks) Create(ctx context.Context, task repository.NewTask) (*entity.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, task)
	stored := entity.Task{
		ID:          uuid.New(),
		EventID:     task.EventID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
	}
	m.tasks[stored.ID] = stored
	return &stored, nil
}

type memTemplates struct {
	templates []entity.EmailTemplate
}

func (m *memTemplates) FindByID(ctx context.Context, id uuid.UUID) (*entity.EmailTemplate, error) {
	for _, tpl := range m.templates {
		if tpl.ID == id {
			copied := tpl
			return &copied, nil
		}
	}
	return nil, repository.ErrTemplateNotFound
}

func (m *memTemplates) List(ctx context.Context, limit int) ([]entity.EmailTemplate, error) {
	if limit > 0 && len(m.templates) > limit {
		return m.templates[:limit], nil
	}
	return m.templates, nil
}

type memInsights struct {
	mu   sync.Mutex
	rows map[repository.InsightKey]entity.AIInsight
	now  func() time.Time
}

func newMemInsights(now func() time.Time) *memInsights {
	return &memInsights{rows: map[repository.InsightKey]entity.AIInsight{}, now: now}
}

func (m *memInsights) Upsert(ctx context.Context, insight *entity.AIInsight) (*entity.AIInsight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := repository.InsightKey{EntityType: insight.EntityType, EntityID: insight.EntityID, InsightType: insight.InsightType}
	stored := *insight
	if existing, ok := m.rows[key]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.ID = uuid.New()
		stored.CreatedAt = m.now()
	}
	stored.UpdatedAt = m.now()
	m.rows[key] = stored
	return &stored, nil
}

func (m *memInsights) Find(ctx context.Context, key repository.InsightKey, now time.Time) (*entity.AIInsight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key]
	if !ok || row.Expired(now) {
		return nil, repository.ErrInsightNotFound
	}
	return &row, nil
}

func (m *memInsights) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID, now time.Time) ([]entity.AIInsight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.AIInsight
	for key, row := range m.rows {
		if key.EntityType == entityType && key.EntityID == entityID && !row.Expired(now) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memInsights) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, row := range m.rows {
		if row.Expired(before) {
			delete(m.rows, key)
			n++
		}
	}
	return n, nil
}

type memUsage struct {
	mu   sync.Mutex
	rows []entity.AIUsage
	now  func() time.Time
}

func (m *memUsage) Record(ctx context.Context, usage *entity.AIUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := *usage
	row.CreatedAt = m.now()
	m.rows = append(m.rows, row)
	return nil
}

func (m *memUsage) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, row := range m.rows {
		if row.UserID == userID && row.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

type memCompany struct {
	profiles map[string]entity.CompanyIntelligence
}

func (m *memCompany) FindByUser(ctx context.Context, userID string) (*entity.CompanyIntelligence, error) {
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrCompanyIntelligenceNotFound
	}
	return &profile, nil
}

func (m *memCompany) Upsert(ctx context.Context, profile *entity.CompanyIntelligence) (*entity.CompanyIntelligence, error) {
	if m.profiles == nil {
		m.profiles = map[string]entity.CompanyIntelligence{}
	}
	stored := *profile
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	m.profiles[profile.UserID] = stored
	return &stored, nil
}

// stubCompleter replays canned model replies and records prompts.
type stubCompleter struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.Prompt)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.replies) == 0 {
		return nil, errors.New("no canned reply")
	}
	text := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return &llm.Completion{Text: text, Model: "claude-sonnet-4-20250514", InputTokens: 400, OutputTokens: 120}, nil
}

func (s *stubCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
