package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventra/dashboard/api/internal/dto"
	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/llm"
	"github.com/eventra/dashboard/api/internal/repository"
)

// Insight types persisted in the insight cache.
const (
	InsightLeadScore            = "lead_score"
	InsightLeadSummary          = "lead_summary"
	InsightLeadQualification    = "lead_qualification"
	InsightRiskAnalysis         = "risk_analysis"
	InsightCompletionPrediction = "completion_prediction"
	InsightEmailRecommendation  = "email_recommendation"
)

// Cache lifetimes per insight type.
const (
	ttlDay  = 24 * time.Hour
	ttlWeek = 7 * 24 * time.Hour
)

const anonymousUser = "anonymous"

var (
	// ErrRateLimited is returned once a user exhausted the daily AI budget.
	ErrRateLimited = errors.New("daily AI request limit reached")
	// ErrUpstream wraps failures of the completion provider.
	ErrUpstream = errors.New("AI provider request failed")
)

// ValidationError reports an invalid or missing request field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a missing primary or related row.
type NotFoundError struct {
	Resource string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	return e.Resource + " not found"
}

// InsightRepositories groups the stores the insight service reads and writes.
type InsightRepositories struct {
	Leads     repository.LeadsRepository
	Events    repository.EventsRepository
	Tasks     repository.TasksRepository
	Templates repository.TemplatesRepository
	Insights  repository.InsightsRepository
	Usage     repository.UsageRepository
	Company   repository.CompanyIntelligenceRepository
}

// InsightOptions tunes budgets and bookkeeping.
type InsightOptions struct {
	// MaxRequestsPerDay is the rolling 24h ceiling per user; 0 disables it.
	MaxRequestsPerDay int
	Prices            llm.PriceTable
	Now               func() time.Time
}

// InsightService builds prompts from stored rows, calls the model and caches
// the parsed results.
type InsightService struct {
	repos  InsightRepositories
	llm    llm.Completer
	limit  int
	prices llm.PriceTable
	now    func() time.Time
}

// NewInsightService wires the AI insight layer.
func NewInsightService(repos InsightRepositories, completer llm.Completer, opts InsightOptions) *InsightService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	prices := opts.Prices
	if prices == nil {
		prices = llm.DefaultPrices
	}
	return &InsightService{
		repos:  repos,
		llm:    completer,
		limit:  opts.MaxRequestsPerDay,
		prices: prices,
		now:    now,
	}
}

// completionCall describes one prompt round trip.
type completionCall struct {
	feature   string
	userID    string
	system    string
	prompt    string
	maxTokens int
}

// complete sends the prompt, records usage and decodes the JSON reply into out.
func (s *InsightService) complete(ctx context.Context, call completionCall, out any) (*dto.Usage, error) {
	completion, err := s.llm.Complete(ctx, llm.Request{System: call.system, Prompt: call.prompt, MaxTokens: call.maxTokens})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	usage := &dto.Usage{
		Model:         completion.Model,
		InputTokens:   completion.InputTokens,
		OutputTokens:  completion.OutputTokens,
		EstimatedCost: s.prices.Cost(completion.Model, completion.InputTokens, completion.OutputTokens),
	}
	s.recordUsage(ctx, call, usage)

	if err := llm.ExtractJSON(completion.Text, out); err != nil {
		log.Printf("level=error feature=%s msg=\"unparseable model output\" error=%v", call.feature, err)
		return usage, err
	}
	return usage, nil
}

func (s *InsightService) recordUsage(ctx context.Context, call completionCall, usage *dto.Usage) {
	if s.repos.Usage == nil {
		return
	}
	err := s.repos.Usage.Record(ctx, &entity.AIUsage{
		UserID:        call.userID,
		Feature:       call.feature,
		Model:         usage.Model,
		InputTokens:   usage.InputTokens,
		OutputTokens:  usage.OutputTokens,
		EstimatedCost: usage.EstimatedCost,
	})
	if err != nil {
		log.Printf("level=warn feature=%s user_id=%s msg=\"failed to record ai usage\" error=%v", call.feature, call.userID, err)
	}
}

// allow enforces the rolling 24h request ceiling before any model call.
func (s *InsightService) allow(ctx context.Context, userID string) error {
	if s.limit <= 0 || s.repos.Usage == nil {
		return nil
	}
	count, err := s.repos.Usage.CountSince(ctx, userID, s.now().Add(-ttlDay))
	if err != nil {
		return err
	}
	if count >= s.limit {
		return ErrRateLimited
	}
	return nil
}

// storeInsight upserts the parsed result into the insight cache.
func (s *InsightService) storeInsight(ctx context.Context, entityType string, entityID uuid.UUID, insightType string, ttl time.Duration, content any, confidence *float64, model string) (*entity.AIInsight, error) {
	body, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal insight: %w", err)
	}
	expires := s.now().Add(ttl)
	insight := &entity.AIInsight{
		EntityType:      entityType,
		EntityID:        entityID,
		InsightType:     insightType,
		Content:         body,
		ConfidenceScore: confidence,
		ExpiresAt:       &expires,
	}
	if model != "" {
		insight.Model = &model
	}
	return s.repos.Insights.Upsert(ctx, insight)
}

// mergeLeadIntelligence keeps the latest lead insight on the lead row itself.
func (s *InsightService) mergeLeadIntelligence(ctx context.Context, leadID uuid.UUID, insightType, model string, content any) {
	data, err := toMap(content)
	if err != nil {
		log.Printf("level=warn lead_id=%s msg=\"could not encode lead intelligence\" error=%v", leadID, err)
		return
	}
	record := entity.AIIntelligence{
		Version:     entity.AIIntelligenceVersion,
		InsightType: insightType,
		Model:       model,
		GeneratedAt: s.now().UTC(),
		Data:        data,
	}
	if err := s.repos.Leads.MergeMetadata(ctx, leadID, entity.MetadataKeyAIIntelligence, record); err != nil {
		log.Printf("level=warn lead_id=%s msg=\"failed to merge lead intelligence\" error=%v", leadID, err)
	}
}

// findLead loads the primary lead row.
func (s *InsightService) findLead(ctx context.Context, id uuid.UUID) (*entity.Lead, error) {
	lead, err := s.repos.Leads.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return nil, NotFoundError{Resource: "lead"}
		}
		return nil, err
	}
	return lead, nil
}

func (s *InsightService) findEvent(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	event, err := s.repos.Events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, NotFoundError{Resource: "event"}
		}
		return nil, err
	}
	return event, nil
}

func (s *InsightService) findTemplate(ctx context.Context, id uuid.UUID) (*entity.EmailTemplate, error) {
	tpl, err := s.repos.Templates.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return nil, NotFoundError{Resource: "email template"}
		}
		return nil, err
	}
	return tpl, nil
}

// relatedEvent loads the event a lead or task belongs to. Missing events are
// not fatal for prompt building.
func (s *InsightService) relatedEvent(ctx context.Context, id *uuid.UUID) *entity.Event {
	if id == nil || s.repos.Events == nil {
		return nil
	}
	event, err := s.repos.Events.FindByID(ctx, *id)
	if err != nil {
		if !errors.Is(err, repository.ErrEventNotFound) {
			log.Printf("level=warn event_id=%s msg=\"failed to load related event\" error=%v", id, err)
		}
		return nil
	}
	return event
}

// relatedTasks loads the most recent tasks of an event.
func (s *InsightService) relatedTasks(ctx context.Context, eventID *uuid.UUID, limit int) []entity.Task {
	if eventID == nil || s.repos.Tasks == nil {
		return nil
	}
	tasks, err := s.repos.Tasks.ListByEvent(ctx, *eventID, limit)
	if err != nil {
		log.Printf("level=warn event_id=%s msg=\"failed to load related tasks\" error=%v", eventID, err)
		return nil
	}
	return tasks
}

// companyContext returns the caller's company profile, if any.
func (s *InsightService) companyContext(ctx context.Context, userID string) *entity.CompanyIntelligence {
	if s.repos.Company == nil || userID == anonymousUser {
		return nil
	}
	profile, err := s.repos.Company.FindByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrCompanyIntelligenceNotFound) {
			log.Printf("level=warn user_id=%s msg=\"failed to load company intelligence\" error=%v", userID, err)
		}
		return nil
	}
	return profile
}

// parseID validates a required uuid request field.
func parseID(field, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, ValidationError{Field: field, Message: field + " is required"}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ValidationError{Field: field, Message: field + " must be a valid UUID"}
	}
	return id, nil
}

// parseOptionalID validates an optional uuid request field.
func parseOptionalID(field, raw string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := parseID(field, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func callerID(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return anonymousUser
	}
	return userID
}

// roundScore rounds a model supplied number and clamps it to [lo, hi].
func roundScore(value, lo, hi float64) float64 {
	value = math.Round(value)
	if math.IsNaN(value) || value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// percentScore reads fractions in (0, 1) as ratios and returns a 0-100 value.
func percentScore(value float64) float64 {
	if value > 0 && value < 1 {
		value *= 100
	}
	return roundScore(value, 0, 100)
}

// modelDate keeps the YYYY-MM-DD prefix of a model supplied date or
// timestamp, or returns "" when no calendar date can be read.
func modelDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) < len(dateLayout) {
		return ""
	}
	day, err := time.Parse(dateLayout, raw[:len(dateLayout)])
	if err != nil {
		return ""
	}
	return day.Format(dateLayout)
}

func toMap(content any) (map[string]any, error) {
	body, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func oneOf(value string, allowed []string, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return fallback
}
