package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/eventra/dashboard/api/internal/dto"
	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/repository"
	"github.com/eventra/dashboard/api/internal/service/scoring"
)

const (
	maxRecommendations  = 3
	recommendationPool  = 20
	fallbackMatchScore  = 50
	fallbackReason      = "Default template suggested because no model recommendation matched an available template."
	defaultSentiment    = "neutral"
	defaultQualifyStage = "unqualified"
)

var (
	sentiments       = []string{"positive", "neutral", "negative"}
	qualifyingStages = []string{"unqualified", "mql", "sql", "opportunity"}
)

// ScoreLead asks the model to score a lead and caches the result for 24h.
func (s *InsightService) ScoreLead(ctx context.Context, userID string, req dto.ScoreLeadRequest) (*dto.LeadScoreResponse, error) {
	leadID, err := parseID("leadId", req.LeadID)
	if err != nil {
		return nil, err
	}
	userID = callerID(userID)
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	lead, err := s.findLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	event := s.relatedEvent(ctx, lead.EventID)
	company := s.companyContext(ctx, userID)
	baseline := scoring.ComputeBaseline(scoring.FeaturesFromLead(*lead))

	var result dto.LeadScore
	usage, err := s.complete(ctx, completionCall{
		feature: "score-lead",
		userID:  userID,
		system:  systemPrompt,
		prompt:  buildScorePrompt(lead, event, company, baseline),
	}, &result)
	if err != nil {
		return nil, err
	}
	normalizeLeadScore(&result)

	confidence := result.Confidence
	stored, err := s.storeInsight(ctx, entity.EntityLead, lead.ID, InsightLeadScore, ttlDay, result, &confidence, usage.Model)
	if err != nil {
		return nil, fmt.Errorf("store lead score: %w", err)
	}
	s.mergeLeadIntelligence(ctx, lead.ID, InsightLeadScore, usage.Model, result)

	return &dto.LeadScoreResponse{
		LeadScore: result,
		CacheInfo: dto.CacheInfo{Cached: false, GeneratedAt: &stored.UpdatedAt, ExpiresAt: stored.ExpiresAt},
		Usage:     usage,
	}, nil
}

// CachedLeadScore returns the live cached score of a lead.
func (s *InsightService) CachedLeadScore(ctx context.Context, rawLeadID string) (*dto.LeadScoreResponse, error) {
	leadID, err := parseID("leadId", rawLeadID)
	if err != nil {
		return nil, err
	}
	insight, err := s.repos.Insights.Find(ctx, repository.InsightKey{
		EntityType:  entity.EntityLead,
		EntityID:    leadID,
		InsightType: InsightLeadScore,
	}, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrInsightNotFound) {
			return nil, NotFoundError{Resource: "lead score"}
		}
		return nil, err
	}
	if insight.Expired(s.now()) {
		return nil, NotFoundError{Resource: "lead score"}
	}

	var result dto.LeadScore
	if err := json.Unmarshal(insight.Content, &result); err != nil {
		return nil, fmt.Errorf("decode cached lead score: %w", err)
	}
	return &dto.LeadScoreResponse{
		LeadScore: result,
		CacheInfo: dto.CacheInfo{Cached: true, GeneratedAt: &insight.UpdatedAt, ExpiresAt: insight.ExpiresAt},
	}, nil
}

// SummarizeLead produces talking points for a lead and caches them for 7 days.
func (s *InsightService) SummarizeLead(ctx context.Context, userID string, req dto.LeadInsightRequest) (*dto.LeadSummaryResponse, error) {
	leadID, err := parseID("leadId", req.LeadID)
	if err != nil {
		return nil, err
	}
	userID = callerID(userID)
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	lead, err := s.findLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	event := s.relatedEvent(ctx, lead.EventID)
	company := s.companyContext(ctx, userID)

	var result dto.LeadSummary
	usage, err := s.complete(ctx, completionCall{
		feature: "summarize-lead",
		userID:  userID,
		system:  systemPrompt,
		prompt:  buildSummaryPrompt(lead, event, company),
	}, &result)
	if err != nil {
		return nil, err
	}
	result.KeyPoints = cleanList(result.KeyPoints)
	result.NextSteps = cleanList(result.NextSteps)
	result.Sentiment = oneOf(result.Sentiment, sentiments, defaultSentiment)

	if _, err := s.storeInsight(ctx, entity.EntityLead, lead.ID, InsightLeadSummary, ttlWeek, result, nil, usage.Model); err != nil {
		return nil, fmt.Errorf("store lead summary: %w", err)
	}
	s.mergeLeadIntelligence(ctx, lead.ID, InsightLeadSummary, usage.Model, result)

	return &dto.LeadSummaryResponse{LeadSummary: result, Usage: usage}, nil
}

// QualifyLead runs a BANT qualification and caches it for 7 days.
func (s *InsightService) QualifyLead(ctx context.Context, userID string, req dto.LeadInsightRequest) (*dto.LeadQualificationResponse, error) {
	leadID, err := parseID("leadId", req.LeadID)
	if err != nil {
		return nil, err
	}
	userID = callerID(userID)
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	lead, err := s.findLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	event := s.relatedEvent(ctx, lead.EventID)
	company := s.companyContext(ctx, userID)

	var result dto.LeadQualification
	usage, err := s.complete(ctx, completionCall{
		feature: "qualify-lead",
		userID:  userID,
		system:  systemPrompt,
		prompt:  buildQualificationPrompt(lead, event, company),
	}, &result)
	if err != nil {
		return nil, err
	}
	result.Score = roundScore(result.Score, 0, 100)
	result.Stage = oneOf(result.Stage, qualifyingStages, defaultQualifyStage)
	result.Questions = cleanList(result.Questions)

	confidence := result.Score
	if _, err := s.storeInsight(ctx, entity.EntityLead, lead.ID, InsightLeadQualification, ttlWeek, result, &confidence, usage.Model); err != nil {
		return nil, fmt.Errorf("store lead qualification: %w", err)
	}
	s.mergeLeadIntelligence(ctx, lead.ID, InsightLeadQualification, usage.Model, result)

	return &dto.LeadQualificationResponse{LeadQualification: result, Usage: usage}, nil
}

// RecommendEmail ranks the stored templates for a lead. At most three are
// returned; when the model names no known template the first one is used.
func (s *InsightService) RecommendEmail(ctx context.Context, userID string, req dto.LeadInsightRequest) (*dto.EmailRecommendationResponse, error) {
	leadID, err := parseID("leadId", req.LeadID)
	if err != nil {
		return nil, err
	}
	userID = callerID(userID)
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	lead, err := s.findLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	templates, err := s.repos.Templates.List(ctx, recommendationPool)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, NotFoundError{Resource: "email templates"}
	}
	event := s.relatedEvent(ctx, lead.EventID)

	var result dto.EmailRecommendation
	usage, err := s.complete(ctx, completionCall{
		feature: "recommend-email",
		userID:  userID,
		system:  systemPrompt,
		prompt:  buildRecommendationPrompt(lead, event, templates),
	}, &result)
	if err != nil {
		return nil, err
	}
	result.RecommendedTemplates = filterRecommendations(result.RecommendedTemplates, templates)

	if _, err := s.storeInsight(ctx, entity.EntityLead, lead.ID, InsightEmailRecommendation, ttlDay, result, nil, usage.Model); err != nil {
		return nil, fmt.Errorf("store email recommendation: %w", err)
	}

	return &dto.EmailRecommendationResponse{EmailRecommendation: result, Usage: usage}, nil
}

// filterRecommendations keeps only known, distinct templates, caps the list
// and falls back to the first available template.
func filterRecommendations(recs []dto.TemplateRecommendation, templates []entity.EmailTemplate) []dto.TemplateRecommendation {
	known := make(map[uuid.UUID]entity.EmailTemplate, len(templates))
	for _, tpl := range templates {
		known[tpl.ID] = tpl
	}

	seen := make(map[uuid.UUID]struct{}, len(recs))
	out := make([]dto.TemplateRecommendation, 0, maxRecommendations)
	for _, rec := range recs {
		id, err := uuid.Parse(strings.TrimSpace(rec.TemplateID))
		if err != nil {
			continue
		}
		tpl, ok := known[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, dto.TemplateRecommendation{
			TemplateID: id.String(),
			Name:       tpl.Name,
			Reason:     strings.TrimSpace(rec.Reason),
			MatchScore: roundScore(rec.MatchScore, 0, 100),
		})
		if len(out) == maxRecommendations {
			break
		}
	}

	if len(out) == 0 && len(templates) > 0 {
		first := templates[0]
		out = append(out, dto.TemplateRecommendation{
			TemplateID: first.ID.String(),
			Name:       first.Name,
			Reason:     fallbackReason,
			MatchScore: fallbackMatchScore,
		})
	}
	return out
}

func normalizeLeadScore(score *dto.LeadScore) {
	score.Score = roundScore(score.Score, 0, 100)
	score.Confidence = percentScore(score.Confidence)
	score.Reasoning = strings.TrimSpace(score.Reasoning)
	score.Strengths = cleanList(score.Strengths)
	score.Weaknesses = cleanList(score.Weaknesses)
	score.Recommendations = cleanList(score.Recommendations)
}
