package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf16"

	"github.com/eventra/dashboard/api/internal/dto"
	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/repository"
)

const (
	defaultTone         = "professional"
	defaultSubjectCount = 5
	maxSubjectCount     = 10
	maxVariations       = 5
)

var insightEntityTypes = []string{entity.EntityLead, entity.EntityEvent, entity.EntityTask, entity.EntityTemplate}

// GenerateEmailDraft writes a personalised email for a lead, optionally based
// on a stored template whose placeholders are resolved first.
func (s *InsightService) GenerateEmailDraft(ctx context.Context, userID string, req dto.EmailDraftRequest) (*dto.EmailDraftResponse, error) {
	leadID, err := parseID("leadId", req.LeadID)
	if err != nil {
		return nil, err
	}
	templateID, err := parseOptionalID("templateId", req.TemplateID)
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
	var tpl *entity.EmailTemplate
	if templateID != nil {
		if tpl, err = s.findTemplate(ctx, *templateID); err != nil {
			return nil, err
		}
	}
	event := s.relatedEvent(ctx, lead.EventID)
	company := s.companyContext(ctx, userID)

	tone := strings.TrimSpace(req.Tone)
	if tone == "" && tpl != nil {
		tone = tpl.Tone
	}
	if tone == "" {
		tone = defaultTone
	}

	var result dto.EmailDraft
	usage, err := s.complete(ctx, completionCall{
		feature: "generate-email-draft",
		userID:  userID,
		system:  systemPrompt,
		prompt:  buildEmailDraftPrompt(lead, event, company, tpl, TemplateVariables(lead, event), tone),
	}, &result)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Tone) == "" {
		result.Tone = tone
	}
	return &dto.EmailDraftResponse{EmailDraft: result, Usage: usage}, nil
}

// GenerateSubjectLines returns at most count subject lines; each length is the
// character count of its text.
func (s *InsightService) GenerateSubjectLines(ctx context.Context, userID string, req dto.SubjectLinesRequest) (*dto.SubjectLinesResponse, error) {
	templateID, err := parseOptionalID("templateId", req.TemplateID)
	if err != nil {
		return nil, err
	}
	goal := strings.TrimSpace(req.Goal)
	topic := strings.TrimSpace(req.Topic)
	if templateID == nil && goal == "" && topic == "" {
		return nil, ValidationError{Field: "templateId", Message: "templateId, goal or topic is required"}
	}
	if req.Count < 0 {
		return nil, ValidationError{Field: "count", Message: "count must not be negative"}
	}
	count := req.Count
	if count == 0 {
		count = defaultSubjectCount
	}
	if count > maxSubjectCount {
		count = maxSubjectCount
	}
	userID = callerID(userID)
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	var tpl *entity.EmailTemplate
	if templateID != nil {
		if tpl, err = s.findTemplate(ctx, *templateID); err != nil {
			return nil, err
		}
	}
	tone := strings.TrimSpace(req.Tone)
	if tone == "" && tpl != nil {
		tone = tpl.Tone
	}
	if tone == "" {
		tone = defaultTone
	}

	var result struct {
		SubjectLines []dto.SubjectLine `json:"subjectLines"`
	}
	usage, err := s.complete(ctx, completionCall{
		feature: "generate-subject-lines",
		userID:  userID,
		system:  systemPrompt,
		prompt:  buildSubjectLinesPrompt(tpl, goal, topic, tone, count),
	}, &result)
	if err != nil {
		return nil, err
	}

	lines := make([]dto.SubjectLine, 0, count)
	for _, line := range result.SubjectLines {
		line.Text = strings.TrimSpace(line.Text)
		if line.Text == "" {
			continue
		}
		line.Length = textLength(line.Text)
		if line.PredictedOpenRate < 0 {
			line.PredictedOpenRate = 0
		}
		if line.PredictedOpenRate > 100 {
			line.PredictedOpenRate = 100
		}
		lines = append(lines, line)
		if len(lines) == count {
			break
		}
	}
	return &dto.SubjectLinesResponse{SubjectLines: lines, Usage: usage}, nil
}

// GenerateContent writes marketing copy, optionally in the context of an event.
func (s *InsightService) GenerateContent(ctx context.Context, userID string, req dto.GenerateContentRequest) (*dto.GeneratedContentResponse, error) {
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		return nil, ValidationError{Field: "contentType", Message: "contentType is required"}
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, ValidationError{Field: "topic", Message: "topic is required"}
	}
	eventID, err := parseOptionalID("eventId", req.EventID)
	if err != nil {
		return nil, err
	}
	userID = callerID(userID)
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	var event *entity.Event
	if eventID != nil {
		if event, err = s.findEvent(ctx, *eventID); err != nil {
			return nil, err
		}
	}
	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = defaultTone
	}
	company := s.companyContext(ctx, userID)

	var result dto.GeneratedContent
	usage, err := s.complete(ctx, completionCall{
		feature: "generate-content",
		userID:  userID,
		system:  systemPrompt,
		prompt:  buildContentPrompt(contentType, topic, tone, event, company),
	}, &result)
	if err != nil {
		return nil, err
	}
	result.Variations = cleanList(result.Variations)
	if len(result.Variations) > maxVariations {
		result.Variations = result.Variations[:maxVariations]
	}
	return &dto.GeneratedContentResponse{GeneratedContent: result, Usage: usage}, nil
}

// GetInsights returns the live cached insights of an entity, optionally
// narrowed to one insight type.
func (s *InsightService) GetInsights(ctx context.Context, query dto.InsightQuery) ([]entity.AIInsight, error) {
	entityType := strings.ToLower(strings.TrimSpace(query.EntityType))
	if entityType == "" {
		return nil, ValidationError{Field: "entityType", Message: "entityType is required"}
	}
	if oneOf(entityType, insightEntityTypes, "") == "" {
		return nil, ValidationError{Field: "entityType", Message: "entityType must be one of lead, event, task, template"}
	}
	entityID, err := parseID("entityId", query.EntityID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	insightType := strings.TrimSpace(query.InsightType)
	if insightType != "" {
		insight, err := s.repos.Insights.Find(ctx, repository.InsightKey{EntityType: entityType, EntityID: entityID, InsightType: insightType}, now)
		if err != nil {
			if errors.Is(err, repository.ErrInsightNotFound) {
				return nil, NotFoundError{Resource: "insight"}
			}
			return nil, err
		}
		return []entity.AIInsight{*insight}, nil
	}

	insights, err := s.repos.Insights.ListForEntity(ctx, entityType, entityID, now)
	if err != nil {
		return nil, err
	}
	if len(insights) == 0 {
		return nil, NotFoundError{Resource: "insight"}
	}
	return insights, nil
}

// textLength counts UTF-16 code units, the unit browsers use for string length
// and inbox subject previews.
func textLength(text string) int {
	return len(utf16.Encode([]rune(text)))
}
