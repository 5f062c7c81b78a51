package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/eventra/dashboard/api/internal/dto"
	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/repository"
)

const (
	defaultTaskCount   = 5
	maxTaskCount       = 20
	maxDueInDays       = 365
	riskContextTasks   = 10
	defaultRiskLevel   = "medium"
	defaultProbability = "medium"
	defaultTaskPrio    = "medium"
)

var (
	riskLevels    = []string{"low", "medium", "high", "critical"}
	probabilities = []string{"low", "medium", "high"}
	taskPriority  = []string{"low", "medium", "high"}
)

// AnalyzeRisks assesses the risks of an event and caches them for 24h.
func (s *InsightService) AnalyzeRisks(ctx context.Context, userID string, req dto.EventInsightRequest) (*dto.RiskAnalysisResponse, error) {
	eventID, err := parseID("eventId", req.EventID)
	if err != nil {
		return nil, err
	}
	userID = callerID(userID)
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	tasks := s.relatedTasks(ctx, &event.ID, riskContextTasks)
	company := s.companyContext(ctx, userID)

	var result dto.RiskAnalysis
	usage, err := s.complete(ctx, completionCall{
		feature: "analyze-risks",
		userID:  userID,
		system:  systemPrompt,
		prompt:  buildRiskPrompt(event, tasks, company, s.now()),
	}, &result)
	if err != nil {
		return nil, err
	}
	result.RiskLevel = oneOf(result.RiskLevel, riskLevels, defaultRiskLevel)
	risks := make([]dto.Risk, 0, len(result.Risks))
	for _, r := range result.Risks {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		r.Severity = oneOf(r.Severity, riskLevels, defaultRiskLevel)
		r.Probability = oneOf(r.Probability, probabilities, defaultProbability)
		risks = append(risks, r)
	}
	result.Risks = risks

	if _, err := s.storeInsight(ctx, entity.EntityEvent, event.ID, InsightRiskAnalysis, ttlDay, result, nil, usage.Model); err != nil {
		return nil, fmt.Errorf("store risk analysis: %w", err)
	}
	return &dto.RiskAnalysisResponse{RiskAnalysis: result, Usage: usage}, nil
}

// PredictCompletion estimates whether a task finishes on time and caches the
// prediction for 24h.
func (s *InsightService) PredictCompletion(ctx context.Context, userID string, req dto.TaskInsightRequest) (*dto.CompletionPredictionResponse, error) {
	taskID, err := parseID("taskId", req.TaskID)
	if err != nil {
		return nil, err
	}
	userID = callerID(userID)
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	task, err := s.repos.Tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, NotFoundError{Resource: "task"}
		}
		return nil, err
	}
	event := s.relatedEvent(ctx, task.EventID)

	var result dto.CompletionPrediction
	usage, err := s.complete(ctx, completionCall{
		feature: "predict-completion",
		userID:  userID,
		system:  systemPrompt,
		prompt:  buildCompletionPrompt(task, event, s.now()),
	}, &result)
	if err != nil {
		return nil, err
	}
	result.CompletionProbability = percentScore(result.CompletionProbability)
	result.RiskFactors = cleanList(result.RiskFactors)
	result.Recommendations = cleanList(result.Recommendations)
	result.PredictedCompletionDate = modelDate(result.PredictedCompletionDate)

	confidence := result.CompletionProbability
	if _, err := s.storeInsight(ctx, entity.EntityTask, task.ID, InsightCompletionPrediction, ttlDay, result, &confidence, usage.Model); err != nil {
		return nil, fmt.Errorf("store completion prediction: %w", err)
	}
	return &dto.CompletionPredictionResponse{CompletionPrediction: result, Usage: usage}, nil
}

// GenerateTasks suggests tasks for an event and optionally stores them.
func (s *InsightService) GenerateTasks(ctx context.Context, userID string, req dto.GenerateTasksRequest) (*dto.GeneratedTasksResponse, error) {
	eventID, err := parseID("eventId", req.EventID)
	if err != nil {
		return nil, err
	}
	if req.Count < 0 {
		return nil, ValidationError{Field: "count", Message: "count must not be negative"}
	}
	count := req.Count
	if count == 0 {
		count = defaultTaskCount
	}
	if count > maxTaskCount {
		count = maxTaskCount
	}
	userID = callerID(userID)
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	existing := s.relatedTasks(ctx, &event.ID, maxTaskCount)
	company := s.companyContext(ctx, userID)

	var result struct {
		Tasks []dto.SuggestedTask `json:"tasks"`
	}
	usage, err := s.complete(ctx, completionCall{
		feature: "generate-tasks",
		userID:  userID,
		system:  systemPrompt,
		prompt:  buildTasksPrompt(event, existing, company, count, s.now()),
	}, &result)
	if err != nil {
		return nil, err
	}

	suggestions := make([]dto.SuggestedTask, 0, count)
	for _, t := range result.Tasks {
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			continue
		}
		t.Priority = oneOf(t.Priority, taskPriority, defaultTaskPrio)
		t.DueInDays = roundScore(t.DueInDays, 0, maxDueInDays)
		suggestions = append(suggestions, t)
		if len(suggestions) == count {
			break
		}
	}

	resp := &dto.GeneratedTasksResponse{Tasks: suggestions, Created: []dto.CreatedTask{}, Usage: usage}
	if !req.Create {
		return resp, nil
	}

	for _, t := range suggestions {
		newTask := repository.NewTask{
			EventID:  &event.ID,
			Title:    t.Title,
			Status:   "todo",
			Priority: t.Priority,
		}
		if desc := strings.TrimSpace(t.Description); desc != "" {
			newTask.Description = &desc
		}
		if t.DueInDays > 0 {
			due := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, int(t.DueInDays))
			newTask.DueDate = &due
		}
		created, err := s.repos.Tasks.Create(ctx, newTask)
		if err != nil {
			log.Printf("level=error event_id=%s msg=\"failed to create generated task\" title=%q error=%v", event.ID, t.Title, err)
			return nil, fmt.Errorf("create generated task: %w", err)
		}
		item := dto.CreatedTask{ID: created.ID.String(), Title: created.Title, Priority: created.Priority}
		if created.DueDate != nil {
			item.DueDate = created.DueDate.Format(dateLayout)
		}
		resp.Created = append(resp.Created, item)
	}
	return resp, nil
}
