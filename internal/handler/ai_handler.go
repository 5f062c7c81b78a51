package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eventra/dashboard/api/internal/dto"
	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/llm"
	"github.com/eventra/dashboard/api/internal/middleware"
	"github.com/eventra/dashboard/api/internal/service"
)

// InsightProvider is the AI surface the handler depends on.
type InsightProvider interface {
	ScoreLead(ctx context.Context, userID string, req dto.ScoreLeadRequest) (*dto.LeadScoreResponse, error)
	CachedLeadScore(ctx context.Context, rawLeadID string) (*dto.LeadScoreResponse, error)
	SummarizeLead(ctx context.Context, userID string, req dto.LeadInsightRequest) (*dto.LeadSummaryResponse, error)
	QualifyLead(ctx context.Context, userID string, req dto.LeadInsightRequest) (*dto.LeadQualificationResponse, error)
	RecommendEmail(ctx context.Context, userID string, req dto.LeadInsightRequest) (*dto.EmailRecommendationResponse, error)
	AnalyzeRisks(ctx context.Context, userID string, req dto.EventInsightRequest) (*dto.RiskAnalysisResponse, error)
	PredictCompletion(ctx context.Context, userID string, req dto.TaskInsightRequest) (*dto.CompletionPredictionResponse, error)
	GenerateTasks(ctx context.Context, userID string, req dto.GenerateTasksRequest) (*dto.GeneratedTasksResponse, error)
	GenerateEmailDraft(ctx context.Context, userID string, req dto.EmailDraftRequest) (*dto.EmailDraftResponse, error)
	GenerateSubjectLines(ctx context.Context, userID string, req dto.SubjectLinesRequest) (*dto.SubjectLinesResponse, error)
	GenerateContent(ctx context.Context, userID string, req dto.GenerateContentRequest) (*dto.GeneratedContentResponse, error)
	GetInsights(ctx context.Context, query dto.InsightQuery) ([]entity.AIInsight, error)
}

// AIHandler exposes the /api/ai endpoints.
type AIHandler struct {
	insights InsightProvider
}

// NewAIHandler constructs an AIHandler.
func NewAIHandler(insights InsightProvider) *AIHandler {
	return &AIHandler{insights: insights}
}

// ScoreLead handles POST /api/ai/score-lead.
func (h *AIHandler) ScoreLead(c echo.Context) error {
	var req dto.ScoreLeadRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.insights.ScoreLead(c.Request().Context(), callerID(c, req.UserID), req)
	if err != nil {
		return respondServiceError(c, err, "unable to score lead")
	}
	return Success(c, http.StatusOK, "lead scored", resp)
}

// CachedLeadScore handles GET /api/ai/score-lead?leadId=.
func (h *AIHandler) CachedLeadScore(c echo.Context) error {
	resp, err := h.insights.CachedLeadScore(c.Request().Context(), c.QueryParam("leadId"))
	if err != nil {
		return respondServiceError(c, err, "unable to load lead score")
	}
	return Success(c, http.StatusOK, "", resp)
}

// SummarizeLead handles POST /api/ai/summarize-lead.
func (h *AIHandler) SummarizeLead(c echo.Context) error {
	var req dto.LeadInsightRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.insights.SummarizeLead(c.Request().Context(), callerID(c, req.UserID), req)
	if err != nil {
		return respondServiceError(c, err, "unable to summarize lead")
	}
	return Success(c, http.StatusOK, "lead summarized", resp)
}

// QualifyLead handles POST /api/ai/qualify-lead.
func (h *AIHandler) QualifyLead(c echo.Context) error {
	var req dto.LeadInsightRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.insights.QualifyLead(c.Request().Context(), callerID(c, req.UserID), req)
	if err != nil {
		return respondServiceError(c, err, "unable to qualify lead")
	}
	return Success(c, http.StatusOK, "lead qualified", resp)
}

// RecommendEmail handles POST /api/ai/recommend-email.
func (h *AIHandler) RecommendEmail(c echo.Context) error {
	var req dto.LeadInsightRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.insights.RecommendEmail(c.Request().Context(), callerID(c, req.UserID), req)
	if err != nil {
		return respondServiceError(c, err, "unable to recommend email")
	}
	return Success(c, http.StatusOK, "email templates recommended", resp)
}

// AnalyzeRisks handles POST /api/ai/analyze-risks.
func (h *AIHandler) AnalyzeRisks(c echo.Context) error {
	var req dto.EventInsightRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.insights.AnalyzeRisks(c.Request().Context(), callerID(c, req.UserID), req)
	if err != nil {
		return respondServiceError(c, err, "unable to analyze event risks")
	}
	return Success(c, http.StatusOK, "event risks analyzed", resp)
}

// PredictCompletion handles POST /api/ai/predict-completion.
func (h *AIHandler) PredictCompletion(c echo.Context) error {
	var req dto.TaskInsightRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.insights.PredictCompletion(c.Request().Context(), callerID(c, req.UserID), req)
	if err != nil {
		return respondServiceError(c, err, "unable to predict task completion")
	}
	return Success(c, http.StatusOK, "task completion predicted", resp)
}

// GenerateTasks handles POST /api/ai/generate-tasks.
func (h *AIHandler) GenerateTasks(c echo.Context) error {
	var req dto.GenerateTasksRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.insights.GenerateTasks(c.Request().Context(), callerID(c, req.UserID), req)
	if err != nil {
		return respondServiceError(c, err, "unable to generate tasks")
	}
	status := http.StatusOK
	if len(resp.Created) > 0 {
		status = http.StatusCreated
	}
	return Success(c, status, "tasks generated", resp)
}

// GenerateEmailDraft handles POST /api/ai/generate-email-draft.
func (h *AIHandler) GenerateEmailDraft(c echo.Context) error {
	var req dto.EmailDraftRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.insights.GenerateEmailDraft(c.Request().Context(), callerID(c, req.UserID), req)
	if err != nil {
		return respondServiceError(c, err, "unable to generate email draft")
	}
	return Success(c, http.StatusOK, "email draft generated", resp)
}

// GenerateSubjectLines handles POST /api/ai/generate-subject-lines.
func (h *AIHandler) GenerateSubjectLines(c echo.Context) error {
	var req dto.SubjectLinesRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.insights.GenerateSubjectLines(c.Request().Context(), callerID(c, req.UserID), req)
	if err != nil {
		return respondServiceError(c, err, "unable to generate subject lines")
	}
	return Success(c, http.StatusOK, "subject lines generated", resp)
}

// GenerateContent handles POST /api/ai/generate-content.
func (h *AIHandler) GenerateContent(c echo.Context) error {
	var req dto.GenerateContentRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.insights.GenerateContent(c.Request().Context(), callerID(c, req.UserID), req)
	if err != nil {
		return respondServiceError(c, err, "unable to generate content")
	}
	return Success(c, http.StatusOK, "content generated", resp)
}

// ListInsights handles GET /api/ai/insights.
func (h *AIHandler) ListInsights(c echo.Context) error {
	query := dto.InsightQuery{
		EntityType:  c.QueryParam("entityType"),
		EntityID:    c.QueryParam("entityId"),
		InsightType: c.QueryParam("insightType"),
	}
	insights, err := h.insights.GetInsights(c.Request().Context(), query)
	if err != nil {
		return respondServiceError(c, err, "unable to load insights")
	}
	return Success(c, http.StatusOK, "", insights)
}

// callerID prefers the authenticated subject over a userId sent in the body.
func callerID(c echo.Context, bodyUserID string) string {
	if id := middleware.UserIDFromContext(c); id != "" {
		return id
	}
	return strings.TrimSpace(bodyUserID)
}

// respondServiceError maps service errors onto HTTP status codes.
func respondServiceError(c echo.Context, err error, fallback string) error {
	var (
		validation service.ValidationError
		notFound   service.NotFoundError
		parseErr   *llm.ParseError
		csvErr     service.CSVValidationError
	)
	switch {
	case errors.As(err, &validation):
		return Error(c, http.StatusBadRequest, validation.Error())
	case errors.As(err, &csvErr):
		return Error(c, http.StatusBadRequest, csvErr.Error())
	case errors.As(err, &notFound):
		return Error(c, http.StatusNotFound, notFound.Error())
	case errors.Is(err, service.ErrRateLimited):
		return Error(c, http.StatusTooManyRequests, err.Error())
	case errors.As(err, &parseErr):
		log.Printf("level=error request_id=%s msg=\"unparseable model output\" preview=%q", middleware.RequestIDFromContext(c), parseErr.Preview)
		return ErrorDetail(c, http.StatusInternalServerError, "failed to parse AI response", parseErr.Preview)
	case errors.Is(err, service.ErrUpstream):
		log.Printf("level=error request_id=%s msg=\"ai provider failed\" err=%q", middleware.RequestIDFromContext(c), err)
		return ErrorDetail(c, http.StatusInternalServerError, service.ErrUpstream.Error(), err.Error())
	default:
		log.Printf("level=error request_id=%s msg=%q err=%q", middleware.RequestIDFromContext(c), fallback, err)
		return Error(c, http.StatusInternalServerError, fallback)
	}
}
