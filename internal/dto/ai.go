package dto

import (
	"time"
)

// ScoreLeadRequest asks for a fresh lead score.
type ScoreLeadRequest struct {
	LeadID string `json:"leadId"`
	UserID string `json:"userId,omitempty"`
}

// LeadInsightRequest is shared by the lead summary, qualification and email
// recommendation endpoints.
type LeadInsightRequest struct {
	LeadID string `json:"leadId"`
	UserID string `json:"userId,omitempty"`
}

// EventInsightRequest targets a single event.
type EventInsightRequest struct {
	EventID string `json:"eventId"`
	UserID  string `json:"userId,omitempty"`
}

// TaskInsightRequest targets a single task.
type TaskInsightRequest struct {
	TaskID string `json:"taskId"`
	UserID string `json:"userId,omitempty"`
}

// GenerateTasksRequest asks for task suggestions for an event.
type GenerateTasksRequest struct {
	EventID string `json:"eventId"`
	Count   int    `json:"count,omitempty"`
	Create  bool   `json:"create,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

// EmailDraftRequest asks for a personalised email for a lead.
type EmailDraftRequest struct {
	LeadID     string `json:"leadId"`
	TemplateID string `json:"templateId,omitempty"`
	Tone       string `json:"tone,omitempty"`
	UserID     string `json:"userId,omitempty"`
}

// SubjectLinesRequest asks for subject line candidates.
type SubjectLinesRequest struct {
	TemplateID string `json:"templateId,omitempty"`
	Goal       string `json:"goal,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Tone       string `json:"tone,omitempty"`
	Count      int    `json:"count,omitempty"`
	UserID     string `json:"userId,omitempty"`
}

// GenerateContentRequest asks for free-form marketing copy.
type GenerateContentRequest struct {
	ContentType string `json:"contentType"`
	Topic       string `json:"topic"`
	Tone        string `json:"tone,omitempty"`
	EventID     string `json:"eventId,omitempty"`
	UserID      string `json:"userId,omitempty"`
}

// InsightQuery filters cached insights.
type InsightQuery struct {
	EntityType  string
	EntityID    string
	InsightType string
}

// Usage reports the token accounting of one completion call.
type Usage struct {
	Model         string  `json:"model"`
	InputTokens   int     `json:"inputTokens"`
	OutputTokens  int     `json:"outputTokens"`
	EstimatedCost float64 `json:"estimatedCost"`
}

// CacheInfo describes where a response came from.
type CacheInfo struct {
	Cached      bool       `json:"cached"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// LeadScore is the model's assessment of a lead.
type LeadScore struct {
	Score           float64  `json:"score"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
}

// LeadScoreResponse is returned by both score-lead endpoints.
type LeadScoreResponse struct {
	LeadScore
	CacheInfo
	Usage *Usage `json:"usage,omitempty"`
}

// LeadSummary condenses a lead into talking points.
type LeadSummary struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
	NextSteps []string `json:"nextSteps"`
	Sentiment string   `json:"sentiment"`
}

// LeadSummaryResponse wraps LeadSummary with usage.
type LeadSummaryResponse struct {
	LeadSummary
	Usage *Usage `json:"usage,omitempty"`
}

// LeadQualification is a BANT style qualification.
type LeadQualification struct {
	Qualified bool     `json:"qualified"`
	Stage     string   `json:"stage"`
	Budget    string   `json:"budget"`
	Authority string   `json:"authority"`
	Need      string   `json:"need"`
	Timeline  string   `json:"timeline"`
	Score     float64  `json:"score"`
	Reasoning string   `json:"reasoning"`
	Questions []string `json:"questions"`
}

// LeadQualificationResponse wraps LeadQualification with usage.
type LeadQualificationResponse struct {
	LeadQualification
	Usage *Usage `json:"usage,omitempty"`
}

// Risk is one identified event risk.
type Risk struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Probability string `json:"probability"`
	Mitigation  string `json:"mitigation"`
}

// RiskAnalysis is the risk assessment of an event.
type RiskAnalysis struct {
	RiskLevel         string `json:"riskLevel"`
	OverallAssessment string `json:"overallAssessment"`
	Risks             []Risk `json:"risks"`
}

// RiskAnalysisResponse wraps RiskAnalysis with usage.
type RiskAnalysisResponse struct {
	RiskAnalysis
	Usage *Usage `json:"usage,omitempty"`
}

// CompletionPrediction estimates whether a task will finish on time.
type CompletionPrediction struct {
	CompletionProbability   float64  `json:"completionProbability"`
	PredictedCompletionDate string   `json:"predictedCompletionDate"`
	OnTrack                 bool     `json:"onTrack"`
	RiskFactors             []string `json:"riskFactors"`
	Recommendations         []string `json:"recommendations"`
}

// CompletionPredictionResponse wraps CompletionPrediction with usage.
type CompletionPredictionResponse struct {
	CompletionPrediction
	Usage *Usage `json:"usage,omitempty"`
}

// SuggestedTask is a task proposed by the model.
type SuggestedTask struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	DueInDays   float64 `json:"dueInDays"`
	Category    string  `json:"category"`
}

// GeneratedTasksResponse lists suggestions and, when requested, the stored rows.
type GeneratedTasksResponse struct {
	Tasks   []SuggestedTask `json:"tasks"`
	Created []CreatedTask   `json:"created"`
	Usage   *Usage          `json:"usage,omitempty"`
}

// CreatedTask identifies a task row created from a suggestion.
type CreatedTask struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
	DueDate  string `json:"dueDate,omitempty"`
}

// EmailDraft is a generated email.
type EmailDraft struct {
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	PreviewText string `json:"previewText"`
	Tone        string `json:"tone"`
}

// EmailDraftResponse wraps EmailDraft with usage.
type EmailDraftResponse struct {
	EmailDraft
	Usage *Usage `json:"usage,omitempty"`
}

// SubjectLine is one generated subject candidate.
type SubjectLine struct {
	Text              string  `json:"text"`
	Length            int     `json:"length"`
	Style             string  `json:"style"`
	PredictedOpenRate float64 `json:"predictedOpenRate"`
}

// SubjectLinesResponse lists subject candidates.
type SubjectLinesResponse struct {
	SubjectLines []SubjectLine `json:"subjectLines"`
	Usage        *Usage        `json:"usage,omitempty"`
}

// TemplateRecommendation ranks one stored template for a lead.
type TemplateRecommendation struct {
	TemplateID string  `json:"templateId"`
	Name       string  `json:"name"`
	Reason     string  `json:"reason"`
	MatchScore float64 `json:"matchScore"`
}

// EmailRecommendation lists the best templates for a lead.
type EmailRecommendation struct {
	RecommendedTemplates []TemplateRecommendation `json:"recommendedTemplates"`
	Reasoning            string                   `json:"reasoning"`
}

// EmailRecommendationResponse wraps EmailRecommendation with usage.
type EmailRecommendationResponse struct {
	EmailRecommendation
	Usage *Usage `json:"usage,omitempty"`
}

// GeneratedContent is free-form marketing copy.
type GeneratedContent struct {
	Content    string   `json:"content"`
	Headline   string   `json:"headline"`
	Variations []string `json:"variations"`
}

// GeneratedContentResponse wraps GeneratedContent with usage.
type GeneratedContentResponse struct {
	GeneratedContent
	Usage *Usage `json:"usage,omitempty"`
}
