package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventra/dashboard/api/internal/auth"
	"github.com/eventra/dashboard/api/internal/config"
	"github.com/eventra/dashboard/api/internal/handler"
	middlewarepkg "github.com/eventra/dashboard/api/internal/middleware"
	"github.com/eventra/dashboard/api/internal/service"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth    *handler.AuthHandler
	AI      *handler.AIHandler
	Leads   *handler.LeadsHandler
	Company *handler.CompanyIntelligenceHandler

	// AILimiter overrides the in-process AI rate limiter when set.
	AILimiter echo.MiddlewareFunc
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/login", handlers.Auth.Login)

	api := e.Group("/api")
	api.Use(middlewarepkg.Authenticate(jwtManager, cfg.AuthRequired))

	aiLimiter := handlers.AILimiter
	if aiLimiter == nil {
		aiLimiter = middlewarepkg.AIRateLimiter(cfg.AIRateLimit)
	}
	ai := api.Group("/ai", aiLimiter)
	ai.POST("/score-lead", handlers.AI.ScoreLead)
	ai.GET("/score-lead", handlers.AI.CachedLeadScore)
	ai.POST("/summarize-lead", handlers.AI.SummarizeLead)
	ai.POST("/qualify-lead", handlers.AI.QualifyLead)
	ai.POST("/analyze-risks", handlers.AI.AnalyzeRisks)
	ai.POST("/predict-completion", handlers.AI.PredictCompletion)
	ai.POST("/generate-tasks", handlers.AI.GenerateTasks)
	ai.POST("/generate-email-draft", handlers.AI.GenerateEmailDraft)
	ai.POST("/generate-subject-lines", handlers.AI.GenerateSubjectLines)
	ai.POST("/recommend-email", handlers.AI.RecommendEmail)
	ai.POST("/generate-content", handlers.AI.GenerateContent)
	ai.GET("/insights", handlers.AI.ListInsights)

	api.GET("/leads", handlers.Leads.List)
	api.GET("/leads/export", handlers.Leads.ExportCSV)
	api.GET("/events/export", handlers.Leads.ExportEventsCSV)
	api.GET("/tasks/export", handlers.Leads.ExportTasksCSV)

	api.GET("/company-intelligence", handlers.Company.Get)
	api.PUT("/company-intelligence", handlers.Company.Save)

	admin := api.Group("/admin", middlewarepkg.RequireRole(service.RoleAdmin))
	admin.POST("/leads/import", handlers.Leads.ImportCSV)
}
