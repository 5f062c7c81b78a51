package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventra/dashboard/api/internal/dto"
	"github.com/eventra/dashboard/api/internal/service"
)

// CompanyIntelligenceHandler serves the caller's company profile.
type CompanyIntelligenceHandler struct {
	service *service.CompanyIntelligenceService
}

// NewCompanyIntelligenceHandler constructs the handler.
func NewCompanyIntelligenceHandler(svc *service.CompanyIntelligenceService) *CompanyIntelligenceHandler {
	return &CompanyIntelligenceHandler{service: svc}
}

// Get handles GET /api/company-intelligence.
func (h *CompanyIntelligenceHandler) Get(c echo.Context) error {
	profile, err := h.service.Get(c.Request().Context(), callerID(c, c.QueryParam("userId")))
	if err != nil {
		return respondServiceError(c, err, "unable to load company intelligence")
	}
	return Success(c, http.StatusOK, "", profile)
}

// Save handles PUT /api/company-intelligence. Drafts are autosaved by the dashboard.
func (h *CompanyIntelligenceHandler) Save(c echo.Context) error {
	var req dto.CompanyIntelligenceRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	profile, err := h.service.Save(c.Request().Context(), callerID(c, c.QueryParam("userId")), req)
	if err != nil {
		return respondServiceError(c, err, "unable to save company intelligence")
	}
	message := "company intelligence saved"
	if profile.IsDraft {
		message = "draft saved"
	}
	return Success(c, http.StatusOK, message, profile)
}
