package dto

// CompanyIntelligenceRequest is the PUT body of the company profile form.
// Drafts are autosaved by the dashboard and may be incomplete.
type CompanyIntelligenceRequest struct {
	CompanyName      string         `json:"companyName"`
	Industry         *string        `json:"industry,omitempty"`
	Description      *string        `json:"description,omitempty"`
	TargetAudience   *string        `json:"targetAudience,omitempty"`
	ValueProposition *string        `json:"valueProposition,omitempty"`
	Preferences      map[string]any `json:"preferences,omitempty"`
	IsDraft          bool           `json:"isDraft"`
}
