package scoring

import (
	"strings"

	"github.com/eventra/dashboard/api/internal/entity"
)

const (
	categoryPriority   = "priority_signal"
	categoryContact    = "contact_completeness"
	categoryBusiness   = "business_profile"
	categoryEngagement = "engagement"
)

var freeMailDomains = []string{
	"gmail.com",
	"googlemail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
	"live.com",
	"icloud.com",
	"aol.com",
	"proton.me",
	"protonmail.com",
}

var seniorTitleKeywords = []string{
	"chief",
	"ceo",
	"cto",
	"cfo",
	"coo",
	"cmo",
	"founder",
	"owner",
	"president",
	"vp",
	"vice president",
	"director",
	"head of",
	"partner",
}

// PriorityScore maps a lead priority to its numeric score: hot=90, warm=60,
// cold=30 and anything else 0.
func PriorityScore(priority string) int {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case entity.PriorityHot:
		return 90
	case entity.PriorityWarm:
		return 60
	case entity.PriorityCold:
		return 30
	default:
		return 0
	}
}

// LeadFeatures captures the lead fields used for the heuristic baseline.
type LeadFeatures struct {
	Priority string
	Status   string
	Email    string
	Phone    string
	Company  string
	JobTitle string
}

// FeaturesFromLead extracts scoring features from a stored lead.
func FeaturesFromLead(lead entity.Lead) LeadFeatures {
	return LeadFeatures{
		Priority: lead.Priority,
		Status:   lead.Status,
		Email:    lead.Email,
		Phone:    deref(lead.Phone),
		Company:  deref(lead.Company),
		JobTitle: deref(lead.JobTitle),
	}
}

// ScoreResult reports the aggregate score and the per-category breakdown.
type ScoreResult struct {
	Total     int            `json:"total"`
	Breakdown map[string]int `json:"breakdown"`
}

// ComputeBaseline evaluates the provided features and returns a 0-100 score
// with its breakdown. It is handed to the model as a starting point.
func ComputeBaseline(input LeadFeatures) ScoreResult {
	breakdown := map[string]int{
		categoryPriority:   scorePriority(input),
		categoryContact:    scoreContactCompleteness(input),
		categoryBusiness:   scoreBusinessProfile(input),
		categoryEngagement: scoreEngagement(input),
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}

	return ScoreResult{
		Total:     total,
		Breakdown: breakdown,
	}
}

func scorePriority(input LeadFeatures) int {
	return PriorityScore(input.Priority) * 40 / 90
}

func scoreContactCompleteness(input LeadFeatures) int {
	score := 0
	if domain := emailDomain(input.Email); domain != "" {
		if isFreeMail(domain) {
			score += 10
		} else {
			score += 15
		}
	}
	if hasDigits(input.Phone, 6) {
		score += 10
	}
	return min(score, 25)
}

func scoreBusinessProfile(input LeadFeatures) int {
	score := 0
	if strings.TrimSpace(input.Company) != "" {
		score += 10
	}
	title := strings.ToLower(strings.TrimSpace(input.JobTitle))
	if title != "" {
		score += 5
		if isSeniorTitle(title) {
			score += 10
		}
	}
	return min(score, 25)
}

func scoreEngagement(input LeadFeatures) int {
	switch strings.ToLower(strings.TrimSpace(input.Status)) {
	case "qualified", "converted":
		return 10
	case "contacted":
		return 5
	case "new":
		return 2
	default:
		return 0
	}
}

func emailDomain(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") {
		return ""
	}
	return domain
}

func isFreeMail(domain string) bool {
	for _, free := range freeMailDomains {
		if domain == free || strings.HasSuffix(domain, "."+free) {
			return true
		}
	}
	return false
}

func isSeniorTitle(title string) bool {
	for _, keyword := range seniorTitleKeywords {
		if title == keyword || strings.HasPrefix(title, keyword+" ") || strings.Contains(title, " "+keyword) {
			return true
		}
	}
	return false
}

func hasDigits(raw string, want int) bool {
	count := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count >= want
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
