package service

import (
	"regexp"
	"strings"

	"github.com/eventra/dashboard/api/internal/entity"
)

var placeholderExpr = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// RenderPlaceholders replaces {{name}} placeholders with values from vars.
// Unknown placeholders are left verbatim.
func RenderPlaceholders(text string, vars map[string]string) string {
	if text == "" || len(vars) == 0 {
		return text
	}
	return placeholderExpr.ReplaceAllStringFunc(text, func(match string) string {
		sub := placeholderExpr.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		if value, ok := vars[normalizePlaceholder(sub[1])]; ok {
			return value
		}
		return match
	})
}

// TemplateVariables exposes lead and event fields under both snake_case and
// camelCase placeholder names.
func TemplateVariables(lead *entity.Lead, event *entity.Event) map[string]string {
	vars := map[string]string{}
	if lead != nil {
		setVar(vars, "first_name", lead.FirstName)
		setVar(vars, "last_name", lead.LastName)
		setVar(vars, "full_name", lead.FullName())
		setVar(vars, "name", lead.FullName())
		setVar(vars, "email", lead.Email)
		setVar(vars, "phone", deref(lead.Phone))
		setVar(vars, "company", deref(lead.Company))
		setVar(vars, "company_name", deref(lead.Company))
		setVar(vars, "job_title", deref(lead.JobTitle))
	}
	if event != nil {
		setVar(vars, "event_name", event.Name)
		setVar(vars, "event_location", deref(event.Location))
		if event.StartDate != nil {
			setVar(vars, "event_date", event.StartDate.Format("January 2, 2006"))
		}
	}
	return vars
}

// RenderTemplate resolves the placeholders of every template part.
func RenderTemplate(tpl *entity.EmailTemplate, vars map[string]string) (subject string, blocks []string, ctas []string) {
	if tpl == nil {
		return "", nil, nil
	}
	subject = RenderPlaceholders(tpl.PrimarySubject(), vars)
	for _, block := range tpl.ContentBlocks {
		blocks = append(blocks, RenderPlaceholders(block.Content, vars))
	}
	for _, cta := range tpl.CTAs {
		ctas = append(ctas, RenderPlaceholders(cta.Text, vars))
	}
	return subject, blocks, ctas
}

func setVar(vars map[string]string, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	vars[key] = value
}

// normalizePlaceholder maps firstName, FirstName and first_name to first_name.
func normalizePlaceholder(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && name[i-1] != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return strings.ReplaceAll(b.String(), ".", "_")
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
