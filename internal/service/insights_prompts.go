package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/service/scoring"
)

const systemPrompt = "You are an AI assistant for Eventra, an event marketing and lead management platform. " +
	"Answer with a single valid JSON object and no other text."

const dateLayout = "2006-01-02"

func writeLead(b *strings.Builder, lead *entity.Lead) {
	b.WriteString("Lead:\n")
	fmt.Fprintf(b, "- Name: %s\n", lead.FullName())
	fmt.Fprintf(b, "- Email: %s\n", lead.Email)
	writeOptional(b, "Phone", lead.Phone)
	writeOptional(b, "Company", lead.Company)
	writeOptional(b, "Job title", lead.JobTitle)
	writeOptional(b, "Source", lead.Source)
	fmt.Fprintf(b, "- Status: %s\n", lead.Status)
	fmt.Fprintf(b, "- Priority: %s (score %d)\n", lead.Priority, scoring.PriorityScore(lead.Priority))
	writeOptional(b, "Notes", lead.Notes)
	fmt.Fprintf(b, "- Captured: %s\n", lead.CreatedAt.Format(dateLayout))
}

func writeEvent(b *strings.Builder, event *entity.Event) {
	if event == nil {
		return
	}
	b.WriteString("\nEvent:\n")
	fmt.Fprintf(b, "- Name: %s\n", event.Name)
	writeOptional(b, "Type", event.EventType)
	fmt.Fprintf(b, "- Status: %s\n", event.Status)
	writeOptional(b, "Description", event.Description)
	writeOptional(b, "Location", event.Location)
	if event.StartDate != nil {
		fmt.Fprintf(b, "- Starts: %s\n", event.StartDate.Format(dateLayout))
	}
	if event.EndDate != nil {
		fmt.Fprintf(b, "- Ends: %s\n", event.EndDate.Format(dateLayout))
	}
	if event.Budget != nil {
		fmt.Fprintf(b, "- Budget: %.2f\n", *event.Budget)
	}
	if event.TargetLeads != nil {
		actual := 0
		if event.ActualLeads != nil {
			actual = *event.ActualLeads
		}
		fmt.Fprintf(b, "- Leads: %d of %d target\n", actual, *event.TargetLeads)
	}
}

func writeTasks(b *strings.Builder, tasks []entity.Task) {
	if len(tasks) == 0 {
		return
	}
	b.WriteString("\nRecent tasks:\n")
	for _, t := range tasks {
		due := "no due date"
		if t.DueDate != nil {
			due = "due " + t.DueDate.Format(dateLayout)
		}
		fmt.Fprintf(b, "- %s [%s, %s priority, %s]\n", t.Title, t.Status, t.Priority, due)
	}
}

func writeCompany(b *strings.Builder, profile *entity.CompanyIntelligence) {
	if profile == nil {
		return
	}
	b.WriteString("\nOur company:\n")
	fmt.Fprintf(b, "- Name: %s\n", profile.CompanyName)
	writeOptional(b, "Industry", profile.Industry)
	writeOptional(b, "Description", profile.Description)
	writeOptional(b, "Target audience", profile.TargetAudience)
	writeOptional(b, "Value proposition", profile.ValueProposition)
}

func writeOptional(b *strings.Builder, label string, value *string) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.TrimSpace(*value))
}

func buildScorePrompt(lead *entity.Lead, event *entity.Event, company *entity.CompanyIntelligence, baseline scoring.ScoreResult) string {
	var b strings.Builder
	b.WriteString("Score this lead from 0 to 100 by how likely it is to convert.\n\n")
	writeLead(&b, lead)
	writeEvent(&b, event)
	writeCompany(&b, company)
	fmt.Fprintf(&b, "\nHeuristic baseline: %d/100 (%s)\n", baseline.Total, formatBreakdown(baseline.Breakdown))
	b.WriteString("\nReturn ONLY valid JSON with integer score and confidence:\n")
	b.WriteString(`{"score": 75, "confidence": 80, "reasoning": "...", "strengths": ["..."], "weaknesses": ["..."], "recommendations": ["..."]}`)
	b.WriteString("\n")
	return b.String()
}

func buildSummaryPrompt(lead *entity.Lead, event *entity.Event, company *entity.CompanyIntelligence) string {
	var b strings.Builder
	b.WriteString("Summarize this lead for a sales rep preparing a follow-up.\n\n")
	writeLead(&b, lead)
	writeEvent(&b, event)
	writeCompany(&b, company)
	b.WriteString("\nReturn ONLY valid JSON; sentiment is one of positive, neutral, negative:\n")
	b.WriteString(`{"summary": "...", "keyPoints": ["..."], "nextSteps": ["..."], "sentiment": "neutral"}`)
	b.WriteString("\n")
	return b.String()
}

func buildQualificationPrompt(lead *entity.Lead, event *entity.Event, company *entity.CompanyIntelligence) string {
	var b strings.Builder
	b.WriteString("Qualify this lead using BANT (budget, authority, need, timeline).\n\n")
	writeLead(&b, lead)
	writeEvent(&b, event)
	writeCompany(&b, company)
	b.WriteString("\nReturn ONLY valid JSON; stage is one of unqualified, mql, sql, opportunity; score is an integer 0-100:\n")
	b.WriteString(`{"qualified": true, "stage": "mql", "budget": "...", "authority": "...", "need": "...", "timeline": "...", "score": 60, "reasoning": "...", "questions": ["..."]}`)
	b.WriteString("\n")
	return b.String()
}

func buildRiskPrompt(event *entity.Event, tasks []entity.Task, company *entity.CompanyIntelligence, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Identify the main risks to the success of this event. Today is %s.\n", now.Format(dateLayout))
	writeEvent(&b, event)
	writeTasks(&b, tasks)
	writeCompany(&b, company)
	b.WriteString("\nReturn ONLY valid JSON; riskLevel and severity are one of low, medium, high, critical; probability is one of low, medium, high:\n")
	b.WriteString(`{"riskLevel": "medium", "overallAssessment": "...", "risks": [{"title": "...", "description": "...", "severity": "high", "probability": "medium", "mitigation": "..."}]}`)
	b.WriteString("\n")
	return b.String()
}

func buildCompletionPrompt(task *entity.Task, event *entity.Event, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Predict whether this task will be completed on time. Today is %s.\n\n", now.Format(dateLayout))
	b.WriteString("Task:\n")
	fmt.Fprintf(&b, "- Title: %s\n", task.Title)
	writeOptional(&b, "Description", task.Description)
	fmt.Fprintf(&b, "- Status: %s\n", task.Status)
	fmt.Fprintf(&b, "- Priority: %s\n", task.Priority)
	if task.DueDate != nil {
		fmt.Fprintf(&b, "- Due: %s\n", task.DueDate.Format(dateLayout))
	}
	writeOptional(&b, "Assigned to", task.AssignedTo)
	fmt.Fprintf(&b, "- Created: %s\n", task.CreatedAt.Format(dateLayout))
	writeEvent(&b, event)
	b.WriteString("\nReturn ONLY valid JSON; completionProbability is an integer 0-100 and predictedCompletionDate is YYYY-MM-DD:\n")
	b.WriteString(`{"completionProbability": 70, "predictedCompletionDate": "2025-01-31", "onTrack": true, "riskFactors": ["..."], "recommendations": ["..."]}`)
	b.WriteString("\n")
	return b.String()
}

func buildTasksPrompt(event *entity.Event, existing []entity.Task, company *entity.CompanyIntelligence, count int, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest %d concrete tasks that would help this event succeed. Today is %s.\n", count, now.Format(dateLayout))
	writeEvent(&b, event)
	writeTasks(&b, existing)
	writeCompany(&b, company)
	b.WriteString("\nDo not repeat existing tasks. Return ONLY valid JSON; priority is one of low, medium, high and dueInDays counts from today:\n")
	b.WriteString(`{"tasks": [{"title": "...", "description": "...", "priority": "medium", "dueInDays": 7, "category": "marketing"}]}`)
	b.WriteString("\n")
	return b.String()
}

func buildEmailDraftPrompt(lead *entity.Lead, event *entity.Event, company *entity.CompanyIntelligence, tpl *entity.EmailTemplate, vars map[string]string, tone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a personalised email to this lead in a %s tone.\n\n", tone)
	writeLead(&b, lead)
	writeEvent(&b, event)
	writeCompany(&b, company)
	if tpl != nil {
		subject, blocks, ctas := RenderTemplate(tpl, vars)
		fmt.Fprintf(&b, "\nBase it on the template %q (goal: %s):\n", tpl.Name, tpl.Goal)
		if subject != "" {
			fmt.Fprintf(&b, "Subject: %s\n", subject)
		}
		for _, block := range blocks {
			fmt.Fprintf(&b, "%s\n", block)
		}
		for _, cta := range ctas {
			fmt.Fprintf(&b, "Call to action: %s\n", cta)
		}
	}
	b.WriteString("\nReturn ONLY valid JSON:\n")
	fmt.Fprintf(&b, `{"subject": "...", "body": "...", "previewText": "...", "tone": %q}`, tone)
	b.WriteString("\n")
	return b.String()
}

func buildSubjectLinesPrompt(tpl *entity.EmailTemplate, goal, topic, tone string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d email subject lines in a %s tone.\n", count, tone)
	if goal != "" {
		fmt.Fprintf(&b, "- Goal: %s\n", goal)
	}
	if topic != "" {
		fmt.Fprintf(&b, "- Topic: %s\n", topic)
	}
	if tpl != nil {
		fmt.Fprintf(&b, "- Template: %s (%s, %s)\n", tpl.Name, tpl.Category, tpl.Goal)
		if subject := tpl.PrimarySubject(); subject != "" {
			fmt.Fprintf(&b, "- Current subject: %s\n", subject)
		}
	}
	b.WriteString("\nVary the style (curiosity, urgency, benefit, question, personal). Return ONLY valid JSON; predictedOpenRate is a percentage:\n")
	b.WriteString(`{"subjectLines": [{"text": "...", "style": "curiosity", "predictedOpenRate": 24.5}]}`)
	b.WriteString("\n")
	return b.String()
}

func buildRecommendationPrompt(lead *entity.Lead, event *entity.Event, templates []entity.EmailTemplate) string {
	var b strings.Builder
	b.WriteString("Pick up to 3 email templates that best fit this lead.\n\n")
	writeLead(&b, lead)
	writeEvent(&b, event)
	b.WriteString("\nAvailable templates:\n")
	for _, tpl := range templates {
		fmt.Fprintf(&b, "- id=%s name=%q category=%s goal=%s tone=%s\n", tpl.ID, tpl.Name, tpl.Category, tpl.Goal, tpl.Tone)
	}
	b.WriteString("\nUse only the ids listed above. Return ONLY valid JSON; matchScore is an integer 0-100:\n")
	b.WriteString(`{"recommendedTemplates": [{"templateId": "...", "name": "...", "reason": "...", "matchScore": 85}], "reasoning": "..."}`)
	b.WriteString("\n")
	return b.String()
}

func buildContentPrompt(contentType, topic, tone string, event *entity.Event, company *entity.CompanyIntelligence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %s content about %q in a %s tone.\n", contentType, topic, tone)
	writeEvent(&b, event)
	writeCompany(&b, company)
	b.WriteString("\nReturn ONLY valid JSON with two or three alternative variations:\n")
	b.WriteString(`{"content": "...", "headline": "...", "variations": ["..."]}`)
	b.WriteString("\n")
	return b.String()
}

func formatBreakdown(breakdown map[string]int) string {
	keys := []string{"priority_signal", "contact_completeness", "business_profile", "engagement"}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := breakdown[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", k, v))
		}
	}
	return strings.Join(parts, ", ")
}
