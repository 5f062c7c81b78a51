package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// PreviewLength bounds the raw text carried by a ParseError.
const PreviewLength = 200

// ParseError reports model output that could not be decoded as JSON.
type ParseError struct {
	Preview string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse model output as JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExtractJSON decodes the JSON object embedded in text into v. Markdown code
// fences are stripped first; if strict decoding fails the span from the first
// '{' to the last '}' is tried.
func ExtractJSON(text string, v any) error {
	cleaned := stripFences(text)

	strictErr := json.Unmarshal([]byte(cleaned), v)
	if strictErr == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		err := json.Unmarshal([]byte(cleaned[start:end+1]), v)
		if err == nil {
			return nil
		}
		strictErr = err
	}
	return &ParseError{Preview: truncate(text, PreviewLength), Err: strictErr}
}

func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	if idx := strings.Index(cleaned, "\n"); idx >= 0 {
		cleaned = cleaned[idx+1:]
	} else {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	return strings.TrimSpace(cleaned)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
