package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/eventra/dashboard/api/internal/config"
)

const (
	// DefaultBaseURL is the Anthropic Messages endpoint.
	DefaultBaseURL = "https://api.anthropic.com/v1/messages"
	// DefaultModel is used when no model is configured.
	DefaultModel     = "claude-sonnet-4-20250514"
	anthropicVersion = "2023-06-01"
	maxErrorBody     = 512
)

// ErrNotConfigured is returned when no API key or gateway is set.
var ErrNotConfigured = errors.New("llm client is not configured")

// Request is a single prompt round trip.
type Request struct {
	System string
	Prompt string
	// MaxTokens overrides the configured ceiling when positive.
	MaxTokens int
}

// Completion is the text returned by the model plus token accounting.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Completer is implemented by anything able to answer a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// Client calls the Anthropic Messages API. Calls are not retried.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	gateway     bool
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient builds a client from configuration. When client is nil and a
// gateway audience is configured, requests carry a Google ID token.
func NewClient(client *http.Client, cfg config.LLMConfig) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
		if cfg.GatewayAudience != "" {
			idc, err := idtoken.NewClient(context.Background(), cfg.GatewayAudience)
			if err != nil {
				log.Printf("level=warn msg=\"gateway id token unavailable, calling without it\" audience=%s err=%q", cfg.GatewayAudience, err)
			} else {
				idc.Timeout = timeout
				client = idc
			}
		}
	}
	return &Client{
		httpClient:  client,
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		gateway:     cfg.GatewayAudience != "",
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the prompt and returns the concatenated text blocks of the
// reply. Non-text blocks are skipped.
func (c *Client) Complete(ctx context.Context, req Request) (*Completion, error) {
	if c.apiKey == "" && !c.gateway {
		return nil, ErrNotConfigured
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	body, err := json.Marshal(messagesRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
		System:      req.System,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}

	var parsed messagesResponse
	decodeErr := json.Unmarshal(respBody, &parsed)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: parsed.Error.Message}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: truncate(string(respBody), maxErrorBody)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode completion response: %w", decodeErr)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("empty completion content")
	}

	model := parsed.Model
	if model == "" {
		model = c.model
	}
	return &Completion{
		Text:         text.String(),
		Model:        model,
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
	}, nil
}

// APIError is a non-200 reply from the completion endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm api error (%d): %s", e.StatusCode, e.Message)
}

var _ Completer = (*Client)(nil)
