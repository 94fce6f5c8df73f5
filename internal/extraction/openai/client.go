// Package openai implements extraction.Extractor on the OpenAI Chat
// Completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"docvault-backend/internal/extraction"
	"docvault-backend/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"

	// rawTextLimit bounds how much source text is persisted with a result.
	rawTextLimit = 1000
	// summaryInputLimit bounds how much source text feeds the summary call.
	summaryInputLimit = 4000
)

const (
	summaryUnavailable = "No summary available"
	summaryError       = "Error generating summary"
)

// Client calls OpenAI Chat Completions for extraction and summarization.
type Client struct {
	apiKey       string
	model        string
	summaryModel string
	baseURL      string
	httpClient   *http.Client
}

// NewClient constructs a new OpenAI client. The base URL and request timeout
// can be overridden through OPENAI_BASE_URL and OPENAI_TIMEOUT_SECONDS.
func NewClient(apiKey, model, summaryModel string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(summaryModel) == "" {
		return nil, fmt.Errorf("SUMMARY_MODEL is required for OpenAI")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	baseURL := defaultBaseURL
	if raw := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); raw != "" {
		baseURL = strings.TrimSuffix(raw, "/")
	}
	return &Client{
		apiKey:       apiKey,
		model:        model,
		summaryModel: summaryModel,
		baseURL:      baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Extract runs the type-specific extraction prompt over the document text
// and assembles a result. A reply that is not valid JSON degrades to a
// raw-only result; only a failed model call returns an error.
func (c *Client) Extract(ctx context.Context, text string, docType extraction.DocumentType) (extraction.Result, error) {
	temp := float32(0.2)
	content, err := c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: instructionFor(docType) + "\n\nDocument text:\n" + text},
		},
		Temperature: &temp,
		MaxTokens:   1500,
	})
	if err != nil {
		return extraction.Result{}, fmt.Errorf("%w: %v", extraction.ErrExtraction, err)
	}

	payload := parsePayload(content)
	summary := c.generateSummary(ctx, text)
	return extraction.BuildResult(payload, summary, truncate(text, rawTextLimit)), nil
}

// generateSummary asks the summary model for 1-2 sentences. Failures never
// fail the extraction; they degrade to a fixed fallback string.
func (c *Client) generateSummary(ctx context.Context, text string) string {
	temp := float32(0.3)
	content, err := c.complete(ctx, chatRequest{
		Model: c.summaryModel,
		Messages: []chatMessage{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: truncate(text, summaryInputLimit)},
		},
		Temperature: &temp,
		MaxTokens:   150,
	})
	if err != nil {
		telemetry.Error("openai.summary_failed", map[string]any{"err": err.Error()})
		return summaryError
	}
	if strings.TrimSpace(content) == "" {
		return summaryUnavailable
	}
	return content
}

func (c *Client) complete(ctx context.Context, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// parsePayload interprets the model reply: a JSON object becomes a
// Structured payload, anything else is carried raw.
func parsePayload(content string) extraction.Payload {
	cleaned := stripFences(content)
	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		telemetry.Error("openai.parse_failed", map[string]any{"err": err.Error()})
		return extraction.RawOnly(content)
	}
	return extraction.Structured(fields)
}

// stripFences removes a leading ```json (or bare ```) fence and its closing
// fence, which some models wrap around JSON replies.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}

var _ extraction.Extractor = (*Client)(nil)
