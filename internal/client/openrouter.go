package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bizgenius/api/internal/config"
)

// contentSnippetLen bounds how much of an unparseable response is kept for
// diagnostics.
const contentSnippetLen = 200

// ErrEmptyContent is returned when the provider responds successfully but the
// message carries no content.
var ErrEmptyContent = errors.New("model response contained no content")

// APIError is a non-2xx response from the chat-completion endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openrouter API error (status %d): %s", e.StatusCode, e.Body)
}

// ParseError means the model returned content that is not valid JSON.
type ParseError struct {
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model content is not valid JSON: %s", e.Snippet)
}

// OpenRouterClient handles communication with an OpenRouter-compatible
// chat-completion API.
type OpenRouterClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// ChatMessage represents a message in the chat completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// ChatCompletionRequest represents the request body for chat completion
type ChatCompletionRequest struct {
	Model          string         `json:"model"`
	Messages       []ChatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

// ChatCompletionResponse represents the response from chat completion
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatRequest is one JSON-mode completion to perform.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// NewOpenRouterClient creates a new OpenRouter API client
func NewOpenRouterClient(cfg *config.OpenRouterConfig) *OpenRouterClient {
	return &OpenRouterClient{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// CompleteJSON sends a chat completion request forcing JSON-object output and
// returns the parsed message content. Failure modes are distinguishable:
// *APIError for non-2xx responses, ErrEmptyContent for a successful response
// with no content, *ParseError when the content is not valid JSON.
func (c *OpenRouterClient) CompleteJSON(ctx context.Context, req ChatRequest) (json.RawMessage, error) {
	reqBody := ChatCompletionRequest{
		Model: req.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, ErrEmptyContent
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	// Some models wrap JSON-mode output in a markdown fence anyway.
	content = stripJSONFence(content)

	if !json.Valid([]byte(content)) {
		return nil, &ParseError{Snippet: truncate(content, contentSnippetLen)}
	}

	return json.RawMessage(content), nil
}

// IsConfigured returns true if the client has valid configuration
func (c *OpenRouterClient) IsConfigured() bool {
	return c.apiKey != ""
}

func stripJSONFence(content string) string {
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
