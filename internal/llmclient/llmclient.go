// Package llmclient is the chat-completion collaborator used by both the
// Extractor (structured competitor extraction from scraped text, spec.md
// §4.3) and the Enrichment Engine's SWOT/positioning synthesis (§4.7 step
// 5). It follows the same request/timeout/kinded-error shape as
// internal/searchprovider's primary provider.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/compintel/discovery/internal/providererr"
)

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxTokens  int
}

const defaultBaseURL = "https://api.openai.com/v1"

// Client is a minimal OpenAI-compatible chat-completions client.
type Client struct {
	cfg    Config
	client *http.Client
}

// New creates a Client. An empty BaseURL defaults to the OpenAI API.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Client{cfg: cfg, client: &http.Client{}}
}

// IsAvailable reports whether the client has a credential configured.
func (c *Client) IsAvailable() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// Message is one turn of a chat-completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// CompleteJSON sends a chat-completion request asking the model to answer
// strictly in JSON (response_format "json_object"), and returns the raw
// JSON string of the first choice for the caller to unmarshal into its own
// closed-variant struct (spec.md §9: extraction output is never
// schema-free).
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	if !c.IsAvailable() {
		return "", providererr.New(providererr.KindTransport, fmt.Errorf("llm client has no credential configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:      c.cfg.MaxTokens,
		Temperature:    0.2,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", providererr.New(providererr.KindTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", providererr.New(providererr.KindTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", providererr.New(providererr.KindTransport, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPaymentRequired, http.StatusForbidden:
		return "", providererr.New(providererr.KindInsufficientCredits, fmt.Errorf("llm provider returned status %d", resp.StatusCode))
	case http.StatusTooManyRequests:
		return "", providererr.New(providererr.KindRateLimited, fmt.Errorf("llm provider rate limited (status %d)", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return "", providererr.New(providererr.KindTransport, fmt.Errorf("llm provider returned status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", providererr.New(providererr.KindTransport, fmt.Errorf("decoding llm response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", providererr.New(providererr.KindTransport, fmt.Errorf("llm response had no choices"))
	}
	return parsed.Choices[0].Message.Content, nil
}
