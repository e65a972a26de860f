// File: internal/llmclient/embedding.go
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

// EmbeddingConfig configures an EmbeddingClient.
type EmbeddingConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// EmbeddingClient produces vector embeddings for semantic dedup (spec.md §4.5).
type EmbeddingClient struct {
	cfg    EmbeddingConfig
	client *http.Client
}

// NewEmbeddingClient creates an EmbeddingClient.
func NewEmbeddingClient(cfg EmbeddingConfig) *EmbeddingClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &EmbeddingClient{cfg: cfg, client: &http.Client{}}
}

// IsAvailable reports whether the client has a credential configured.
func (c *EmbeddingClient) IsAvailable() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for a single text input.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.IsAvailable() {
		return nil, fmt.Errorf("embedding client has no credential configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(embeddingRequest{Model: c.cfg.Model, Input: []string{text}})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding provider returned status %d", resp.StatusCode)
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embedding response had no data")
	}
	return parsed.Data[0].Embedding, nil
}

// CosineSimilarity returns the cosine similarity of two equal-length vectors,
// or 0 if their lengths differ or either is the zero vector.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
