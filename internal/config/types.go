// File: internal/config/types.go
package config

import "time"

// LoggingConfig defines logging parameters.
type LoggingConfig struct {
	Level                string `json:"level"`
	EnableJSONFormat      bool   `json:"enableJSONFormat,omitempty"`
	EnableRequestLogging  bool   `json:"enableRequestLogging,omitempty"`
}

// WorkerConfig defines settings for the background discovery workers.
type WorkerConfig struct {
	NumWorkers                  int `json:"numWorkers,omitempty"`
	PollIntervalSeconds         int `json:"pollIntervalSeconds,omitempty"`
	ErrorRetryDelaySeconds      int `json:"errorRetryDelaySeconds,omitempty"`
	MaxJobRetries               int `json:"maxJobRetries,omitempty"`
	JobProcessingTimeoutMinutes int `json:"jobProcessingTimeoutMinutes,omitempty"`
	JobWallClockSeconds         int `json:"jobWallClockSeconds,omitempty"`
}

// RateLimiterConfig defines global API rate limiting settings.
type RateLimiterConfig struct {
	MaxRequests   int `json:"maxRequests"`
	WindowSeconds int `json:"windowSeconds"`
}

// TracingConfig configures the OpenTelemetry exporter (spec.md §9 ambient
// observability). An empty BackendURL disables tracing entirely.
type TracingConfig struct {
	BackendURL string `json:"backendUrl,omitempty"`
}

// FeatureFlags holds feature flag settings persisted in config.json.
type FeatureFlags struct {
	EnableSemanticDedup bool `json:"enableSemanticDedup"`
	EnableEnrichment    bool `json:"enableEnrichment"`
	EnableDebugMode     bool `json:"enableDebugMode"`
}

// ServerConfig defines server-specific settings.
type ServerConfig struct {
	Port                     string          `json:"port"`
	GinMode                  string          `json:"ginMode,omitempty"`
	DBMaxOpenConns           int             `json:"dbMaxOpenConns,omitempty"`
	DBMaxIdleConns           int             `json:"dbMaxIdleConns,omitempty"`
	DBConnMaxLifetimeMinutes int             `json:"dbConnMaxLifetimeMinutes,omitempty"`
	DatabaseConfig           *DatabaseConfig `json:"database,omitempty"`
}

// ProviderConfig holds the credentials and tunables for a single search or
// scrape provider (spec.md §4.2 / §9 "legacy vs newer" resolution).
type ProviderConfig struct {
	APIKey         string        `json:"apiKey,omitempty"`
	BaseURL        string        `json:"baseUrl,omitempty"`
	SearchTimeout  time.Duration `json:"-"`
	ScrapeTimeout  time.Duration `json:"-"`
	MaxContentRead int64         `json:"maxContentReadBytes,omitempty"`

	SearchTimeoutSeconds int `json:"searchTimeoutSeconds,omitempty"`
	ScrapeTimeoutSeconds int `json:"scrapeTimeoutSeconds,omitempty"`
}

// LLMConfig configures the chat-completion client used by the Extractor and
// the AI fallback search provider.
type LLMConfig struct {
	APIKey      string        `json:"apiKey,omitempty"`
	BaseURL     string        `json:"baseUrl,omitempty"`
	Model       string        `json:"model,omitempty"`
	Timeout     time.Duration `json:"-"`
	TimeoutSeconds int        `json:"timeoutSeconds,omitempty"`
	MaxTokens   int           `json:"maxTokens,omitempty"`
}

// EmbeddingConfig configures the embedding client used for semantic
// deduplication (spec.md §5): embeddings are stored as JSONB and compared by
// cosine similarity in process.
type EmbeddingConfig struct {
	APIKey             string        `json:"apiKey,omitempty"`
	BaseURL            string        `json:"baseUrl,omitempty"`
	Model              string        `json:"model,omitempty"`
	Dimension          int           `json:"dimension,omitempty"`
	SimilarityThreshold float64      `json:"similarityThreshold,omitempty"`
	Timeout            time.Duration `json:"-"`
	TimeoutSeconds     int           `json:"timeoutSeconds,omitempty"`
}

// DiscoveryConfig holds the pipeline-wide tunables that don't belong to a
// single provider: relevance thresholds, result caps, and the inter-call
// delay used to stay polite to scraped sites (spec.md §4.2, §4.6).
type DiscoveryConfig struct {
	RelevanceThreshold   float64 `json:"relevanceThreshold"`
	MaxCandidatesPerRun  int     `json:"maxCandidatesPerRun"`
	MaxQueriesPerRun     int     `json:"maxQueriesPerRun"`
	InterCallDelayMillis int     `json:"interCallDelayMillis"`
	// QueryInterCallDelayMillis is the pause honored between regions/keywords
	// iterations (spec.md §4.8, QUERY_INTER_CALL_MS), distinct from the
	// shorter per-provider-call delay above (SEARCH_INTER_CALL_MS).
	QueryInterCallDelayMillis int `json:"queryInterCallDelayMillis"`
	EnrichmentBatchSize       int `json:"enrichmentBatchSize"`
}

// AppConfigJSON defines the structure of the main config.json file.
type AppConfigJSON struct {
	Server      ServerConfig      `json:"server"`
	Worker      WorkerConfig      `json:"worker,omitempty"`
	Logging     LoggingConfig     `json:"logging"`
	RateLimiter RateLimiterConfig `json:"rateLimiter,omitempty"`
	Features    FeatureFlags      `json:"features"`
	Discovery   DiscoveryConfig   `json:"discovery"`
	Providers   ProvidersJSON     `json:"providers"`
	LLM         LLMConfig         `json:"llm"`
	Embedding   EmbeddingConfig   `json:"embedding"`
	Tracing     TracingConfig     `json:"tracing,omitempty"`
}

// ProvidersJSON groups the named provider configs under one JSON key.
type ProvidersJSON struct {
	WebSearchScrape ProviderConfig `json:"webSearchScrape"`
	AIFallback      ProviderConfig `json:"aiFallback"`
}
