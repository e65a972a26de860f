package config

const (
	DefaultGinMode                  = "release"
	DefaultDBMaxOpenConns           = 50
	DefaultDBMaxIdleConns           = 20
	DefaultDBConnMaxLifetimeMinutes = 30

	// WorkerConfig defaults
	DefaultNumWorkers                  = 5
	DefaultPollIntervalSeconds         = 5
	DefaultErrorRetryDelaySeconds      = 30
	DefaultMaxJobRetries               = 2
	DefaultJobProcessingTimeoutMinutes = 15
	DefaultJobWallClockSeconds         = 600

	// Global API rate limiter defaults
	DefaultAPIRateLimitWindowSeconds = 900
	DefaultAPIRateLimitMaxRequests   = 1000

	// Discovery pipeline defaults (spec.md §4.4 relevance floor, §4.2 caps)
	DefaultRelevanceThreshold   = 75
	DefaultMaxCandidatesPerRun  = 40
	DefaultMaxQueriesPerRun     = 5
	DefaultInterCallDelayMillis      = 500
	DefaultQueryInterCallDelayMillis = 1000
	DefaultEnrichmentBatchSize       = 10

	// Provider defaults
	DefaultProviderSearchTimeoutSeconds = 30
	DefaultProviderScrapeTimeoutSeconds = 60
	DefaultMaxContentReadBytes    int64 = 5 * 1024 * 1024

	// LLM / embedding defaults
	DefaultLLMTimeoutSeconds       = 45
	DefaultLLMModel                = "gpt-4o-mini"
	DefaultEmbeddingTimeoutSeconds = 20
	DefaultEmbeddingModel          = "text-embedding-3-small"
	DefaultEmbeddingDimension      = 1536
	DefaultEmbeddingSimilarity     = 0.90
)

// DefaultAppConfigJSON returns the default application configuration.
func DefaultAppConfigJSON() AppConfigJSON {
	return AppConfigJSON{
		Server: ServerConfig{
			Port:                     "8080",
			GinMode:                  DefaultGinMode,
			DBMaxOpenConns:           DefaultDBMaxOpenConns,
			DBMaxIdleConns:           DefaultDBMaxIdleConns,
			DBConnMaxLifetimeMinutes: DefaultDBConnMaxLifetimeMinutes,
		},
		Worker: WorkerConfig{
			NumWorkers:                  DefaultNumWorkers,
			PollIntervalSeconds:         DefaultPollIntervalSeconds,
			ErrorRetryDelaySeconds:      DefaultErrorRetryDelaySeconds,
			MaxJobRetries:               DefaultMaxJobRetries,
			JobProcessingTimeoutMinutes: DefaultJobProcessingTimeoutMinutes,
			JobWallClockSeconds:         DefaultJobWallClockSeconds,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		RateLimiter: RateLimiterConfig{
			MaxRequests:   DefaultAPIRateLimitMaxRequests,
			WindowSeconds: DefaultAPIRateLimitWindowSeconds,
		},
		Features: FeatureFlags{
			EnableSemanticDedup: true,
			EnableEnrichment:    true,
		},
		Discovery: DiscoveryConfig{
			RelevanceThreshold:        DefaultRelevanceThreshold,
			MaxCandidatesPerRun:       DefaultMaxCandidatesPerRun,
			MaxQueriesPerRun:          DefaultMaxQueriesPerRun,
			InterCallDelayMillis:      DefaultInterCallDelayMillis,
			QueryInterCallDelayMillis: DefaultQueryInterCallDelayMillis,
			EnrichmentBatchSize:       DefaultEnrichmentBatchSize,
		},
		Providers: ProvidersJSON{
			WebSearchScrape: ProviderConfig{
				SearchTimeoutSeconds: DefaultProviderSearchTimeoutSeconds,
				ScrapeTimeoutSeconds: DefaultProviderScrapeTimeoutSeconds,
				MaxContentRead:       DefaultMaxContentReadBytes,
			},
			AIFallback: ProviderConfig{
				SearchTimeoutSeconds: DefaultProviderSearchTimeoutSeconds,
			},
		},
		LLM: LLMConfig{
			Model:          DefaultLLMModel,
			TimeoutSeconds: DefaultLLMTimeoutSeconds,
			MaxTokens:      1024,
		},
		Embedding: EmbeddingConfig{
			Model:               DefaultEmbeddingModel,
			Dimension:           DefaultEmbeddingDimension,
			SimilarityThreshold: DefaultEmbeddingSimilarity,
			TimeoutSeconds:      DefaultEmbeddingTimeoutSeconds,
		},
	}
}

// DefaultConfig initializes and returns a default AppConfig by converting
// DefaultAppConfigJSON.
func DefaultConfig() *AppConfig {
	return ConvertJSONToAppConfig(DefaultAppConfigJSON())
}
