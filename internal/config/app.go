// File: internal/config/app.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"
)

// AppConfig is the main application configuration structure. It aggregates
// all other configuration parts.
type AppConfig struct {
	Server      ServerConfig
	Worker      WorkerConfig
	Logging     LoggingConfig
	RateLimiter RateLimiterConfig
	Features    FeatureFlags
	Discovery   DiscoveryConfig
	Providers   ProvidersJSON
	LLM         LLMConfig
	Embedding   EmbeddingConfig
	Tracing     TracingConfig

	loadedFromPath string
}

// GetLoadedFromPath returns the file path from which the main config was loaded.
func (ac *AppConfig) GetLoadedFromPath() string {
	return ac.loadedFromPath
}

// Load initializes the application configuration by reading config.json,
// falling back to and persisting defaults when no file exists.
func Load(mainConfigPath string) (*AppConfig, error) {
	if mainConfigPath == "" {
		mainConfigPath = "config.json"
	}
	log.Printf("config: loading main config from %s", mainConfigPath)

	appCfgJSON := DefaultAppConfigJSON()
	var originalLoadError error

	data, err := os.ReadFile(mainConfigPath)
	if err != nil {
		originalLoadError = err
		if os.IsNotExist(err) {
			log.Printf("config: %s not found, using defaults and attempting to save", mainConfigPath)
			defaultAppCfg := ConvertJSONToAppConfig(appCfgJSON)
			defaultAppCfg.loadedFromPath = mainConfigPath
			if saveErr := SaveAppConfig(defaultAppCfg); saveErr != nil {
				log.Printf("config: failed to save default config '%s': %v", mainConfigPath, saveErr)
			} else {
				log.Printf("config: saved default config to '%s'", mainConfigPath)
				originalLoadError = nil
			}
		} else {
			log.Printf("config: error reading '%s': %v, using defaults", mainConfigPath, err)
		}
	} else if errUnmarshal := json.Unmarshal(data, &appCfgJSON); errUnmarshal != nil {
		log.Printf("config: error unmarshalling '%s': %v, using defaults for unparsed fields", mainConfigPath, errUnmarshal)
		originalLoadError = errUnmarshal
	}

	appConfig := ConvertJSONToAppConfig(appCfgJSON)
	appConfig.loadedFromPath = mainConfigPath

	return appConfig, originalLoadError
}

// SaveAppConfig saves the main application configuration to its loadedFromPath.
func SaveAppConfig(cfg *AppConfig) error {
	if cfg.loadedFromPath == "" {
		return fmt.Errorf("cannot save AppConfig, loadedFromPath is empty")
	}
	appCfgJSON := ConvertAppConfigToJSON(cfg)
	data, err := json.MarshalIndent(appCfgJSON, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal app config: %w", err)
	}
	if err := os.WriteFile(cfg.loadedFromPath, data, 0644); err != nil {
		return fmt.Errorf("write app config to '%s': %w", cfg.loadedFromPath, err)
	}
	log.Printf("config: saved configuration to '%s'", cfg.loadedFromPath)
	return nil
}

// ConvertJSONToAppConfig converts the JSON structure to the internal AppConfig model.
func ConvertJSONToAppConfig(jsonCfg AppConfigJSON) *AppConfig {
	appCfg := &AppConfig{
		Server:      jsonCfg.Server,
		Worker:      applyWorkerDefaults(jsonCfg.Worker),
		Logging:     jsonCfg.Logging,
		RateLimiter: applyRateLimiterDefaults(jsonCfg.RateLimiter),
		Features:    jsonCfg.Features,
		Discovery:   applyDiscoveryDefaults(jsonCfg.Discovery),
		Providers:   applyProviderDefaults(jsonCfg.Providers),
		LLM:         applyLLMDefaults(jsonCfg.LLM),
		Embedding:   applyEmbeddingDefaults(jsonCfg.Embedding),
		Tracing:     jsonCfg.Tracing,
	}

	if appCfg.Server.GinMode == "" {
		appCfg.Server.GinMode = DefaultGinMode
	}
	if appCfg.Server.DBMaxOpenConns == 0 {
		appCfg.Server.DBMaxOpenConns = DefaultDBMaxOpenConns
	}
	if appCfg.Server.DBMaxIdleConns == 0 {
		appCfg.Server.DBMaxIdleConns = DefaultDBMaxIdleConns
	}
	if appCfg.Server.DBConnMaxLifetimeMinutes == 0 {
		appCfg.Server.DBConnMaxLifetimeMinutes = DefaultDBConnMaxLifetimeMinutes
	}

	return appCfg
}

// ConvertAppConfigToJSON converts the internal AppConfig model to AppConfigJSON for saving.
func ConvertAppConfigToJSON(appCfg *AppConfig) AppConfigJSON {
	return AppConfigJSON{
		Server:      appCfg.Server,
		Worker:      appCfg.Worker,
		Logging:     appCfg.Logging,
		RateLimiter: appCfg.RateLimiter,
		Features:    appCfg.Features,
		Discovery:   appCfg.Discovery,
		Providers:   appCfg.Providers,
		LLM:         appCfg.LLM,
		Embedding:   appCfg.Embedding,
		Tracing:     appCfg.Tracing,
	}
}

func applyWorkerDefaults(cfg WorkerConfig) WorkerConfig {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = DefaultNumWorkers
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
	if cfg.ErrorRetryDelaySeconds <= 0 {
		cfg.ErrorRetryDelaySeconds = DefaultErrorRetryDelaySeconds
	}
	if cfg.MaxJobRetries <= 0 {
		cfg.MaxJobRetries = DefaultMaxJobRetries
	}
	if cfg.JobProcessingTimeoutMinutes <= 0 {
		cfg.JobProcessingTimeoutMinutes = DefaultJobProcessingTimeoutMinutes
	}
	if cfg.JobWallClockSeconds <= 0 {
		cfg.JobWallClockSeconds = DefaultJobWallClockSeconds
	}
	return cfg
}

func applyRateLimiterDefaults(cfg RateLimiterConfig) RateLimiterConfig {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultAPIRateLimitMaxRequests
	}
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = DefaultAPIRateLimitWindowSeconds
	}
	return cfg
}

func applyDiscoveryDefaults(cfg DiscoveryConfig) DiscoveryConfig {
	if cfg.RelevanceThreshold <= 0 {
		cfg.RelevanceThreshold = DefaultRelevanceThreshold
	}
	if cfg.MaxCandidatesPerRun <= 0 {
		cfg.MaxCandidatesPerRun = DefaultMaxCandidatesPerRun
	}
	if cfg.MaxQueriesPerRun <= 0 {
		cfg.MaxQueriesPerRun = DefaultMaxQueriesPerRun
	}
	if cfg.InterCallDelayMillis <= 0 {
		cfg.InterCallDelayMillis = DefaultInterCallDelayMillis
	}
	if cfg.QueryInterCallDelayMillis <= 0 {
		cfg.QueryInterCallDelayMillis = DefaultQueryInterCallDelayMillis
	}
	if cfg.EnrichmentBatchSize <= 0 {
		cfg.EnrichmentBatchSize = DefaultEnrichmentBatchSize
	}
	return cfg
}

func applyProviderDefaults(cfg ProvidersJSON) ProvidersJSON {
	cfg.WebSearchScrape = applyOneProviderDefaults(cfg.WebSearchScrape)
	cfg.AIFallback = applyOneProviderDefaults(cfg.AIFallback)
	return cfg
}

func applyOneProviderDefaults(cfg ProviderConfig) ProviderConfig {
	if cfg.SearchTimeoutSeconds <= 0 {
		cfg.SearchTimeoutSeconds = DefaultProviderSearchTimeoutSeconds
	}
	if cfg.ScrapeTimeoutSeconds <= 0 {
		cfg.ScrapeTimeoutSeconds = DefaultProviderScrapeTimeoutSeconds
	}
	if cfg.MaxContentRead <= 0 {
		cfg.MaxContentRead = DefaultMaxContentReadBytes
	}
	cfg.SearchTimeout = time.Duration(cfg.SearchTimeoutSeconds) * time.Second
	cfg.ScrapeTimeout = time.Duration(cfg.ScrapeTimeoutSeconds) * time.Second
	return cfg
}

func applyLLMDefaults(cfg LLMConfig) LLMConfig {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultLLMTimeoutSeconds
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	return cfg
}

func applyEmbeddingDefaults(cfg EmbeddingConfig) EmbeddingConfig {
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultEmbeddingDimension
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultEmbeddingSimilarity
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultEmbeddingTimeoutSeconds
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	return cfg
}
