package config

import (
	"os"
	"strconv"
)

// LoadWithEnv loads configuration from JSON file and overrides with
// environment variables, mirroring spec.md's "config.json + env override"
// requirement.
func LoadWithEnv(mainConfigPath string) (*AppConfig, error) {
	appConfig, err := Load(mainConfigPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if appConfig == nil {
		appConfig = DefaultConfig()
	}

	applyEnvironmentOverrides(appConfig)

	if dbConfig := loadDatabaseConfig(); dbConfig != nil {
		appConfig.Server.DatabaseConfig = dbConfig
	}

	return appConfig, nil
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host               string `json:"host"`
	Port               int    `json:"port"`
	Name               string `json:"name"`
	User               string `json:"user"`
	Password           string `json:"password"`
	SSLMode            string `json:"sslmode"`
	MaxConnections     int    `json:"maxConnections"`
	MaxIdleConnections int    `json:"maxIdleConnections"`
	ConnectionLifetime int    `json:"connectionLifetime"`
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Host:               getEnvOrDefault("DATABASE_HOST", "localhost"),
		Port:               getEnvAsInt("DATABASE_PORT", 5432),
		Name:               getEnvOrDefault("DATABASE_NAME", "compintel_discovery"),
		User:               getEnvOrDefault("DATABASE_USER", "compintel"),
		Password:           getEnvOrDefault("DATABASE_PASSWORD", ""),
		SSLMode:            getEnvOrDefault("DATABASE_SSL_MODE", "disable"),
		MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 50),
		MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 20),
		ConnectionLifetime: getEnvAsInt("DATABASE_CONNECTION_LIFETIME", 1800),
	}
}

func applyEnvironmentOverrides(config *AppConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		config.Server.Port = port
	}
	if ginMode := os.Getenv("GIN_MODE"); ginMode != "" {
		config.Server.GinMode = ginMode
	}

	if numWorkers := getEnvAsInt("WORKER_COUNT", 0); numWorkers > 0 {
		config.Worker.NumWorkers = numWorkers
	}
	if pollInterval := getEnvAsInt("WORKER_POLL_INTERVAL", 0); pollInterval > 0 {
		config.Worker.PollIntervalSeconds = pollInterval
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = logLevel
	}

	if rlWindow := getEnvAsInt("API_RATE_LIMIT_WINDOW", 0); rlWindow > 0 {
		config.RateLimiter.WindowSeconds = rlWindow
	}
	if rlMax := getEnvAsInt("API_RATE_LIMIT_MAX_REQUESTS", 0); rlMax > 0 {
		config.RateLimiter.MaxRequests = rlMax
	}

	if key := os.Getenv("WEB_SEARCH_SCRAPE_API_KEY"); key != "" {
		config.Providers.WebSearchScrape.APIKey = key
	}
	if baseURL := os.Getenv("WEB_SEARCH_SCRAPE_BASE_URL"); baseURL != "" {
		config.Providers.WebSearchScrape.BaseURL = baseURL
	}
	if key := os.Getenv("AI_FALLBACK_API_KEY"); key != "" {
		config.Providers.AIFallback.APIKey = key
	}

	if key := os.Getenv("LLM_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}

	if key := os.Getenv("EMBEDDING_API_KEY"); key != "" {
		config.Embedding.APIKey = key
	}
	if baseURL := os.Getenv("EMBEDDING_BASE_URL"); baseURL != "" {
		config.Embedding.BaseURL = baseURL
	}

	if backendURL := os.Getenv("TRACING_BACKEND_URL"); backendURL != "" {
		config.Tracing.BackendURL = backendURL
	}

	if threshold := os.Getenv("DISCOVERY_RELEVANCE_THRESHOLD"); threshold != "" {
		if v, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Discovery.RelevanceThreshold = v
		}
	}
	if v := getEnvAsInt("SEARCH_INTER_CALL_MS", 0); v > 0 {
		config.Discovery.InterCallDelayMillis = v
	}
	if v := getEnvAsInt("QUERY_INTER_CALL_MS", 0); v > 0 {
		config.Discovery.QueryInterCallDelayMillis = v
	}
	if v := getEnvAsInt("JOB_MAX_ATTEMPTS", 0); v > 0 {
		config.Worker.MaxJobRetries = v
	}
	if v := getEnvAsInt("JOB_WALLCLOCK_SECONDS", 0); v > 0 {
		config.Worker.JobWallClockSeconds = v
	}
	if v := getEnvAsInt("WORKER_CONCURRENCY", 0); v > 0 {
		config.Worker.NumWorkers = v
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// GetDatabaseDSN returns the postgres connection string for config.
func GetDatabaseDSN(config *DatabaseConfig) string {
	return "host=" + config.Host +
		" port=" + strconv.Itoa(config.Port) +
		" user=" + config.User +
		" password=" + config.Password +
		" dbname=" + config.Name +
		" sslmode=" + config.SSLMode
}
