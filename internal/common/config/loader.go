// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like AI_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when absent
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env at several depths so tests under internal/ and
// test/ resolve the same file as the binary.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig picks up secrets from plain env vars when the YAML
// left them empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.AI.APIKey == "" {
		if val := os.Getenv("AI_API_KEY"); val != "" {
			cfg.AI.APIKey = val
		}
	}
	if cfg.AI.BaseURL == "" {
		if val := os.Getenv("AI_BASE_URL"); val != "" {
			cfg.AI.BaseURL = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9090
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.NewsIndex == "" {
		cfg.Database.Elasticsearch.NewsIndex = "news-events"
	}

	// AI defaults
	if cfg.AI.Model == "" {
		cfg.AI.Model = "anthropic/claude-3.5-sonnet"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 5000
	}
	if cfg.AI.MaxRetries == 0 {
		cfg.AI.MaxRetries = 2
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = 1000
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = 0.3
	}
	if cfg.AI.MaxConcurrent == 0 {
		cfg.AI.MaxConcurrent = 4
	}
	if cfg.AI.MaxQueueWait == 0 {
		cfg.AI.MaxQueueWait = 2000
	}
	if cfg.AI.Breaker.MaxFailures == 0 {
		cfg.AI.Breaker.MaxFailures = 5
	}
	if cfg.AI.Breaker.OpenInterval == 0 {
		cfg.AI.Breaker.OpenInterval = 30000
	}

	// Analysis defaults mirror the standard tables
	if cfg.Analysis.Bands.Medium == 0 {
		cfg.Analysis.Bands.Medium = 30
	}
	if cfg.Analysis.Bands.High == 0 {
		cfg.Analysis.Bands.High = 60
	}
	if cfg.Analysis.Bands.Critical == 0 {
		cfg.Analysis.Bands.Critical = 80
	}
	if cfg.Analysis.DivergenceThreshold == 0 {
		cfg.Analysis.DivergenceThreshold = 40
	}
	if len(cfg.Analysis.Threshold.DelayPercent) == 0 {
		cfg.Analysis.Threshold.DelayPercent = []float64{10, 25, 50, 75}
	}
	if len(cfg.Analysis.Threshold.HighImpact) == 0 {
		cfg.Analysis.Threshold.HighImpact = []float64{2, 5, 10, 15}
	}
	if len(cfg.Analysis.Threshold.AvgDelayDays) == 0 {
		cfg.Analysis.Threshold.AvgDelayDays = []float64{3, 7, 14, 30}
	}
	if cfg.Analysis.Keyword.HighWeight == 0 {
		cfg.Analysis.Keyword.HighWeight = 10
	}
	if cfg.Analysis.Keyword.MediumWeight == 0 {
		cfg.Analysis.Keyword.MediumWeight = 5
	}
	if cfg.Analysis.Keyword.LowWeight == 0 {
		cfg.Analysis.Keyword.LowWeight = 1
	}
	if cfg.Analysis.TradeRoute.UnknownCountryRisk == 0 {
		cfg.Analysis.TradeRoute.UnknownCountryRisk = 40
	}
	if cfg.Analysis.TradeRoute.TransitFactor == 0 {
		cfg.Analysis.TradeRoute.TransitFactor = 0.1
	}
	if len(cfg.Analysis.TimeWindow.WindowDays) == 0 {
		cfg.Analysis.TimeWindow.WindowDays = []int{1, 7, 30, 90}
	}
	if len(cfg.Analysis.TimeWindow.Decay) == 0 {
		cfg.Analysis.TimeWindow.Decay = []float64{1.0, 0.8, 0.5, 0.2}
	}

	// Orchestrator defaults
	if cfg.Orchestrator.OverallTimeout == 0 {
		cfg.Orchestrator.OverallTimeout = 30000
	}
	if cfg.Reporting.Prefer == "" {
		cfg.Reporting.Prefer = "traditional"
	}
	if cfg.Alerts.ScoreThreshold == 0 {
		cfg.Alerts.ScoreThreshold = 80
	}

	// Agent defaults
	for key, agent := range cfg.Agents {
		if agent.Timeout == 0 {
			agent.Timeout = 10000
		}
		if agent.MaxRetries == 0 {
			agent.MaxRetries = 1
		}
		cfg.Agents[key] = agent
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Analysis.Bands.Medium >= cfg.Analysis.Bands.High ||
		cfg.Analysis.Bands.High >= cfg.Analysis.Bands.Critical {
		return fmt.Errorf("analysis.bands must be strictly increasing")
	}

	if len(cfg.Analysis.TimeWindow.WindowDays) != len(cfg.Analysis.TimeWindow.Decay) {
		return fmt.Errorf("analysis.time_window.window_days and decay must have equal length")
	}

	for _, cutpoints := range [][]float64{
		cfg.Analysis.Threshold.DelayPercent,
		cfg.Analysis.Threshold.HighImpact,
		cfg.Analysis.Threshold.AvgDelayDays,
	} {
		for i := 1; i < len(cutpoints); i++ {
			if cutpoints[i] <= cutpoints[i-1] {
				return fmt.Errorf("analysis.threshold cutpoints must be strictly increasing")
			}
		}
	}

	if cfg.Reporting.Prefer != "traditional" && cfg.Reporting.Prefer != "ai" {
		return fmt.Errorf("reporting.prefer must be \"traditional\" or \"ai\"")
	}

	if cfg.AI.MaxConcurrent < 1 {
		return fmt.Errorf("ai.max_concurrent must be at least 1")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetAgentConfig retrieves agent-specific configuration with fallback to defaults
func GetAgentConfig(cfg *Config, agentName string) AgentConfig {
	if agent, exists := cfg.Agents[agentName]; exists {
		return agent
	}

	return AgentConfig{
		Enabled:    true,
		Timeout:    10000,
		MaxRetries: 1,
	}
}

// IsAgentEnabled checks if a specific agent is enabled
func IsAgentEnabled(cfg *Config, agentName string) bool {
	if agent, exists := cfg.Agents[agentName]; exists {
		return agent.Enabled
	}
	return true
}
