// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig              `mapstructure:"app"`
	Server       ServerConfig           `mapstructure:"server"`
	Database     DatabaseConfig         `mapstructure:"database"`
	AI           AIConfig               `mapstructure:"ai"`
	Analysis     AnalysisConfig         `mapstructure:"analysis"`
	Agents       map[string]AgentConfig `mapstructure:"agents"`
	Orchestrator OrchestratorConfig     `mapstructure:"orchestrator"`
	Reporting    ReportingConfig        `mapstructure:"reporting"`
	Alerts       AlertConfig            `mapstructure:"alerts"`
	Logging      LoggingConfig          `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port        int `mapstructure:"port"`
	MetricsPort int `mapstructure:"metrics_port"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	NewsIndex  string   `mapstructure:"news_index"`
	URL        string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- AI Adapter Configuration ---

// AIConfig holds settings for the AI provider and the call envelope
// around it: per-call timeout, retry budget, concurrency ceiling and
// queue wait.
type AIConfig struct {
	BaseURL       string  `mapstructure:"base_url"`
	APIKey        string  `mapstructure:"api_key"`
	Model         string  `mapstructure:"model"`
	Timeout       int     `mapstructure:"timeout"` // milliseconds
	MaxRetries    int     `mapstructure:"max_retries"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	Temperature   float64 `mapstructure:"temperature"`
	MaxConcurrent int     `mapstructure:"max_concurrent"`
	MaxQueueWait  int     `mapstructure:"max_queue_wait"` // milliseconds

	Breaker BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxFailures  int `mapstructure:"max_failures"`
	OpenInterval int `mapstructure:"open_interval"` // milliseconds
}

// --- Analysis Configuration ---

// AnalysisConfig carries every tunable of the deterministic strategies.
type AnalysisConfig struct {
	Bands               BandsConfig        `mapstructure:"bands"`
	Weights             map[string]float64 `mapstructure:"weights"`
	DivergenceThreshold float64            `mapstructure:"divergence_threshold"`
	Threshold           ThresholdConfig    `mapstructure:"threshold"`
	Keyword             KeywordConfig      `mapstructure:"keyword"`
	TradeRoute          TradeRouteConfig   `mapstructure:"trade_route"`
	TimeWindow          TimeWindowConfig   `mapstructure:"time_window"`
}

// BandsConfig holds inclusive lower bounds of the medium/high/critical bands.
type BandsConfig struct {
	Medium   float64 `mapstructure:"medium"`
	High     float64 `mapstructure:"high"`
	Critical float64 `mapstructure:"critical"`
}

// ThresholdConfig holds ordered cutpoints per metric, lowest band first.
type ThresholdConfig struct {
	DelayPercent []float64 `mapstructure:"delay_percent"`
	HighImpact   []float64 `mapstructure:"high_impact"`
	AvgDelayDays []float64 `mapstructure:"avg_delay_days"`
}

// KeywordConfig holds per-severity weights for keyword matches.
type KeywordConfig struct {
	HighWeight   float64 `mapstructure:"high_weight"`
	MediumWeight float64 `mapstructure:"medium_weight"`
	LowWeight    float64 `mapstructure:"low_weight"`
}

// TradeRouteConfig holds the per-country base risk table.
type TradeRouteConfig struct {
	CountryRisk        map[string]float64 `mapstructure:"country_risk"`
	UnknownCountryRisk float64            `mapstructure:"unknown_country_risk"`
	TransitFactor      float64            `mapstructure:"transit_factor"`
}

// TimeWindowConfig holds decay factors per window, most recent first.
type TimeWindowConfig struct {
	WindowDays []int     `mapstructure:"window_days"`
	Decay      []float64 `mapstructure:"decay"`
}

// --- Agent/Pipeline Configuration ---

// AgentConfig holds the core settings applicable to every agent.
type AgentConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Timeout    int  `mapstructure:"timeout"` // milliseconds
	MaxRetries int  `mapstructure:"max_retries"`
}

// OrchestratorConfig holds pipeline-level settings.
type OrchestratorConfig struct {
	OverallTimeout int    `mapstructure:"overall_timeout"` // milliseconds
	RegistryPath   string `mapstructure:"registry_path"`
}

// ReportingConfig holds the reporting agent policy knobs.
type ReportingConfig struct {
	// Prefer selects which side wins when AI and traditional analysis
	// diverge: "traditional" or "ai".
	Prefer string `mapstructure:"prefer"`
}

// AlertConfig holds settings for critical-risk alert delivery.
type AlertConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ScoreThreshold float64 `mapstructure:"score_threshold"`
	Email          struct {
		Enabled   bool     `mapstructure:"enabled"`
		FromEmail string   `mapstructure:"from_email"`
		To        []string `mapstructure:"to"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
		TopicArn string `mapstructure:"topic_arn"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
