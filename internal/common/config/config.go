// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig         `mapstructure:"app"`
	Server       ServerConfig      `mapstructure:"server"`
	Database     DatabaseConfig    `mapstructure:"database"`
	Search       SearchConfig      `mapstructure:"search"`
	Integrations IntegrationConfig `mapstructure:"integrations"`
	Logging      LoggingConfig     `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	ListenAddress  string `mapstructure:"listen_address"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
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
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
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
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

// SearchConfig holds the settings consumed by the query compiler and the
// search executor. Read once at startup, never mutated afterwards.
type SearchConfig struct {
	IndexName               string  `mapstructure:"index_name"`
	ContentField            string  `mapstructure:"content_field"`
	ModelTypeField          string  `mapstructure:"model_type_field"`
	DefaultOperator         string  `mapstructure:"default_operator"`
	FuzzyMinSim             float64 `mapstructure:"fuzzy_min_sim"`
	FuzzyMaxExpansions      int     `mapstructure:"fuzzy_max_expansions"`
	LimitToRegisteredModels *bool   `mapstructure:"limit_to_registered_models"`
	IncludeSpelling         bool    `mapstructure:"include_spelling"`
	ResultLimit             int     `mapstructure:"result_limit"`
	Timeout                 int     `mapstructure:"timeout"` // milliseconds
}

// LimitModels resolves the limit_to_registered_models flag, defaulting to true.
func (s SearchConfig) LimitModels() bool {
	if s.LimitToRegisteredModels == nil {
		return true
	}
	return *s.LimitToRegisteredModels
}

// IntegrationConfig holds settings for the SMS and analytics side services.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SNS    struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`

	Analytics struct {
		Enabled    bool   `mapstructure:"enabled"`
		TrackingID string `mapstructure:"tracking_id"`
		CollectURL string `mapstructure:"collect_url"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"analytics"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
