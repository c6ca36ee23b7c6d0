package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Database   DatabaseConfig   `mapstructure:"database"`
	FPL        FPLConfig        `mapstructure:"fpl"`
	Session    SessionConfig    `mapstructure:"session"`
	Matcher    MatcherConfig    `mapstructure:"matcher"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type FPLConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	StatsTTL        time.Duration `mapstructure:"stats_ttl"`
	ScheduleTTL     time.Duration `mapstructure:"schedule_ttl"`
	ReferenceTTL    time.Duration `mapstructure:"reference_ttl"`
}

type SessionConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type MatcherConfig struct {
	Floor           float64 `mapstructure:"floor"`
	ShortAliasFloor float64 `mapstructure:"short_alias_floor"`
	AmbiguityDelta  float64 `mapstructure:"ambiguity_delta"`
	TopK            int     `mapstructure:"top_k"`
}

// ClassifierConfig holds the per-intent acceptance thresholds, keyed by
// intent name.
type ClassifierConfig struct {
	Thresholds map[string]float64 `mapstructure:"thresholds"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("fpl.base_url", "https://fantasy.premierleague.com/api")
	v.SetDefault("fpl.timeout", "10s")
	v.SetDefault("fpl.retry_backoff", "500ms")
	v.SetDefault("fpl.refresh_interval", "6h")
	v.SetDefault("fpl.stats_ttl", "30m")
	v.SetDefault("fpl.schedule_ttl", "24h")
	v.SetDefault("fpl.reference_ttl", "168h")
	v.SetDefault("session.capacity", 5)
	v.SetDefault("matcher.floor", 0.6)
	v.SetDefault("matcher.short_alias_floor", 0.8)
	v.SetDefault("matcher.ambiguity_delta", 0.05)
	v.SetDefault("matcher.top_k", 5)
	v.SetDefault("classifier.thresholds.conversational", 90)
	v.SetDefault("classifier.thresholds.contextual", 85)
	v.SetDefault("classifier.thresholds.fixtures", 75)
	v.SetDefault("classifier.thresholds.player_data", 70)
	v.SetDefault("classifier.thresholds.analysis", 65)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.7)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Database = dbConfig
	}

	// Get other environment variables
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	return &config, nil
}
