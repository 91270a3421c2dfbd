package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Regions RegionsConfig `yaml:"regions" mapstructure:"regions"`
	Quote   QuoteConfig   `yaml:"quote" mapstructure:"quote"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"` // 0 disables limiting
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// RegionsConfig selects where the postal reference tables are loaded from.
type RegionsConfig struct {
	Source      string `yaml:"source" mapstructure:"source"` // embedded, file, sqlite, postgres
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// LoadAttempts bounds retries of transient database errors at startup.
	LoadAttempts int `yaml:"load_attempts" mapstructure:"load_attempts"`
}

// QuoteConfig configures quoting behavior.
type QuoteConfig struct {
	Strict   bool `yaml:"strict" mapstructure:"strict"`
	AsOfYear int  `yaml:"as_of_year" mapstructure:"as_of_year"` // 0 uses the clock
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RATING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("regions.source", "embedded")
	v.SetDefault("regions.path", "")
	v.SetDefault("regions.database_url", "")
	v.SetDefault("regions.load_attempts", 3)
	v.SetDefault("quote.strict", true)
	v.SetDefault("quote.as_of_year", 0)
	v.SetDefault("batch.concurrency", 8)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "quote", "batch", "serve" and "seed".
func (c *Config) Validate(mode string) error {
	var errs []string
	add := func(msg string) { errs = append(errs, msg) }

	switch mode {
	case "quote", "seed":
	case "batch":
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
			add("batch.concurrency must be between 1 and 64")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			add("server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimitRPS < 0 {
			add("server.rate_limit_rps must be >= 0")
		}
		if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
			add("server.rate_limit_burst must be >= 1 when rate limiting is enabled")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	// The seed command reads YAML and writes SQL; the region source does not apply.
	if mode != "seed" {
		switch c.Regions.Source {
		case "", "embedded":
		case "file":
			if c.Regions.Path == "" {
				add("regions.path is required for the file source")
			}
		case "sqlite", "postgres":
			if c.Regions.DatabaseURL == "" {
				add("regions.database_url is required for the " + c.Regions.Source + " source")
			}
		default:
			add("regions.source must be one of embedded, file, sqlite, postgres")
		}
	}

	if c.Regions.LoadAttempts < 0 {
		add("regions.load_attempts must be >= 0")
	}
	if c.Quote.AsOfYear < 0 {
		add("quote.as_of_year must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
