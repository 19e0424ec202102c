// Package config loads the CLI configuration from config.yaml and the
// TRANSITION_* environment and initializes the global logger.
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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Regional  RegionalConfig  `yaml:"regional" mapstructure:"regional"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run database.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`

	// RequestsPerMinute throttles outgoing calls; 0 disables the limiter.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// StageConfig carries one stage's generation settings.
type StageConfig struct {
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PipelineConfig configures the component pipeline.
type PipelineConfig struct {
	MaxRetries  int         `yaml:"max_retries" mapstructure:"max_retries"`
	Concurrency int         `yaml:"concurrency" mapstructure:"concurrency"`
	Enricher    StageConfig `yaml:"enricher" mapstructure:"enricher"`
	Classifier  StageConfig `yaml:"classifier" mapstructure:"classifier"`
	Scorer      StageConfig `yaml:"scorer" mapstructure:"scorer"`
}

// BatchConfig configures the spreadsheet driver.
type BatchConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// RegionalConfig configures the regional fan-out pipeline.
type RegionalConfig struct {
	DataDir     string      `yaml:"data_dir" mapstructure:"data_dir"`
	MaxRetries  int         `yaml:"max_retries" mapstructure:"max_retries"`
	Concurrency int         `yaml:"concurrency" mapstructure:"concurrency"`
	Stage       StageConfig `yaml:"stage" mapstructure:"stage"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks that the settings a command needs are present. Mode is
// "run", "batch", "regional", or "runs".
func (c *Config) Validate(mode string) error {
	var missing []string

	needsLLM := false
	switch mode {
	case "run", "batch":
		needsLLM = true
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
	case "regional":
		needsLLM = true
		if c.Regional.DataDir == "" {
			missing = append(missing, "regional.data_dir is required")
		}
	case "runs":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if needsLLM && c.Anthropic.Key == "" {
		missing = append(missing, "anthropic.key is required")
	}

	if c.Pipeline.MaxRetries < 1 {
		missing = append(missing, "pipeline.max_retries must be >= 1")
	}
	if c.Pipeline.Concurrency < 1 || c.Pipeline.Concurrency > 16 {
		missing = append(missing, "pipeline.concurrency must be between 1 and 16")
	}
	if c.Regional.Concurrency < 1 || c.Regional.Concurrency > 16 {
		missing = append(missing, "regional.concurrency must be between 1 and 16")
	}

	if len(missing) > 0 {
		return eris.New("invalid config: " + strings.Join(missing, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRANSITION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.database_url", "transition.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.requests_per_minute", 60)
	v.SetDefault("pipeline.max_retries", 2)
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.enricher.max_tokens", 2000)
	v.SetDefault("pipeline.enricher.temperature", 0.2)
	v.SetDefault("pipeline.enricher.timeout_secs", 60)
	v.SetDefault("pipeline.classifier.max_tokens", 1000)
	v.SetDefault("pipeline.classifier.temperature", 0.0)
	v.SetDefault("pipeline.classifier.timeout_secs", 45)
	v.SetDefault("pipeline.scorer.max_tokens", 1500)
	v.SetDefault("pipeline.scorer.temperature", 0.0)
	v.SetDefault("pipeline.scorer.timeout_secs", 60)
	v.SetDefault("batch.output_dir", "output")
	v.SetDefault("regional.data_dir", "regional_data")
	v.SetDefault("regional.max_retries", 2)
	v.SetDefault("regional.concurrency", 4)
	v.SetDefault("regional.stage.max_tokens", 3000)
	v.SetDefault("regional.stage.temperature", 0.1)
	v.SetDefault("regional.stage.timeout_secs", 90)

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
