package sieve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/asaidimu/go-sieve/core/query"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats understood by the select command.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// EvaluationConfig configures expression evaluation.
type EvaluationConfig struct {
	UnknownTypes string `mapstructure:"unknown_types"`
}

// OutputConfig configures rendering of selections.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// Config is the resolved CLI configuration: defaults, then the config file,
// then SIEVE_ prefixed environment variables, then flags.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Output     OutputConfig     `mapstructure:"output"`
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	return validation.Errors{
		"log.level": validation.Validate(c.Log.Level,
			validation.Required,
			validation.In("debug", "info", "warn", "error")),
		"evaluation.unknown_types": validation.Validate(c.Evaluation.UnknownTypes,
			validation.Required,
			validation.In(string(query.UnknownTypeReject), string(query.UnknownTypeMatch))),
		"output.format": validation.Validate(c.Output.Format,
			validation.Required,
			validation.In(FormatTable, FormatJSON)),
	}.Filter()
}

// EvaluatorOptions translates the evaluation settings.
func (c Config) EvaluatorOptions() *query.EvaluatorOptions {
	opts := query.DefaultEvaluatorOptions()
	opts.UnknownTypes = query.UnknownTypePolicy(c.Evaluation.UnknownTypes)
	return opts
}

// newViper returns a viper instance carrying the defaults and environment
// binding of every setting.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("evaluation.unknown_types", string(query.UnknownTypeReject))
	v.SetDefault("output.format", FormatTable)

	v.SetEnvPrefix("SIEVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads the config file, if any, and decodes the settings. An
// explicit configFile must exist; otherwise sieve.yaml is looked up in the
// working directory and $HOME/.sieve and may be absent.
func loadConfig(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("sieve")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.sieve")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// newLogger builds a zap logger writing to stderr.
func newLogger(cfg LogConfig) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if cfg.Development {
		config = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "timestamp"
	return config.Build()
}
