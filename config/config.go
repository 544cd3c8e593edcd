package config

import (
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/circuitguard/pkg/circuitbreaker"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// BreakerConfig holds breaker tunables as they appear on disk. Durations
// are strings so operators can write "30s" or "5m". Zero values inherit
// the registry defaults.
type BreakerConfig struct {
	FailureThreshold int    `mapstructure:"failure_threshold"`
	ResetTimeout     string `mapstructure:"reset_timeout"`
	SuccessThreshold int    `mapstructure:"success_threshold"`
	FailureWindow    string `mapstructure:"failure_window"`
}

// ProbeConfig describes optional active probing of a dependency.
type ProbeConfig struct {
	URL      string `mapstructure:"url"`
	Interval string `mapstructure:"interval"`
}

// DependencyConfig names a guarded dependency, with optional breaker
// overrides and an optional probe.
type DependencyConfig struct {
	Name    string        `mapstructure:"name"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	Probe   ProbeConfig   `mapstructure:"probe"`
}

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Breaker      BreakerConfig      `mapstructure:"breaker"`
	Dependencies []DependencyConfig `mapstructure:"dependencies"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("logging.level", LogLevelInfo)
	viper.SetDefault("breaker.failure_threshold", circuitbreaker.DefaultFailureThreshold)
	viper.SetDefault("breaker.reset_timeout", circuitbreaker.DefaultResetTimeout.String())
	viper.SetDefault("breaker.success_threshold", circuitbreaker.DefaultSuccessThreshold)
	viper.SetDefault("breaker.failure_window", circuitbreaker.DefaultFailureWindow.String())

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

// Tunables converts the on-disk breaker settings into breaker config.
// Call only after Validate: malformed durations are treated as unset.
func (b BreakerConfig) Tunables() circuitbreaker.Config {
	cfg := circuitbreaker.Config{
		FailureThreshold: b.FailureThreshold,
		SuccessThreshold: b.SuccessThreshold,
	}

	if d, err := time.ParseDuration(b.ResetTimeout); err == nil {
		cfg.ResetTimeout = d
	}
	if d, err := time.ParseDuration(b.FailureWindow); err == nil {
		cfg.FailureWindow = d
	}

	return cfg
}

// ProbeInterval returns the parsed probe interval, or fallback when unset.
func (p ProbeConfig) ProbeInterval(fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(p.Interval); err == nil && d > 0 {
		return d
	}
	return fallback
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Breaker,
			validation.By(validateBreakerConfig),
		),
		validation.Field(&c.Dependencies,
			validation.Each(validation.By(validateDependencyConfig)),
		),
	)
}

func validateBreakerConfig(value interface{}) error {
	bc, ok := value.(BreakerConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a BreakerConfig")
	}
	return validation.ValidateStruct(&bc,
		validation.Field(&bc.FailureThreshold, validation.Min(0)),
		validation.Field(&bc.SuccessThreshold, validation.Min(0)),
		validation.Field(&bc.ResetTimeout, validation.By(validateOptionalDuration)),
		validation.Field(&bc.FailureWindow, validation.By(validateOptionalDuration)),
	)
}

func validateDependencyConfig(value interface{}) error {
	dep, ok := value.(DependencyConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a DependencyConfig")
	}

	if dep.Name == "" {
		return validation.NewError("validation_empty_name", "dependency name cannot be empty")
	}

	if err := validateBreakerConfig(dep.Breaker); err != nil {
		return err
	}

	if dep.Probe.URL != "" {
		if err := validateProbeURL(dep.Probe.URL); err != nil {
			return err
		}
		if err := validateOptionalDuration(dep.Probe.Interval); err != nil {
			return err
		}
	}

	return nil
}

func validateProbeURL(value interface{}) error {
	probeURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	parsedURL, err := url.Parse(probeURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateOptionalDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if durationStr == "" {
		return nil
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 30s, 5m, 1h)")
	}

	return nil
}
