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

type RoutingConfig struct {
	Mode string `mapstructure:"mode"`
}

type CircuitBreakerConfig struct {
	FailureThreshold        int    `mapstructure:"failure_threshold"`
	OpenTimeout             string `mapstructure:"open_timeout"`
	HalfOpenSuccessToClose  int    `mapstructure:"half_open_success_to_close"`
	HalfOpenFailureToReopen int    `mapstructure:"half_open_failure_to_reopen"`
}

type HealthCheckConfig struct {
	Interval string `mapstructure:"interval"`
	Timeout  string `mapstructure:"timeout"`
}

type ProviderConfig struct {
	ID            string   `mapstructure:"id"`
	Kind          string   `mapstructure:"kind"`
	BaseURL       string   `mapstructure:"base_url"`
	CredentialRef string   `mapstructure:"credential_ref"`
	Capabilities  []string `mapstructure:"capabilities"`
	CostTier      string   `mapstructure:"cost_tier"`
	Priority      int      `mapstructure:"priority"`
	MaxTimeout    string   `mapstructure:"max_timeout"`
}

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Routing        RoutingConfig        `mapstructure:"routing"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	HealthCheck    HealthCheckConfig    `mapstructure:"health_check"`
	Providers      []ProviderConfig     `mapstructure:"providers"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":8081")
	viper.SetDefault("logging.level", LogLevelInfo)
	viper.SetDefault("routing.mode", "subscription_first")
	viper.SetDefault("circuit_breaker.failure_threshold", 5)
	viper.SetDefault("circuit_breaker.open_timeout", "60s")
	viper.SetDefault("circuit_breaker.half_open_success_to_close", 1)
	viper.SetDefault("circuit_breaker.half_open_failure_to_reopen", 1)
	viper.SetDefault("health_check.interval", "15s")
	viper.SetDefault("health_check.timeout", "5s")

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
		slog.Error("config file not found, using defaults and environment variables")
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
		validation.Field(&c.Routing,
			validation.Required,
			validation.By(func(value interface{}) error {
				rc, ok := value.(RoutingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RoutingConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.Mode,
						validation.Required,
						validation.In("subscription_first", "cursor_only", "copilot_only", "paid_only", "local_only"),
					),
				)
			}),
		),
		validation.Field(&c.CircuitBreaker,
			validation.Required,
			validation.By(func(value interface{}) error {
				bc, ok := value.(CircuitBreakerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a CircuitBreakerConfig")
				}
				return validation.ValidateStruct(&bc,
					validation.Field(&bc.FailureThreshold,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&bc.OpenTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&bc.HalfOpenSuccessToClose,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&bc.HalfOpenFailureToReopen,
						validation.Required,
						validation.Min(1),
					),
				)
			}),
		),
		validation.Field(&c.HealthCheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthCheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthCheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&hc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Providers,
			validation.Required,
			validation.Length(1, 0),
			validation.By(validateUniqueProviderIDs),
			validation.Each(validation.By(validateProviderConfig)),
		),
	)
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

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateUniqueProviderIDs(value interface{}) error {
	providers, ok := value.([]ProviderConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a provider list")
	}

	seen := make(map[string]bool, len(providers))
	for _, p := range providers {
		if seen[p.ID] {
			return validation.NewError("validation_duplicate_id", "provider ids must be unique")
		}
		seen[p.ID] = true
	}
	return nil
}

func validateProviderConfig(value interface{}) error {
	p, ok := value.(ProviderConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a ProviderConfig")
	}

	if p.ID == "" {
		return validation.NewError("validation_empty_id", "provider id cannot be empty")
	}

	if err := validation.Validate(p.Kind,
		validation.Required,
		validation.In("local_inference", "ide_subscription_a", "ide_subscription_b", "paid_api_a", "paid_api_b"),
	); err != nil {
		return validation.NewError("validation_invalid_kind", "kind must be one of the supported provider kinds")
	}

	if err := validateProviderURL(p.BaseURL); err != nil {
		return err
	}

	if len(p.Capabilities) == 0 {
		return validation.NewError("validation_empty_capabilities", "provider must declare at least one capability")
	}
	for _, capability := range p.Capabilities {
		if err := validation.Validate(capability,
			validation.In("semantic_search", "code_generation", "code_analysis", "workflow_automation"),
		); err != nil {
			return validation.NewError("validation_invalid_capability", "unknown capability "+capability)
		}
	}

	if err := validation.Validate(p.CostTier,
		validation.Required,
		validation.In("free", "subscription", "paid"),
	); err != nil {
		return validation.NewError("validation_invalid_cost_tier", "cost_tier must be free, subscription or paid")
	}

	if p.Priority < 0 {
		return validation.NewError("validation_invalid_priority", "priority cannot be negative")
	}

	if p.MaxTimeout != "" {
		if err := validateDuration(p.MaxTimeout); err != nil {
			return err
		}
	}

	return nil
}

func validateProviderURL(serverURL string) error {
	if serverURL == "" {
		return validation.NewError("validation_empty_url", "provider base_url cannot be empty")
	}

	parsedURL, err := url.Parse(serverURL)
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
