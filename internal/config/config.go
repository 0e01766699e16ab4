package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the complete resolved configuration, per spec.md §6. It is
// loaded from a TOML file discovered in platform config locations, or from
// environment variables prefixed RESEARCH_MASTER_.
type Config struct {
	Server struct {
		Port          int    `mapstructure:"port" validate:"min=1,max=65535"`
		Host          string `mapstructure:"host"`
		Mode          string `mapstructure:"mode" validate:"oneof=debug release test"`
		ReadTimeout   string `mapstructure:"read_timeout"`
		WriteTimeout  string `mapstructure:"write_timeout"`
		IdleTimeout   string `mapstructure:"idle_timeout"`
		EnableCORS    bool   `mapstructure:"enable_cors"`
		EnableMetrics bool   `mapstructure:"enable_metrics"`
	} `mapstructure:"server"`

	Cache struct {
		Enabled            bool   `mapstructure:"enabled"`
		Directory          string `mapstructure:"directory"`
		SearchTTLSeconds   int    `mapstructure:"search_ttl_seconds" validate:"min=0"`
		CitationTTLSeconds int    `mapstructure:"citation_ttl_seconds" validate:"min=0"`
		MaxSizeMB          int    `mapstructure:"max_size_mb" validate:"min=0"`
	} `mapstructure:"cache"`

	Downloads struct {
		DefaultPath      string `mapstructure:"default_path"`
		OrganizeBySource bool   `mapstructure:"organize_by_source"`
		MaxFileSizeMB    int    `mapstructure:"max_file_size_mb" validate:"min=1"`
	} `mapstructure:"downloads"`

	RateLimits struct {
		DefaultRequestsPerSecond float64 `mapstructure:"default_requests_per_second" validate:"min=0"`
		MaxConcurrentRequests    int     `mapstructure:"max_concurrent_requests" validate:"min=1"`
	} `mapstructure:"rate_limits"`

	Sources struct {
		EnabledSources  []string `mapstructure:"enabled_sources"`
		DisabledSources []string `mapstructure:"disabled_sources"`
	} `mapstructure:"sources"`

	APIKeys struct {
		SemanticScholar string `mapstructure:"semantic_scholar"`
		CORE            string `mapstructure:"core"`
		OpenAlexEmail   string `mapstructure:"openalex_email"`
		UnpaywallEmail  string `mapstructure:"unpaywall_email"`
		CrossrefMailto  string `mapstructure:"crossref_mailto"`
		Springer        string `mapstructure:"springer"`
		IEEEXplore      string `mapstructure:"ieee_xplore"`
		Dimensions      string `mapstructure:"dimensions"`
		GoogleScholarOn bool   `mapstructure:"google_scholar_enabled"`
	} `mapstructure:"api_keys"`

	Logging struct {
		Level     string `mapstructure:"level" validate:"oneof=debug info warn error"`
		Format    string `mapstructure:"format" validate:"oneof=json text"`
		AddSource bool   `mapstructure:"add_source"`
		Output    string `mapstructure:"output" validate:"oneof=stdout stderr file"`
		FilePath  string `mapstructure:"file_path"`
	} `mapstructure:"logging"`

	Circuit struct {
		Enabled          bool   `mapstructure:"enabled"`
		FailureThreshold int    `mapstructure:"failure_threshold"`
		SuccessThreshold int    `mapstructure:"success_threshold"`
		OpenDuration     string `mapstructure:"open_duration"`
	} `mapstructure:"circuit"`

	Retry struct {
		Enabled       bool    `mapstructure:"enabled"`
		MaxAttempts   int     `mapstructure:"max_attempts"`
		InitialDelay  string  `mapstructure:"initial_delay"`
		MaxDelay      string  `mapstructure:"max_delay"`
		BackoffFactor float64 `mapstructure:"backoff_factor"`
		Jitter        bool    `mapstructure:"jitter"`
	} `mapstructure:"retry"`

	RPC struct {
		HTTPEnabled  bool `mapstructure:"http_enabled"`
		StdioEnabled bool `mapstructure:"stdio_enabled"`
	} `mapstructure:"rpc"`

	HealthStore struct {
		Enabled bool   `mapstructure:"enabled"`
		Type    string `mapstructure:"type" validate:"oneof=sqlite postgres"`
		DSN     string `mapstructure:"dsn"`
	} `mapstructure:"health_store"`

	Events struct {
		Enabled  bool   `mapstructure:"enabled"`
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		StoreDir string `mapstructure:"store_dir"`
	} `mapstructure:"events"`
}

// LoadConfig loads configuration from the default search path.
func LoadConfig() (*Config, error) {
	return LoadConfigFromPath("")
}

// LoadConfigFromPath loads configuration from an explicit TOML file path,
// falling back to the default search locations when empty, per spec.md §6.
func LoadConfigFromPath(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
		viper.AddConfigPath("$HOME/.config/research-master")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("RESEARCH_MASTER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()
	bindProviderEnvVars()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// bindProviderEnvVars wires the partial list of provider-specific env vars
// named in spec.md §6 directly onto their api_keys.* keys, since
// their names don't follow the RESEARCH_MASTER_SECTION_FIELD convention.
func bindProviderEnvVars() {
	_ = viper.BindEnv("api_keys.semantic_scholar", "SEMANTIC_SCHOLAR_API_KEY")
	_ = viper.BindEnv("api_keys.core", "CORE_API_KEY")
	_ = viper.BindEnv("api_keys.openalex_email", "OPENALEX_EMAIL")
	_ = viper.BindEnv("api_keys.unpaywall_email", "UNPAYWALL_EMAIL")
	_ = viper.BindEnv("api_keys.springer", "SPRINGER_API_KEY")
	_ = viper.BindEnv("api_keys.ieee_xplore", "IEEE_XPLORE_API_KEY")
	_ = viper.BindEnv("api_keys.dimensions", "DIMENSIONS_API_KEY")
	_ = viper.BindEnv("api_keys.google_scholar_enabled", "GOOGLE_SCHOLAR_ENABLED")
}

// TimeoutConfig holds every duration field of Config pre-parsed, mirroring
// the teacher's separation of string config fields from operational values.
type TimeoutConfig struct {
	Server       ServerTimeoutConfig
	CircuitOpen  time.Duration
	RetryInitial time.Duration
	RetryMax     time.Duration
}

type ServerTimeoutConfig struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// GetTimeoutConfig parses every duration string field, failing fast on a
// malformed value rather than silently falling back.
func (c *Config) GetTimeoutConfig() (*TimeoutConfig, error) {
	read, err := time.ParseDuration(orDefault(c.Server.ReadTimeout, "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid server read timeout: %w", err)
	}
	write, err := time.ParseDuration(orDefault(c.Server.WriteTimeout, "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid server write timeout: %w", err)
	}
	idle, err := time.ParseDuration(orDefault(c.Server.IdleTimeout, "120s"))
	if err != nil {
		return nil, fmt.Errorf("invalid server idle timeout: %w", err)
	}
	openDur, err := time.ParseDuration(orDefault(c.Circuit.OpenDuration, "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid circuit open duration: %w", err)
	}
	retryInit, err := time.ParseDuration(orDefault(c.Retry.InitialDelay, "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid retry initial delay: %w", err)
	}
	retryMax, err := time.ParseDuration(orDefault(c.Retry.MaxDelay, "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid retry max delay: %w", err)
	}

	return &TimeoutConfig{
		Server:       ServerTimeoutConfig{Read: read, Write: write, Idle: idle},
		CircuitOpen:  openDur,
		RetryInitial: retryInit,
		RetryMax:     retryMax,
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (c *Config) IsDevelopment() bool { return c.Server.Mode == "debug" }
func (c *Config) IsProduction() bool  { return c.Server.Mode == "release" }

// CacheDirectory resolves the cache root, falling back to
// ./.research-master/cache when unset.
func (c *Config) CacheDirectory() string {
	if c.Cache.Directory != "" {
		return c.Cache.Directory
	}
	return "./.research-master/cache"
}

// setDefaults mirrors spec.md §6's named defaults.
func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.enable_cors", true)
	viper.SetDefault("server.enable_metrics", false)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.directory", "./.research-master/cache")
	viper.SetDefault("cache.search_ttl_seconds", 1800)
	viper.SetDefault("cache.citation_ttl_seconds", 900)
	viper.SetDefault("cache.max_size_mb", 500)

	viper.SetDefault("downloads.default_path", "./downloads")
	viper.SetDefault("downloads.organize_by_source", true)
	viper.SetDefault("downloads.max_file_size_mb", 100)

	viper.SetDefault("rate_limits.default_requests_per_second", 5.0)
	viper.SetDefault("rate_limits.max_concurrent_requests", 10)

	viper.SetDefault("sources.enabled_sources", []string{})
	viper.SetDefault("sources.disabled_sources", []string{})

	viper.SetDefault("api_keys.google_scholar_enabled", false)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.add_source", false)
	viper.SetDefault("logging.output", "stdout")

	viper.SetDefault("circuit.enabled", true)
	viper.SetDefault("circuit.failure_threshold", 5)
	viper.SetDefault("circuit.success_threshold", 2)
	viper.SetDefault("circuit.open_duration", "60s")

	viper.SetDefault("retry.enabled", true)
	viper.SetDefault("retry.max_attempts", 3)
	viper.SetDefault("retry.initial_delay", "1s")
	viper.SetDefault("retry.max_delay", "30s")
	viper.SetDefault("retry.backoff_factor", 2.0)
	viper.SetDefault("retry.jitter", true)

	viper.SetDefault("rpc.http_enabled", true)
	viper.SetDefault("rpc.stdio_enabled", true)

	viper.SetDefault("health_store.enabled", false)
	viper.SetDefault("health_store.type", "sqlite")
	viper.SetDefault("health_store.dsn", "./.research-master/health.db")

	viper.SetDefault("events.enabled", false)
	viper.SetDefault("events.host", "127.0.0.1")
	viper.SetDefault("events.port", 4225)
}
