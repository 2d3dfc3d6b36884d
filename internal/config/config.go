package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "SPORT_DIGEST_CONFIG"
	portEnv           = "PORT"
	storagePathEnv    = "STORAGE_PATH"
	archiveDSNEnv     = "DATABASE_DSN"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	searchEndpointEnv = "SEARCH_ENDPOINT"
	sportsAPIKeyEnv   = "SPORTS_API_KEY"
	sportsAPIURLEnv   = "SPORTS_API_URL"
	logLevelEnv       = "LOG_LEVEL"
	logFormatEnv      = "LOG_FORMAT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Archive   ArchiveConfig   `yaml:"archive"`
	ChatGPT   ChatGPTConfig   `yaml:"chatgpt"`
	Search    SearchConfig    `yaml:"search"`
	SportsAPI SportsAPIConfig `yaml:"sportsApi"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig controls log verbosity and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig locates the JSON profile store.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ArchiveConfig describes the optional Postgres digest archive.
type ArchiveConfig struct {
	DSN string `yaml:"dsn"`
}

// ChatGPTConfig defines how to contact an OpenAI-compatible chat API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// SearchConfig wires the web-search fallback tier.
type SearchConfig struct {
	Endpoint   string `yaml:"endpoint"`
	MaxResults int    `yaml:"maxResults"`
}

// SportsAPIConfig describes the structured sports data source.
type SportsAPIConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
}

// PipelineConfig bounds the orchestration run.
type PipelineConfig struct {
	BranchTimeoutSeconds   int `yaml:"branchTimeoutSeconds"`
	ResolverTimeoutSeconds int `yaml:"resolverTimeoutSeconds"`
}

// BranchTimeout returns the per-branch deadline for one orchestration run.
func (p PipelineConfig) BranchTimeout() time.Duration {
	if p.BranchTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(p.BranchTimeoutSeconds) * time.Second
}

// ResolverTimeout bounds each individual tier attempt inside a branch.
func (p PipelineConfig) ResolverTimeout() time.Duration {
	if p.ResolverTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(p.ResolverTimeoutSeconds) * time.Second
}

// SchedulerConfig holds defaults applied when a profile omits delivery data.
type SchedulerConfig struct {
	DefaultDeliveryTime string         `yaml:"defaultDeliveryTime"`
	DefaultTimezone     string         `yaml:"defaultTimezone"`
	location            *time.Location `yaml:"-"`
}

// Location resolves the default timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(portEnv); v != "" {
		c.Server.Port = v
	}

	if v := os.Getenv(storagePathEnv); v != "" {
		c.Storage.Path = v
	}

	if v := os.Getenv(archiveDSNEnv); v != "" {
		c.Archive.DSN = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(searchEndpointEnv); v != "" {
		c.Search.Endpoint = v
	}

	if v := os.Getenv(sportsAPIKeyEnv); v != "" {
		c.SportsAPI.APIKey = v
	}

	if v := os.Getenv(sportsAPIURLEnv); v != "" {
		c.SportsAPI.BaseURL = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.DefaultTimezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Server.Port != "" {
		base.Server = override.Server
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Storage.Path != "" {
		base.Storage = override.Storage
	}

	if override.Archive.DSN != "" {
		base.Archive = override.Archive
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}

	if override.Search.Endpoint != "" {
		base.Search.Endpoint = override.Search.Endpoint
	}
	if override.Search.MaxResults > 0 {
		base.Search.MaxResults = override.Search.MaxResults
	}

	if override.SportsAPI.BaseURL != "" {
		base.SportsAPI.BaseURL = override.SportsAPI.BaseURL
	}
	if override.SportsAPI.APIKey != "" {
		base.SportsAPI.APIKey = override.SportsAPI.APIKey
	}

	if override.Pipeline.BranchTimeoutSeconds > 0 {
		base.Pipeline.BranchTimeoutSeconds = override.Pipeline.BranchTimeoutSeconds
	}
	if override.Pipeline.ResolverTimeoutSeconds > 0 {
		base.Pipeline.ResolverTimeoutSeconds = override.Pipeline.ResolverTimeoutSeconds
	}

	if override.Scheduler.DefaultDeliveryTime != "" {
		base.Scheduler.DefaultDeliveryTime = override.Scheduler.DefaultDeliveryTime
	}
	if override.Scheduler.DefaultTimezone != "" {
		base.Scheduler.DefaultTimezone = override.Scheduler.DefaultTimezone
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Server:  ServerConfig{Port: "8080"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{Path: "./data/user_preferences.json"},
		Archive: ArchiveConfig{DSN: ""},
		ChatGPT: ChatGPTConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			APIKey:       "",
			SystemPrompt: "You are a concise sports information assistant.",
		},
		Search:    SearchConfig{Endpoint: "https://html.duckduckgo.com/html/", MaxResults: 3},
		SportsAPI: SportsAPIConfig{BaseURL: "", APIKey: ""},
		Pipeline:  PipelineConfig{BranchTimeoutSeconds: 60, ResolverTimeoutSeconds: 15},
		Scheduler: SchedulerConfig{
			DefaultDeliveryTime: "07:00",
			DefaultTimezone:     defaultTimezone,
			location:            tz,
		},
	}
}
