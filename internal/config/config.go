package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Entities       []string       `yaml:"entities"`
	DataDir        string         `yaml:"data_dir"`
	ReportDir      string         `yaml:"report_dir"`
	Clustering     Clustering     `yaml:"clustering"`
	Embedding      Embedding      `yaml:"embedding"`
	Interpretation Interpretation `yaml:"interpretation"`
	Collect        Collect        `yaml:"collect"`
	History        History        `yaml:"history"`
	Logging        Logging        `yaml:"logging"`
}

type Clustering struct {
	Method            string  `yaml:"method"`
	MinTopicSize      int     `yaml:"min_topic_size"`
	MinSamples        int     `yaml:"min_samples"`
	ReduceDims        int     `yaml:"reduce_dims"`
	Seed              uint64  `yaml:"seed"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
	TopKeywords       int     `yaml:"top_keywords"`
}

type Embedding struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
}

type Interpretation struct {
	Provider                string  `yaml:"provider"`
	Model                   string  `yaml:"model"`
	OllamaURL               string  `yaml:"ollama_url"`
	OpenAIModel             string  `yaml:"openai_model"`
	AnthropicModel          string  `yaml:"anthropic_model"`
	APIKeyEnv               string  `yaml:"api_key_env"`
	MaxInterpretationTokens int     `yaml:"max_interpretation_tokens"`
	SamplingTemperature     float64 `yaml:"sampling_temperature"`
	TimeoutSeconds          int     `yaml:"timeout_seconds"`
}

type Collect struct {
	RedditLimit       int     `yaml:"reddit_limit"`
	NewsLimit         int     `yaml:"news_limit"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent"`
}

type History struct {
	Path string `yaml:"path"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for signaltopics.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "signaltopics")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/signaltopics/config.yaml > ./config.yaml.
// An empty path with a nil error means no file exists and the embedded
// defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path loads the
// embedded defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(DefaultConfigYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Entities: []string{"Grip Security", "Wiz", "AppOmni", "Valence Security"},
		DataDir:  "data",
		Clustering: Clustering{
			Method:            "hdbscan",
			MinTopicSize:      2,
			Seed:              42,
			DistanceThreshold: 1.2,
			TopKeywords:       10,
		},
		Embedding: Embedding{
			Provider:    "ollama",
			Model:       "all-minilm",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "text-embedding-3-small",
			APIKeyEnv:   "OPENAI_API_KEY",
		},
		Interpretation: Interpretation{
			Provider:                "ollama",
			Model:                   "orca-mini:3b",
			OllamaURL:               "http://localhost:11434",
			OpenAIModel:             "gpt-4o-mini",
			AnthropicModel:          "claude-haiku-4-5",
			MaxInterpretationTokens: 100,
			SamplingTemperature:     0.7,
			TimeoutSeconds:          120,
		},
		Collect: Collect{
			RedditLimit:       30,
			NewsLimit:         5,
			RequestsPerSecond: 0.5,
			UserAgent:         "Mozilla/5.0",
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the recognized options for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if len(c.Entities) == 0 {
		return fmt.Errorf("config: at least one entity is required")
	}
	for _, e := range c.Entities {
		if strings.TrimSpace(e) == "" {
			return fmt.Errorf("config: entity names must not be blank")
		}
	}
	if c.Clustering.MinTopicSize < 1 {
		return fmt.Errorf("config: clustering.min_topic_size must be >= 1, got %d", c.Clustering.MinTopicSize)
	}
	switch strings.ToLower(c.Clustering.Method) {
	case "hdbscan", "ward":
	default:
		return fmt.Errorf("config: unknown clustering.method %q", c.Clustering.Method)
	}
	switch strings.ToLower(c.Embedding.Provider) {
	case "ollama", "openai":
	default:
		return fmt.Errorf("config: unknown embedding.provider %q", c.Embedding.Provider)
	}
	switch strings.ToLower(c.Interpretation.Provider) {
	case "ollama", "openai", "anthropic":
	default:
		return fmt.Errorf("config: unknown interpretation.provider %q", c.Interpretation.Provider)
	}
	if c.Interpretation.MaxInterpretationTokens < 1 {
		return fmt.Errorf("config: interpretation.max_interpretation_tokens must be >= 1")
	}
	if c.Interpretation.SamplingTemperature < 0 {
		return fmt.Errorf("config: interpretation.sampling_temperature must not be negative")
	}
	return nil
}

// GetReportDir returns the directory reports are written to.
func (c *Config) GetReportDir() string {
	if c.ReportDir != "" {
		return c.ReportDir
	}
	return c.DataDir
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
