package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spetersoncode/probe"
	"github.com/spetersoncode/probe/server"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "2m", or from integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration: %s", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Config is the runner configuration loaded from a YAML file, with API
// keys taken from the environment.
type Config struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	MaxTurns     int      `yaml:"maxTurns"`
	MaxRetries   int      `yaml:"maxRetries"`
	Timeout      Duration `yaml:"timeout"`
	Instructions string   `yaml:"instructions"`
	RateLimit    float64  `yaml:"rateLimit"`
	AllowedTools []string `yaml:"allowedTools"`
	MaxTokens    int      `yaml:"maxTokens"`
	LogLevel     string   `yaml:"logLevel"`

	Servers []ServerConfig `yaml:"servers"`

	// APIKey is resolved from the environment, never from the file.
	APIKey string `yaml:"-"`
}

// ServerConfig describes one tool server entry in the YAML file.
type ServerConfig struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	Dir     string            `yaml:"dir"`

	StartTimeout Duration `yaml:"startTimeout"`
	StopTimeout  Duration `yaml:"stopTimeout"`

	Readiness ReadinessConfig `yaml:"readiness"`
}

// ReadinessConfig selects at most one readiness strategy.
type ReadinessConfig struct {
	// Tools lists tool names that must appear in the server's tool list.
	Tools []string `yaml:"tools"`
	// LogPattern is a regexp matched against subprocess stderr lines.
	LogPattern string `yaml:"logPattern"`
	// Delay waits a fixed duration after the session is initialized.
	Delay Duration `yaml:"delay"`
}

func (r ReadinessConfig) strategy() server.ReadinessStrategy {
	switch {
	case len(r.Tools) > 0:
		return server.NamedTools(r.Tools...)
	case r.LogPattern != "":
		return server.LogPattern(r.LogPattern)
	case r.Delay > 0:
		return server.FixedDelay(time.Duration(r.Delay))
	default:
		return nil
	}
}

func (s ServerConfig) serverConfig() server.Config {
	return server.Config{
		Name:         s.Name,
		Command:      s.Command,
		Args:         s.Args,
		Env:          s.Env,
		Dir:          s.Dir,
		StartTimeout: time.Duration(s.StartTimeout),
		StopTimeout:  time.Duration(s.StopTimeout),
		Readiness:    s.Readiness.strategy(),
	}
}

// LoadConfig reads the YAML file at path and resolves the provider API
// key from the environment. A .env file is loaded first if present.
func LoadConfig(path string) (*Config, error) {
	godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{MaxTurns: 10, Timeout: Duration(2 * time.Minute)}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	switch probe.Provider(cfg.Provider) {
	case probe.ProviderAnthropic:
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case probe.ProviderOpenAI:
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	case probe.ProviderGoogle:
		cfg.APIKey = os.Getenv("GOOGLE_API_KEY")
	default:
		return nil, fmt.Errorf("unknown provider: %q (must be anthropic, openai, or google)", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key in environment for provider %s", cfg.Provider)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("config requires a model")
	}

	return cfg, nil
}
