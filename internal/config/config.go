// Package config loads the chat client configuration.
//
// Precedence, lowest first: built-in defaults, the YAML config file,
// CHAT_* environment variables, command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/petasbytes/agent-chat/internal/provider"
	"github.com/petasbytes/agent-chat/memory"
	"github.com/petasbytes/agent-chat/tools"
)

// EnvPrefix is prepended to every environment override, e.g. CHAT_MEMORY_MAX_HISTORY.
const EnvPrefix = "CHAT"

// Config stores all configuration of the application.
type Config struct {
	Memory    MemoryConfig    `mapstructure:"memory"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	UI        UIConfig        `mapstructure:"ui"`
}

// MemoryConfig controls the persisted conversation log.
type MemoryConfig struct {
	MaxHistory  int    `mapstructure:"max_history"`  // turns retained
	StoragePath string `mapstructure:"storage_path"` // backing JSON file
}

// AgentConfig controls the model calls made per turn.
type AgentConfig struct {
	Model         string  `mapstructure:"model"`
	MaxTokens     int64   `mapstructure:"max_tokens"`
	Temperature   float64 `mapstructure:"temperature"`
	MaxSteps      int     `mapstructure:"max_steps"`      // model calls per turn, tool loops included
	ContextBudget int     `mapstructure:"context_budget"` // heuristic input tokens per call
	// ReplayHistory sends the stored conversation with each new message.
	// When false only the new message is sent.
	ReplayHistory bool   `mapstructure:"replay_history"`
	BaseURL       string `mapstructure:"base_url"`
	MaxRetries    int    `mapstructure:"max_retries"`
}

type ToolsConfig struct {
	ProfileName string `mapstructure:"profile_name"`
	ProfileBio  string `mapstructure:"profile_bio"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty: stderr in plain mode, chat.log with the TUI
	JSON  bool   `mapstructure:"json"`
}

type TelemetryConfig struct {
	Observe      bool   `mapstructure:"observe"`
	ArtifactsDir string `mapstructure:"artifacts_dir"`
}

type UIConfig struct {
	Plain bool `mapstructure:"plain"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"max-history":    "memory.max_history",
	"storage-path":   "memory.storage_path",
	"model":          "agent.model",
	"max-tokens":     "agent.max_tokens",
	"max-steps":      "agent.max_steps",
	"context-budget": "agent.context_budget",
	"replay-history": "agent.replay_history",
	"log-level":      "log.level",
	"log-file":       "log.file",
	"observe":        "telemetry.observe",
	"plain":          "ui.plain",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("memory.max_history", memory.DefaultMaxHistory)
	v.SetDefault("memory.storage_path", "conversation.json")

	v.SetDefault("agent.model", string(provider.DefaultModel))
	v.SetDefault("agent.max_tokens", 1024)
	v.SetDefault("agent.temperature", 0.0)
	v.SetDefault("agent.max_steps", 8)
	v.SetDefault("agent.context_budget", 8000)
	v.SetDefault("agent.replay_history", true)
	v.SetDefault("agent.base_url", "")
	v.SetDefault("agent.max_retries", 2)

	v.SetDefault("tools.profile_name", tools.DefaultProfileName)
	v.SetDefault("tools.profile_bio", tools.DefaultProfileBio)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.json", false)

	v.SetDefault("telemetry.observe", false)
	v.SetDefault("telemetry.artifacts_dir", ".agent")

	v.SetDefault("ui.plain", false)
}

// RegisterFlags adds the configuration flags to fs. Flag defaults are only
// shown in help; unset flags never override the file or environment.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file (default: ./config.yaml when present)")
	fs.Int("max-history", memory.DefaultMaxHistory, "maximum number of turns kept in the conversation log")
	fs.String("storage-path", "conversation.json", "conversation log location")
	fs.String("model", string(provider.DefaultModel), "Anthropic model name")
	fs.Int64("max-tokens", 1024, "maximum output tokens per model call")
	fs.Int("max-steps", 8, "maximum model calls per turn, tool loops included")
	fs.Int("context-budget", 8000, "estimated input-token budget per model call")
	fs.Bool("replay-history", true, "send the stored conversation with every message")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-file", "", "write logs to this file")
	fs.Bool("observe", false, "append telemetry events to <artifacts_dir>/events.jsonl")
	fs.Bool("plain", false, "use a line-based prompt instead of the terminal UI")
}

// Load resolves the configuration. fs may be nil; when set, its "config"
// flag names the config file.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configPath := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configPath = f.Value.String()
		}
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the chat client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Memory.MaxHistory < 1 {
		errs = append(errs, fmt.Errorf("memory.max_history must be at least 1, got %d", c.Memory.MaxHistory))
	}
	if strings.TrimSpace(c.Memory.StoragePath) == "" {
		errs = append(errs, errors.New("memory.storage_path must not be empty"))
	}
	if strings.TrimSpace(c.Agent.Model) == "" {
		errs = append(errs, errors.New("agent.model must not be empty"))
	}
	if c.Agent.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("agent.max_tokens must be positive, got %d", c.Agent.MaxTokens))
	}
	if c.Agent.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("agent.max_steps must be positive, got %d", c.Agent.MaxSteps))
	}
	if c.Agent.ContextBudget <= 0 {
		errs = append(errs, fmt.Errorf("agent.context_budget must be positive, got %d", c.Agent.ContextBudget))
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 1 {
		errs = append(errs, fmt.Errorf("agent.temperature must be within [0, 1], got %g", c.Agent.Temperature))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
