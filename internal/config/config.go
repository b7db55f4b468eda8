// Package config handles configuration loading for auto-codex.
// Configuration lives in .auto-codex/config.json at the repository root;
// unknown or malformed values are rejected at load time.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Worker-count clamp bounds.
const (
	MinAgents     = 1
	MaxAgents     = 16
	DefaultAgents = 4
)

// Config holds all configuration for auto-codex.
type Config struct {
	Agents   int            `mapstructure:"agents"`
	Commands CommandsConfig `mapstructure:"commands"`
	Codex    CodexConfig    `mapstructure:"codex"`
	Planning PlanningConfig `mapstructure:"planning"`
	Quality  QualityConfig  `mapstructure:"quality"`
}

// CommandsConfig holds project shell commands.
// Only Test is consumed by the run lifecycle; the other commands are loaded
// but not used.
type CommandsConfig struct {
	Setup  string `mapstructure:"setup"`
	Test   string `mapstructure:"test"`
	Lint   string `mapstructure:"lint"`
	Format string `mapstructure:"format"`
	Build  string `mapstructure:"build"`
	// TestShell runs the test command through a shell instead of argv splitting.
	TestShell bool `mapstructure:"test_shell"`
}

// CodexConfig holds executor invocation settings.
type CodexConfig struct {
	// Model is the executor model name.
	Model string `mapstructure:"model"`
	// Sandbox is "read-only" or "workspace-write".
	Sandbox string `mapstructure:"sandbox"`
	// WebSearch is "cached" or "live"; "live" also enables live search.
	WebSearch string `mapstructure:"web_search"`
	// NetworkAccess toggles workspace network access (workspace-write only).
	NetworkAccess bool `mapstructure:"network_access"`
	// ReasoningEffort is one of none, minimal, low, medium, high, xhigh.
	ReasoningEffort string `mapstructure:"reasoning_effort"`
	// FullAuto enables the executor's full-auto mode.
	FullAuto bool `mapstructure:"full_auto"`
	// APIKeysEnv names environment variables holding API keys, rotated per task.
	APIKeysEnv []string `mapstructure:"api_keys_env"`
}

// PlanningConfig holds clarification-stage settings (consumed externally).
type PlanningConfig struct {
	AskQuestions   bool `mapstructure:"ask_questions"`
	MaxQuestions   int  `mapstructure:"max_questions"`
	NonInteractive bool `mapstructure:"non_interactive"`
}

// QualityConfig holds post-merge quality gate settings.
type QualityConfig struct {
	// PlaceholderCheck is "off", "warn" or "fail".
	PlaceholderCheck string `mapstructure:"placeholder_check"`
	// PlaceholderTokens are substrings scanned in changed files post-merge.
	PlaceholderTokens []string `mapstructure:"placeholder_tokens"`
}

// reasoningEfforts is the closed set of accepted reasoning-effort values.
var reasoningEfforts = map[string]bool{
	"none":    true,
	"minimal": true,
	"low":     true,
	"medium":  true,
	"high":    true,
	"xhigh":   true,
}

// Path returns the config file path for a repository root.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, ".auto-codex", "config.json")
}

// Load reads .auto-codex/config.json under repoRoot.
// A missing file yields the defaults; a malformed file or value is an error.
func Load(repoRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	path := Path(repoRoot)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the loaded values, lower-casing closed-set fields and
// clamping the worker count.
func (c *Config) normalize() error {
	c.Agents = ClampAgents(c.Agents)

	c.Codex.Sandbox = strings.ToLower(strings.TrimSpace(c.Codex.Sandbox))
	switch c.Codex.Sandbox {
	case "read-only", "workspace-write":
	default:
		return fmt.Errorf("invalid codex.sandbox %q (expected read-only or workspace-write)", c.Codex.Sandbox)
	}

	c.Codex.WebSearch = strings.ToLower(strings.TrimSpace(c.Codex.WebSearch))
	switch c.Codex.WebSearch {
	case "cached", "live":
	default:
		return fmt.Errorf("invalid codex.web_search %q (expected cached or live)", c.Codex.WebSearch)
	}

	c.Codex.ReasoningEffort = strings.ToLower(strings.TrimSpace(c.Codex.ReasoningEffort))
	if !reasoningEfforts[c.Codex.ReasoningEffort] {
		return fmt.Errorf("invalid codex.reasoning_effort %q (expected one of none, minimal, low, medium, high, xhigh)", c.Codex.ReasoningEffort)
	}

	c.Quality.PlaceholderCheck = strings.ToLower(strings.TrimSpace(c.Quality.PlaceholderCheck))
	switch c.Quality.PlaceholderCheck {
	case "off", "warn", "fail":
	default:
		return fmt.Errorf("invalid quality.placeholder_check %q (expected off, warn or fail)", c.Quality.PlaceholderCheck)
	}

	if c.Codex.Model == "" {
		return fmt.Errorf("codex.model must not be empty")
	}
	return nil
}

// ClampAgents clamps a worker count into [MinAgents, MaxAgents].
// Zero and negative values fall back to the minimum.
func ClampAgents(n int) int {
	if n < MinAgents {
		return MinAgents
	}
	if n > MaxAgents {
		return MaxAgents
	}
	return n
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("agents", DefaultAgents)

	v.SetDefault("codex.model", "gpt-5.2-codex")
	v.SetDefault("codex.sandbox", "workspace-write")
	v.SetDefault("codex.web_search", "cached")
	v.SetDefault("codex.network_access", false)
	v.SetDefault("codex.reasoning_effort", "xhigh")
	v.SetDefault("codex.full_auto", true)

	v.SetDefault("planning.ask_questions", true)
	v.SetDefault("planning.max_questions", 5)
	v.SetDefault("planning.non_interactive", false)

	v.SetDefault("quality.placeholder_check", "warn")
	v.SetDefault("quality.placeholder_tokens", []string{})
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Agents: DefaultAgents,
		Codex: CodexConfig{
			Model:           "gpt-5.2-codex",
			Sandbox:         "workspace-write",
			WebSearch:       "cached",
			ReasoningEffort: "xhigh",
			FullAuto:        true,
		},
		Planning: PlanningConfig{
			AskQuestions: true,
			MaxQuestions: 5,
		},
		Quality: QualityConfig{
			PlaceholderCheck: "warn",
		},
	}
}
