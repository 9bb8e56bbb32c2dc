// Package config loads and validates agentcore's runtime configuration
// from a YAML file, with ${VAR}/${VAR:-default} environment expansion
// applied the way the teacher's pkg/config does it, scoped down to the
// file provider only: agentcore has one process reading one local
// file, not the teacher's consul/etcd/zookeeper-backed multi-node
// deployment story.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config is the root configuration document for one agentcore process.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Agent   AgentConfig   `yaml:"agent"`
	Tools   ToolsConfig   `yaml:"tools"`
	Plan    PlanConfig    `yaml:"plan"`
	Logging LoggingConfig `yaml:"logging"`
}

// SetDefaults fills every zero-valued field across the whole document.
func (c *Config) SetDefaults() {
	c.LLM.SetDefaults()
	c.Agent.SetDefaults()
	c.Tools.SetDefaults()
	c.Plan.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks the whole document after defaults have been applied.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Tools.Validate(); err != nil {
		return fmt.Errorf("tools: %w", err)
	}
	if err := c.Plan.Validate(); err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// LLMProvider identifies which backend pkg/llm constructs.
type LLMProvider string

const (
	LLMProviderOpenAICompatible LLMProvider = "openai-compatible"
	LLMProviderAnthropic        LLMProvider = "anthropic"
)

// LLMConfig configures the single LLM client the agent loop drives.
type LLMConfig struct {
	Provider    LLMProvider `yaml:"provider,omitempty"`
	Model       string      `yaml:"model,omitempty"`
	APIKey      string      `yaml:"api_key,omitempty"`
	BaseURL     string      `yaml:"base_url,omitempty"`
	Temperature float64     `yaml:"temperature,omitempty"`
	MaxTokens   int         `yaml:"max_tokens,omitempty"`
}

// SetDefaults mirrors the teacher's LLMConfig.SetDefaults, scoped to
// the two providers this module implements.
func (c *LLMConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = detectProviderFromEnv()
	}
	if c.Model == "" {
		switch c.Provider {
		case LLMProviderAnthropic:
			c.Model = "claude-sonnet-4-20250514"
		default:
			c.Model = "gpt-4o-mini"
		}
	}
	if c.APIKey == "" {
		c.APIKey = apiKeyFromEnv(c.Provider)
	}
	if c.Temperature == 0 {
		c.Temperature = 0.5
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
}

func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case LLMProviderOpenAICompatible, LLMProviderAnthropic:
	default:
		return fmt.Errorf("invalid provider %q (valid: openai-compatible, anthropic)", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required for provider %q", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be >= 1")
	}
	return nil
}

func detectProviderFromEnv() LLMProvider {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return LLMProviderAnthropic
	}
	return LLMProviderOpenAICompatible
}

func apiKeyFromEnv(provider LLMProvider) string {
	switch provider {
	case LLMProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

// AgentConfig configures the agent control loop.
type AgentConfig struct {
	MaxIterations  int           `yaml:"max_iterations,omitempty"`
	SystemPrompt   string        `yaml:"system_prompt,omitempty"`
	RetryAttempts  int           `yaml:"retry_attempts,omitempty"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay,omitempty"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay,omitempty"`
}

func (c *AgentConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 15
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.RetryMaxDelay == 0 {
		c.RetryMaxDelay = 8 * time.Second
	}
}

func (c *AgentConfig) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be > 0")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("retry_attempts must be > 0")
	}
	return nil
}

// ToolsConfig configures the tool registry and invocation layer.
type ToolsConfig struct {
	Enabled          []string      `yaml:"enabled,omitempty"`
	DefaultTimeout   time.Duration `yaml:"default_timeout,omitempty"`
	CacheBackend     string        `yaml:"cache_backend,omitempty"` // "memory" | "redis"
	CacheRedisAddr   string        `yaml:"cache_redis_addr,omitempty"`
	BashAllowlist    []string      `yaml:"bash_allowlist,omitempty"`
}

func (c *ToolsConfig) SetDefaults() {
	if len(c.Enabled) == 0 {
		c.Enabled = []string{"bash", "terminate", "web_search", "mcp_installer", "plan"}
	}
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = 30 * time.Second
	}
	if c.CacheBackend == "" {
		c.CacheBackend = "memory"
	}
}

func (c *ToolsConfig) Validate() error {
	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid cache_backend %q (valid: memory, redis)", c.CacheBackend)
	}
	if c.CacheBackend == "redis" && c.CacheRedisAddr == "" {
		return fmt.Errorf("cache_redis_addr is required when cache_backend is \"redis\"")
	}
	return nil
}

// PlanConfig configures the planning tool's persistence directory.
type PlanConfig struct {
	Directory string `yaml:"directory,omitempty"`
	Watch     bool   `yaml:"watch,omitempty"`
}

func (c *PlanConfig) SetDefaults() {
	if c.Directory == "" {
		c.Directory = "./plans"
	}
}

func (c *PlanConfig) Validate() error { return nil }

// LoggingConfig configures pkg/logger.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // "text" | "json"; validated only: logger.New always writes JSON
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

func (c *LoggingConfig) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q (valid: text, json)", c.Format)
	}
	return nil
}
