// Command agentcore is a thin CLI front-end over pkg/agent.Run: load
// configuration, wire the message store, tool registry, and LLM
// client it describes, then drive a single agent turn against a
// prompt. It stays deliberately thin: the framework lives in pkg/,
// this file only wires it together the way the teacher's
// cmd/hector/main.go wires pkg/runtime.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/redis/go-redis/v9"

	"github.com/agentcore-dev/agentcore/pkg/agent"
	"github.com/agentcore-dev/agentcore/pkg/config"
	"github.com/agentcore-dev/agentcore/pkg/llm"
	"github.com/agentcore-dev/agentcore/pkg/logger"
	"github.com/agentcore-dev/agentcore/pkg/message"
	"github.com/agentcore-dev/agentcore/pkg/plan"
	"github.com/agentcore-dev/agentcore/pkg/result"
	"github.com/agentcore-dev/agentcore/pkg/toolset"
	"github.com/agentcore-dev/agentcore/pkg/toolset/builtin"
)

// CLI is the top-level kong command tree.
type CLI struct {
	Config   string `short:"c" help:"Path to config file." type:"path" default:"agentcore.yaml"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:""`

	Run      RunCmd      `cmd:"" help:"Run the agent once against a prompt."`
	Validate ValidateCmd `cmd:"" help:"Validate the configuration file."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// RunCmd drives a single agent turn.
type RunCmd struct {
	Prompt  string `arg:"" help:"Prompt to send to the agent."`
	Mode    string `help:"Agent mode: action or plan." default:"action"`
	Timeout string `help:"Overall run timeout (e.g. 60s, 2m)." default:"2m"`
}

func (c *RunCmd) Run(cli *CLI) error {
	cfg, log, err := loadConfigAndLogger(cli)
	if err != nil {
		return err
	}

	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid --timeout: %w", err)
	}

	a, err := buildAgent(cfg, log)
	if err != nil {
		return err
	}

	mode := agent.ModeAction
	if c.Mode == string(agent.ModePlan) {
		mode = agent.ModePlan
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("received interrupt, cancelling run")
		cancel()
	}()

	res, err := a.Run(ctx, c.Prompt, mode)
	if err != nil {
		if kind, ok := result.KindOf(err); ok {
			return fmt.Errorf("%s: %w", kind, err)
		}
		return err
	}

	fmt.Println(res.Response)
	if res.Status != result.StatusSuccess {
		return fmt.Errorf("agent run ended with status %s (%s)", res.Status, res.ErrorKind)
	}
	return nil
}

// ValidateCmd checks that the config file parses and passes validation.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	if _, err := config.Load(cli.Config); err != nil {
		return err
	}
	fmt.Printf("%s is valid\n", cli.Config)
	return nil
}

// VersionCmd prints build version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	fmt.Println("agentcore (dev)")
	return nil
}

func loadConfigAndLogger(cli *CLI) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if cli.LogLevel != "" {
		level = cli.LogLevel
	}
	log := logger.New(os.Stderr, logger.ParseLevel(level))
	return cfg, log, nil
}

// buildAgent constructs the full dependency graph described by cfg: an
// LLM client for the configured provider, a message store sized to the
// agent's token budget, a tool registry with the enabled built-in
// tools plus the planning tool, an invocation layer, and finally the
// Agent itself.
func buildAgent(cfg *config.Config, log *slog.Logger) (*agent.Agent, error) {
	client, err := buildLLMClient(cfg)
	if err != nil {
		return nil, err
	}

	mem := message.New(defaultMessageBudget)

	// The plan tool's execute_step hook needs to delegate to the Agent
	// being built here, but the Agent itself needs the tool registry
	// (with the plan tool already in it) constructed first. Give
	// registerEnabledTools a step executor that closes over `a` and
	// assign `a` once agent.New returns, rather than threading the
	// Agent through a second constructor pass.
	var a *agent.Agent
	exec := func(ctx context.Context, step string) (string, error) {
		res, runErr := a.Run(ctx, step, agent.ModeAction)
		if runErr != nil {
			return "", runErr
		}
		if res.Status != result.StatusSuccess {
			return "", fmt.Errorf("step delegation ended with status %s (%s)", res.Status, res.ErrorKind)
		}
		return res.Response, nil
	}

	reg := toolset.New()
	if err := registerEnabledTools(reg, cfg, log, client, exec); err != nil {
		return nil, err
	}

	cache, err := buildCache(cfg)
	if err != nil {
		return nil, err
	}
	inv := toolset.NewInvoker(reg, cache)

	acfg := agent.Config{
		MaxIterations:  cfg.Agent.MaxIterations,
		SystemPrompt:   cfg.Agent.SystemPrompt,
		Model:          cfg.LLM.Model,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		RetryAttempts:  cfg.Agent.RetryAttempts,
		RetryBaseDelay: cfg.Agent.RetryBaseDelay,
		RetryMaxDelay:  cfg.Agent.RetryMaxDelay,
	}
	built, err := agent.New(acfg, mem, reg, inv, client, log)
	if err != nil {
		return nil, err
	}
	a = built
	return a, nil
}

// defaultMessageBudget is the rolling memory's token ceiling, large
// enough for a representative multi-turn tool-calling session without
// unbounded growth.
const defaultMessageBudget = 16000

func buildLLMClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case config.LLMProviderAnthropic:
		return llm.NewAnthropicClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.MaxTokens)
	default:
		return llm.NewOpenAICompatibleClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, nil), nil
	}
}

// buildCache constructs the tool-result cache backend named by
// cfg.Tools.CacheBackend: an in-process MemoryCache, or a RedisCache
// shared across agentcore processes.
func buildCache(cfg *config.Config) (toolset.Cache, error) {
	switch cfg.Tools.CacheBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Tools.CacheRedisAddr})
		return toolset.NewRedisCache(client, "agentcore:toolcache:"), nil
	default:
		return toolset.NewMemoryCache(), nil
	}
}

func registerEnabledTools(reg *toolset.Registry, cfg *config.Config, log *slog.Logger, client llm.Client, stepExec plan.StepExecutor) error {
	enabled := make(map[string]bool, len(cfg.Tools.Enabled))
	for _, name := range cfg.Tools.Enabled {
		enabled[name] = true
	}

	if enabled["bash"] {
		if err := reg.Register(builtin.NewBashTool("", cfg.Tools.DefaultTimeout)); err != nil {
			return fmt.Errorf("register bash tool: %w", err)
		}
	}
	if enabled["terminate"] {
		if err := reg.Register(builtin.NewTerminateTool(log)); err != nil {
			return fmt.Errorf("register terminate tool: %w", err)
		}
	}
	if enabled["web_search"] {
		if err := reg.Register(builtin.NewWebSearchTool("", "", 5)); err != nil {
			return fmt.Errorf("register web_search tool: %w", err)
		}
	}
	if enabled["mcp_installer"] {
		if err := reg.Register(builtin.NewMCPInstallerTool()); err != nil {
			return fmt.Errorf("register mcp_installer tool: %w", err)
		}
	}
	if enabled["plan"] {
		store, err := plan.NewStore(cfg.Plan.Directory, log)
		if err != nil {
			return fmt.Errorf("open plan store: %w", err)
		}
		if err := reg.Register(plan.NewTool(store, client, stepExec)); err != nil {
			return fmt.Errorf("register plan tool: %w", err)
		}
	}
	return nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("agentcore"),
		kong.Description("agentcore - LLM-driven agent runtime"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
