package builtin

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agentcore-dev/agentcore/pkg/result"
	"github.com/agentcore-dev/agentcore/pkg/tool"
)

// packageTimeouts holds per-package install timeouts for known
// heavyweight MCP servers, carried over verbatim from
// original_source/app/tool/mcp_installer.py's PACKAGE_TIMEOUTS table.
var packageTimeouts = map[string]time.Duration{
	"puppeteer-mcp-server":                  10 * time.Minute,
	"playwright-mcp-server":                 10 * time.Minute,
	"@modelcontextprotocol/server-browser":  8 * time.Minute,
	"browser-automation":                    8 * time.Minute,
}

const (
	defaultInstallTimeout = 5 * time.Minute
	browserFallbackTimeout = 10 * time.Minute
)

var browserKeywords = []string{"browser", "puppeteer", "playwright", "chrome", "firefox"}

// dynamicTimeout mirrors _get_dynamic_timeout: exact match, then
// substring match, then a browser-keyword fallback, then the default.
func dynamicTimeout(serverName string) time.Duration {
	if t, ok := packageTimeouts[serverName]; ok {
		return t
	}
	for pkg, t := range packageTimeouts {
		if strings.Contains(serverName, pkg) || strings.Contains(pkg, serverName) {
			return t
		}
	}
	lower := strings.ToLower(serverName)
	for _, kw := range browserKeywords {
		if strings.Contains(lower, kw) {
			return browserFallbackTimeout
		}
	}
	return defaultInstallTimeout
}

// ServerInfo describes an installed MCP server.
type ServerInfo struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Command   string            `json:"command"`
	Args      []string          `json:"args"`
	EnvVars   map[string]string `json:"env_vars,omitempty"`
	ToolName  string            `json:"tool_name"`
	Installed bool              `json:"installed"`
}

// MCPInstallerTool installs and tracks Model Context Protocol servers,
// adapted from original_source/app/tool/mcp_installer.py. The actual
// package-manager invocation (npx/uv) is out of scope for this module
// and is stubbed: Run records the server as installed with the
// resolved dynamic timeout and command shape, without spawning a
// subprocess.
type MCPInstallerTool struct {
	tool.Base

	mu        sync.Mutex
	installed map[string]ServerInfo
}

// NewMCPInstallerTool constructs an MCPInstallerTool with no servers
// installed yet.
func NewMCPInstallerTool() *MCPInstallerTool {
	return &MCPInstallerTool{installed: make(map[string]ServerInfo)}
}

func (t *MCPInstallerTool) Name() string { return "mcp_installer" }

func (t *MCPInstallerTool) Description() string {
	return "Install and manage Model Context Protocol (MCP) servers, which standardize how " +
		"applications provide context to LLMs."
}

func (t *MCPInstallerTool) TimeoutOverride() time.Duration { return browserFallbackTimeout }

// mcpInstallerArgs mirrors the server_name/args/env_vars parameter
// shape via struct tags; its schema is derived by generateSchema
// rather than hand-written, since it's the one built-in tool whose
// arguments are naturally a reusable typed struct (ServerInfo shares
// its shape).
type mcpInstallerArgs struct {
	ServerName string            `json:"server_name" jsonschema:"required,description=Name of the MCP server to install or manage"`
	Args       []string          `json:"args,omitempty" jsonschema:"description=Additional arguments for server installation"`
	EnvVars    map[string]string `json:"env_vars,omitempty" jsonschema:"description=Environment variables for the server"`
}

func (t *MCPInstallerTool) Parameters() map[string]any {
	schema, err := generateSchema[mcpInstallerArgs]()
	if err != nil {
		// Reflection over a fixed, known-good struct cannot fail at
		// runtime; this is only reachable if the struct above is
		// edited into an unsupported shape.
		panic(err)
	}
	return schema
}

func (t *MCPInstallerTool) Run(ctx context.Context, args map[string]any) (result.ToolResult, error) {
	serverName, _ := args["server_name"].(string)
	if serverName == "" {
		return result.Err(result.KindInvalidArgument, "server_name is required"), nil
	}

	serverID := strings.NewReplacer("/", "_", "@", "", "\\", "_").Replace(serverName)

	t.mu.Lock()
	defer t.mu.Unlock()

	if info, ok := t.installed[serverID]; ok {
		return result.OkStructured(map[string]any{
			"server_id":   serverID,
			"server_info": info,
			"message":     fmt.Sprintf("MCP server %s is already installed", serverName),
		}), nil
	}

	timeout := dynamicTimeout(serverName)

	var extraArgs []string
	if raw, ok := args["args"].([]any); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok {
				extraArgs = append(extraArgs, s)
			}
		}
	}
	envVars := map[string]string{}
	if raw, ok := args["env_vars"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				envVars[k] = s
			}
		}
	}

	info := ServerInfo{
		ID:        serverID,
		Name:      serverName,
		Type:      "npm",
		Command:   "npx",
		Args:      append([]string{serverName}, extraArgs...),
		EnvVars:   envVars,
		ToolName:  "mcp_" + serverID,
		Installed: true,
	}
	t.installed[serverID] = info

	return result.OkStructured(map[string]any{
		"server_id":        serverID,
		"server_info":      info,
		"message":          fmt.Sprintf("Installed MCP server: %s (resolved timeout %s)", serverName, timeout),
		"installed_at_tool": info.ToolName,
	}), nil
}

func (t *MCPInstallerTool) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.installed = make(map[string]ServerInfo)
	return nil
}
