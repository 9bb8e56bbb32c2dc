// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tool defines the abstract capability interface consumed by
// the agent loop and implemented by every built-in or third-party tool.
package tool

import (
	"context"
	"time"

	"github.com/agentcore-dev/agentcore/pkg/result"
)

// Tool is the capability contract every registered tool implements.
// Implementations must be safe for concurrent Run calls unless they
// document otherwise (a non-reentrant tool is the invocation layer's
// concern to serialize, not this interface's).
type Tool interface {
	// Name is the tool's unique canonical name.
	Name() string

	// Description is shown to the LLM to decide when to call this tool.
	Description() string

	// Parameters is the JSON schema for this tool's arguments.
	Parameters() map[string]any

	// Run executes the tool. It may suspend (network, subprocess,
	// filesystem) and must honor ctx cancellation.
	Run(ctx context.Context, args map[string]any) (result.ToolResult, error)

	// Cleanup releases any held resources (subprocesses, HTTP clients,
	// temp directories). Idempotent; called on agent reset or shutdown.
	Cleanup(ctx context.Context) error

	// Reset clears any per-conversation state. Idempotent; a no-op for
	// stateless tools.
	Reset(ctx context.Context) error

	// Aliases returns additional names this tool may be looked up by.
	Aliases() []string

	// Cacheable reports whether the invocation layer may memoize
	// results keyed on (name, canonical arguments). Tools with
	// observable side effects (shell, file writers, terminate) must
	// return false.
	Cacheable() bool

	// DefaultTTL is the cache entry lifetime when Cacheable is true.
	DefaultTTL() time.Duration

	// TimeoutOverride returns a non-zero duration to override the
	// invocation layer's default per-tool timeout, or 0 to use it.
	TimeoutOverride() time.Duration
}

// Base provides sane zero-value defaults for the optional parts of Tool
// (no aliases, not cacheable, no timeout override) so built-in tools
// only need to embed it and implement Name/Description/Parameters/Run.
type Base struct{}

func (Base) Cleanup(context.Context) error        { return nil }
func (Base) Reset(context.Context) error           { return nil }
func (Base) Aliases() []string                     { return nil }
func (Base) Cacheable() bool                       { return false }
func (Base) DefaultTTL() time.Duration             { return 0 }
func (Base) TimeoutOverride() time.Duration        { return 0 }
