// Package result defines the tagged result and error taxonomy shared by
// every component in agentcore: the agent loop, the tool registry and
// invocation layer, the message store, and the planning tool all return
// (or wrap) values from this package instead of ad-hoc error strings.
package result

import (
	"fmt"
	"time"
)

// Kind classifies an Error by its origin, per the error-handling design.
// Exactly one Kind applies to any given Error.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not-found"
	KindAlreadyRegistered Kind = "already-registered"
	KindArgumentParse     Kind = "argument-parse"
	KindInvalidArgument   Kind = "invalid-argument"
	KindExecution         Kind = "execution"
	KindTimeout           Kind = "timeout"
	KindPolicyBlocked     Kind = "policy-blocked"
	KindLoop              Kind = "loop"
	KindLLMConnection     Kind = "llm-connection"
	KindCancelled         Kind = "cancelled"
	KindIO                Kind = "io"
)

// Error is the concrete error type carried by every component. Ctx holds
// free-form structured context (argument_name, pid, command, elapsed, …)
// that callers may inspect without parsing Msg.
type Error struct {
	Kind Kind
	Msg  string
	Ctx  map[string]any
	Err  error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error of the given kind wrapping an existing error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// WithCtx attaches structured context and returns the same Error for
// chaining: result.New(KindTimeout, "tool timed out").WithCtx("pid", 123).
func (e *Error) WithCtx(key string, value any) *Error {
	if e.Ctx == nil {
		e.Ctx = make(map[string]any)
	}
	e.Ctx[key] = value
	return e
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, and
// reports whether one was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return "", false
	}
	return e.Kind, true
}

// Status is the tagged status of a ToolResult.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
	StatusTimeout   Status = "timeout"
	StatusTerminate Status = "terminate"
)

// Meta carries the optional execution metadata a ToolResult may report.
type Meta struct {
	ToolName      string        `json:"tool_name,omitempty"`
	ExecutionTime time.Duration `json:"execution_time,omitempty"`
	PID           int           `json:"pid,omitempty"`
	Command       string        `json:"command,omitempty"`
}

// ToolResult is the normalized, tagged union produced by the tool
// invocation layer and appended to the message store as a tool-role
// message's content.
type ToolResult struct {
	Status     Status `json:"status"`
	Content    string `json:"content,omitempty"`
	// Structured holds a non-string payload when the underlying tool
	// returned a map or other structured value rather than plain text.
	Structured any    `json:"structured,omitempty"`
	ErrorKind  Kind   `json:"error_kind,omitempty"`
	Message    string `json:"message,omitempty"`
	Meta       Meta   `json:"meta,omitempty"`
}

// IsTerminal reports R1: a terminate status signals the agent loop to
// exit after appending this result.
func (r ToolResult) IsTerminal() bool { return r.Status == StatusTerminate }

// Ok builds a successful ToolResult with plain-text content.
func Ok(content string) ToolResult {
	return ToolResult{Status: StatusSuccess, Content: content}
}

// OkStructured builds a successful ToolResult wrapping a structured value.
func OkStructured(v any) ToolResult {
	return ToolResult{Status: StatusSuccess, Structured: v}
}

// Err builds an error ToolResult.
func Err(kind Kind, message string) ToolResult {
	return ToolResult{Status: StatusError, ErrorKind: kind, Message: message}
}

// Timeout builds a timeout ToolResult carrying the captured metadata.
func Timeout(message string, meta Meta) ToolResult {
	return ToolResult{Status: StatusTimeout, ErrorKind: KindTimeout, Message: message, Meta: meta}
}

// Terminate builds a terminate ToolResult.
func Terminate(message string) ToolResult {
	return ToolResult{Status: StatusTerminate, Content: message}
}
