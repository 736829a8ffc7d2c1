package hooks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jg-phare/hookprio/pkg/types"
)

// Body is the Go function type for hook implementations. A non-nil result is
// cached by the coordinator for the hook's cache window.
type Body func(ctx context.Context, hookCtx types.Context) (any, error)

// Trigger selects the events, and optionally the tools, a hook runs for.
type Trigger struct {
	Event   types.HookEvent
	Matcher string // tool name pattern, empty = match all
}

// Definition binds a hook name to what it runs and when.
type Definition struct {
	Name     string
	Triggers []Trigger
	Body     Body   // Go implementation; takes precedence over Command
	Command  string // shell command, run with the context as JSON on stdin

	// Timeout, when positive, replaces the metadata timeout for each attempt.
	Timeout time.Duration
}

// applies reports whether d should run for event against toolName.
func (d Definition) applies(event types.HookEvent, toolName string) bool {
	for _, t := range d.Triggers {
		if t.Event != event {
			continue
		}
		if matchToolName(t.Matcher, toolName) {
			return true
		}
	}
	return false
}

// Result outcomes.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of one hook execution during a Fire.
type Result struct {
	Hook        string  `json:"hook"`
	ExecutionID string  `json:"execution_id,omitempty"`
	Status      string  `json:"status"`
	Attempts    int     `json:"attempts,omitempty"`
	DurationMs  float64 `json:"execution_time_ms"`
	Output      any     `json:"result,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// ShellResult is what a command hook produces.
type ShellResult struct {
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output"`
	Error    string `json:"error"`
}

// EventType distinguishes lifecycle events.
type EventType string

const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
)

// Event reports hook lifecycle transitions to an optional listener.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Type        EventType       `json:"type"`
	Hook        string          `json:"hook"`
	ExecutionID string          `json:"execution_id"`
	HookEvent   types.HookEvent `json:"hook_event"`
	Outcome     string          `json:"outcome,omitempty"` // set on completed
	Timestamp   time.Time       `json:"timestamp"`
}

// FireRecord summarizes one call to Fire.
type FireRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Event     types.HookEvent `json:"event_type"`
	HookCount int             `json:"hook_count"`
	TotalMs   float64         `json:"total_time_ms"`
	AgentID   string          `json:"agent_id"`
}
