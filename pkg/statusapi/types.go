package statusapi

import (
	"time"

	"github.com/jg-phare/hookprio/pkg/hookconfig"
	"github.com/jg-phare/hookprio/pkg/hooks"
	"github.com/jg-phare/hookprio/pkg/priority"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse represents a generic success response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	AgentID   string `json:"agent_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HookDetail is one hook's metadata with its cache and timing state.
type HookDetail struct {
	hookconfig.HookMetadata
	Cached      bool                `json:"cached"`
	CachedAt    *time.Time          `json:"cached_at,omitempty"`
	Performance *priority.PerfStats `json:"performance,omitempty"`
}

// PriorityRequest is the body of a priority change.
type PriorityRequest struct {
	Priority *int `json:"priority"`
	// Persist also writes the new priority to the override file.
	Persist bool `json:"persist,omitempty"`
}

// ExpireResponse lists the executions released by an expiry sweep.
type ExpireResponse struct {
	Expired []ExpiredExecution `json:"expired"`
}

// ExpiredExecution identifies one released execution.
type ExpiredExecution struct {
	Hook        string    `json:"hook"`
	ExecutionID string    `json:"execution_id"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// RunnerResponse is the dispatcher status with the most recent fires.
type RunnerResponse struct {
	hooks.RunnerStatus
	RecentFires []hooks.FireRecord `json:"recent_fires"`
}
