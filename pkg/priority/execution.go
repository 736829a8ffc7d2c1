package priority

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jg-phare/hookprio/pkg/types"
)

// HookExecution is one admitted request to run a hook.
type HookExecution struct {
	HookName string
	// Priority is captured at enqueue time; later metadata changes do not
	// reorder executions already in the queue.
	Priority    int
	Context     types.Context
	Timestamp   time.Time
	ExecutionID string

	seq uint64 // insertion order, assigned by the scheduler
}

// NewExecution builds an execution outside the scheduler, for callers that
// track hooks they run directly.
func NewExecution(hookName string, priority int, ctx types.Context) *HookExecution {
	return newExecution(hookName, priority, ctx, time.Now())
}

func newExecution(hookName string, priority int, ctx types.Context, now time.Time) *HookExecution {
	return &HookExecution{
		HookName:    hookName,
		Priority:    priority,
		Context:     ctx,
		Timestamp:   now,
		ExecutionID: newExecutionID(now),
	}
}

// newExecutionID returns "<unix nanos>-<8 hex chars>".
func newExecutionID(ts time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("%d-%s", ts.UnixNano(), hex.EncodeToString(id[:4]))
}
