// Package priority decides whether, and in what order, hooks run.
//
// A Coordinator combines the hook metadata store with a result cache, an
// in-flight tracker, a priority queue and a per-hook duration window. It never
// runs hook bodies itself; callers dequeue executions, run them however they
// like and report back with MarkExecuting and MarkCompleted.
//
// Locks are always taken in the order config store, result cache, tracker,
// scheduler. No method holds a lock while calling out to user code.
package priority

import (
	"time"

	"github.com/jg-phare/hookprio/pkg/hookconfig"
	"github.com/jg-phare/hookprio/pkg/types"
	"go.uber.org/zap"
)

// denial reasons, used in logs
const (
	reasonCached      = "cached"
	reasonExclusive   = "exclusive"
	reasonMaxParallel = "max_parallel"
)

// Coordinator is safe for concurrent use.
type Coordinator struct {
	agentID string
	config  *hookconfig.Store
	cache   *resultCache
	tracker *tracker
	queue   *scheduler
	perf    *Recorder
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithAgentID tags status reports with the owning agent.
func WithAgentID(id string) Option {
	return func(c *Coordinator) { c.agentID = id }
}

// WithConfigStore uses store instead of a fresh store seeded with defaults.
func WithConfigStore(store *hookconfig.Store) Option {
	return func(c *Coordinator) { c.config = store }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithLogger sets the logger for admission and completion events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New creates a Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		cache:   newResultCache(),
		tracker: newTracker(),
		queue:   newScheduler(),
		perf:    NewRecorder(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.config == nil {
		c.config = hookconfig.NewStore(hookconfig.WithLogger(c.logger))
	}
	return c
}

// AgentID returns the id given by WithAgentID.
func (c *Coordinator) AgentID() string { return c.agentID }

// Config returns the metadata store backing admission decisions.
func (c *Coordinator) Config() *hookconfig.Store { return c.config }

// Metadata returns the metadata for name, or defaults at LowestPriority for
// hooks the store does not know.
func (c *Coordinator) Metadata(name string) hookconfig.HookMetadata {
	if m, ok := c.config.Get(name); ok {
		return m
	}
	return hookconfig.NewMetadata(name, hookconfig.LowestPriority)
}

// ShouldExecute reports whether name may be admitted now. Hooks without
// metadata are always allowed. The context is accepted for callers that pass
// it through and does not affect the decision.
func (c *Coordinator) ShouldExecute(name string, _ types.Context) bool {
	var ok bool
	c.config.View(name, func(meta hookconfig.HookMetadata, known bool) {
		c.cache.mu.Lock()
		defer c.cache.mu.Unlock()
		c.tracker.mu.Lock()
		defer c.tracker.mu.Unlock()
		ok, _ = c.admitLocked(meta, known)
	})
	return ok
}

// admitLocked evaluates the admission rules in order. Caller holds the cache
// and tracker locks.
func (c *Coordinator) admitLocked(meta hookconfig.HookMetadata, known bool) (bool, string) {
	if !known {
		return true, ""
	}
	if c.cache.freshLocked(meta.Name, meta.CacheTTL(), c.now()) {
		return false, reasonCached
	}
	outstanding := c.tracker.countLocked(meta.Name)
	if !meta.ConcurrentSafe && outstanding > 0 {
		return false, reasonExclusive
	}
	if meta.MaxParallel != nil && outstanding >= *meta.MaxParallel {
		return false, reasonMaxParallel
	}
	return true, ""
}

// Enqueue admits name and queues an execution for it. It returns false, and
// queues nothing, when admission is denied. The admission check and the
// registration of the new execution happen atomically, so two concurrent
// calls cannot both get past an exclusivity or parallelism limit.
func (c *Coordinator) Enqueue(name string, ctx types.Context) (*HookExecution, bool) {
	var (
		exec   *HookExecution
		reason string
	)
	c.config.View(name, func(meta hookconfig.HookMetadata, known bool) {
		c.cache.mu.Lock()
		defer c.cache.mu.Unlock()
		c.tracker.mu.Lock()
		defer c.tracker.mu.Unlock()

		var ok bool
		if ok, reason = c.admitLocked(meta, known); !ok {
			return
		}
		prio := hookconfig.LowestPriority
		if known {
			prio = meta.Priority
		}
		exec = newExecution(name, prio, ctx, c.now())
		c.tracker.admitLocked(exec)
	})
	if exec == nil {
		c.logger.Debug("hook not admitted",
			zap.String("hook", name),
			zap.String("reason", reason),
		)
		return nil, false
	}

	c.queue.push(exec)
	c.logger.Debug("hook queued",
		zap.String("hook", name),
		zap.String("execution_id", exec.ExecutionID),
		zap.Int("priority", exec.Priority),
	)
	return exec, true
}

// DequeueNext removes and returns the highest-priority queued execution.
func (c *Coordinator) DequeueNext() (*HookExecution, bool) {
	return c.queue.pop()
}

// MarkExecuting records that e has started. Marking an id that is already
// executing replaces the earlier entry.
func (c *Coordinator) MarkExecuting(e *HookExecution) {
	if dup := c.tracker.markExecuting(e, c.now()); dup {
		c.logger.Warn("execution already marked executing",
			zap.String("hook", e.HookName),
			zap.String("execution_id", e.ExecutionID),
		)
	}
}

// MarkCompleted releases e, caches result when it is non-nil and records
// durationMs. Completing an execution that is not tracked is harmless. A late
// completion of an execution removed by ExpireStale or ExpireOverdue is
// ignored: its result is not cached and its duration is not recorded.
func (c *Coordinator) MarkCompleted(e *HookExecution, result any, durationMs float64) {
	switch c.tracker.complete(e.ExecutionID) {
	case completedEvicted:
		c.logger.Debug("ignoring completion of expired execution",
			zap.String("hook", e.HookName),
			zap.String("execution_id", e.ExecutionID),
		)
		return
	case completedUnknown:
		c.logger.Debug("completed execution was not tracked",
			zap.String("hook", e.HookName),
			zap.String("execution_id", e.ExecutionID),
		)
	}
	if result != nil {
		c.cache.store(e.HookName, result, c.now())
	}
	c.perf.Record(e.HookName, durationMs)
}

// CachedResult returns the last result cached for name, fresh or not.
func (c *Coordinator) CachedResult(name string) (CacheEntry, bool) {
	return c.cache.get(name)
}

// ClearCache drops the cached result for name, or every cached result when
// name is empty.
func (c *Coordinator) ClearCache(name string) {
	c.cache.clear(name)
}

// AdjustPriority changes the priority future enqueues of name will use. It
// reports false for hooks the store does not know.
func (c *Coordinator) AdjustPriority(name string, priority int) bool {
	return c.config.AdjustPriority(name, priority)
}

// PerformanceSummary returns duration stats for every hook with samples.
func (c *Coordinator) PerformanceSummary() map[string]PerfStats {
	return c.perf.Summary()
}

// StatusReport is a point-in-time view of the coordinator.
type StatusReport struct {
	AgentID        string               `json:"agent_id"`
	Queued         int                  `json:"queued"`
	Executing      int                  `json:"executing"`
	ExecutingHooks []string             `json:"executing_hooks"`
	Performance    map[string]PerfStats `json:"performance"`
	CacheSize      int                  `json:"cache_size"`
}

// Status builds a StatusReport. The counts are read one component at a time
// and are not a single atomic snapshot.
func (c *Coordinator) Status() StatusReport {
	return StatusReport{
		AgentID:        c.agentID,
		Queued:         c.queue.len(),
		Executing:      c.tracker.executingCount(),
		ExecutingHooks: c.tracker.executingHooks(),
		Performance:    c.perf.Summary(),
		CacheSize:      c.cache.len(),
	}
}

// ExpireStale forgets executions that have been outstanding for longer than
// maxAge, removing any that are still queued. It returns what was dropped.
func (c *Coordinator) ExpireStale(maxAge time.Duration) []*HookExecution {
	now := c.now()
	var victims []*HookExecution
	for _, te := range c.tracker.snapshot() {
		if now.Sub(te.since) > maxAge {
			victims = append(victims, te.exec)
		}
	}
	return c.evict(victims, "stale")
}

// ExpireOverdue forgets executions that have outlived their own timeout
// budget: timeout times the attempt count, plus grace.
func (c *Coordinator) ExpireOverdue(grace time.Duration) []*HookExecution {
	now := c.now()
	budgets := make(map[string]time.Duration)
	var victims []*HookExecution
	for _, te := range c.tracker.snapshot() {
		name := te.exec.HookName
		budget, ok := budgets[name]
		if !ok {
			meta := c.Metadata(name)
			budget = meta.Timeout()*time.Duration(meta.Attempts()) + grace
			budgets[name] = budget
		}
		if now.Sub(te.since) > budget {
			victims = append(victims, te.exec)
		}
	}
	return c.evict(victims, "overdue")
}

func (c *Coordinator) evict(victims []*HookExecution, why string) []*HookExecution {
	if len(victims) == 0 {
		return nil
	}
	removed := c.tracker.evict(victims)
	if len(removed) == 0 {
		return nil
	}
	ids := make(map[string]struct{}, len(removed))
	for _, e := range removed {
		ids[e.ExecutionID] = struct{}{}
		c.logger.Warn("expired execution",
			zap.String("hook", e.HookName),
			zap.String("execution_id", e.ExecutionID),
			zap.String("reason", why),
		)
	}
	c.queue.remove(ids)
	return removed
}
