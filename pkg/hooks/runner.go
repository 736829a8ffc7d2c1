package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jg-phare/hookprio/pkg/priority"
	"github.com/jg-phare/hookprio/pkg/types"
	"go.uber.org/zap"
)

const (
	// fireLogSize is how many Fire records are retained.
	fireLogSize = 1000
	// fireTarget is the duration above which a Fire is logged as slow.
	fireTarget = 300 * time.Millisecond
	// recentFires is the window used for the average in Status.
	recentFires = 10

	defaultWorkers = 4
)

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Definitions []Definition
	Coordinator *priority.Coordinator // default: priority.New(); not shared with another Runner
	Events      chan<- Event          // optional: receives lifecycle events
	Workers     int                   // concurrent-safe hooks run at once (default: 4)
	Retry       *RetryConfig          // default: DefaultRetryConfig()
	Logger      *zap.Logger
}

// Runner dispatches hook definitions for events through a Coordinator.
type Runner struct {
	coord  *priority.Coordinator
	events chan<- Event
	retry  RetryConfig
	logger *zap.Logger
	pool   *pool

	mu   sync.RWMutex
	defs []Definition

	pendingMu sync.Mutex
	pending   map[string]*fire // execution id → owning Fire call

	logMu sync.Mutex
	fires []FireRecord
}

// NewRunner creates a Runner from configuration.
func NewRunner(config RunnerConfig) *Runner {
	r := &Runner{
		coord:   config.Coordinator,
		events:  config.Events,
		retry:   DefaultRetryConfig(),
		logger:  config.Logger,
		pending: make(map[string]*fire),
	}
	if config.Retry != nil {
		r.retry = *config.Retry
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.coord == nil {
		r.coord = priority.New(priority.WithLogger(r.logger))
	}
	workers := config.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	r.pool = newPool(workers)
	for _, d := range config.Definitions {
		r.Register(d)
	}
	return r
}

// Coordinator returns the coordinator admission decisions go through.
func (r *Runner) Coordinator() *priority.Coordinator { return r.coord }

// Register adds def, replacing any definition with the same name.
func (r *Runner) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.defs {
		if d.Name == def.Name {
			r.defs[i] = def
			return
		}
	}
	r.defs = append(r.defs, def)
}

// Unregister removes the definition for name.
func (r *Runner) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.defs {
		if d.Name == name {
			r.defs = append(r.defs[:i], r.defs[i+1:]...)
			return true
		}
	}
	return false
}

// Definitions returns the registered definitions in registration order.
func (r *Runner) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Definition(nil), r.defs...)
}

func (r *Runner) lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// applicable returns the names of definitions that run for event and tool.
func (r *Runner) applicable(event types.HookEvent, toolName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, d := range r.defs {
		if d.applies(event, toolName) {
			names = append(names, d.Name)
		}
	}
	return names
}

// fire collects the results of one Fire call. Executions it enqueued may be
// run by a concurrent Fire that dequeued them first; they still run under ctx,
// the context of the Fire that owns them.
type fire struct {
	ctx context.Context
	wg  sync.WaitGroup

	mu      sync.Mutex
	results map[string]Result
}

func (f *fire) deliver(res Result) {
	f.mu.Lock()
	f.results[res.ExecutionID] = res
	f.mu.Unlock()
	f.wg.Done()
}

// Fire runs every applicable hook for event and returns one Result per
// admitted execution, in dequeue order. Hooks denied by admission (cached,
// already running, at their parallelism limit) produce no Result.
//
// The context map is copied and tagged with the agent id and event type
// before it is handed to hooks.
func (r *Runner) Fire(ctx context.Context, event types.HookEvent, hookCtx types.Context) []Result {
	start := time.Now()

	fireCtx := hookCtx.Clone()
	if fireCtx == nil {
		fireCtx = types.Context{}
	}
	fireCtx[types.KeyAgentID] = r.coord.AgentID()
	fireCtx[types.KeyEventType] = string(event)

	names := priority.Deduplicate(r.applicable(event, fireCtx.ToolName()), fireCtx)

	f := &fire{ctx: ctx, results: make(map[string]Result)}
	var admitted []*priority.HookExecution
	// pendingMu is held across Enqueue so a concurrent drain cannot deliver
	// an execution before its owner is registered.
	r.pendingMu.Lock()
	for _, name := range names {
		e, ok := r.coord.Enqueue(name, fireCtx)
		if !ok {
			continue
		}
		f.wg.Add(1)
		r.pending[e.ExecutionID] = f
		admitted = append(admitted, e)
	}
	r.pendingMu.Unlock()

	r.drain(ctx)
	f.wg.Wait()

	// dequeue order: priority, then enqueue order
	sort.SliceStable(admitted, func(i, j int) bool {
		return admitted[i].Priority < admitted[j].Priority
	})
	var results []Result
	for _, e := range admitted {
		results = append(results, f.results[e.ExecutionID])
	}

	r.logFire(event, len(names), time.Since(start))
	return results
}

// drain runs queued executions until the queue is empty. Concurrent-safe
// hooks go to the worker pool; the rest run inline, in order. Each execution
// runs under the context of the Fire that enqueued it, falling back to ctx.
func (r *Runner) drain(ctx context.Context) {
	for {
		e, ok := r.coord.DequeueNext()
		if !ok {
			return
		}
		ectx := r.ownerContext(e.ExecutionID, ctx)
		meta := r.coord.Metadata(e.HookName)
		if !meta.ConcurrentSafe {
			r.execute(ectx, e)
			continue
		}
		if err := r.pool.submit(ectx, func() { r.execute(ectx, e) }); err != nil {
			r.abandon(e, err)
		}
	}
}

// ownerContext returns the context of the Fire waiting on id, or fallback
// when no Fire owns it.
func (r *Runner) ownerContext(id string, fallback context.Context) context.Context {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	if f, ok := r.pending[id]; ok {
		return f.ctx
	}
	return fallback
}

// execute runs one execution and delivers its Result to the owning Fire.
func (r *Runner) execute(ctx context.Context, e *priority.HookExecution) {
	r.deliver(r.run(ctx, e))
}

func (r *Runner) run(ctx context.Context, e *priority.HookExecution) Result {
	start := time.Now()
	ev, _ := e.Context[types.KeyEventType].(string)
	event := types.HookEvent(ev)

	def, ok := r.lookup(e.HookName)
	if !ok {
		r.coord.MarkCompleted(e, nil, 0)
		return Result{
			Hook:        e.HookName,
			ExecutionID: e.ExecutionID,
			Status:      StatusError,
			Error:       fmt.Errorf("%w: %s", ErrHookNotFound, e.HookName).Error(),
		}
	}
	body := def.Body
	if body == nil && def.Command != "" {
		body = ShellBody(def.Command)
	}
	if body == nil {
		r.coord.MarkCompleted(e, nil, 0)
		return Result{
			Hook:        e.HookName,
			ExecutionID: e.ExecutionID,
			Status:      StatusError,
			Error:       fmt.Errorf("%w: %s", ErrNoBody, e.HookName).Error(),
		}
	}

	meta := r.coord.Metadata(e.HookName)
	r.coord.MarkExecuting(e)
	r.emit(ctx, Event{Type: EventStarted, Hook: e.HookName, ExecutionID: e.ExecutionID, HookEvent: event})

	timeout := meta.Timeout()
	if def.Timeout > 0 {
		timeout = def.Timeout
	}
	out, attempts, err := doWithRetry(ctx, r.retry, e.HookName, meta.Attempts(), timeout,
		func(ctx context.Context) (any, error) {
			return body(ctx, e.Context.Clone())
		})
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	res := Result{
		Hook:        e.HookName,
		ExecutionID: e.ExecutionID,
		Attempts:    attempts,
		DurationMs:  elapsed,
	}
	if err != nil {
		r.coord.MarkCompleted(e, nil, elapsed)
		res.Status = StatusError
		res.Error = err.Error()
		r.logger.Warn("hook failed",
			zap.String("hook", e.HookName),
			zap.String("execution_id", e.ExecutionID),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
	} else {
		r.coord.MarkCompleted(e, out, elapsed)
		res.Status = StatusSuccess
		res.Output = out
	}
	r.emit(ctx, Event{Type: EventCompleted, Hook: e.HookName, ExecutionID: e.ExecutionID, HookEvent: event, Outcome: res.Status})
	return res
}

// abandon releases an execution that could not be started.
func (r *Runner) abandon(e *priority.HookExecution, err error) {
	r.coord.MarkCompleted(e, nil, 0)
	r.deliver(Result{
		Hook:        e.HookName,
		ExecutionID: e.ExecutionID,
		Status:      StatusError,
		Error:       err.Error(),
	})
}

func (r *Runner) deliver(res Result) {
	r.pendingMu.Lock()
	f, ok := r.pending[res.ExecutionID]
	delete(r.pending, res.ExecutionID)
	r.pendingMu.Unlock()
	if ok {
		f.deliver(res)
	}
}

func (r *Runner) emit(ctx context.Context, ev Event) {
	if r.events == nil {
		return
	}
	ev.ID = uuid.New()
	ev.Timestamp = time.Now()
	select {
	case r.events <- ev:
	case <-ctx.Done():
	}
}

// --- Fire log ---

func (r *Runner) logFire(event types.HookEvent, hookCount int, total time.Duration) {
	rec := FireRecord{
		Timestamp: time.Now(),
		Event:     event,
		HookCount: hookCount,
		TotalMs:   float64(total.Microseconds()) / 1000,
		AgentID:   r.coord.AgentID(),
	}

	r.logMu.Lock()
	r.fires = append(r.fires, rec)
	if len(r.fires) > fireLogSize {
		r.fires = append([]FireRecord(nil), r.fires[len(r.fires)-fireLogSize:]...)
	}
	r.logMu.Unlock()

	if total > fireTarget {
		r.logger.Warn("hook dispatch exceeded target",
			zap.String("event", string(event)),
			zap.Int("hooks", hookCount),
			zap.Float64("total_ms", rec.TotalMs),
			zap.Duration("target", fireTarget),
		)
	}
}

// FireLog returns a copy of the retained Fire records, oldest first.
func (r *Runner) FireLog() []FireRecord {
	r.logMu.Lock()
	defer r.logMu.Unlock()
	return append([]FireRecord(nil), r.fires...)
}

// FirePerformance summarizes recent Fire calls.
type FirePerformance struct {
	RecentExecutions int     `json:"recent_executions"`
	AvgTimeMs        float64 `json:"avg_time_ms"`
}

// RunnerStatus is the dispatcher's view on top of the coordinator status.
type RunnerStatus struct {
	AgentID      string                `json:"agent_id"`
	HookStatus   priority.StatusReport `json:"hook_status"`
	CacheEntries int                   `json:"cache_entries"`
	Performance  FirePerformance       `json:"performance"`
}

// Status reports the coordinator status plus the retained fire count and the
// average duration of the last ten fires.
func (r *Runner) Status() RunnerStatus {
	hs := r.coord.Status()

	r.logMu.Lock()
	perf := FirePerformance{RecentExecutions: len(r.fires)}
	tail := r.fires
	if len(tail) > recentFires {
		tail = tail[len(tail)-recentFires:]
	}
	if len(tail) > 0 {
		sum := 0.0
		for _, f := range tail {
			sum += f.TotalMs
		}
		perf.AvgTimeMs = sum / float64(len(tail))
	}
	r.logMu.Unlock()

	return RunnerStatus{
		AgentID:      r.coord.AgentID(),
		HookStatus:   hs,
		CacheEntries: hs.CacheSize,
		Performance:  perf,
	}
}

// ClearCache drops every cached hook result.
func (r *Runner) ClearCache() {
	r.coord.ClearCache("")
}

// AdjustPriority changes a hook's priority for future fires.
func (r *Runner) AdjustPriority(name string, priority int) bool {
	return r.coord.AdjustPriority(name, priority)
}
