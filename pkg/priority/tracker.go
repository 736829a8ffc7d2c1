package priority

import (
	"sort"
	"sync"
	"time"
)

// tracker records executions that have been admitted but not completed.
//
// outstanding holds everything admitted by Enqueue or marked executing;
// executing is the subset the caller has started running. Admission counts
// outstanding executions, so a queued exclusive hook already blocks a second
// copy before either one starts.
type tracker struct {
	mu          sync.Mutex
	outstanding map[string]*HookExecution
	executing   map[string]*HookExecution
	startedAt   map[string]time.Time

	// ids removed by a sweep, oldest first, capped at evictedMemory
	evicted      map[string]struct{}
	evictedOrder []string
}

// evictedMemory is how many evicted ids are remembered so their late
// completions can be ignored.
const evictedMemory = 1024

// completion is the outcome of tracker.complete.
type completion int

const (
	completedTracked completion = iota
	completedUnknown
	completedEvicted
)

func newTracker() *tracker {
	return &tracker{
		outstanding: make(map[string]*HookExecution),
		executing:   make(map[string]*HookExecution),
		startedAt:   make(map[string]time.Time),
		evicted:     make(map[string]struct{}),
	}
}

// admitLocked registers a queued execution. Caller holds mu.
func (t *tracker) admitLocked(e *HookExecution) {
	t.outstanding[e.ExecutionID] = e
}

// countLocked returns the number of outstanding executions of name. Caller holds mu.
func (t *tracker) countLocked(name string) int {
	n := 0
	for _, e := range t.outstanding {
		if e.HookName == name {
			n++
		}
	}
	return n
}

// markExecuting moves e into the executing set. It reports whether an entry
// with the same id was already executing; that entry is replaced.
func (t *tracker) markExecuting(e *HookExecution, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, dup := t.executing[e.ExecutionID]
	t.outstanding[e.ExecutionID] = e
	t.executing[e.ExecutionID] = e
	t.startedAt[e.ExecutionID] = now
	return dup
}

// complete forgets id and reports whether it was tracked, unknown, or
// already removed by a sweep.
func (t *tracker) complete(id string) completion {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.outstanding[id]; ok {
		delete(t.outstanding, id)
		delete(t.executing, id)
		delete(t.startedAt, id)
		return completedTracked
	}
	if _, ok := t.evicted[id]; ok {
		delete(t.evicted, id)
		return completedEvicted
	}
	return completedUnknown
}

// rememberEvictedLocked records id as swept. Caller holds mu.
func (t *tracker) rememberEvictedLocked(id string) {
	if _, ok := t.evicted[id]; ok {
		return
	}
	t.evicted[id] = struct{}{}
	t.evictedOrder = append(t.evictedOrder, id)
	for len(t.evictedOrder) > evictedMemory {
		delete(t.evicted, t.evictedOrder[0])
		t.evictedOrder = t.evictedOrder[1:]
	}
}

func (t *tracker) executingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.executing)
}

// executingHooks returns the names of running executions, oldest start first.
func (t *tracker) executingHooks() []string {
	t.mu.Lock()
	type started struct {
		name string
		id   string
		at   time.Time
	}
	list := make([]started, 0, len(t.executing))
	for id, e := range t.executing {
		list = append(list, started{name: e.HookName, id: id, at: t.startedAt[id]})
	}
	t.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].at.Equal(list[j].at) {
			return list[i].at.Before(list[j].at)
		}
		return list[i].id < list[j].id
	})
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.name
	}
	return names
}

// trackedExecution is a copy of one outstanding entry for sweeps.
type trackedExecution struct {
	exec    *HookExecution
	since   time.Time // start time when executing, enqueue time otherwise
	running bool
}

func (t *tracker) snapshot() []trackedExecution {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]trackedExecution, 0, len(t.outstanding))
	for id, e := range t.outstanding {
		te := trackedExecution{exec: e, since: e.Timestamp}
		if at, ok := t.startedAt[id]; ok {
			te.since = at
			te.running = true
		}
		out = append(out, te)
	}
	return out
}

// evict removes the given executions, returning the ones that were still tracked.
func (t *tracker) evict(execs []*HookExecution) []*HookExecution {
	t.mu.Lock()
	defer t.mu.Unlock()
	var removed []*HookExecution
	for _, e := range execs {
		if _, ok := t.outstanding[e.ExecutionID]; !ok {
			continue
		}
		delete(t.outstanding, e.ExecutionID)
		delete(t.executing, e.ExecutionID)
		delete(t.startedAt, e.ExecutionID)
		t.rememberEvictedLocked(e.ExecutionID)
		removed = append(removed, e)
	}
	return removed
}
