package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jg-phare/hookprio/pkg/hookconfig"
	"github.com/jg-phare/hookprio/pkg/priority"
	"github.com/jg-phare/hookprio/pkg/types"
)

func newTestRunner(t *testing.T, metas []hookconfig.HookMetadata, defs ...Definition) *Runner {
	t.Helper()
	store := hookconfig.NewStore(hookconfig.WithoutDefaults())
	for _, m := range metas {
		store.Register(m)
	}
	retry := RetryConfig{InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, BackoffFactor: 2}
	return NewRunner(RunnerConfig{
		Definitions: defs,
		Coordinator: priority.New(priority.WithConfigStore(store), priority.WithAgentID("test-agent")),
		Retry:       &retry,
	})
}

// noRetry returns metadata that runs once and never caches.
func noRetry(name string, prio int) hookconfig.HookMetadata {
	m := hookconfig.NewMetadata(name, prio)
	m.RetryOnFailure = false
	m.CacheTTLSeconds = 0
	return m
}

func on(event types.HookEvent, matcher string) []Trigger {
	return []Trigger{{Event: event, Matcher: matcher}}
}

func constBody(v any) Body {
	return func(ctx context.Context, hookCtx types.Context) (any, error) { return v, nil }
}

func TestRunner_NoHooks(t *testing.T) {
	r := NewRunner(RunnerConfig{})
	results := r.Fire(context.Background(), types.HookEventPreToolUse, nil)
	if results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
	if len(r.FireLog()) != 1 {
		t.Errorf("FireLog len = %d, want 1", len(r.FireLog()))
	}
}

func TestRunner_NoMatchingEvent(t *testing.T) {
	r := newTestRunner(t, nil, Definition{
		Name:     "on-stop",
		Triggers: on(types.HookEventStop, ""),
		Body:     constBody("x"),
	})
	results := r.Fire(context.Background(), types.HookEventPreToolUse, nil)
	if results != nil {
		t.Errorf("expected nil results for non-matching event, got %v", results)
	}
}

func TestRunner_GoBodyExecution(t *testing.T) {
	var got types.Context
	r := newTestRunner(t, []hookconfig.HookMetadata{noRetry("inspect", 1)}, Definition{
		Name:     "inspect",
		Triggers: on(types.HookEventPreToolUse, ""),
		Body: func(ctx context.Context, hookCtx types.Context) (any, error) {
			got = hookCtx
			return "seen", nil
		},
	})

	in := types.Context{types.KeyToolName: "Bash"}
	results := r.Fire(context.Background(), types.HookEventPreToolUse, in)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	res := results[0]
	if res.Status != StatusSuccess || res.Output != "seen" || res.Attempts != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.ExecutionID == "" {
		t.Error("ExecutionID empty")
	}
	if got[types.KeyAgentID] != "test-agent" || got[types.KeyEventType] != "PreToolUse" {
		t.Errorf("body context = %v", got)
	}
	if _, ok := in[types.KeyAgentID]; ok {
		t.Error("caller's context was modified")
	}
}

func TestRunner_PriorityOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) Body {
		return func(ctx context.Context, hookCtx types.Context) (any, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil, nil
		}
	}
	exclusiveMeta := func(name string, prio int) hookconfig.HookMetadata {
		m := noRetry(name, prio)
		m.ConcurrentSafe = false
		return m
	}

	r := newTestRunner(t,
		[]hookconfig.HookMetadata{exclusiveMeta("third", 3), exclusiveMeta("first", 1), exclusiveMeta("second", 2)},
		Definition{Name: "third", Triggers: on(types.HookEventPostToolUse, ""), Body: record("third")},
		Definition{Name: "first", Triggers: on(types.HookEventPostToolUse, ""), Body: record("first")},
		Definition{Name: "second", Triggers: on(types.HookEventPostToolUse, ""), Body: record("second")},
	)

	results := r.Fire(context.Background(), types.HookEventPostToolUse, nil)
	want := []string{"first", "second", "third"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("run order = %v, want %v", order, want)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, name := range want {
		if results[i].Hook != name {
			t.Errorf("results[%d].Hook = %s, want %s", i, results[i].Hook, name)
		}
	}
}

func TestRunner_CachedResultSuppressesRerun(t *testing.T) {
	var calls atomic.Int32
	m := noRetry("ctx", 1)
	m.CacheTTLSeconds = 300
	r := newTestRunner(t, []hookconfig.HookMetadata{m}, Definition{
		Name:     "ctx",
		Triggers: on(types.HookEventUserPromptSubmit, ""),
		Body: func(ctx context.Context, hookCtx types.Context) (any, error) {
			calls.Add(1)
			return map[string]any{"context": "loaded"}, nil
		},
	})

	r.Fire(context.Background(), types.HookEventUserPromptSubmit, nil)
	second := r.Fire(context.Background(), types.HookEventUserPromptSubmit, nil)
	if len(second) != 0 {
		t.Errorf("second fire results = %v, want none", second)
	}
	if calls.Load() != 1 {
		t.Errorf("body called %d times, want 1", calls.Load())
	}

	r.ClearCache()
	r.Fire(context.Background(), types.HookEventUserPromptSubmit, nil)
	if calls.Load() != 2 {
		t.Errorf("body called %d times after ClearCache, want 2", calls.Load())
	}
}

func TestRunner_RetryExhausted(t *testing.T) {
	var calls atomic.Int32
	m := hookconfig.NewMetadata("flaky", 1)
	m.RetryAttempts = 2
	r := newTestRunner(t, []hookconfig.HookMetadata{m}, Definition{
		Name:     "flaky",
		Triggers: on(types.HookEventPreToolUse, ""),
		Body: func(ctx context.Context, hookCtx types.Context) (any, error) {
			calls.Add(1)
			return nil, errors.New("boom")
		},
	})

	results := r.Fire(context.Background(), types.HookEventPreToolUse, nil)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Status != StatusError || results[0].Attempts != 3 {
		t.Errorf("result = %+v", results[0])
	}
	if !strings.Contains(results[0].Error, "boom") {
		t.Errorf("error = %q, want it to mention boom", results[0].Error)
	}
	if calls.Load() != 3 {
		t.Errorf("body called %d times, want 3", calls.Load())
	}

	// failures are not cached
	again := r.Fire(context.Background(), types.HookEventPreToolUse, nil)
	if len(again) != 1 {
		t.Errorf("failed hook should run again, got %v", again)
	}
}

func TestRunner_RetryThenSuccess(t *testing.T) {
	var calls atomic.Int32
	m := hookconfig.NewMetadata("flaky", 1)
	m.CacheTTLSeconds = 0
	r := newTestRunner(t, []hookconfig.HookMetadata{m}, Definition{
		Name:     "flaky",
		Triggers: on(types.HookEventPreToolUse, ""),
		Body: func(ctx context.Context, hookCtx types.Context) (any, error) {
			if calls.Add(1) == 1 {
				return nil, errors.New("transient")
			}
			return "ok", nil
		},
	})

	results := r.Fire(context.Background(), types.HookEventPreToolUse, nil)
	if results[0].Status != StatusSuccess || results[0].Attempts != 2 {
		t.Errorf("result = %+v", results[0])
	}
}

func TestRunner_Timeout(t *testing.T) {
	m := noRetry("slow", 1)
	m.TimeoutMs = 20
	r := newTestRunner(t, []hookconfig.HookMetadata{m}, Definition{
		Name:     "slow",
		Triggers: on(types.HookEventPreToolUse, ""),
		Body: func(ctx context.Context, hookCtx types.Context) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	start := time.Now()
	results := r.Fire(context.Background(), types.HookEventPreToolUse, nil)
	if time.Since(start) > 2*time.Second {
		t.Error("timeout not applied")
	}
	if results[0].Status != StatusError || !strings.Contains(results[0].Error, "deadline") {
		t.Errorf("result = %+v", results[0])
	}
	if n := r.Coordinator().Status().Executing; n != 0 {
		t.Errorf("Executing = %d after timeout, want 0", n)
	}
}

func TestRunner_Matcher(t *testing.T) {
	r := newTestRunner(t, []hookconfig.HookMetadata{noRetry("fmt", 1)}, Definition{
		Name:     "fmt",
		Triggers: on(types.HookEventPostToolUse, "Edit|Write"),
		Body:     constBody(nil),
	})

	tests := []struct {
		tool string
		runs bool
	}{
		{"Edit", true},
		{"MultiEdit", true},
		{"Write", true},
		{"Bash", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			results := r.Fire(context.Background(), types.HookEventPostToolUse, types.Context{types.KeyToolName: tt.tool})
			if (len(results) == 1) != tt.runs {
				t.Errorf("tool %q: results = %v, want runs=%v", tt.tool, results, tt.runs)
			}
		})
	}
}

func TestRunner_ShellCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell tests require unix shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "hook.sh")
	os.WriteFile(script, []byte(`#!/bin/sh
read INPUT
echo 'scanned'
echo 'note' >&2
`), 0o755)

	r := newTestRunner(t, []hookconfig.HookMetadata{noRetry("hook", 1)}, Definition{
		Name:     "hook",
		Triggers: on(types.HookEventPreToolUse, ""),
		Command:  script,
	})

	results := r.Fire(context.Background(), types.HookEventPreToolUse, types.Context{types.KeyToolName: "Bash"})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	out, ok := results[0].Output.(ShellResult)
	if !ok {
		t.Fatalf("Output type = %T, want ShellResult", results[0].Output)
	}
	if out.ExitCode != 0 || strings.TrimSpace(out.Output) != "scanned" || strings.TrimSpace(out.Error) != "note" {
		t.Errorf("ShellResult = %+v", out)
	}
}

func TestRunner_ShellCommandReceivesJSON(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell tests require unix shell")
	}

	dir := t.TempDir()
	outputFile := filepath.Join(dir, "input.json")
	script := filepath.Join(dir, "hook.sh")
	os.WriteFile(script, []byte(fmt.Sprintf(`#!/bin/sh
cat > %s
`, outputFile)), 0o755)

	r := newTestRunner(t, []hookconfig.HookMetadata{noRetry("hook", 1)}, Definition{
		Name:     "hook",
		Triggers: on(types.HookEventPreToolUse, ""),
		Command:  script,
	})

	r.Fire(context.Background(), types.HookEventPreToolUse, types.Context{
		types.KeyToolName: "Bash",
		"session_id":      "test-session",
	})

	data, err := os.ReadFile(outputFile)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}

	var received map[string]any
	json.Unmarshal(data, &received)

	if received["toolName"] != "Bash" {
		t.Errorf("shell received toolName = %v, want 'Bash'", received["toolName"])
	}
	if received["session_id"] != "test-session" {
		t.Errorf("shell received session_id = %v, want 'test-session'", received["session_id"])
	}
	if received["agent_id"] != "test-agent" {
		t.Errorf("shell received agent_id = %v, want 'test-agent'", received["agent_id"])
	}
}

func TestRunner_ShellCommandError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell tests require unix shell")
	}

	r := newTestRunner(t, []hookconfig.HookMetadata{noRetry("failing", 1)}, Definition{
		Name:     "failing",
		Triggers: on(types.HookEventPreToolUse, ""),
		Command:  "echo bad >&2; exit 3",
	})

	results := r.Fire(context.Background(), types.HookEventPreToolUse, nil)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Status != StatusError {
		t.Errorf("Status = %s, want error", results[0].Status)
	}
	if !strings.Contains(results[0].Error, "status 3") || !strings.Contains(results[0].Error, "bad") {
		t.Errorf("Error = %q", results[0].Error)
	}
}

func TestRunner_NoBody(t *testing.T) {
	r := newTestRunner(t, []hookconfig.HookMetadata{noRetry("empty", 1)}, Definition{
		Name:     "empty",
		Triggers: on(types.HookEventStop, ""),
	})

	results := r.Fire(context.Background(), types.HookEventStop, nil)
	if len(results) != 1 || results[0].Status != StatusError {
		t.Fatalf("results = %+v", results)
	}
	if !strings.Contains(results[0].Error, ErrNoBody.Error()) {
		t.Errorf("Error = %q", results[0].Error)
	}
	if !r.Coordinator().ShouldExecute("empty", nil) {
		t.Error("execution without a body was not released")
	}
}

func TestRunner_UndefinedQueuedHookReleased(t *testing.T) {
	ghost := noRetry("ghost", 1)
	ghost.ConcurrentSafe = false
	r := newTestRunner(t, []hookconfig.HookMetadata{ghost})

	if _, ok := r.Coordinator().Enqueue("ghost", nil); !ok {
		t.Fatal("Enqueue denied")
	}
	r.Fire(context.Background(), types.HookEventStop, nil)

	st := r.Coordinator().Status()
	if st.Queued != 0 || st.Executing != 0 {
		t.Errorf("Status = %+v", st)
	}
	if !r.Coordinator().ShouldExecute("ghost", nil) {
		t.Error("undefined exclusive hook still blocked")
	}
}

func TestRunner_ConcurrentSafeHooksRunInParallel(t *testing.T) {
	started := make(chan string, 2)
	release := make(chan struct{})
	body := func(name string) Body {
		return func(ctx context.Context, hookCtx types.Context) (any, error) {
			started <- name
			<-release
			return nil, nil
		}
	}
	r := newTestRunner(t,
		[]hookconfig.HookMetadata{noRetry("a", 1), noRetry("b", 1)},
		Definition{Name: "a", Triggers: on(types.HookEventPreToolUse, ""), Body: body("a")},
		Definition{Name: "b", Triggers: on(types.HookEventPreToolUse, ""), Body: body("b")},
	)

	done := make(chan []Result)
	go func() { done <- r.Fire(context.Background(), types.HookEventPreToolUse, nil) }()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			close(release)
			t.Fatal("concurrent-safe hooks did not run in parallel")
		}
	}
	close(release)

	results := <-done
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestRunner_Events(t *testing.T) {
	ch := make(chan Event, 10)
	store := hookconfig.NewStore(hookconfig.WithoutDefaults())
	store.Register(noRetry("hook", 1))
	r := NewRunner(RunnerConfig{
		Definitions: []Definition{{Name: "hook", Triggers: on(types.HookEventSessionStart, ""), Body: constBody("x")}},
		Coordinator: priority.New(priority.WithConfigStore(store)),
		Events:      ch,
	})

	r.Fire(context.Background(), types.HookEventSessionStart, nil)

	close(ch)
	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events (started + completed), got %d", len(events))
	}
	if events[0].Type != EventStarted || events[1].Type != EventCompleted {
		t.Errorf("event types = %s, %s", events[0].Type, events[1].Type)
	}
	if events[1].Outcome != StatusSuccess || events[1].HookEvent != types.HookEventSessionStart {
		t.Errorf("completed event = %+v", events[1])
	}
	if events[0].ID == events[1].ID || events[0].ExecutionID != events[1].ExecutionID {
		t.Errorf("event ids = %+v", events)
	}
}

func TestRunner_RegisterReplaces(t *testing.T) {
	r := newTestRunner(t, nil,
		Definition{Name: "a", Triggers: on(types.HookEventStop, ""), Body: constBody(1)},
	)
	r.Register(Definition{Name: "a", Triggers: on(types.HookEventPreCompact, ""), Body: constBody(2)})
	r.Register(Definition{Name: "b", Triggers: on(types.HookEventPreCompact, ""), Body: constBody(3)})

	defs := r.Definitions()
	if len(defs) != 2 || defs[0].Triggers[0].Event != types.HookEventPreCompact {
		t.Errorf("Definitions = %+v", defs)
	}
	if !r.Unregister("b") || r.Unregister("b") {
		t.Error("Unregister should succeed once")
	}
}

func TestRunner_Status(t *testing.T) {
	r := newTestRunner(t, []hookconfig.HookMetadata{noRetry("a", 1)},
		Definition{Name: "a", Triggers: on(types.HookEventStop, ""), Body: constBody(nil)},
	)
	for i := 0; i < 3; i++ {
		r.Fire(context.Background(), types.HookEventStop, nil)
	}

	st := r.Status()
	if st.AgentID != "test-agent" {
		t.Errorf("AgentID = %q", st.AgentID)
	}
	if st.Performance.RecentExecutions != 3 {
		t.Errorf("RecentExecutions = %d, want 3", st.Performance.RecentExecutions)
	}
	if st.HookStatus.Performance["a"].Executions != 3 {
		t.Errorf("HookStatus.Performance[a] = %+v", st.HookStatus.Performance["a"])
	}
	if !r.AdjustPriority("a", 7) || r.AdjustPriority("zz", 7) {
		t.Error("AdjustPriority result wrong")
	}
}

func TestRunner_FireLogBounded(t *testing.T) {
	r := NewRunner(RunnerConfig{})
	for i := 0; i < fireLogSize+5; i++ {
		r.logFire(types.HookEventStop, 0, time.Duration(i)*time.Millisecond)
	}
	log := r.FireLog()
	if len(log) != fireLogSize {
		t.Fatalf("FireLog len = %d, want %d", len(log), fireLogSize)
	}
	if log[0].TotalMs != 5 {
		t.Errorf("oldest retained TotalMs = %v, want 5", log[0].TotalMs)
	}

	st := r.Status()
	var want float64
	for i := fireLogSize + 5 - recentFires; i < fireLogSize+5; i++ {
		want += float64(i)
	}
	want /= recentFires
	if st.Performance.AvgTimeMs != want {
		t.Errorf("AvgTimeMs = %v, want %v", st.Performance.AvgTimeMs, want)
	}
}

func TestRunner_WatchdogReleasesHungHook(t *testing.T) {
	hold := make(chan struct{})
	started := make(chan struct{})
	m := noRetry("hung", 1)
	m.TimeoutMs = 1
	r := newTestRunner(t, []hookconfig.HookMetadata{m}, Definition{
		Name:     "hung",
		Triggers: on(types.HookEventPreToolUse, ""),
		Body: func(ctx context.Context, hookCtx types.Context) (any, error) {
			close(started)
			<-hold // ignores ctx
			return nil, nil
		},
	})
	defer close(hold)

	done := make(chan []Result)
	go func() { done <- r.Fire(context.Background(), types.HookEventPreToolUse, nil) }()
	<-started
	time.Sleep(20 * time.Millisecond)

	if n := r.sweep(0); n != 1 {
		t.Fatalf("sweep released %d executions, want 1", n)
	}

	select {
	case results := <-done:
		if len(results) != 1 || !strings.Contains(results[0].Error, ErrExpired.Error()) {
			t.Errorf("results = %+v", results)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fire did not return after watchdog release")
	}
	if n := r.Coordinator().Status().Executing; n != 0 {
		t.Errorf("Executing = %d after release, want 0", n)
	}
}

func TestRunner_WatchdogStopsOnCancel(t *testing.T) {
	r := NewRunner(RunnerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Watchdog(ctx, time.Millisecond, time.Second) }()
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Watchdog error = %v, want context.Canceled", err)
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	r := newTestRunner(t, []hookconfig.HookMetadata{noRetry("a", 1)},
		Definition{Name: "a", Triggers: on(types.HookEventStop, ""), Body: func(ctx context.Context, hookCtx types.Context) (any, error) {
			return nil, ctx.Err()
		}},
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := r.Fire(ctx, types.HookEventStop, nil)
	if len(results) != 1 || results[0].Status != StatusError {
		t.Errorf("results = %+v", results)
	}
	if n := r.Coordinator().Status().Executing; n != 0 {
		t.Errorf("Executing = %d, want 0", n)
	}
}

func TestRunner_ExecutionsRunUnderOwnerContext(t *testing.T) {
	slow := noRetry("slow", 1)
	slow.ConcurrentSafe = false
	hold := make(chan struct{})
	started := make(chan struct{})

	r := newTestRunner(t, []hookconfig.HookMetadata{slow, noRetry("fast", 2)},
		Definition{Name: "slow", Triggers: on(types.HookEventStop, ""), Body: func(ctx context.Context, hookCtx types.Context) (any, error) {
			close(started)
			<-hold
			return "slow", nil
		}},
		Definition{Name: "fast", Triggers: on(types.HookEventStop, ""), Body: func(ctx context.Context, hookCtx types.Context) (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return "fast", nil
		}},
	)

	owner := make(chan []Result)
	go func() { owner <- r.Fire(context.Background(), types.HookEventStop, nil) }()
	<-started

	// "fast" is still queued behind "slow"; a Fire with a dead context drains it.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if results := r.Fire(cancelled, types.HookEventPreCompact, nil); len(results) != 0 {
		t.Errorf("cancelled Fire returned %+v, want nothing of its own", results)
	}

	close(hold)
	select {
	case results := <-owner:
		if len(results) != 2 {
			t.Fatalf("results = %+v, want 2", results)
		}
		for _, res := range results {
			if res.Status != StatusSuccess {
				t.Errorf("%s: status %s (%s), want success", res.Hook, res.Status, res.Error)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("owning Fire did not return")
	}
}

func TestRunner_ExpireStaleDeliversQueued(t *testing.T) {
	a := noRetry("a", 1)
	a.ConcurrentSafe = false
	b := noRetry("b", 2)
	b.ConcurrentSafe = false
	hold := make(chan struct{})
	started := make(chan struct{})
	var bRan atomic.Bool

	r := newTestRunner(t, []hookconfig.HookMetadata{a, b},
		Definition{Name: "a", Triggers: on(types.HookEventStop, ""), Body: func(ctx context.Context, hookCtx types.Context) (any, error) {
			close(started)
			<-hold
			return "a", nil
		}},
		Definition{Name: "b", Triggers: on(types.HookEventStop, ""), Body: func(ctx context.Context, hookCtx types.Context) (any, error) {
			bRan.Store(true)
			return "b", nil
		}},
	)

	done := make(chan []Result)
	go func() { done <- r.Fire(context.Background(), types.HookEventStop, nil) }()
	<-started
	time.Sleep(5 * time.Millisecond)

	expired := r.ExpireStale(0)
	if len(expired) != 2 {
		t.Fatalf("expired %d executions, want 2", len(expired))
	}
	close(hold)

	select {
	case results := <-done:
		if len(results) != 2 {
			t.Fatalf("results = %+v, want 2", results)
		}
		for _, res := range results {
			if !strings.Contains(res.Error, ErrExpired.Error()) {
				t.Errorf("%s: error %q, want expiry", res.Hook, res.Error)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fire did not return after its queued execution expired")
	}
	if bRan.Load() {
		t.Error("expired queued hook still ran")
	}
	if st := r.Coordinator().Status(); st.Queued != 0 || st.Executing != 0 {
		t.Errorf("Status = %+v, want empty", st)
	}
	if _, ok := r.Coordinator().CachedResult("a"); ok {
		t.Error("late result of expired hook was cached")
	}
}

func TestRunner_DefinitionTimeoutOverridesMetadata(t *testing.T) {
	m := noRetry("slow", 1)
	m.TimeoutMs = 60000
	r := newTestRunner(t, []hookconfig.HookMetadata{m}, Definition{
		Name:     "slow",
		Triggers: on(types.HookEventStop, ""),
		Timeout:  20 * time.Millisecond,
		Body: func(ctx context.Context, hookCtx types.Context) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	start := time.Now()
	results := r.Fire(context.Background(), types.HookEventStop, nil)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Fire took %v; definition timeout not applied", elapsed)
	}
	if len(results) != 1 || results[0].Status != StatusError {
		t.Fatalf("results = %+v", results)
	}
	if !strings.Contains(results[0].Error, context.DeadlineExceeded.Error()) {
		t.Errorf("error = %q, want deadline exceeded", results[0].Error)
	}
}
