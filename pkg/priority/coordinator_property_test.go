package priority

import (
	"fmt"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jg-phare/hookprio/pkg/hookconfig"
)

// TestDequeueOrderProperty checks that dequeue order equals a stable sort of
// the enqueue order by priority, for any mix of priorities.
func TestDequeueOrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("dequeue is a stable sort by priority", prop.ForAll(
		func(prios []int) bool {
			store := hookconfig.NewStore(hookconfig.WithoutDefaults())
			names := make([]string, len(prios))
			for i, p := range prios {
				names[i] = fmt.Sprintf("hook-%d", i)
				store.Register(hookconfig.NewMetadata(names[i], p))
			}
			c := New(WithConfigStore(store))
			for _, name := range names {
				if _, ok := c.Enqueue(name, nil); !ok {
					return false
				}
			}

			want := append([]string(nil), names...)
			sort.SliceStable(want, func(i, j int) bool {
				return prios[indexOf(names, want[i])] < prios[indexOf(names, want[j])]
			})

			for _, name := range want {
				e, ok := c.DequeueNext()
				if !ok || e.HookName != name {
					return false
				}
			}
			_, more := c.DequeueNext()
			return !more
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.Property("queued count matches admitted enqueues", prop.ForAll(
		func(n int) bool {
			c := New(WithConfigStore(hookconfig.NewStore(hookconfig.WithoutDefaults())))
			for i := 0; i < n; i++ {
				c.Enqueue("unknown", nil)
			}
			return c.Status().Queued == n
		},
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}

// TestRollingWindowProperty checks that the summary only reflects the most
// recent WindowSize samples.
func TestRollingWindowProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("summary covers the last samples only", prop.ForAll(
		func(samples []float64) bool {
			if len(samples) == 0 {
				return true
			}
			r := NewRecorder()
			for _, s := range samples {
				r.Record("h", s)
			}
			kept := samples
			if len(kept) > WindowSize {
				kept = kept[len(kept)-WindowSize:]
			}
			st := r.Summary()["h"]
			if st.Executions != len(kept) {
				return false
			}
			lo, hi := kept[0], kept[0]
			for _, v := range kept {
				lo = min(lo, v)
				hi = max(hi, v)
			}
			return st.MinMs == lo && st.MaxMs == hi
		},
		gen.SliceOf(gen.Float64Range(0, 5000)),
	))

	properties.TestingRun(t)
}

func TestScenarioExclusiveAdmission(t *testing.T) {
	store := hookconfig.NewStore(hookconfig.WithoutDefaults())
	a := hookconfig.NewMetadata("A", 1)
	a.ConcurrentSafe = false
	store.Register(a)
	store.Register(hookconfig.NewMetadata("B", 2))
	c := New(WithConfigStore(store))

	_, ok := c.Enqueue("A", nil)
	require.True(t, ok)
	_, ok = c.Enqueue("B", nil)
	require.True(t, ok)
	_, ok = c.Enqueue("A", nil)
	assert.False(t, ok, "second A must be denied before reaching the queue")

	assert.Equal(t, 2, c.Status().Queued)
	first, _ := c.DequeueNext()
	second, _ := c.DequeueNext()
	assert.Equal(t, []string{"A", "B"}, []string{first.HookName, second.HookName})

	c.MarkExecuting(first)
	_, ok = c.Enqueue("A", nil)
	assert.False(t, ok, "A is still running")
	c.MarkCompleted(first, nil, 1)
	_, ok = c.Enqueue("A", nil)
	assert.True(t, ok)
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
