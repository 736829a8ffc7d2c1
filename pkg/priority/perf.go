package priority

import (
	"math"
	"sync"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// WindowSize is the number of recent durations kept per hook.
const WindowSize = 100

// maxTrackableMicros bounds the percentile histogram at one hour.
const maxTrackableMicros = int64(3_600_000_000)

// PerfStats summarizes the recorded durations of one hook.
type PerfStats struct {
	AvgMs      float64 `json:"avg_ms"`
	MinMs      float64 `json:"min_ms"`
	MaxMs      float64 `json:"max_ms"`
	Executions int     `json:"executions"`
	P50Ms      float64 `json:"p50_ms"`
	P95Ms      float64 `json:"p95_ms"`
	P99Ms      float64 `json:"p99_ms"`
}

// window is a fixed ring of the most recent samples.
type window struct {
	samples [WindowSize]float64
	next    int
	count   int
}

func (w *window) add(v float64) {
	w.samples[w.next] = v
	w.next = (w.next + 1) % WindowSize
	if w.count < WindowSize {
		w.count++
	}
}

// values returns the retained samples, oldest first.
func (w *window) values() []float64 {
	out := make([]float64, 0, w.count)
	start := 0
	if w.count == WindowSize {
		start = w.next
	}
	for i := 0; i < w.count; i++ {
		out = append(out, w.samples[(start+i)%WindowSize])
	}
	return out
}

// Recorder keeps a bounded window of execution durations per hook.
type Recorder struct {
	mu      sync.Mutex
	windows map[string]*window
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{windows: make(map[string]*window)}
}

// Record appends a duration in milliseconds, evicting the oldest sample once
// the hook has WindowSize of them.
func (r *Recorder) Record(hookName string, durationMs float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[hookName]
	if !ok {
		w = &window{}
		r.windows[hookName] = w
	}
	w.add(durationMs)
}

// Samples returns the retained durations for hookName, oldest first.
func (r *Recorder) Samples(hookName string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[hookName]
	if !ok {
		return nil
	}
	return w.values()
}

// Summary returns stats for every hook with at least one sample.
func (r *Recorder) Summary() map[string]PerfStats {
	r.mu.Lock()
	snap := make(map[string][]float64, len(r.windows))
	for name, w := range r.windows {
		if w.count > 0 {
			snap[name] = w.values()
		}
	}
	r.mu.Unlock()

	out := make(map[string]PerfStats, len(snap))
	for name, vals := range snap {
		out[name] = summarize(vals)
	}
	return out
}

// Reset drops every window.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = make(map[string]*window)
}

func summarize(vals []float64) PerfStats {
	st := PerfStats{
		MinMs:      math.Inf(1),
		MaxMs:      math.Inf(-1),
		Executions: len(vals),
	}
	sum := 0.0
	hist := hdrhistogram.New(1, maxTrackableMicros, 3)
	for _, v := range vals {
		sum += v
		st.MinMs = math.Min(st.MinMs, v)
		st.MaxMs = math.Max(st.MaxMs, v)
		_ = hist.RecordValue(toMicros(v))
	}
	st.AvgMs = sum / float64(len(vals))
	st.P50Ms = st.clamp(fromMicros(hist.ValueAtQuantile(50)))
	st.P95Ms = st.clamp(fromMicros(hist.ValueAtQuantile(95)))
	st.P99Ms = st.clamp(fromMicros(hist.ValueAtQuantile(99)))
	return st
}

// clamp bounds a percentile to the observed range. Histogram quantiles report
// the top of their bucket, which can sit above the largest sample.
func (st PerfStats) clamp(v float64) float64 {
	return math.Min(math.Max(v, st.MinMs), st.MaxMs)
}

func toMicros(ms float64) int64 {
	us := int64(math.Round(ms * 1000))
	if us < 0 {
		return 0
	}
	if us > maxTrackableMicros {
		return maxTrackableMicros
	}
	return us
}

func fromMicros(us int64) float64 {
	return float64(us) / 1000
}
