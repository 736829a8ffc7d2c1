// Package hookconfig holds per-hook scheduling metadata: priority, concurrency
// policy, cache TTL and the timeout/retry hints handed through to dispatchers.
//
// A Store starts from the built-in defaults and can be layered with partial
// overrides read from a JSON or YAML file. Bad override data never takes the
// store down; the offending source or entry is skipped and logged.
package hookconfig

import (
	"fmt"
	"time"
)

// LowestPriority is the priority given to hooks with no metadata. Lower
// numbers are serviced first, so unknown hooks run last.
const LowestPriority = 99

// Defaults applied to newly constructed metadata.
const (
	DefaultTimeoutMs       = 30000
	DefaultRetryAttempts   = 3
	DefaultCacheTTLSeconds = 300
)

// HookMetadata is the scheduling configuration for one hook name.
type HookMetadata struct {
	Name               string   `json:"name" yaml:"name"`
	Priority           int      `json:"priority" yaml:"priority"`
	ConcurrentSafe     bool     `json:"concurrent_safe" yaml:"concurrent_safe"`
	ExclusiveResources []string `json:"exclusive_resources,omitempty" yaml:"exclusive_resources,omitempty"`
	MaxParallel        *int     `json:"max_parallel" yaml:"max_parallel"`
	TimeoutMs          int      `json:"timeout" yaml:"timeout"`
	RetryOnFailure     bool     `json:"retry_on_failure" yaml:"retry_on_failure"`
	RetryAttempts      int      `json:"retry_attempts" yaml:"retry_attempts"`
	CacheTTLSeconds    int      `json:"cache_ttl" yaml:"cache_ttl"`
}

// NewMetadata returns metadata for name with the stock defaults: concurrent
// safe, 30s timeout, three retries and a five minute cache window.
func NewMetadata(name string, priority int) HookMetadata {
	return HookMetadata{
		Name:            name,
		Priority:        priority,
		ConcurrentSafe:  true,
		TimeoutMs:       DefaultTimeoutMs,
		RetryOnFailure:  true,
		RetryAttempts:   DefaultRetryAttempts,
		CacheTTLSeconds: DefaultCacheTTLSeconds,
	}
}

// Timeout returns the timeout hint as a duration.
func (m HookMetadata) Timeout() time.Duration {
	return time.Duration(m.TimeoutMs) * time.Millisecond
}

// CacheTTL returns the cache window as a duration.
func (m HookMetadata) CacheTTL() time.Duration {
	return time.Duration(m.CacheTTLSeconds) * time.Second
}

// Attempts is the number of times a dispatcher may run the hook body for one
// execution: 1 when retries are off, 1+RetryAttempts otherwise.
func (m HookMetadata) Attempts() int {
	if !m.RetryOnFailure || m.RetryAttempts <= 0 {
		return 1
	}
	return 1 + m.RetryAttempts
}

// Clone returns a deep copy.
func (m HookMetadata) Clone() HookMetadata {
	out := m
	if m.ExclusiveResources != nil {
		out.ExclusiveResources = append([]string(nil), m.ExclusiveResources...)
	}
	if m.MaxParallel != nil {
		v := *m.MaxParallel
		out.MaxParallel = &v
	}
	return out
}

// Validate checks field ranges.
func (m HookMetadata) Validate() error {
	switch {
	case m.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidOverride)
	case m.MaxParallel != nil && *m.MaxParallel < 1:
		return fmt.Errorf("%w: %s: max_parallel must be >= 1, got %d", ErrInvalidOverride, m.Name, *m.MaxParallel)
	case m.TimeoutMs < 0:
		return fmt.Errorf("%w: %s: timeout must be >= 0, got %d", ErrInvalidOverride, m.Name, m.TimeoutMs)
	case m.RetryAttempts < 0:
		return fmt.Errorf("%w: %s: retry_attempts must be >= 0, got %d", ErrInvalidOverride, m.Name, m.RetryAttempts)
	case m.CacheTTLSeconds < 0:
		return fmt.Errorf("%w: %s: cache_ttl must be >= 0, got %d", ErrInvalidOverride, m.Name, m.CacheTTLSeconds)
	}
	return nil
}

// IntPtr is a convenience for building MaxParallel values.
func IntPtr(v int) *int { return &v }
