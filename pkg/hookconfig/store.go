package hookconfig

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Store is the set of known hooks, keyed by name. Reads may run concurrently;
// writes are exclusive.
type Store struct {
	mu     sync.RWMutex
	hooks  map[string]HookMetadata
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	logger   *zap.Logger
	defaults bool
}

// WithLogger sets the logger used for skipped overrides and load failures.
func WithLogger(l *zap.Logger) Option {
	return func(o *storeOptions) { o.logger = l }
}

// WithoutDefaults starts the store empty instead of with DefaultHooks.
func WithoutDefaults() Option {
	return func(o *storeOptions) { o.defaults = false }
}

// NewStore creates a Store seeded with DefaultHooks.
func NewStore(opts ...Option) *Store {
	o := storeOptions{logger: zap.NewNop(), defaults: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	s := &Store{
		hooks:  make(map[string]HookMetadata),
		logger: o.logger,
	}
	if o.defaults {
		for _, m := range DefaultHooks() {
			s.hooks[m.Name] = m
		}
	}
	return s
}

// Register inserts or replaces the record for meta.Name.
func (s *Store) Register(meta HookMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[meta.Name] = meta.Clone()
}

// Get returns a copy of the record for name.
func (s *Store) Get(name string) (HookMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.hooks[name]
	if !ok {
		return HookMetadata{}, false
	}
	return m.Clone(), true
}

// Remove deletes the record for name, reporting whether it existed.
func (s *Store) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.hooks[name]
	delete(s.hooks, name)
	return ok
}

// AdjustPriority changes the priority of a registered hook. Executions already
// queued keep the priority they were enqueued with.
func (s *Store) AdjustPriority(name string, priority int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.hooks[name]
	if !ok {
		return false
	}
	m.Priority = priority
	s.hooks[name] = m
	return true
}

// Len returns the number of registered hooks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hooks)
}

// Snapshot returns copies of all records ordered by priority, then name.
func (s *Store) Snapshot() []HookMetadata {
	s.mu.RLock()
	out := make([]HookMetadata, 0, len(s.hooks))
	for _, m := range s.hooks {
		out = append(out, m.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Names returns registered hook names in Snapshot order.
func (s *Store) Names() []string {
	snap := s.Snapshot()
	names := make([]string, len(snap))
	for i, m := range snap {
		names[i] = m.Name
	}
	return names
}

// MergeReport describes the outcome of MergeOverrides.
type MergeReport struct {
	Updated []string
	Added   []string
	Skipped map[string]error
}

// MergeOverrides layers partial records over the store. Existing hooks get
// only the supplied fields; new hooks are built from the partial record, with
// LowestPriority when no priority was given. An invalid entry is skipped
// without affecting the others.
func (s *Store) MergeOverrides(overrides map[string]Override) MergeReport {
	report := MergeReport{Skipped: make(map[string]error)}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range keys {
		o := overrides[name]
		if err := o.checkName(name); err != nil {
			report.Skipped[name] = err
			s.logger.Warn("skipping hook override", zap.String("hook", name), zap.Error(err))
			continue
		}

		existing, ok := s.hooks[name]
		var merged HookMetadata
		if ok {
			merged = o.ApplyTo(existing)
		} else {
			var hasPriority bool
			merged, hasPriority = o.Build(name)
			if !hasPriority {
				s.logger.Warn("hook override has no priority, using lowest",
					zap.String("hook", name), zap.Int("priority", LowestPriority))
			}
		}

		if err := merged.Validate(); err != nil {
			report.Skipped[name] = err
			s.logger.Warn("skipping hook override", zap.String("hook", name), zap.Error(err))
			continue
		}

		s.hooks[name] = merged
		if ok {
			report.Updated = append(report.Updated, name)
		} else {
			report.Added = append(report.Added, name)
		}
	}
	return report
}

// View calls fn with the record for name while holding the read lock, so fn
// sees a record that cannot change underneath it. fn must not call back into
// the store's write methods.
func (s *Store) View(name string, fn func(meta HookMetadata, ok bool)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.hooks[name]
	fn(m, ok)
}
