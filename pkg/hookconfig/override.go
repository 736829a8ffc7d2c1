package hookconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/duke-git/lancet/v2/slice"
)

// OptionalInt is a field that distinguishes "absent" from an explicit null.
// Set is true whenever the key appeared in the source; Value is nil for null.
type OptionalInt struct {
	Set   bool
	Value *int
}

// SetInt returns an OptionalInt holding v.
func SetInt(v int) OptionalInt { return OptionalInt{Set: true, Value: &v} }

// SetNull returns an OptionalInt that clears the field.
func SetNull() OptionalInt { return OptionalInt{Set: true} }

// IsZero reports whether the field was absent.
func (o OptionalInt) IsZero() bool { return !o.Set }

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(*o.Value)), nil
}

// Override is a partial HookMetadata. Nil fields are left untouched when
// applied to an existing record.
type Override struct {
	Name               *string     `json:"name,omitempty"`
	Priority           *int        `json:"priority,omitempty"`
	ConcurrentSafe     *bool       `json:"concurrent_safe,omitempty"`
	ExclusiveResources []string    `json:"exclusive_resources,omitempty"`
	MaxParallel        OptionalInt `json:"max_parallel,omitzero"`
	TimeoutMs          *int        `json:"timeout,omitempty"`
	RetryOnFailure     *bool       `json:"retry_on_failure,omitempty"`
	RetryAttempts      *int        `json:"retry_attempts,omitempty"`
	CacheTTLSeconds    *int        `json:"cache_ttl,omitempty"`
}

// DecodeOverride strictly decodes one override object. Unknown or mistyped
// keys are rejected.
func DecodeOverride(raw []byte) (Override, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var o Override
	if err := dec.Decode(&o); err != nil {
		return Override{}, fmt.Errorf("%w: %v", ErrInvalidOverride, err)
	}
	return o, nil
}

// ApplyTo returns base with every supplied field of o copied over it.
func (o Override) ApplyTo(base HookMetadata) HookMetadata {
	out := base.Clone()
	if o.Priority != nil {
		out.Priority = *o.Priority
	}
	if o.ConcurrentSafe != nil {
		out.ConcurrentSafe = *o.ConcurrentSafe
	}
	if o.ExclusiveResources != nil {
		out.ExclusiveResources = slice.Unique(append([]string(nil), o.ExclusiveResources...))
	}
	if o.MaxParallel.Set {
		if o.MaxParallel.Value == nil {
			out.MaxParallel = nil
		} else {
			out.MaxParallel = IntPtr(*o.MaxParallel.Value)
		}
	}
	if o.TimeoutMs != nil {
		out.TimeoutMs = *o.TimeoutMs
	}
	if o.RetryOnFailure != nil {
		out.RetryOnFailure = *o.RetryOnFailure
	}
	if o.RetryAttempts != nil {
		out.RetryAttempts = *o.RetryAttempts
	}
	if o.CacheTTLSeconds != nil {
		out.CacheTTLSeconds = *o.CacheTTLSeconds
	}
	return out
}

// Build constructs a new record for name from o. The second return is false
// when o carried no priority and LowestPriority was used instead.
func (o Override) Build(name string) (HookMetadata, bool) {
	priority, hasPriority := LowestPriority, o.Priority != nil
	if hasPriority {
		priority = *o.Priority
	}
	return o.ApplyTo(NewMetadata(name, priority)), hasPriority
}

// checkName rejects an override whose explicit name disagrees with its key.
func (o Override) checkName(key string) error {
	if o.Name != nil && *o.Name != key {
		return fmt.Errorf("%w: name %q does not match key %q", ErrInvalidOverride, *o.Name, key)
	}
	return nil
}

// FromMetadata returns an Override that sets every field of m.
func FromMetadata(m HookMetadata) Override {
	name, priority, safe := m.Name, m.Priority, m.ConcurrentSafe
	timeout, retry, attempts, ttl := m.TimeoutMs, m.RetryOnFailure, m.RetryAttempts, m.CacheTTLSeconds
	o := Override{
		Name:               &name,
		Priority:           &priority,
		ConcurrentSafe:     &safe,
		ExclusiveResources: append([]string{}, m.ExclusiveResources...),
		MaxParallel:        SetNull(),
		TimeoutMs:          &timeout,
		RetryOnFailure:     &retry,
		RetryAttempts:      &attempts,
		CacheTTLSeconds:    &ttl,
	}
	if m.MaxParallel != nil {
		o.MaxParallel = SetInt(*m.MaxParallel)
	}
	return o
}
