package hookconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// OverrideFileName is the file name looked up under ~/.claude/logic/shared.
const OverrideFileName = "hook-priority-config.json"

// DefaultOverridePath returns ~/.claude/logic/shared/hook-priority-config.json,
// or "" when the home directory cannot be resolved.
func DefaultOverridePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "logic", "shared", OverrideFileName)
}

// Format is the encoding of an override file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks the format from the file extension; anything that is
// not .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseOverrides decodes an override document: a mapping from hook name to a
// partial record. The error return is non-nil only when the document as a
// whole cannot be read; entries that fail strict decoding are returned in the
// second map and the rest are still usable.
func ParseOverrides(data []byte, format Format) (map[string]Override, map[string]error, error) {
	raw, err := parseDocument(data, format)
	if err != nil {
		return nil, nil, err
	}
	overrides := make(map[string]Override, len(raw))
	invalid := make(map[string]error)
	for name, entry := range raw {
		o, err := DecodeOverride(entry)
		if err != nil {
			invalid[name] = err
			continue
		}
		overrides[name] = o
	}
	return overrides, invalid, nil
}

// parseDocument returns each top-level entry as JSON, whatever the source
// format, so both formats share one strict decoder.
func parseDocument(data []byte, format Format) (map[string]json.RawMessage, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	if format == FormatJSON {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigMalformed, err)
		}
		if doc == nil {
			doc = map[string]json.RawMessage{}
		}
		return doc, nil
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigMalformed, err)
	}
	out := make(map[string]json.RawMessage, len(doc))
	for name, v := range doc {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", ErrConfigMalformed, name, err)
		}
		out[name] = b
	}
	return out, nil
}

// LoadOverrides reads and parses the override file at path under a shared
// file lock. A missing file yields no overrides and no error.
func LoadOverrides(path string) (map[string]Override, map[string]error, error) {
	data, err := readLocked(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Override{}, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: read %s: %v", ErrConfigMalformed, path, err)
	}
	return ParseOverrides(data, FormatForPath(path))
}

// LoadFile merges the override file at path into the store. On a malformed
// source the store is left as it was, the problem is logged, and the error is
// returned for callers that want to surface it.
func (s *Store) LoadFile(path string) (MergeReport, error) {
	if path == "" {
		return MergeReport{Skipped: map[string]error{}}, nil
	}
	overrides, invalid, err := LoadOverrides(path)
	if err != nil {
		s.logger.Warn("ignoring hook override file", zap.String("path", path), zap.Error(err))
		return MergeReport{Skipped: map[string]error{}}, err
	}

	report := s.MergeOverrides(overrides)
	for name, e := range invalid {
		report.Skipped[name] = e
		s.logger.Warn("skipping hook override", zap.String("hook", name), zap.Error(e))
	}
	s.logger.Debug("hook overrides loaded",
		zap.String("path", path),
		zap.Strings("updated", report.Updated),
		zap.Strings("added", report.Added),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// WriteOverride sets fields for one hook in the override file at path,
// keeping every other entry intact. Fields already present for that hook and
// not set in o are preserved. The read-modify-write runs under an exclusive
// file lock.
func WriteOverride(path, name string, o Override) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	lock := lockFor(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()

	format := FormatForPath(path)
	doc := map[string]json.RawMessage{}
	if data, err := os.ReadFile(path); err == nil {
		if doc, err = parseDocument(data, format); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	merged := o
	if prev, ok := doc[name]; ok {
		if existing, err := DecodeOverride(prev); err == nil {
			merged = existing.Merge(o)
		}
	}
	entry, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshal override %s: %w", name, err)
	}
	doc[name] = entry

	out, err := encodeDocument(doc, format)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// Merge returns o with every field supplied by next replacing its own.
func (o Override) Merge(next Override) Override {
	out := o
	if next.Name != nil {
		out.Name = next.Name
	}
	if next.Priority != nil {
		out.Priority = next.Priority
	}
	if next.ConcurrentSafe != nil {
		out.ConcurrentSafe = next.ConcurrentSafe
	}
	if next.ExclusiveResources != nil {
		out.ExclusiveResources = next.ExclusiveResources
	}
	if next.MaxParallel.Set {
		out.MaxParallel = next.MaxParallel
	}
	if next.TimeoutMs != nil {
		out.TimeoutMs = next.TimeoutMs
	}
	if next.RetryOnFailure != nil {
		out.RetryOnFailure = next.RetryOnFailure
	}
	if next.RetryAttempts != nil {
		out.RetryAttempts = next.RetryAttempts
	}
	if next.CacheTTLSeconds != nil {
		out.CacheTTLSeconds = next.CacheTTLSeconds
	}
	return out
}

func encodeDocument(doc map[string]json.RawMessage, format Format) ([]byte, error) {
	if format == FormatJSON {
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal overrides: %w", err)
		}
		return append(out, '\n'), nil
	}

	generic := make(map[string]any, len(doc))
	for name, entry := range doc {
		var v any
		if err := json.Unmarshal(entry, &v); err != nil {
			return nil, fmt.Errorf("convert override %s: %w", name, err)
		}
		generic[name] = v
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("marshal overrides: %w", err)
	}
	return out, nil
}

func lockFor(path string) *flock.Flock {
	return flock.New(path + ".lock")
}

// readLocked reads path under a shared lock. When the lock file cannot be
// created (read-only config dir) the file is read without it.
func readLocked(path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	lock := lockFor(path)
	if err := lock.RLock(); err == nil {
		defer lock.Unlock()
	}
	return os.ReadFile(path)
}
