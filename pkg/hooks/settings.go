package hooks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jg-phare/hookprio/pkg/types"
)

// settingsFile is the subset of a Claude settings.json that declares hooks.
type settingsFile struct {
	Hooks map[string][]settingsMatcher `json:"hooks"`
}

type settingsMatcher struct {
	Matcher string         `json:"matcher,omitempty"`
	Hooks   []settingsHook `json:"hooks"`
}

type settingsHook struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"` // seconds
}

// LoadSettings reads hook definitions from a settings file. A missing file
// yields no definitions and no error.
func LoadSettings(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defs, err := ParseSettings(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// ParseSettings converts the "hooks" section of settings JSON into
// definitions. Each command hook becomes a definition named after its script
// (see HookName); a script listed under several events or matchers becomes
// one definition with several triggers. A hook's "timeout" (seconds) becomes
// the definition's Timeout; the first one given for a name wins. Unknown
// event names are ignored.
func ParseSettings(data []byte) ([]Definition, error) {
	var sf settingsFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	events := make([]string, 0, len(sf.Hooks))
	for ev := range sf.Hooks {
		events = append(events, ev)
	}
	sort.Strings(events)

	var defs []Definition
	index := make(map[string]int)
	for _, ev := range events {
		event := types.HookEvent(ev)
		if !event.Valid() {
			continue
		}
		for _, m := range sf.Hooks[ev] {
			for _, h := range m.Hooks {
				if h.Type != "command" || strings.TrimSpace(h.Command) == "" {
					continue
				}
				name := HookName(h.Command)
				trigger := Trigger{Event: event, Matcher: m.Matcher}
				timeout := time.Duration(h.Timeout) * time.Second
				if i, ok := index[name]; ok {
					defs[i].Triggers = append(defs[i].Triggers, trigger)
					if defs[i].Timeout == 0 {
						defs[i].Timeout = timeout
					}
					continue
				}
				index[name] = len(defs)
				defs = append(defs, Definition{
					Name:     name,
					Triggers: []Trigger{trigger},
					Command:  h.Command,
					Timeout:  timeout,
				})
			}
		}
	}
	return defs, nil
}

// HookName derives a hook name from a command line: the file stem of the
// last argument that looks like a script path, so
// "python3 ~/.claude/hooks/quality-check.py --fast" is "quality-check".
// Commands with no such argument are named after their first word.
func HookName(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	for i := len(fields) - 1; i >= 0; i-- {
		f := strings.Trim(fields[i], `"'`)
		if strings.HasPrefix(f, "-") {
			continue
		}
		if strings.Contains(f, "/") || filepath.Ext(f) != "" {
			base := filepath.Base(f)
			return strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	return filepath.Base(strings.Trim(fields[0], `"'`))
}
