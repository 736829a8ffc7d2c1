package priority

import (
	"encoding/json"

	"github.com/duke-git/lancet/v2/cryptor"
	"github.com/jg-phare/hookprio/pkg/types"
)

const (
	// messagePrefixRunes is how much of the user message feeds the fingerprint.
	messagePrefixRunes = 100
	fingerprintLen     = 16
)

// fingerprintKey fields are declared in key order so the encoding is canonical.
type fingerprintKey struct {
	FilePath    string `json:"file_path"`
	ToolName    string `json:"toolName"`
	UserMessage string `json:"userMessage"`
}

// Fingerprint reduces a context to the fields that make two hook requests
// equivalent: tool name, file path and the first 100 characters of the user
// message. Any other key is ignored.
func Fingerprint(ctx types.Context) string {
	msg := []rune(ctx.UserMessage())
	if len(msg) > messagePrefixRunes {
		msg = msg[:messagePrefixRunes]
	}
	key := fingerprintKey{
		FilePath:    ctx.FilePath(),
		ToolName:    ctx.ToolName(),
		UserMessage: string(msg),
	}
	b, err := json.Marshal(key)
	if err != nil {
		// strings always encode
		panic(err)
	}
	return cryptor.Md5String(string(b))[:fingerprintLen]
}

// Deduplicate drops repeated hook names for a single context, keeping the
// first occurrence of each.
func Deduplicate(names []string, ctx types.Context) []string {
	fp := Fingerprint(ctx)
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		k := name + ":" + fp
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Request pairs a hook with the context it would run against.
type Request struct {
	HookName string
	Context  types.Context
}

// DeduplicateRequests drops requests whose hook name and context fingerprint
// match an earlier request, preserving the order of first occurrences.
func DeduplicateRequests(reqs []Request) []Request {
	seen := make(map[string]struct{}, len(reqs))
	out := make([]Request, 0, len(reqs))
	for _, r := range reqs {
		k := r.HookName + ":" + Fingerprint(r.Context)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
