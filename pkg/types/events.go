package types

// HookEvent enumerates all hook event names.
type HookEvent string

const (
	HookEventPreToolUse         HookEvent = "PreToolUse"
	HookEventPostToolUse        HookEvent = "PostToolUse"
	HookEventPostToolUseFailure HookEvent = "PostToolUseFailure"
	HookEventNotification       HookEvent = "Notification"
	HookEventUserPromptSubmit   HookEvent = "UserPromptSubmit"
	HookEventSessionStart       HookEvent = "SessionStart"
	HookEventSessionEnd         HookEvent = "SessionEnd"
	HookEventStop               HookEvent = "Stop"
	HookEventSubagentStart      HookEvent = "SubagentStart"
	HookEventSubagentStop       HookEvent = "SubagentStop"
	HookEventPreCompact         HookEvent = "PreCompact"
)

var knownEvents = map[HookEvent]struct{}{
	HookEventPreToolUse:         {},
	HookEventPostToolUse:        {},
	HookEventPostToolUseFailure: {},
	HookEventNotification:       {},
	HookEventUserPromptSubmit:   {},
	HookEventSessionStart:       {},
	HookEventSessionEnd:         {},
	HookEventStop:               {},
	HookEventSubagentStart:      {},
	HookEventSubagentStop:       {},
	HookEventPreCompact:         {},
}

// Valid reports whether e is one of the known hook events.
func (e HookEvent) Valid() bool {
	_, ok := knownEvents[e]
	return ok
}
