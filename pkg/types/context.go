package types

// Context is the opaque request payload handed to hooks (tool name, tool input,
// user message and anything else the host adds). The coordinator only reads the
// narrow set of fields exposed by the accessors below.
type Context map[string]any

// Well-known context keys.
const (
	KeyToolName    = "toolName"
	KeyToolInput   = "toolInput"
	KeyUserMessage = "userMessage"
	KeyFilePath    = "file_path"
	KeyAgentID     = "agent_id"
	KeyEventType   = "event_type"

	// snake_case spellings used by hook inputs on the wire
	keyToolNameWire  = "tool_name"
	keyToolInputWire = "tool_input"
	keyPromptWire    = "prompt"
)

// ToolName returns the tool that triggered the event, or "".
func (c Context) ToolName() string {
	if s, ok := c[KeyToolName].(string); ok {
		return s
	}
	if s, ok := c[keyToolNameWire].(string); ok {
		return s
	}
	return ""
}

// ToolInput returns the tool input object, or nil when absent or not an object.
func (c Context) ToolInput() map[string]any {
	for _, key := range []string{KeyToolInput, keyToolInputWire} {
		switch v := c[key].(type) {
		case map[string]any:
			return v
		case Context:
			return v
		}
	}
	return nil
}

// FilePath returns toolInput.file_path, or "".
func (c Context) FilePath() string {
	if s, ok := c.ToolInput()[KeyFilePath].(string); ok {
		return s
	}
	return ""
}

// UserMessage returns the submitted user message, or "".
func (c Context) UserMessage() string {
	if s, ok := c[KeyUserMessage].(string); ok {
		return s
	}
	if s, ok := c[keyPromptWire].(string); ok {
		return s
	}
	return ""
}

// Clone returns a shallow copy so callers can annotate it without
// mutating the caller's map.
func (c Context) Clone() Context {
	out := make(Context, len(c)+2)
	for k, v := range c {
		out[k] = v
	}
	return out
}
