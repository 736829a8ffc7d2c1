package hookconfig

// DefaultHooks returns the built-in hook table. Each call returns fresh copies.
func DefaultHooks() []HookMetadata {
	securityScan := NewMetadata("security-scan", 1)
	securityScan.ConcurrentSafe = false
	securityScan.ExclusiveResources = []string{"security-report.json"}
	securityScan.TimeoutMs = 10000

	qualityCheck := NewMetadata("quality-check", 2)
	qualityCheck.MaxParallel = IntPtr(5)
	qualityCheck.TimeoutMs = 5000

	workflow := NewMetadata("workflow-automation", 3)
	workflow.MaxParallel = IntPtr(10)
	workflow.TimeoutMs = 30000

	contextMgmt := NewMetadata("context-management", 4)
	contextMgmt.TimeoutMs = 5000

	// pattern extraction calls out to a model and may take a while
	patterns := NewMetadata("pattern-extraction", 5)
	patterns.TimeoutMs = 60000

	session := NewMetadata("session-management", 2)
	session.ConcurrentSafe = false
	session.ExclusiveResources = []string{"session-state.json"}
	session.TimeoutMs = 10000

	mode := NewMetadata("mode-suggestion", 3)
	mode.TimeoutMs = 2000

	memory := NewMetadata("memory-context", 3)
	memory.TimeoutMs = 5000

	return []HookMetadata{
		securityScan,
		qualityCheck,
		workflow,
		contextMgmt,
		patterns,
		session,
		mode,
		memory,
	}
}
