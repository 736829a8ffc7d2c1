// Command hookctl inspects and drives the hook priority coordinator.
//
// Usage:
//
//	# Print the merged hook table
//	hookctl config
//
//	# Dispatch PreToolUse hooks from ~/.claude/settings.json
//	echo '{"toolName":"Edit","toolInput":{"file_path":"main.go"}}' | hookctl fire --event PreToolUse
//
//	# Serve the status API with live config reload
//	hookctl serve --addr 127.0.0.1:7411
package main

func main() {
	Execute()
}
