package debug

import (
	"os"
	"strings"
)

// IsDebuggerAttached returns true if the program is running under a debugger
func IsDebuggerAttached() bool {
	if os.Getenv("VSCODE_DEBUG_MODE") != "" {
		return true
	}
	if os.Getenv("DELVE_DEBUGGER") != "" {
		return true
	}
	// binaries built by dlv/VS Code
	return strings.Contains(os.Args[0], "__debug_bin")
}
