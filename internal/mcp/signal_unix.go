//go:build !windows

package mcp

import (
	"os"
	"syscall"
)

// shutdownSignals stop a running server: Ctrl+C and the usual SIGTERM from
// process managers.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
