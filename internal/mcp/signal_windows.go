//go:build windows

package mcp

import "os"

// Windows has no SIGTERM; Ctrl+C arrives as os.Interrupt.
var shutdownSignals = []os.Signal{os.Interrupt}
