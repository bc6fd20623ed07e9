// Package debug provides global debug logging flags
package debug

import "fmt"

// Enabled controls whether debug logging is active
var Enabled bool

// Pipeline controls whether verbose enhancement-pipeline logs are shown
// (per-stage timings, intermediate matrix sizes). Use --debug-pipeline to
// enable these very verbose logs
var Pipeline bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// Logln prints a message with newline only if debug mode is enabled
func Logln(msg string) {
	if Enabled {
		fmt.Println(msg)
	}
}

// PipeLog prints a message only if pipeline debug mode is enabled
func PipeLog(format string, args ...interface{}) {
	if Pipeline {
		fmt.Printf(format, args...)
	}
}
