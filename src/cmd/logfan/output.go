// FILE: src/cmd/logfan/output.go
package main

import (
	"fmt"
	"os"
)

// Pre-logger output channel respecting quiet mode
var quietMode bool

func initOutput(quiet bool) {
	quietMode = quiet
}

func printError(format string, args ...any) {
	if !quietMode {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func fatalError(code int, format string, args ...any) {
	printError(format, args...)
	os.Exit(code)
}
