// Package main is the vswrite-agent command line interface: it runs
// agent sessions against a workspace, manages extensions, inspects
// past sessions and checks the environment.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
