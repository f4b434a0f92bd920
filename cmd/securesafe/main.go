// Package main provides the securesafe CLI.
package main

import (
	"fmt"
	"os"
)

func main() {
	root := newRootCmd(newApp())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
}
