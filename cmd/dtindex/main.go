// Package main is the dtindex command line: the dashboard analyses printed to
// the terminal or written to export files.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
