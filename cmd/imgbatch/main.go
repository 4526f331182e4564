// Package main implements the imgbatch command line tool, which saves and
// transforms batches of images in the background and asks on the terminal
// what to do when an image fails.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultStreams()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
